/*
Copyright 2025 Velora Payments Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package velora

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/model"
)

// statusForEvent maps a provider event category and status to the domain
// status the transfer should hold afterwards. defaultStatus covers every
// provider status the table does not name, so unknown provider vocabulary
// degrades to the category's in-progress state instead of erroring.
var reconcileTables = map[string]struct {
	byStatus      map[string]string
	defaultStatus string
}{
	model.EventCategoryPayments: {
		byStatus: map[string]string{
			"confirmed": model.StatusPaymentConfirmed,
			"completed": model.StatusPaymentConfirmed,
			"failed":    model.StatusFailed,
			"canceled":  model.StatusFailed,
		},
		defaultStatus: model.StatusPaymentProcessing,
	},
	model.EventCategoryTransfers: {
		byStatus: map[string]string{
			"complete":  model.StatusTransferring,
			"completed": model.StatusTransferring,
			"failed":    model.StatusFailed,
		},
		defaultStatus: model.StatusTransferring,
	},
	model.EventCategoryPayouts: {
		byStatus: map[string]string{
			"complete":  model.StatusCompleted,
			"completed": model.StatusCompleted,
			"failed":    model.StatusFailed,
		},
		defaultStatus: model.StatusPayingOut,
	},
}

// ProcessEvent reconciles one provider webhook event against the transfer
// it correlates to. It never throws for business outcomes: lookup misses,
// unhandled categories and stale events all come back inside the result so
// the inbound endpoint can acknowledge delivery.
func (v *Velora) ProcessEvent(ctx context.Context, event model.WebhookEvent) model.ReconcileResult {
	ctx, span := otel.Tracer("velora.reconciler").Start(ctx, "Process Provider Event")
	defer span.End()

	table, ok := reconcileTables[event.Category]
	if !ok {
		return model.ReconcileResult{
			Success: false,
			Error:   fmt.Sprintf("Unhandled event type: %s", event.Category),
		}
	}

	transfer, err := v.datasource.GetTransferByExternalID(ctx, event.Category, event.Data.ExternalID)
	if err != nil {
		return model.ReconcileResult{Success: false, Error: err.Error()}
	}
	if transfer == nil {
		return model.ReconcileResult{
			Success: false,
			Error:   fmt.Sprintf("Transaction not found for %s id %s", event.Category, event.Data.ExternalID),
		}
	}

	newStatus, ok := table.byStatus[event.Data.Status]
	if !ok {
		newStatus = table.defaultStatus
	}

	if transfer.Status == newStatus || !model.CanTransition(transfer.Status, newStatus) {
		// replayed or out-of-order delivery; the transfer is already at or
		// past this point
		logrus.Infof("event %s for %s leaves status at %s", event.EventID, transfer.TransferID, transfer.Status)
		return model.ReconcileResult{
			Success:    true,
			TransferID: transfer.TransferID,
			OldStatus:  transfer.Status,
			NewStatus:  transfer.Status,
		}
	}

	oldStatus := transfer.Status
	details := database.CorrelationDetails{Completed: newStatus == model.StatusCompleted}
	if err := v.advanceStatus(ctx, transfer, newStatus, details,
		"provider_event", outcomeForStatus(newStatus),
		fmt.Sprintf("%s %s reported %s by provider", event.Category, event.Data.ExternalID, event.Data.Status)); err != nil {
		return model.ReconcileResult{
			Success:    false,
			TransferID: transfer.TransferID,
			OldStatus:  oldStatus,
			Error:      err.Error(),
		}
	}

	sent := 0
	switch newStatus {
	case model.StatusCompleted:
		sent = v.notifyParticipants(ctx, transfer, "transfer.completed")
	case model.StatusFailed:
		sent = v.notifyParticipants(ctx, transfer, "transfer.failed")
	case model.StatusPaymentConfirmed:
		sent = v.notifyParticipants(ctx, transfer, "transfer.payment_confirmed")
	}

	return model.ReconcileResult{
		Success:           true,
		TransferID:        transfer.TransferID,
		OldStatus:         oldStatus,
		NewStatus:         newStatus,
		NotificationsSent: sent,
	}
}

func outcomeForStatus(status string) string {
	switch status {
	case model.StatusCompleted:
		return model.OutcomeSuccess
	case model.StatusFailed:
		return model.OutcomeFailed
	default:
		return model.OutcomePending
	}
}
