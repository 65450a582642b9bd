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
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/velorapay/velora/database"
	redlock "github.com/velorapay/velora/internal/lock"
	"github.com/velorapay/velora/model"
	"github.com/velorapay/velora/rail"
)

const payoutMonitorLockTTL = 30 * time.Second

// ProcessPayoutMonitor is the worker handler that polls a payout until it
// reaches a terminal provider state. Pending payouts re-enqueue themselves;
// terminal ones close out the transfer. A distributed lock keeps one poll
// in flight per transfer even with duplicate task delivery.
func (v *Velora) ProcessPayoutMonitor(ctx context.Context, task *asynq.Task) error {
	var payload PayoutMonitorPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logrus.Errorf("payout monitor received malformed payload: %v", err)
		return nil
	}

	locker := redlock.ForTransfer(v.redis, payload.TransferID, model.GenerateUUIDWithSuffix("mon"))
	if err := locker.Lock(ctx, payoutMonitorLockTTL); err != nil {
		// another worker holds this transfer; let asynq retry later
		return err
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error(err)
		}
	}()

	return v.checkPayout(ctx, payload)
}

func (v *Velora) checkPayout(ctx context.Context, payload PayoutMonitorPayload) error {
	transfer, err := v.fetchTransfer(ctx, payload.TransferID)
	if err != nil {
		logrus.Errorf("payout monitor could not load transfer %s: %v", payload.TransferID, err)
		return nil
	}
	if transfer.Status != model.StatusPayingOut {
		// reconciliation already closed this transfer out
		return nil
	}

	adapter, err := v.adapters.Get(transfer.Rail)
	if err != nil {
		return err
	}

	status, err := adapter.GetStatus(ctx, rail.EntityPayout, payload.PayoutID)
	if err != nil {
		logrus.Errorf("payout status check failed for %s: %v", payload.PayoutID, err)
		return v.enqueuePayoutMonitor(payload, payoutMonitorDelay)
	}

	switch status {
	case model.ExternalStatusConfirmed:
		if err := v.advanceStatus(ctx, transfer, model.StatusCompleted,
			database.CorrelationDetails{Completed: true},
			"payout_completed", model.OutcomeSuccess,
			fmt.Sprintf("payout %s delivered %v %s", payload.PayoutID,
				transfer.ReceiveAmount, transfer.ReceiveCurrency)); err != nil {
			return err
		}
		v.notifyParticipants(ctx, transfer, "transfer.completed")
		return nil
	case model.ExternalStatusFailed:
		v.appendEvent(ctx, transfer, "payout_failed", model.OutcomeFailed,
			fmt.Sprintf("payout %s reported failed by provider", payload.PayoutID))
		applied, err := v.datasource.UpdateTransferStatus(ctx, transfer.TransferID,
			transfer.Status, model.StatusFailed, database.CorrelationDetails{})
		if err != nil {
			return err
		}
		if applied {
			transfer.Status = model.StatusFailed
			v.trackTransfer(transfer)
			v.notifyParticipants(ctx, transfer, "transfer.failed")
			failed := transfer.Snapshot()
			go func() {
				if err := SendWebhook(NewWebhook{Event: getEventFromStatus(model.StatusFailed), Payload: failed}); err != nil {
					logrus.Error(err)
				}
			}()
		}
		return nil
	default:
		return v.enqueuePayoutMonitor(payload, payoutMonitorDelay)
	}
}
