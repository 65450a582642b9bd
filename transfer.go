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
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/internal/notification"
	"github.com/velorapay/velora/model"
	"github.com/velorapay/velora/rail"
)

const (
	// MinimumSendAmount is the smallest transfer the platform accepts, in
	// send-currency units.
	MinimumSendAmount = 0.01

	paymentConfirmationWait = 2 * time.Minute
	payoutMonitorDelay      = 5 * time.Second

	// duplicateSubmissionWindow is how long a submission hash blocks an
	// identical request from opening a second transfer.
	duplicateSubmissionWindow = 2 * time.Minute
)

// CreateTransferRequest carries everything needed to open a transfer. Rail
// is optional; when empty the recommendation engine picks one.
type CreateTransferRequest struct {
	UserID          string                 `json:"user_id"`
	QuoteID         string                 `json:"quote_id,omitempty"`
	SendAmount      float64                `json:"send_amount"`
	SendCurrency    string                 `json:"send_currency"`
	ReceiveCurrency string                 `json:"receive_currency"`
	Rail            model.Rail             `json:"rail,omitempty"`
	Card            model.CardDetails      `json:"card"`
	Recipient       model.Recipient        `json:"recipient"`
	MetaData        map[string]interface{} `json:"meta_data,omitempty"`
}

// CreateTransfer opens a transfer and drives it through payment, custody
// and payout initiation. Payout completion is observed asynchronously; the
// returned transfer is in PAYING_OUT when every synchronous step succeeded.
// Any step failure leaves the transfer FAILED with a timeline entry naming
// the step, then propagates the causing error.
func (v *Velora) CreateTransfer(ctx context.Context, req *CreateTransferRequest) (*model.Transfer, error) {
	ctx, span := otel.Tracer("velora.transfer").Start(ctx, "Create Transfer")
	defer span.End()

	if req.SendAmount < MinimumSendAmount {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("sendAmount must be at least %v", MinimumSendAmount),
			fmt.Sprintf("transfer requested with sendAmount %v", req.SendAmount))
	}
	if req.SendCurrency == "" || req.ReceiveCurrency == "" {
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			"sendCurrency and receiveCurrency are required",
			fmt.Sprintf("transfer requested with currencies %q/%q", req.SendCurrency, req.ReceiveCurrency))
	}

	rate, err := v.resolveRate(ctx, req)
	if err != nil {
		return nil, err
	}

	chosenRail, estimate, err := v.resolveRail(ctx, req)
	if err != nil {
		return nil, err
	}
	adapter, err := v.adapters.Get(chosenRail)
	if err != nil {
		return nil, err
	}

	receiveAmount := decimal.NewFromFloat(req.SendAmount).
		Mul(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()

	now := time.Now()
	transfer := &model.Transfer{
		TransferID:          model.GenerateUUIDWithSuffix("trf"),
		UserID:              req.UserID,
		SendAmount:          req.SendAmount,
		SendCurrency:        req.SendCurrency,
		ReceiveAmount:       receiveAmount,
		ReceiveCurrency:     req.ReceiveCurrency,
		ExchangeRate:        rate,
		Fees:                estimate.Fees,
		Rail:                chosenRail,
		Status:              model.StatusInitiated,
		Recipient:           req.Recipient,
		CreatedAt:           now,
		UpdatedAt:           now,
		EstimatedCompletion: now.Add(estimate.EstimatedCompletion),
		MetaData:            req.MetaData,
	}
	transfer.Timeline = []model.TimelineEvent{
		model.NewTimelineEvent(transfer.TransferID, "transfer_created", model.OutcomeSuccess,
			fmt.Sprintf("transfer of %v %s to %s created on %s rail",
				req.SendAmount, req.SendCurrency, req.Recipient.Name, chosenRail)),
	}

	if err := v.claimSubmission(ctx, transfer); err != nil {
		return nil, err
	}

	if _, err := v.datasource.CreateTransfer(ctx, transfer); err != nil {
		return nil, err
	}
	v.trackTransfer(transfer)
	created := transfer.Snapshot()
	go func() {
		if err := SendWebhook(NewWebhook{Event: getEventFromStatus(created.Status), Payload: created}); err != nil {
			logrus.Error(err)
		}
	}()

	if err := v.runPaymentPhase(ctx, transfer, adapter, req.Card); err != nil {
		return nil, err
	}
	if err := v.SettleConfirmedPayment(ctx, transfer.TransferID); err != nil {
		return nil, err
	}
	return transfer, nil
}

func (v *Velora) resolveRate(ctx context.Context, req *CreateTransferRequest) (float64, error) {
	if req.QuoteID != "" {
		quote, err := v.quoter.GetQuote(ctx, req.QuoteID)
		if err != nil {
			return 0, err
		}
		if quote == nil {
			return 0, apierror.NewAPIError(apierror.ErrRateExpired,
				"quote has expired or does not exist, request a new quote",
				fmt.Sprintf("transfer requested against quote %s", req.QuoteID))
		}
		if quote.SourceCurrency != req.SendCurrency || quote.DestCurrency != req.ReceiveCurrency {
			return 0, apierror.NewAPIError(apierror.ErrValidation,
				"quote currency pair does not match the transfer",
				fmt.Sprintf("quote %s is %s/%s, transfer is %s/%s", req.QuoteID,
					quote.SourceCurrency, quote.DestCurrency, req.SendCurrency, req.ReceiveCurrency))
		}
		return quote.Rate, nil
	}
	return v.quoter.GetRate(ctx, req.SendCurrency, req.ReceiveCurrency)
}

func (v *Velora) resolveRail(ctx context.Context, req *CreateTransferRequest) (model.Rail, *model.RailCostEstimate, error) {
	if req.Rail != "" {
		adapter, err := v.adapters.Get(req.Rail)
		if err != nil {
			return "", nil, err
		}
		estimate, err := adapter.EstimateCost(ctx, req.SendAmount, req.SendCurrency, req.ReceiveCurrency)
		if err != nil {
			return "", nil, err
		}
		return req.Rail, estimate, nil
	}

	recommendation, err := v.CompareRails(ctx, req.SendAmount, req.SendCurrency, req.ReceiveCurrency, "")
	if err != nil {
		return "", nil, err
	}
	for i := range recommendation.Options {
		if recommendation.Options[i].Rail == recommendation.RecommendedMethod {
			return recommendation.RecommendedMethod, &recommendation.Options[i], nil
		}
	}
	return "", nil, apierror.NewAPIError(apierror.ErrInternalServer,
		"no rail available for this transfer", "recommendation returned no usable option")
}

// runPaymentPhase charges the card and waits for the provider to confirm.
func (v *Velora) runPaymentPhase(ctx context.Context, transfer *model.Transfer, adapter rail.Adapter, card model.CardDetails) error {
	v.appendEvent(ctx, transfer, "payment_created", model.OutcomePending, "card payment submitted")

	payment, err := adapter.CreatePayment(ctx, transfer.SendAmount, transfer.SendCurrency, card)
	if err != nil {
		return v.failTransfer(ctx, transfer, "payment", err)
	}

	if err := v.advanceStatus(ctx, transfer, model.StatusPaymentProcessing,
		database.CorrelationDetails{PaymentID: payment.PaymentID},
		"payment_processing", model.OutcomePending,
		fmt.Sprintf("payment %s processing", payment.PaymentID)); err != nil {
		return v.failTransfer(ctx, transfer, "payment", err)
	}

	confirmed, err := adapter.WaitForConfirmation(ctx, payment.PaymentID, paymentConfirmationWait)
	if err != nil {
		return v.failTransfer(ctx, transfer, "payment_confirmation", err)
	}
	if confirmed.Status == model.ExternalStatusFailed {
		return v.failTransfer(ctx, transfer, "payment_confirmation",
			apierror.NewAPIError(apierror.ErrFinalProvider,
				"The payment could not be completed.",
				fmt.Sprintf("payment %s reported failed by provider", payment.PaymentID)))
	}

	return v.advanceStatus(ctx, transfer, model.StatusPaymentConfirmed,
		database.CorrelationDetails{},
		"payment_confirmed", model.OutcomeSuccess,
		fmt.Sprintf("payment %s confirmed", payment.PaymentID))
}

// SettleConfirmedPayment provisions custody, moves funds and fires the
// payout for a transfer whose payment has been confirmed. Re-invocations
// (retried requests, replayed webhooks) are no-ops once funds have begun
// moving, which is what prevents a double spend.
func (v *Velora) SettleConfirmedPayment(ctx context.Context, transferID string) error {
	ctx, span := otel.Tracer("velora.transfer").Start(ctx, "Settle Confirmed Payment")
	defer span.End()

	transfer, err := v.fetchTransfer(ctx, transferID)
	if err != nil {
		return err
	}

	if transfer.Status != model.StatusPaymentConfirmed {
		logrus.Infof("settlement trigger for %s ignored, status is %s", transferID, transfer.Status)
		return nil
	}

	adapter, err := v.adapters.Get(transfer.Rail)
	if err != nil {
		return err
	}

	senderWallet, err := adapter.CreateWallet(ctx, transfer.UserID)
	if err != nil {
		return v.failTransfer(ctx, transfer, "wallet_provisioning", err)
	}
	recipientOwner := transfer.Recipient.Email
	if recipientOwner == "" {
		recipientOwner = "recipient:" + transfer.TransferID
	}
	recipientWallet, err := adapter.CreateWallet(ctx, recipientOwner)
	if err != nil {
		return v.failTransfer(ctx, transfer, "wallet_provisioning", err)
	}

	netAmount := decimal.NewFromFloat(transfer.SendAmount).
		Sub(decimal.NewFromFloat(transfer.Fees.Total)).Round(2).InexactFloat64()
	if netAmount <= 0 {
		return v.failTransfer(ctx, transfer, "custody_movement",
			apierror.NewAPIError(apierror.ErrValidation,
				"transfer amount does not cover its fees",
				fmt.Sprintf("net amount %v for transfer %s", netAmount, transfer.TransferID)))
	}

	movement, err := adapter.CreateTransfer(ctx, senderWallet.WalletID, recipientWallet.WalletID,
		netAmount, transfer.SendCurrency)
	if err != nil {
		return v.failTransfer(ctx, transfer, "custody_movement", err)
	}

	if err := v.advanceStatus(ctx, transfer, model.StatusTransferring,
		database.CorrelationDetails{MovementID: movement.MovementID},
		"transfer_initiated", model.OutcomeSuccess,
		fmt.Sprintf("funds moving via %s, movement %s", transfer.Rail, movement.MovementID)); err != nil {
		return v.failTransfer(ctx, transfer, "custody_movement", err)
	}

	payoutAmount := decimal.NewFromFloat(netAmount).
		Mul(decimal.NewFromFloat(transfer.ExchangeRate)).Round(2).InexactFloat64()
	payout, err := adapter.CreatePayout(ctx, payoutAmount, transfer.ReceiveCurrency,
		recipientWallet.WalletID, transfer.Recipient)
	if err != nil {
		return v.failTransfer(ctx, transfer, "payout", err)
	}

	if err := v.advanceStatus(ctx, transfer, model.StatusPayingOut,
		database.CorrelationDetails{PayoutID: payout.PayoutID},
		"payout_initiated", model.OutcomePending,
		fmt.Sprintf("payout %s of %v %s initiated", payout.PayoutID, payoutAmount, transfer.ReceiveCurrency)); err != nil {
		return v.failTransfer(ctx, transfer, "payout", err)
	}

	if err := v.enqueuePayoutMonitor(PayoutMonitorPayload{
		TransferID: transfer.TransferID,
		PayoutID:   payout.PayoutID,
	}, payoutMonitorDelay); err != nil {
		logrus.Errorf("could not enqueue payout monitor for %s: %v", transfer.TransferID, err)
	}
	return nil
}

// claimSubmission registers the transfer's submission hash in redis so a
// doubled request (double click, client retry) inside the window is
// rejected instead of opening a second transfer. A redis failure only logs;
// availability wins over dedupe.
func (v *Velora) claimSubmission(ctx context.Context, transfer *model.Transfer) error {
	key := "transfer:submission:" + transfer.HashTransfer()
	claimed, err := v.redis.SetNX(ctx, key, transfer.TransferID, duplicateSubmissionWindow).Result()
	if err != nil {
		logrus.Errorf("could not register submission hash for %s: %v", transfer.TransferID, err)
		return nil
	}
	if !claimed {
		return apierror.NewAPIError(apierror.ErrConflict,
			"an identical transfer was just submitted",
			fmt.Sprintf("submission hash %s already claimed", key))
	}
	return nil
}

func (v *Velora) fetchTransfer(ctx context.Context, transferID string) (*model.Transfer, error) {
	if tracked := v.trackedTransfer(transferID); tracked != nil {
		return tracked, nil
	}
	transfer, err := v.datasource.GetTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, apierror.NewAPIError(apierror.ErrNotFound,
			fmt.Sprintf("transfer %s not found", transferID),
			fmt.Sprintf("lookup for unknown transfer %s", transferID))
	}
	return transfer, nil
}

// advanceStatus is the single status-advance primitive: a conditional write
// keyed on the caller's view of the current status, a timeline append, and
// an outbound webhook. Losing the conditional write to a concurrent writer
// that reached the same status is absorbed; losing it to anything else is a
// conflict.
func (v *Velora) advanceStatus(ctx context.Context, transfer *model.Transfer, newStatus string, details database.CorrelationDetails, eventType, outcome, message string) error {
	applied, err := v.datasource.UpdateTransferStatus(ctx, transfer.TransferID, transfer.Status, newStatus, details)
	if err != nil {
		return err
	}
	if !applied {
		current, readErr := v.datasource.GetTransferByID(ctx, transfer.TransferID)
		if readErr != nil {
			return readErr
		}
		if current == nil || current.Status != newStatus {
			return apierror.NewAPIError(apierror.ErrConflict,
				fmt.Sprintf("transfer %s was updated concurrently", transfer.TransferID),
				fmt.Sprintf("status advance %s -> %s lost to a concurrent writer", transfer.Status, newStatus))
		}
		// a concurrent writer already applied this same transition
	}

	transfer.Status = newStatus
	transfer.UpdatedAt = time.Now()
	if details.PaymentID != "" {
		transfer.PaymentID = details.PaymentID
	}
	if details.MovementID != "" {
		transfer.MovementID = details.MovementID
	}
	if details.PayoutID != "" {
		transfer.PayoutID = details.PayoutID
	}
	if details.Completed {
		now := time.Now()
		transfer.CompletedAt = &now
	}

	v.appendEvent(ctx, transfer, eventType, outcome, message)
	v.trackTransfer(transfer)

	payload := transfer.Snapshot()
	go func() {
		if err := SendWebhook(NewWebhook{Event: getEventFromStatus(newStatus), Payload: payload}); err != nil {
			logrus.Error(err)
		}
	}()
	return nil
}

// appendEvent records a timeline event in the store and on the in-memory
// aggregate. Timeline appends are non-critical writes: a failure is logged,
// never propagated.
func (v *Velora) appendEvent(ctx context.Context, transfer *model.Transfer, eventType, outcome, message string) {
	event := model.NewTimelineEvent(transfer.TransferID, eventType, outcome, message)
	if err := v.datasource.AppendTimelineEvent(ctx, event); err != nil {
		logrus.Errorf("could not append timeline event %s for %s: %v", eventType, transfer.TransferID, err)
	}
	transfer.Timeline = append(transfer.Timeline, event)
}

// failTransfer moves the transfer to FAILED with a best-effort write, marks
// the failing step on the timeline, and re-throws the causing error wrapped
// with the step name. A secondary storage failure while recording FAILED is
// logged, not thrown.
func (v *Velora) failTransfer(ctx context.Context, transfer *model.Transfer, step string, cause error) error {
	if model.CanTransition(transfer.Status, model.StatusFailed) {
		applied, err := v.datasource.UpdateTransferStatus(ctx, transfer.TransferID,
			transfer.Status, model.StatusFailed, database.CorrelationDetails{})
		if err != nil {
			logrus.Errorf("could not record FAILED for %s: %v", transfer.TransferID, err)
		} else if applied {
			transfer.Status = model.StatusFailed
		}
	}

	reason := cause.Error()
	var apiErr apierror.APIError
	if errors.As(cause, &apiErr) {
		reason = apiErr.Message
	}
	event := model.NewTimelineEvent(transfer.TransferID, step+"_failed", model.OutcomeFailed, reason)
	event.MetaData = map[string]interface{}{
		"step":      step,
		"retryable": apierror.IsRetryable(cause),
	}
	if err := v.datasource.AppendTimelineEvent(ctx, event); err != nil {
		logrus.Errorf("could not append failure event for %s: %v", transfer.TransferID, err)
	}
	transfer.Timeline = append(transfer.Timeline, event)
	transfer.Status = model.StatusFailed
	v.trackTransfer(transfer)

	payload := transfer.Snapshot()
	go func() {
		if err := SendWebhook(NewWebhook{Event: getEventFromStatus(model.StatusFailed), Payload: payload}); err != nil {
			logrus.Error(err)
		}
	}()
	v.notifyParticipants(ctx, transfer, "transfer.failed")

	return errors.Wrap(cause, step+" step failed")
}

func (v *Velora) notifyParticipants(ctx context.Context, transfer *model.Transfer, eventType string) int {
	contacts := []notification.Contact{{
		Name:  transfer.Recipient.Name,
		Email: transfer.Recipient.Email,
		Phone: transfer.Recipient.Phone,
	}}
	payload := map[string]interface{}{
		"transfer_id": transfer.TransferID,
		"status":      transfer.Status,
		"amount":      transfer.SendAmount,
		"currency":    transfer.SendCurrency,
	}
	results := v.notifier.Notify(ctx, eventType, payload, contacts,
		[]string{notification.ChannelEmail, notification.ChannelSms})
	return notification.CountSent(results)
}

// GetTransferStatus answers a status poll. The in-memory record is
// preferred; after a restart the persisted row serves, with a minimal
// synthesized timeline when none was stored. Unknown ids are NOT_FOUND.
func (v *Velora) GetTransferStatus(ctx context.Context, transferID string) (*model.StatusView, error) {
	transfer := v.trackedTransfer(transferID)
	if transfer == nil {
		persisted, err := v.datasource.GetTransferByID(ctx, transferID)
		if err != nil {
			return nil, err
		}
		if persisted == nil {
			return nil, apierror.NewAPIError(apierror.ErrNotFound,
				fmt.Sprintf("transfer %s not found", transferID),
				fmt.Sprintf("status poll for unknown transfer %s", transferID))
		}
		transfer = persisted
		if len(transfer.Timeline) == 0 {
			outcome := model.OutcomePending
			if transfer.Status == model.StatusCompleted {
				outcome = model.OutcomeSuccess
			} else if transfer.Status == model.StatusFailed {
				outcome = model.OutcomeFailed
			}
			transfer.Timeline = []model.TimelineEvent{
				model.NewTimelineEvent(transferID, "status_recovered", outcome,
					fmt.Sprintf("status %s recovered from storage", transfer.Status)),
			}
		}
	}

	view := &model.StatusView{
		TransferID:          transfer.TransferID,
		Status:              transfer.Status,
		Rail:                transfer.Rail,
		Timeline:            transfer.Timeline,
		EstimatedCompletion: transfer.EstimatedCompletion,
		CompletedAt:         transfer.CompletedAt,
	}
	if transfer.Status == model.StatusFailed {
		for i := len(transfer.Timeline) - 1; i >= 0; i-- {
			if transfer.Timeline[i].Outcome == model.OutcomeFailed {
				view.FailureReason = transfer.Timeline[i].Message
				if retryable, ok := transfer.Timeline[i].MetaData["retryable"].(bool); ok {
					view.Retryable = retryable
				}
				break
			}
		}
	}
	return view, nil
}

// CancelTransfer stops a transfer that has not begun moving funds. Once
// settlement is underway cancellation is a no-op returning false, not an
// error.
func (v *Velora) CancelTransfer(ctx context.Context, transferID string) (bool, error) {
	transfer, err := v.fetchTransfer(ctx, transferID)
	if err != nil {
		return false, err
	}

	if transfer.Status != model.StatusInitiated && transfer.Status != model.StatusPaymentProcessing {
		return false, nil
	}

	applied, err := v.datasource.UpdateTransferStatus(ctx, transfer.TransferID,
		transfer.Status, model.StatusFailed, database.CorrelationDetails{})
	if err != nil {
		return false, err
	}
	if !applied {
		// the transfer advanced while we were deciding; too late to cancel
		return false, nil
	}

	transfer.Status = model.StatusFailed
	v.appendEvent(ctx, transfer, "transfer_canceled", model.OutcomeSuccess, "transfer canceled by sender")
	v.trackTransfer(transfer)
	return true, nil
}

// ListTransfers returns a user's transfers, newest first.
func (v *Velora) ListTransfers(ctx context.Context, userID string, limit, offset int) ([]*model.Transfer, error) {
	return v.datasource.ListTransfersByUser(ctx, userID, limit, offset)
}
