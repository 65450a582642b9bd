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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/database/mocks"
	"github.com/velorapay/velora/model"
)

func providerEvent(category, externalID, status string) model.WebhookEvent {
	return model.WebhookEvent{
		EventID:    model.GenerateUUIDWithSuffix("pevt"),
		Category:   category,
		Data:       model.WebhookEventData{ExternalID: externalID, Status: status},
		ReceivedAt: time.Now(),
	}
}

func TestProcessEventPaymentConfirmed(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, gateway := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_1").
		Return(&model.Transfer{
			TransferID: "trf_1",
			Rail:       model.RailCustodial,
			Status:     model.StatusPaymentProcessing,
			PaymentID:  "pay_1",
			Recipient:  testRecipient(),
		}, nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, "trf_1", model.StatusPaymentProcessing, model.StatusPaymentConfirmed,
		database.CorrelationDetails{}).Return(true, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_1", "confirmed"))

	assert.True(t, result.Success)
	assert.Equal(t, "trf_1", result.TransferID)
	assert.Equal(t, model.StatusPaymentProcessing, result.OldStatus)
	assert.Equal(t, model.StatusPaymentConfirmed, result.NewStatus)
	assert.Equal(t, 2, result.NotificationsSent)
	assert.Contains(t, gateway.sent, "transfer.payment_confirmed")
	mockDS.AssertExpectations(t)
}

func TestProcessEventPayoutCompleted(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, gateway := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayouts, "pout_1").
		Return(&model.Transfer{
			TransferID: "trf_2",
			Rail:       model.RailCustodial,
			Status:     model.StatusPayingOut,
			PayoutID:   "pout_1",
			Recipient:  testRecipient(),
		}, nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, "trf_2", model.StatusPayingOut, model.StatusCompleted,
		database.CorrelationDetails{Completed: true}).Return(true, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayouts, "pout_1", "complete"))

	assert.True(t, result.Success)
	assert.Equal(t, model.StatusCompleted, result.NewStatus)
	assert.Contains(t, gateway.sent, "transfer.completed")

	tracked := velora.trackedTransfer("trf_2")
	require.NotNil(t, tracked)
	assert.NotNil(t, tracked.CompletedAt)
}

func TestProcessEventPaymentFailed(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, gateway := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_2").
		Return(&model.Transfer{
			TransferID: "trf_3",
			Rail:       model.RailCustodial,
			Status:     model.StatusPaymentProcessing,
			PaymentID:  "pay_2",
			Recipient:  testRecipient(),
		}, nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, "trf_3", model.StatusPaymentProcessing, model.StatusFailed,
		database.CorrelationDetails{}).Return(true, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_2", "failed"))

	assert.True(t, result.Success)
	assert.Equal(t, model.StatusFailed, result.NewStatus)
	assert.Contains(t, gateway.sent, "transfer.failed")
}

func TestProcessEventUnknownExternalID(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, _ := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_ghost").
		Return(nil, nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_ghost", "confirmed"))

	assert.False(t, result.Success)
	assert.Equal(t, "Transaction not found for payments id pay_ghost", result.Error)
}

func TestProcessEventUnhandledCategory(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, _ := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	result := velora.ProcessEvent(context.Background(), providerEvent("refunds", "ref_1", "complete"))

	assert.False(t, result.Success)
	assert.Equal(t, "Unhandled event type: refunds", result.Error)
	mockDS.AssertNotCalled(t, "GetTransferByExternalID", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEventReplayIsIdempotent(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, _ := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_3").
		Return(&model.Transfer{
			TransferID: "trf_4",
			Rail:       model.RailCustodial,
			Status:     model.StatusPaymentConfirmed,
			PaymentID:  "pay_3",
		}, nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_3", "confirmed"))

	assert.True(t, result.Success)
	assert.Equal(t, model.StatusPaymentConfirmed, result.OldStatus)
	assert.Equal(t, model.StatusPaymentConfirmed, result.NewStatus)
	assert.Zero(t, result.NotificationsSent)
	mockDS.AssertNotCalled(t, "UpdateTransferStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEventOutOfOrderDeliveryLeavesStatus(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, _ := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	// a late "payment confirmed" arriving after the transfer moved on
	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_4").
		Return(&model.Transfer{
			TransferID: "trf_5",
			Rail:       model.RailCustodial,
			Status:     model.StatusPayingOut,
			PaymentID:  "pay_4",
		}, nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_4", "confirmed"))

	assert.True(t, result.Success)
	assert.Equal(t, model.StatusPayingOut, result.NewStatus)
	mockDS.AssertNotCalled(t, "UpdateTransferStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessEventUnknownProviderStatusDegrades(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, _ := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_5").
		Return(&model.Transfer{
			TransferID: "trf_6",
			Rail:       model.RailCustodial,
			Status:     model.StatusInitiated,
			PaymentID:  "pay_5",
		}, nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, "trf_6", model.StatusInitiated, model.StatusPaymentProcessing,
		database.CorrelationDetails{}).Return(true, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_5", "authorization_hold"))

	assert.True(t, result.Success)
	assert.Equal(t, model.StatusPaymentProcessing, result.NewStatus)
}

func TestProcessEventConcurrentWithStatusReads(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	velora, _ := newTestVelora(t, mockDS, &mockAdapter{railName: model.RailCustodial}, &mockAdapter{railName: model.RailLedger})

	velora.trackTransfer(&model.Transfer{
		TransferID: "trf_7",
		Rail:       model.RailCustodial,
		Status:     model.StatusPaymentProcessing,
		PaymentID:  "pay_6",
		Recipient:  testRecipient(),
		Timeline: []model.TimelineEvent{
			model.NewTimelineEvent("trf_7", "transfer_created", model.OutcomeSuccess, "transfer created"),
		},
	})
	mockDS.On("GetTransferByExternalID", mock.Anything, model.EventCategoryPayments, "pay_6").
		Return(&model.Transfer{
			TransferID: "trf_7",
			Rail:       model.RailCustodial,
			Status:     model.StatusPaymentProcessing,
			PaymentID:  "pay_6",
			Recipient:  testRecipient(),
		}, nil)
	mockDS.On("UpdateTransferStatus", mock.Anything, "trf_7", model.StatusPaymentProcessing, model.StatusPaymentConfirmed,
		database.CorrelationDetails{}).Return(true, nil)
	mockDS.On("AppendTimelineEvent", mock.Anything, mock.Anything).Return(nil)

	// status polls race the reconciler's write to the same tracked transfer
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			view, err := velora.GetTransferStatus(context.Background(), "trf_7")
			assert.NoError(t, err)
			assert.NotNil(t, view)
		}
	}()

	result := velora.ProcessEvent(context.Background(), providerEvent(model.EventCategoryPayments, "pay_6", "confirmed"))
	<-done

	assert.True(t, result.Success)
	view, err := velora.GetTransferStatus(context.Background(), "trf_7")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaymentConfirmed, view.Status)
}
