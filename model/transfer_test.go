package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		want    bool
	}{
		{"initiated to processing", StatusInitiated, StatusPaymentProcessing, true},
		{"processing to confirmed", StatusPaymentProcessing, StatusPaymentConfirmed, true},
		{"confirmed to transferring", StatusPaymentConfirmed, StatusTransferring, true},
		{"transferring to paying out", StatusTransferring, StatusPayingOut, true},
		{"paying out to completed", StatusPayingOut, StatusCompleted, true},
		{"skip ahead is allowed", StatusInitiated, StatusTransferring, true},
		{"regression is rejected", StatusCompleted, StatusPaymentConfirmed, false},
		{"stale webhook behind persisted state", StatusPayingOut, StatusPaymentConfirmed, false},
		{"same status is a no-op write", StatusTransferring, StatusTransferring, true},
		{"unknown next status", StatusInitiated, "SETTLED", false},
		{"unknown current status", "SETTLED", StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.current, tt.next))
		})
	}
}

func TestFailedIsAbsorbing(t *testing.T) {
	// FAILED is reachable from every non-terminal status.
	for _, current := range []string{StatusInitiated, StatusPaymentProcessing, StatusPaymentConfirmed, StatusTransferring, StatusPayingOut} {
		assert.True(t, CanTransition(current, StatusFailed), "expected %s -> FAILED to be allowed", current)
	}

	// Completed transfers can no longer fail.
	assert.False(t, CanTransition(StatusCompleted, StatusFailed))

	// Nothing leaves FAILED, not even FAILED itself.
	for _, next := range []string{StatusInitiated, StatusPaymentProcessing, StatusPaymentConfirmed, StatusTransferring, StatusPayingOut, StatusCompleted, StatusFailed} {
		assert.False(t, CanTransition(StatusFailed, next), "expected FAILED -> %s to be rejected", next)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusFailed))
	assert.False(t, IsTerminalStatus(StatusInitiated))
	assert.False(t, IsTerminalStatus(StatusPayingOut))
}

func TestNewTimelineEvent(t *testing.T) {
	evt := NewTimelineEvent("trf_123", "payment_created", OutcomePending, "payment submitted to provider")
	assert.NotEmpty(t, evt.EventID)
	assert.Contains(t, evt.EventID, "evt_")
	assert.Equal(t, "trf_123", evt.TransferID)
	assert.Equal(t, "payment_created", evt.Type)
	assert.Equal(t, OutcomePending, evt.Outcome)
	assert.False(t, evt.CreatedAt.IsZero())
}

func TestHashTransferDeterministic(t *testing.T) {
	a := &Transfer{SendAmount: 100, SendCurrency: "USD", ReceiveCurrency: "EUR", UserID: "usr_1", Recipient: Recipient{AccountNumber: "0011223344"}}
	b := &Transfer{SendAmount: 100, SendCurrency: "USD", ReceiveCurrency: "EUR", UserID: "usr_1", Recipient: Recipient{AccountNumber: "0011223344"}}
	c := &Transfer{SendAmount: 101, SendCurrency: "USD", ReceiveCurrency: "EUR", UserID: "usr_1", Recipient: Recipient{AccountNumber: "0011223344"}}

	assert.Equal(t, a.HashTransfer(), b.HashTransfer())
	assert.NotEqual(t, a.HashTransfer(), c.HashTransfer())
}

func TestExternalIDByCategory(t *testing.T) {
	trf := &Transfer{PaymentID: "pay_1", MovementID: "mov_1", PayoutID: "po_1"}
	assert.Equal(t, "pay_1", trf.ExternalID(EventCategoryPayments))
	assert.Equal(t, "mov_1", trf.ExternalID(EventCategoryTransfers))
	assert.Equal(t, "po_1", trf.ExternalID(EventCategoryPayouts))
	assert.Equal(t, "", trf.ExternalID("refunds"))
}
