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

package model

import (
	"encoding/json"
	"time"
)

// Rail identifies the settlement path a transfer rides on.
type Rail string

const (
	RailCustodial Rail = "custodial"
	RailLedger    Rail = "ledger"
)

// Transfer statuses. Transitions move strictly forward through statusRank;
// StatusFailed is reachable from any non-terminal status and is absorbing.
const (
	StatusInitiated         = "INITIATED"
	StatusPaymentProcessing = "PAYMENT_PROCESSING"
	StatusPaymentConfirmed  = "PAYMENT_CONFIRMED"
	StatusTransferring      = "TRANSFERRING"
	StatusPayingOut         = "PAYING_OUT"
	StatusCompleted         = "COMPLETED"
	StatusFailed            = "FAILED"
)

var statusRank = map[string]int{
	StatusInitiated:         0,
	StatusPaymentProcessing: 1,
	StatusPaymentConfirmed:  2,
	StatusTransferring:      3,
	StatusPayingOut:         4,
	StatusCompleted:         5,
}

// IsTerminalStatus reports whether a status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// CanTransition reports whether moving from the current persisted status to
// next is a legal forward step. FAILED is sticky: nothing leaves it. A
// transition to FAILED is allowed from any non-terminal status. Writing the
// same status again is allowed so that replayed webhooks stay idempotent.
func CanTransition(current, next string) bool {
	if current == StatusFailed {
		return false
	}
	if next == StatusFailed {
		return current != StatusCompleted
	}
	if current == next {
		return true
	}
	curRank, ok := statusRank[current]
	if !ok {
		return false
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank > curRank
}

// Recipient holds the payout destination for a transfer.
type Recipient struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Country       string `json:"country"`
}

// FeeBreakdown is the per-component fee split for a transfer. Total is
// always the exact sum of the three components.
type FeeBreakdown struct {
	Processing float64 `json:"processing"`
	Network    float64 `json:"network"`
	Exchange   float64 `json:"exchange"`
	Total      float64 `json:"total"`
}

// Transfer is the aggregate root of a cross-border money movement. It is
// created once, mutated only by forward status transitions, and never
// deleted.
type Transfer struct {
	ID                  int64                  `json:"-"`
	TransferID          string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	SendAmount          float64                `json:"send_amount"`
	SendCurrency        string                 `json:"send_currency"`
	ReceiveAmount       float64                `json:"receive_amount"`
	ReceiveCurrency     string                 `json:"receive_currency"`
	ExchangeRate        float64                `json:"exchange_rate"`
	Fees                FeeBreakdown           `json:"fees"`
	Rail                Rail                   `json:"rail"`
	Status              string                 `json:"status"`
	Recipient           Recipient              `json:"recipient"`
	PaymentID           string                 `json:"payment_id,omitempty"`
	MovementID          string                 `json:"movement_id,omitempty"`
	PayoutID            string                 `json:"payout_id,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
	EstimatedCompletion time.Time              `json:"estimated_completion,omitempty"`
	CompletedAt         *time.Time             `json:"completed_at,omitempty"`
	Timeline            []TimelineEvent        `json:"timeline"`
	MetaData            map[string]interface{} `json:"meta_data,omitempty"`
}

// Snapshot returns an independent copy of the transfer. Tracked aggregates
// are shared between the orchestrator, the reconciler and status reads, so
// anything handed across a goroutine boundary copies first.
func (t *Transfer) Snapshot() *Transfer {
	clone := *t
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		clone.CompletedAt = &completed
	}
	clone.Timeline = make([]TimelineEvent, len(t.Timeline))
	copy(clone.Timeline, t.Timeline)
	if t.MetaData != nil {
		clone.MetaData = make(map[string]interface{}, len(t.MetaData))
		for k, val := range t.MetaData {
			clone.MetaData[k] = val
		}
	}
	return &clone
}

// ExternalID returns the correlation id recorded for the given event
// category, or "" when the step has not happened yet.
func (t *Transfer) ExternalID(category string) string {
	switch category {
	case EventCategoryPayments:
		return t.PaymentID
	case EventCategoryTransfers:
		return t.MovementID
	case EventCategoryPayouts:
		return t.PayoutID
	}
	return ""
}

func (t *Transfer) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// Timeline event outcomes.
const (
	OutcomePending = "pending"
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// TimelineEvent is an immutable record of a discrete step in a transfer's
// lifecycle. Events are only ever appended, never updated or reordered.
type TimelineEvent struct {
	EventID    string                 `json:"id"`
	TransferID string                 `json:"transfer_id"`
	Type       string                 `json:"type"`
	Outcome    string                 `json:"outcome"`
	Message    string                 `json:"message"`
	CreatedAt  time.Time              `json:"created_at"`
	MetaData   map[string]interface{} `json:"meta_data,omitempty"`
}

// NewTimelineEvent builds an event for the given transfer with a fresh id
// and the current timestamp.
func NewTimelineEvent(transferID, eventType, outcome, message string) TimelineEvent {
	return TimelineEvent{
		EventID:    GenerateUUIDWithSuffix("evt"),
		TransferID: transferID,
		Type:       eventType,
		Outcome:    outcome,
		Message:    message,
		CreatedAt:  time.Now(),
	}
}

// StatusView is what callers polling a transfer's progress receive. For
// failed transfers Retryable tells client UIs whether offering a retry
// action makes sense.
type StatusView struct {
	TransferID          string          `json:"id"`
	Status              string          `json:"status"`
	Rail                Rail            `json:"rail"`
	Timeline            []TimelineEvent `json:"timeline"`
	EstimatedCompletion time.Time       `json:"estimated_completion,omitempty"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
	Retryable           bool            `json:"retryable,omitempty"`
	FailureReason       string          `json:"failure_reason,omitempty"`
}
