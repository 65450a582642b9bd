package model

import "time"

// Webhook event categories recognized by the reconciler.
const (
	EventCategoryPayments  = "payments"
	EventCategoryTransfers = "transfers"
	EventCategoryPayouts   = "payouts"
)

// WebhookEvent is an asynchronous status-change notification delivered by a
// rail provider. Category routes it to the right handler; Data carries the
// provider's entity snapshot.
type WebhookEvent struct {
	EventID    string           `json:"id"`
	Category   string           `json:"category"`
	Data       WebhookEventData `json:"data"`
	ReceivedAt time.Time        `json:"received_at"`
}

// WebhookEventData is the provider-side entity the event describes.
type WebhookEventData struct {
	ExternalID string                 `json:"id"`
	Status     string                 `json:"status"`
	Amount     float64                `json:"amount,omitempty"`
	Currency   string                 `json:"currency,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ReconcileResult is the non-throwing outcome of processing one webhook
// event. Lookup misses and unhandled categories are reported here, never
// raised, because the sender delivers at-least-once and should get a 200.
type ReconcileResult struct {
	Success           bool   `json:"success"`
	TransferID        string `json:"transfer_id,omitempty"`
	OldStatus         string `json:"old_status,omitempty"`
	NewStatus         string `json:"new_status,omitempty"`
	NotificationsSent int    `json:"notifications_sent"`
	Error             string `json:"error,omitempty"`
}
