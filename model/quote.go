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

import "time"

// Quote is a time-bounded locked exchange rate with its fee breakdown. It
// lives only for its TTL; a transfer created against an expired quote is
// rejected.
type Quote struct {
	QuoteID        string       `json:"id"`
	SourceCurrency string       `json:"source_currency"`
	DestCurrency   string       `json:"dest_currency"`
	Rate           float64      `json:"rate"`
	SendAmount     float64      `json:"send_amount"`
	ReceiveAmount  float64      `json:"receive_amount"`
	Fees           FeeBreakdown `json:"fees"`
	IssuedAt       time.Time    `json:"issued_at"`
	ExpiresAt      time.Time    `json:"expires_at"`
}

// Valid reports whether the quote is still inside its validity window.
func (q *Quote) Valid(now time.Time) bool {
	return now.Before(q.ExpiresAt)
}

// RailCostEstimate is the ephemeral cost/time estimate for moving a given
// amount over one rail. Available is false when the rail cannot serve the
// amount (for example the ledger rail being disabled).
type RailCostEstimate struct {
	Rail                Rail          `json:"rail"`
	Fees                FeeBreakdown  `json:"fees"`
	TotalCost           float64       `json:"total_cost"`
	EstimatedCompletion time.Duration `json:"estimated_completion"`
	Benefits            []string      `json:"benefits,omitempty"`
	Limitations         []string      `json:"limitations,omitempty"`
	Available           bool          `json:"available"`
}

// Recommendation is the output of comparing all available rails for an
// amount and currency pair.
type Recommendation struct {
	Options           []RailCostEstimate `json:"options"`
	RecommendedMethod Rail               `json:"recommended_method"`
	Reason            string             `json:"reason"`
	CostSavings       float64            `json:"cost_savings"`
	TimeSavings       time.Duration      `json:"time_savings,omitempty"`
}
