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

package database

import (
	"context"

	"github.com/velorapay/velora/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	transfer
}

// transfer defines methods for persisting transfers and their timelines.
type transfer interface {
	CreateTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error)                                    // Persists a new transfer with its opening timeline event
	UpdateTransferStatus(ctx context.Context, id, expectedStatus, newStatus string, details CorrelationDetails) (bool, error) // Advances status only if the row still holds expectedStatus
	AppendTimelineEvent(ctx context.Context, event model.TimelineEvent) error                                                 // Appends one immutable timeline event
	GetTransferByID(ctx context.Context, id string) (*model.Transfer, error)                                                  // Retrieves a transfer with its timeline
	GetTransferByExternalID(ctx context.Context, category, externalID string) (*model.Transfer, error)                        // Resolves a transfer by payment/movement/payout id
	ListTransfersByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Transfer, error)                     // Retrieves a user's transfers, newest first
}

// CorrelationDetails carries the external ids and completion data a status
// write may record alongside the new status. Empty fields leave the stored
// value untouched.
type CorrelationDetails struct {
	PaymentID  string
	MovementID string
	PayoutID   string
	Completed  bool
}
