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
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/velorapay/velora/internal/apierror"
	"github.com/velorapay/velora/model"
)

// CreateTransfer persists a new transfer together with its opening timeline
// events in one transaction.
func (d Datasource) CreateTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	ctx, span := otel.Tracer("velora.database").Start(ctx, "Create Transfer Record")
	defer span.End()

	feesJSON, err := json.Marshal(transfer.Fees)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal fees", err)
	}
	recipientJSON, err := json.Marshal(transfer.Recipient)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal recipient", err)
	}
	metaDataJSON, err := json.Marshal(transfer.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transfers (transfer_id, user_id, send_amount, send_currency, receive_amount,
			receive_currency, exchange_rate, fees, rail, status, recipient, payment_id,
			movement_id, payout_id, created_at, updated_at, estimated_completion, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, transfer.TransferID, transfer.UserID, transfer.SendAmount, transfer.SendCurrency,
		transfer.ReceiveAmount, transfer.ReceiveCurrency, transfer.ExchangeRate, feesJSON,
		transfer.Rail, transfer.Status, recipientJSON, transfer.PaymentID, transfer.MovementID,
		transfer.PayoutID, transfer.CreatedAt, transfer.UpdatedAt, transfer.EstimatedCompletion,
		metaDataJSON)
	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "unique_violation" {
			return nil, apierror.NewAPIError(apierror.ErrConflict, "Transfer with this ID already exists", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to create transfer", err)
	}

	for _, event := range transfer.Timeline {
		if err := insertTimelineEvent(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to commit transfer", err)
	}

	return transfer, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertTimelineEvent(ctx context.Context, conn execer, event model.TimelineEvent) error {
	metaDataJSON, err := json.Marshal(event.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal event metadata", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO transfer_events (event_id, transfer_id, type, outcome, message, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.EventID, event.TransferID, event.Type, event.Outcome, event.Message,
		event.CreatedAt, metaDataJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrStorage, "Failed to append timeline event", err)
	}
	return nil
}

// AppendTimelineEvent records one immutable timeline event. Events are only
// inserted; there is no update path.
func (d Datasource) AppendTimelineEvent(ctx context.Context, event model.TimelineEvent) error {
	return insertTimelineEvent(ctx, d.Conn, event)
}

// UpdateTransferStatus advances a transfer's status with a conditional
// write: the row is touched only while it still holds expectedStatus. A
// false return with no error means the guard failed, which callers treat as
// a concurrent writer having won.
func (d Datasource) UpdateTransferStatus(ctx context.Context, id, expectedStatus, newStatus string, details CorrelationDetails) (bool, error) {
	ctx, span := otel.Tracer("velora.database").Start(ctx, "Update Transfer Status")
	defer span.End()

	var completedAt interface{}
	if details.Completed {
		completedAt = time.Now()
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE transfers
		SET status = $1,
			updated_at = NOW(),
			payment_id = COALESCE(NULLIF($2, ''), payment_id),
			movement_id = COALESCE(NULLIF($3, ''), movement_id),
			payout_id = COALESCE(NULLIF($4, ''), payout_id),
			completed_at = COALESCE($5, completed_at)
		WHERE transfer_id = $6 AND status = $7
	`, newStatus, details.PaymentID, details.MovementID, details.PayoutID, completedAt, id, expectedStatus)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrStorage, "Failed to update transfer status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrStorage, "Failed to read update result", err)
	}
	return affected == 1, nil
}

const transferColumns = `transfer_id, user_id, send_amount, send_currency, receive_amount,
	receive_currency, exchange_rate, fees, rail, status, recipient, payment_id, movement_id,
	payout_id, created_at, updated_at, estimated_completion, completed_at, meta_data`

func scanTransfer(row *sql.Row) (*model.Transfer, error) {
	transfer := model.Transfer{}
	var feesJSON, recipientJSON, metaDataJSON []byte
	var paymentID, movementID, payoutID sql.NullString
	var estimatedCompletion, completedAt sql.NullTime

	err := row.Scan(&transfer.TransferID, &transfer.UserID, &transfer.SendAmount,
		&transfer.SendCurrency, &transfer.ReceiveAmount, &transfer.ReceiveCurrency,
		&transfer.ExchangeRate, &feesJSON, &transfer.Rail, &transfer.Status, &recipientJSON,
		&paymentID, &movementID, &payoutID, &transfer.CreatedAt, &transfer.UpdatedAt,
		&estimatedCompletion, &completedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}

	transfer.PaymentID = paymentID.String
	transfer.MovementID = movementID.String
	transfer.PayoutID = payoutID.String
	if estimatedCompletion.Valid {
		transfer.EstimatedCompletion = estimatedCompletion.Time
	}
	if completedAt.Valid {
		t := completedAt.Time
		transfer.CompletedAt = &t
	}

	if err := json.Unmarshal(feesJSON, &transfer.Fees); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recipientJSON, &transfer.Recipient); err != nil {
		return nil, err
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &transfer.MetaData); err != nil {
			return nil, err
		}
	}
	return &transfer, nil
}

// GetTransferByID retrieves a transfer together with its ordered timeline.
func (d Datasource) GetTransferByID(ctx context.Context, id string) (*model.Transfer, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE transfer_id = $1
	`, id)

	transfer, err := scanTransfer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to retrieve transfer", err)
	}

	timeline, err := d.getTimeline(ctx, id)
	if err != nil {
		return nil, err
	}
	transfer.Timeline = timeline
	return transfer, nil
}

// GetTransferByExternalID resolves a transfer by the correlation id its
// rail assigned for the given event category.
func (d Datasource) GetTransferByExternalID(ctx context.Context, category, externalID string) (*model.Transfer, error) {
	var column string
	switch category {
	case model.EventCategoryPayments:
		column = "payment_id"
	case model.EventCategoryTransfers:
		column = "movement_id"
	case model.EventCategoryPayouts:
		column = "payout_id"
	default:
		return nil, apierror.NewAPIError(apierror.ErrValidation,
			fmt.Sprintf("unknown event category %s", category),
			fmt.Sprintf("external id lookup for category %q", category))
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE `+column+` = $1
	`, externalID)

	transfer, err := scanTransfer(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to retrieve transfer by external id", err)
	}

	timeline, err := d.getTimeline(ctx, transfer.TransferID)
	if err != nil {
		return nil, err
	}
	transfer.Timeline = timeline
	return transfer, nil
}

// ListTransfersByUser returns a user's transfers newest first, without
// their timelines.
func (d Datasource) ListTransfersByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Transfer, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to list transfers", err)
	}
	defer rows.Close()

	transfers := []*model.Transfer{}
	for rows.Next() {
		transfer := model.Transfer{}
		var feesJSON, recipientJSON, metaDataJSON []byte
		var paymentID, movementID, payoutID sql.NullString
		var estimatedCompletion, completedAt sql.NullTime

		err := rows.Scan(&transfer.TransferID, &transfer.UserID, &transfer.SendAmount,
			&transfer.SendCurrency, &transfer.ReceiveAmount, &transfer.ReceiveCurrency,
			&transfer.ExchangeRate, &feesJSON, &transfer.Rail, &transfer.Status, &recipientJSON,
			&paymentID, &movementID, &payoutID, &transfer.CreatedAt, &transfer.UpdatedAt,
			&estimatedCompletion, &completedAt, &metaDataJSON)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to scan transfer", err)
		}

		transfer.PaymentID = paymentID.String
		transfer.MovementID = movementID.String
		transfer.PayoutID = payoutID.String
		if estimatedCompletion.Valid {
			transfer.EstimatedCompletion = estimatedCompletion.Time
		}
		if completedAt.Valid {
			t := completedAt.Time
			transfer.CompletedAt = &t
		}
		if err := json.Unmarshal(feesJSON, &transfer.Fees); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal fees", err)
		}
		if err := json.Unmarshal(recipientJSON, &transfer.Recipient); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal recipient", err)
		}
		if len(metaDataJSON) > 0 {
			if err := json.Unmarshal(metaDataJSON, &transfer.MetaData); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
			}
		}

		transfers = append(transfers, &transfer)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Error occurred while iterating over transfers", err)
	}
	return transfers, nil
}

func (d Datasource) getTimeline(ctx context.Context, transferID string) ([]model.TimelineEvent, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT event_id, transfer_id, type, outcome, message, created_at, meta_data
		FROM transfer_events
		WHERE transfer_id = $1
		ORDER BY id ASC
	`, transferID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to retrieve timeline", err)
	}
	defer rows.Close()

	timeline := []model.TimelineEvent{}
	for rows.Next() {
		event := model.TimelineEvent{}
		var metaDataJSON []byte
		if err := rows.Scan(&event.EventID, &event.TransferID, &event.Type, &event.Outcome,
			&event.Message, &event.CreatedAt, &metaDataJSON); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrStorage, "Failed to scan timeline event", err)
		}
		if len(metaDataJSON) > 0 {
			if err := json.Unmarshal(metaDataJSON, &event.MetaData); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal event metadata", err)
			}
		}
		timeline = append(timeline, event)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrStorage, "Error occurred while iterating over timeline", err)
	}
	return timeline, nil
}
