/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"

	dbutils "github.com/NeutralPress/cloud/pkg/database/utils"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
)

const (
	TPDelivery        = "deliveries"
	TPDeliveryAttempt = "delivery_attempts"
)

var (
	insertDeliveryFormat = `INSERT INTO ` + TPDelivery + ` (%s) VALUES (%s);`

	insertDeliveryAttemptFormat = `INSERT INTO ` + TPDeliveryAttempt + ` (%s) VALUES (%s)
	ON CONFLICT (delivery_id, attempt_no) DO NOTHING;`

	markDeliveryDeliveredCmd = `UPDATE ` + TPDelivery + ` SET
		status = :status,
		attempt_count = :attempt_count,
		response_status = :response_status,
		accepted = :accepted,
		dedup_hit = :dedup_hit,
		last_error_code = NULL,
		last_error_message = NULL,
		completed_at = :completed_at,
		updated_at = :updated_at
	WHERE id = :id;`

	markDeliveryFailedCmd = `UPDATE ` + TPDelivery + ` SET
		status = $2,
		attempt_count = $3,
		response_status = $4,
		last_error_code = $5,
		last_error_message = $6,
		completed_at = $7,
		updated_at = $8
	WHERE id = $1;`
)

// InsertDelivery persists a freshly queued delivery.
func (c *Client) InsertDelivery(ctx context.Context, d *Delivery) error {
	if d == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*d, insertDeliveryFormat, ""), d)
	if err != nil {
		return fmt.Errorf("failed to insert delivery to db: %v", err)
	}
	return nil
}

// GetDelivery returns the delivery by id, or nil when no row exists.
func (c *Client) GetDelivery(ctx context.Context, deliveryId string) (*Delivery, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TPDelivery).Where(sqrl.Eq{"id": deliveryId})
	cmd, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select delivery query: %v", err)
	}
	var d Delivery
	err = db.GetContext(ctx, &d, cmd, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select delivery from db: %v", err)
	}
	return &d, nil
}

// MarkDeliveryDelivered records the terminal success of a delivery together
// with the telemetry flags extracted from the response.
func (c *Client) MarkDeliveryDelivered(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus int64, accepted, dedupHit bool, completedAt time.Time) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	d := Delivery{
		Id:             deliveryId,
		Status:         DeliveryStatusDelivered,
		AttemptCount:   attemptCount,
		ResponseStatus: sql.NullInt64{Int64: responseStatus, Valid: true},
		Accepted:       sql.NullInt16{Int16: dbutils.BoolInt(accepted), Valid: true},
		DedupHit:       sql.NullInt16{Int16: dbutils.BoolInt(dedupHit), Valid: true},
		CompletedAt:    dbutils.NullTime(completedAt.UTC()),
		UpdatedAt:      dbutils.NullTime(time.Now().UTC()),
	}
	_, err = db.NamedExecContext(ctx, markDeliveryDeliveredCmd, &d)
	if err != nil {
		return fmt.Errorf("failed to mark delivery delivered in db: %v", err)
	}
	return nil
}

// MarkDeliveryFailed records a non-terminal failure. The delivery stays
// eligible for a retry enqueue.
func (c *Client) MarkDeliveryFailed(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus *int64, errorCode, errorMessage string) error {
	return c.markDeliveryNotDelivered(ctx, deliveryId, DeliveryStatusFailed, attemptCount,
		responseStatus, errorCode, errorMessage, nil)
}

// MarkDeliveryDead buries the delivery after retries are exhausted or the
// message cannot be dispatched at all.
func (c *Client) MarkDeliveryDead(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus *int64, errorCode, errorMessage string, completedAt time.Time) error {
	at := completedAt.UTC()
	return c.markDeliveryNotDelivered(ctx, deliveryId, DeliveryStatusDead, attemptCount,
		responseStatus, errorCode, errorMessage, &at)
}

func (c *Client) markDeliveryNotDelivered(ctx context.Context, deliveryId, status string,
	attemptCount int, responseStatus *int64, errorCode, errorMessage string, completedAt *time.Time) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	var completed interface{}
	if completedAt != nil {
		completed = *completedAt
	}
	_, err = db.ExecContext(ctx, markDeliveryFailedCmd, deliveryId, status, attemptCount,
		dbutils.NullInt64(responseStatus), dbutils.NullString(errorCode),
		dbutils.NullString(errorMessage), completed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark delivery %s in db: %v", status, err)
	}
	return nil
}

// InsertDeliveryAttempt appends one wire-attempt row. Broker redelivery can
// replay an attempt number, so the duplicate is absorbed.
func (c *Client) InsertDeliveryAttempt(ctx context.Context, a *DeliveryAttempt) error {
	if a == nil {
		return commonerrors.NewBadRequest("the input is empty")
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	_, err = db.NamedExecContext(ctx, generateCommand(*a, insertDeliveryAttemptFormat, ""), a)
	if err != nil {
		return fmt.Errorf("failed to insert delivery attempt to db: %v", err)
	}
	return nil
}

// ListDeliveryAttempts returns the attempts of a delivery ordered by attempt
// number.
func (c *Client) ListDeliveryAttempts(ctx context.Context, deliveryId string) ([]*DeliveryAttempt, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	builder := sqrl.StatementBuilder.PlaceholderFormat(sqrl.Dollar).
		Select("*").From(TPDeliveryAttempt).
		Where(sqrl.Eq{"delivery_id": deliveryId}).
		OrderBy("attempt_no " + ASC)
	cmd, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select delivery attempts query: %v", err)
	}
	var attempts []*DeliveryAttempt
	err = db.SelectContext(ctx, &attempts, cmd, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select delivery attempts from db: %v", err)
	}
	return attempts, nil
}
