/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"time"
)

// Interface is the store surface consumed by the handlers, the scheduler and
// the queue consumer. *Client implements it over postgres.
type Interface interface {
	Close()

	// Instances.
	InsertInstance(ctx context.Context, inst *Instance) error
	GetInstanceBySiteId(ctx context.Context, siteId string) (*Instance, error)
	GetInstanceByInstanceId(ctx context.Context, instanceId string) (*Instance, error)
	UpdateInstanceOnSync(ctx context.Context, inst *Instance) error
	DeregisterInstance(ctx context.Context, siteId, reason string, now time.Time) error
	SelectDueInstances(ctx context.Context, now time.Time, limit int) ([]*Instance, error)
	UpdateInstanceNextRun(ctx context.Context, instanceId string, nextRunAt time.Time) error
	UpdateInstanceLastSuccess(ctx context.Context, instanceId string, at time.Time) error

	// Deliveries and attempts.
	InsertDelivery(ctx context.Context, d *Delivery) error
	GetDelivery(ctx context.Context, deliveryId string) (*Delivery, error)
	MarkDeliveryDelivered(ctx context.Context, deliveryId string, attemptCount int,
		responseStatus int64, accepted, dedupHit bool, completedAt time.Time) error
	MarkDeliveryFailed(ctx context.Context, deliveryId string, attemptCount int,
		responseStatus *int64, errorCode, errorMessage string) error
	MarkDeliveryDead(ctx context.Context, deliveryId string, attemptCount int,
		responseStatus *int64, errorCode, errorMessage string, completedAt time.Time) error
	InsertDeliveryAttempt(ctx context.Context, a *DeliveryAttempt) error
	ListDeliveryAttempts(ctx context.Context, deliveryId string) ([]*DeliveryAttempt, error)

	// Per-minute dispatch quota.
	ReserveSlot(ctx context.Context, preferredAt time.Time, source string,
		maxPerMinute, lookaheadMinutes int) (*SlotReservation, error)
	DeleteMinuteLoadBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Telemetry.
	InsertTelemetrySample(ctx context.Context, s *TelemetrySample) error
	DeleteTelemetrySamplesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	RebuildTelemetryHourly(ctx context.Context, since time.Time) error
	DeleteTelemetryHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListTelemetryHourly(ctx context.Context, instanceId string, limit int) ([]*TelemetryHourly, error)

	// Build events.
	InsertBuildEvent(ctx context.Context, event *BuildEvent) error
	DeleteBuildEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListBuildEvents(ctx context.Context, instanceId string, limit int) ([]*BuildEvent, error)

	// Signing-key bookkeeping.
	UpsertSigningKey(ctx context.Context, key *CloudSigningKey) error
	ListSigningKeys(ctx context.Context) ([]*CloudSigningKey, error)
	RetireGraceKeys(ctx context.Context, now time.Time) (int64, error)
}

var _ Interface = (*Client)(nil)
