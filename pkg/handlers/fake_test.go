/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package handlers

import (
	"context"
	"sync"
	"time"

	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	dbutils "github.com/NeutralPress/cloud/pkg/database/utils"
)

// fakeStore is an in-memory stand-in for the postgres client.
type fakeStore struct {
	mu sync.Mutex

	bySiteId    map[string]*dbclient.Instance
	buildEvents []*dbclient.BuildEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{bySiteId: make(map[string]*dbclient.Instance)}
}

func (f *fakeStore) Close() {}

func (f *fakeStore) InsertInstance(ctx context.Context, inst *dbclient.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bySiteId[inst.SiteId] = inst
	return nil
}

func (f *fakeStore) GetInstanceBySiteId(ctx context.Context, siteId string) (*dbclient.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.bySiteId[siteId]
	if !ok {
		return nil, nil
	}
	clone := *inst
	return &clone, nil
}

func (f *fakeStore) GetInstanceByInstanceId(ctx context.Context, instanceId string) (*dbclient.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.bySiteId {
		if inst.InstanceId == instanceId {
			clone := *inst
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateInstanceOnSync(ctx context.Context, inst *dbclient.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *inst
	f.bySiteId[inst.SiteId] = &clone
	return nil
}

func (f *fakeStore) DeregisterInstance(ctx context.Context, siteId, reason string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst, ok := f.bySiteId[siteId]; ok {
		inst.Status = dbclient.InstanceStatusDisabled
		inst.PendingReason = dbutils.NullString(reason)
		inst.NextRunAt = dbutils.NullTime(time.Time{})
	}
	return nil
}

func (f *fakeStore) SelectDueInstances(ctx context.Context, now time.Time, limit int) ([]*dbclient.Instance, error) {
	return nil, nil
}

func (f *fakeStore) UpdateInstanceNextRun(ctx context.Context, instanceId string, nextRunAt time.Time) error {
	return nil
}

func (f *fakeStore) UpdateInstanceLastSuccess(ctx context.Context, instanceId string, at time.Time) error {
	return nil
}

func (f *fakeStore) InsertDelivery(ctx context.Context, d *dbclient.Delivery) error { return nil }

func (f *fakeStore) GetDelivery(ctx context.Context, deliveryId string) (*dbclient.Delivery, error) {
	return nil, nil
}

func (f *fakeStore) MarkDeliveryDelivered(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus int64, accepted, dedupHit bool, completedAt time.Time) error {
	return nil
}

func (f *fakeStore) MarkDeliveryFailed(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus *int64, errorCode, errorMessage string) error {
	return nil
}

func (f *fakeStore) MarkDeliveryDead(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus *int64, errorCode, errorMessage string, completedAt time.Time) error {
	return nil
}

func (f *fakeStore) InsertDeliveryAttempt(ctx context.Context, a *dbclient.DeliveryAttempt) error {
	return nil
}

func (f *fakeStore) ListDeliveryAttempts(ctx context.Context, deliveryId string) ([]*dbclient.DeliveryAttempt, error) {
	return nil, nil
}

func (f *fakeStore) ReserveSlot(ctx context.Context, preferredAt time.Time, source string,
	maxPerMinute, lookaheadMinutes int) (*dbclient.SlotReservation, error) {
	return nil, nil
}

func (f *fakeStore) DeleteMinuteLoadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) InsertTelemetrySample(ctx context.Context, s *dbclient.TelemetrySample) error {
	return nil
}

func (f *fakeStore) DeleteTelemetrySamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) RebuildTelemetryHourly(ctx context.Context, since time.Time) error { return nil }

func (f *fakeStore) DeleteTelemetryHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ListTelemetryHourly(ctx context.Context, instanceId string, limit int) ([]*dbclient.TelemetryHourly, error) {
	return nil, nil
}

func (f *fakeStore) InsertBuildEvent(ctx context.Context, event *dbclient.BuildEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.buildEvents {
		if existing.InstanceId == event.InstanceId && existing.IdempotencyKey == event.IdempotencyKey {
			return nil
		}
	}
	f.buildEvents = append(f.buildEvents, event)
	return nil
}

func (f *fakeStore) DeleteBuildEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ListBuildEvents(ctx context.Context, instanceId string, limit int) ([]*dbclient.BuildEvent, error) {
	return nil, nil
}

func (f *fakeStore) UpsertSigningKey(ctx context.Context, key *dbclient.CloudSigningKey) error {
	return nil
}

func (f *fakeStore) ListSigningKeys(ctx context.Context) ([]*dbclient.CloudSigningKey, error) {
	return nil, nil
}

func (f *fakeStore) RetireGraceKeys(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

var _ dbclient.Interface = (*fakeStore)(nil)
