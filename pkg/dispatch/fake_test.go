/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	dbclient "github.com/NeutralPress/cloud/pkg/database/client"
	"github.com/NeutralPress/cloud/pkg/queue"
)

// fakeStore is an in-memory stand-in for the postgres client.
type fakeStore struct {
	mu sync.Mutex

	instances map[string]*dbclient.Instance
	due       []*dbclient.Instance

	deliveries []*dbclient.Delivery
	attempts   []*dbclient.DeliveryAttempt
	samples    []*dbclient.TelemetrySample

	failedCodes map[string]string
	deadCodes   map[string]string
	delivered   map[string]bool

	nextRuns    map[string]time.Time
	lastSuccess map[string]time.Time

	slotFull     bool
	slotErr      error
	reservations []string

	insertDeliveryErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		instances:   make(map[string]*dbclient.Instance),
		failedCodes: make(map[string]string),
		deadCodes:   make(map[string]string),
		delivered:   make(map[string]bool),
		nextRuns:    make(map[string]time.Time),
		lastSuccess: make(map[string]time.Time),
	}
}

func (f *fakeStore) Close() {}

func (f *fakeStore) InsertInstance(ctx context.Context, inst *dbclient.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances[inst.InstanceId] = inst
	return nil
}

func (f *fakeStore) GetInstanceBySiteId(ctx context.Context, siteId string) (*dbclient.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.SiteId == siteId {
			return inst, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetInstanceByInstanceId(ctx context.Context, instanceId string) (*dbclient.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[instanceId], nil
}

func (f *fakeStore) UpdateInstanceOnSync(ctx context.Context, inst *dbclient.Instance) error {
	return nil
}

func (f *fakeStore) DeregisterInstance(ctx context.Context, siteId, reason string, now time.Time) error {
	return nil
}

func (f *fakeStore) SelectDueInstances(ctx context.Context, now time.Time, limit int) ([]*dbclient.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := f.due
	f.due = nil
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeStore) UpdateInstanceNextRun(ctx context.Context, instanceId string, nextRunAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextRuns[instanceId] = nextRunAt
	return nil
}

func (f *fakeStore) UpdateInstanceLastSuccess(ctx context.Context, instanceId string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSuccess[instanceId] = at
	return nil
}

func (f *fakeStore) InsertDelivery(ctx context.Context, d *dbclient.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertDeliveryErr != nil {
		return f.insertDeliveryErr
	}
	f.deliveries = append(f.deliveries, d)
	return nil
}

func (f *fakeStore) GetDelivery(ctx context.Context, deliveryId string) (*dbclient.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deliveries {
		if d.Id == deliveryId {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) MarkDeliveryDelivered(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus int64, accepted, dedupHit bool, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered[deliveryId] = true
	return nil
}

func (f *fakeStore) MarkDeliveryFailed(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus *int64, errorCode, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedCodes[deliveryId] = errorCode
	return nil
}

func (f *fakeStore) MarkDeliveryDead(ctx context.Context, deliveryId string, attemptCount int,
	responseStatus *int64, errorCode, errorMessage string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadCodes[deliveryId] = errorCode
	return nil
}

func (f *fakeStore) InsertDeliveryAttempt(ctx context.Context, a *dbclient.DeliveryAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeStore) ListDeliveryAttempts(ctx context.Context, deliveryId string) ([]*dbclient.DeliveryAttempt, error) {
	return nil, nil
}

func (f *fakeStore) ReserveSlot(ctx context.Context, preferredAt time.Time, source string,
	maxPerMinute, lookaheadMinutes int) (*dbclient.SlotReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slotErr != nil {
		return nil, f.slotErr
	}
	f.reservations = append(f.reservations, source)
	if f.slotFull {
		return nil, nil
	}
	return &dbclient.SlotReservation{
		MinuteStart: preferredAt.UTC().Truncate(time.Minute),
		TotalCount:  1,
	}, nil
}

func (f *fakeStore) DeleteMinuteLoadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) InsertTelemetrySample(ctx context.Context, s *dbclient.TelemetrySample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, s)
	return nil
}

func (f *fakeStore) DeleteTelemetrySamplesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) RebuildTelemetryHourly(ctx context.Context, since time.Time) error {
	return nil
}

func (f *fakeStore) DeleteTelemetryHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ListTelemetryHourly(ctx context.Context, instanceId string, limit int) ([]*dbclient.TelemetryHourly, error) {
	return nil, nil
}

func (f *fakeStore) InsertBuildEvent(ctx context.Context, event *dbclient.BuildEvent) error {
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

// fakeQueue records sent messages instead of hitting SQS.
type fakeQueue struct {
	mu      sync.Mutex
	name    string
	dlq     bool
	sendErr error

	sent    []sentMessage
	deleted []string
}

type sentMessage struct {
	body  interface{}
	delay int64
}

func (q *fakeQueue) Name() string { return q.name }
func (q *fakeQueue) IsDLQ() bool  { return q.dlq }

func (q *fakeQueue) SendMessage(ctx context.Context, body interface{}, delaySeconds int64) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sendErr != nil {
		return "", q.sendErr
	}
	q.sent = append(q.sent, sentMessage{body: body, delay: delaySeconds})
	return fmt.Sprintf("m-%d", len(q.sent)), nil
}

func (q *fakeQueue) GetMessages(ctx context.Context) ([]sqstypes.Message, error) {
	return nil, nil
}

func (q *fakeQueue) DeleteMessage(ctx context.Context, receiptHandle *string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if receiptHandle != nil {
		q.deleted = append(q.deleted, *receiptHandle)
	}
	return nil
}

var _ queue.Provider = (*fakeQueue)(nil)
