/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonconfig "github.com/NeutralPress/cloud/pkg/config"
	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/types"
)

func sqsMessageFor(t *testing.T, msg *types.DispatchMessage) sqstypes.Message {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return sqstypes.Message{
		Body:          aws.String(string(raw)),
		ReceiptHandle: aws.String("rh-" + msg.DeliveryId),
	}
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConsumerDropsInvalidMessage(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{name: "np-dispatch"}
	c := NewConsumer(store, q, NewDispatcher(store, testRing(t)))

	c.Handle(context.Background(), sqstypes.Message{
		Body:          aws.String("not json"),
		ReceiptHandle: aws.String("rh-bad"),
	})

	assert.Equal(t, []string{"rh-bad"}, q.deleted)
	assert.Len(t, store.deadCodes, 0)
	assert.Len(t, store.attempts, 0)
}

func TestConsumerReenqueuesRetry(t *testing.T) {
	server := failingServer(t)
	commonconfig.SetValue("dispatch.request_timeout_ms", 2000)
	commonconfig.SetValue("dispatch.max_retry_attempts", 6)

	store := newFakeStore()
	store.instances["inst-1"] = activeInstance("inst-1", "site-1", server.URL)
	q := &fakeQueue{name: "np-dispatch"}
	c := NewConsumer(store, q, NewDispatcher(store, testRing(t)))

	msg := dispatchMsg("d-1", "inst-1", "site-1", server.URL)
	c.Handle(context.Background(), sqsMessageFor(t, msg))

	// Inbound message is always acknowledged, the copy carries the retry.
	assert.Equal(t, []string{"rh-d-1"}, q.deleted)
	require.Len(t, q.sent, 1)
	retry, ok := q.sent[0].body.(*types.DispatchMessage)
	require.True(t, ok)
	assert.Equal(t, 2, retry.DispatchAttempt)
	assert.Equal(t, "d-1", retry.DeliveryId)
	assert.True(t, q.sent[0].delay >= 0)
	assert.Len(t, store.deadCodes, 0)
}

func TestConsumerExhaustsRetries(t *testing.T) {
	server := failingServer(t)
	commonconfig.SetValue("dispatch.request_timeout_ms", 2000)
	commonconfig.SetValue("dispatch.max_retry_attempts", 3)
	defer commonconfig.SetValue("dispatch.max_retry_attempts", 6)

	store := newFakeStore()
	store.instances["inst-1"] = activeInstance("inst-1", "site-1", server.URL)
	q := &fakeQueue{name: "np-dispatch"}
	c := NewConsumer(store, q, NewDispatcher(store, testRing(t)))

	msg := dispatchMsg("d-1", "inst-1", "site-1", server.URL)
	msg.DispatchAttempt = 3
	c.Handle(context.Background(), sqsMessageFor(t, msg))

	assert.Equal(t, commonerrors.MaxAttemptsExceeded, store.deadCodes["d-1"])
	assert.Len(t, q.sent, 0)
}

func TestConsumerRetrySlotFull(t *testing.T) {
	server := failingServer(t)
	commonconfig.SetValue("dispatch.request_timeout_ms", 2000)
	commonconfig.SetValue("dispatch.max_retry_attempts", 6)

	store := newFakeStore()
	store.slotFull = true
	store.instances["inst-1"] = activeInstance("inst-1", "site-1", server.URL)
	q := &fakeQueue{name: "np-dispatch"}
	c := NewConsumer(store, q, NewDispatcher(store, testRing(t)))

	c.Handle(context.Background(), sqsMessageFor(t, dispatchMsg("d-1", "inst-1", "site-1", server.URL)))

	assert.Equal(t, commonerrors.RetryScheduleFailed, store.deadCodes["d-1"])
	assert.Equal(t, []string{"retry"}, store.reservations)
	assert.Len(t, q.sent, 0)
}

func TestConsumerDLQPath(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{name: "np-dispatch-dlq", dlq: true}
	c := NewConsumer(store, q, NewDispatcher(store, testRing(t)))

	c.Handle(context.Background(), sqsMessageFor(t, dispatchMsg("d-9", "inst-1", "site-1", "https://example.org")))

	assert.Equal(t, commonerrors.DlqReached, store.deadCodes["d-9"])
	assert.Equal(t, []string{"rh-d-9"}, q.deleted)
	// No dispatch happens for DLQ traffic.
	assert.Len(t, store.attempts, 0)
}

func TestConsumerDLQInvalidPayloadSilent(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{name: "np-dispatch-dlq", dlq: true}
	c := NewConsumer(store, q, NewDispatcher(store, testRing(t)))

	c.Handle(context.Background(), sqstypes.Message{
		Body:          aws.String(`{"deliveryId":""}`),
		ReceiptHandle: aws.String("rh-x"),
	})

	assert.Len(t, store.deadCodes, 0)
	assert.Equal(t, []string{"rh-x"}, q.deleted)
}
