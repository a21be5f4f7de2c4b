/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestInsertDeliveryNilInput(t *testing.T) {
	client := &Client{}

	err := client.InsertDelivery(context.Background(), nil)
	assert.ErrorContains(t, err, "the input is empty")
}

func TestInsertDeliveryNoDBConnection(t *testing.T) {
	client := &Client{}

	d := &Delivery{
		Id:         "d-123",
		InstanceId: "inst-123",
		SiteId:     "site-123",
		Status:     DeliveryStatusQueued,
	}

	err := client.InsertDelivery(context.Background(), d)
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestMarkDeliveryDeliveredNoDBConnection(t *testing.T) {
	client := &Client{}

	err := client.MarkDeliveryDelivered(context.Background(), "d-123", 1, 200, true, false, time.Now())
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestInsertDeliveryAttemptNilInput(t *testing.T) {
	client := &Client{}

	err := client.InsertDeliveryAttempt(context.Background(), nil)
	assert.ErrorContains(t, err, "the input is empty")
}

func TestTPDeliveryConstants(t *testing.T) {
	assert.Equal(t, TPDelivery, "deliveries")
	assert.Equal(t, TPDeliveryAttempt, "delivery_attempts")
}

func TestGetDeliveryFieldTags(t *testing.T) {
	tags := GetDeliveryFieldTags()

	assert.Equal(t, "id", tags["id"])
	assert.Equal(t, "instance_id", tags["instanceid"])
	assert.Equal(t, "scheduled_for", tags["scheduledfor"])
	assert.Equal(t, "attempt_count", tags["attemptcount"])
	assert.Equal(t, "response_status", tags["responsestatus"])
	assert.Equal(t, "dedup_hit", tags["deduphit"])
	assert.Equal(t, "last_error_code", tags["lasterrorcode"])
	assert.Equal(t, "completed_at", tags["completedat"])
}

func TestGetDeliveryAttemptFieldTags(t *testing.T) {
	tags := GetDeliveryAttemptFieldTags()

	assert.Equal(t, "delivery_id", tags["deliveryid"])
	assert.Equal(t, "attempt_no", tags["attemptno"])
	assert.Equal(t, "duration_ms", tags["durationms"])
	assert.Equal(t, "http_status", tags["httpstatus"])
	assert.Equal(t, "timed_out", tags["timedout"])
}

func TestGenInsertDeliveryAttemptCmd(t *testing.T) {
	a := DeliveryAttempt{}
	cmd := generateCommand(a, insertDeliveryAttemptFormat, "")

	assert.Assert(t, strings.Contains(cmd, `ON CONFLICT (delivery_id, attempt_no) DO NOTHING`))
	assert.Assert(t, strings.Contains(cmd, `:attempt_no`))
}
