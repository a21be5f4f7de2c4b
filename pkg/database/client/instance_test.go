/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"gotest.tools/assert"
)

func nullTimeAt(t time.Time) pq.NullTime {
	return pq.NullTime{Time: t, Valid: true}
}

func TestInsertInstanceNilInput(t *testing.T) {
	client := &Client{}

	err := client.InsertInstance(context.Background(), nil)
	assert.ErrorContains(t, err, "the input is empty")
}

func TestInsertInstanceNoDBConnection(t *testing.T) {
	client := &Client{}

	inst := &Instance{
		InstanceId: "inst-123",
		SiteId:     "site-123",
		Status:     InstanceStatusActive,
	}

	err := client.InsertInstance(context.Background(), inst)
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestGetInstanceBySiteIdNoDBConnection(t *testing.T) {
	client := &Client{}

	_, err := client.GetInstanceBySiteId(context.Background(), "site-123")
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestSelectDueInstancesNoDBConnection(t *testing.T) {
	client := &Client{}

	_, err := client.SelectDueInstances(context.Background(), time.Now(), 100)
	assert.ErrorContains(t, err, "db has not been initialized")
}

func TestTPInstanceConstant(t *testing.T) {
	assert.Equal(t, TPInstance, "instances")
}

func TestGetInstanceFieldTags(t *testing.T) {
	tags := GetInstanceFieldTags()

	assert.Equal(t, "instance_id", tags["instanceid"])
	assert.Equal(t, "site_id", tags["siteid"])
	assert.Equal(t, "site_url", tags["siteurl"])
	assert.Equal(t, "pending_reason", tags["pendingreason"])
	assert.Equal(t, "site_pub_key", tags["sitepubkey"])
	assert.Equal(t, "minute_of_day", tags["minuteofday"])
	assert.Equal(t, "next_run_at", tags["nextrunat"])
	assert.Equal(t, "last_success_at", tags["lastsuccessat"])
	assert.Equal(t, "commit", tags["commit"])
}

func TestInstanceSchedulable(t *testing.T) {
	inst := &Instance{
		Status:    InstanceStatusActive,
		SiteUrl:   sql.NullString{String: "https://example.org", Valid: true},
		NextRunAt: nullTimeAt(time.Now()),
	}
	assert.Assert(t, inst.Schedulable())

	disabled := *inst
	disabled.Status = InstanceStatusDisabled
	assert.Assert(t, !disabled.Schedulable())

	pending := *inst
	pending.PendingReason = sql.NullString{String: "url_invalid", Valid: true}
	assert.Assert(t, !pending.Schedulable())

	noUrl := *inst
	noUrl.SiteUrl = sql.NullString{}
	assert.Assert(t, !noUrl.Schedulable())

	var nilInst *Instance
	assert.Assert(t, !nilInst.Schedulable())
}
