/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	DESC = "desc"
	ASC  = "asc"
)

// Instance statuses.
const (
	InstanceStatusActive     = "active"
	InstanceStatusPendingUrl = "pending_url"
	InstanceStatusDisabled   = "disabled"
)

// Delivery statuses.
const (
	DeliveryStatusQueued    = "queued"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
	DeliveryStatusDead      = "dead"
)

// Slot reservation sources.
const (
	SlotSourceScheduled = "scheduled"
	SlotSourceRetry     = "retry"
)

// Signing key statuses.
const (
	SigningKeyStatusActive  = "active"
	SigningKeyStatusGrace   = "grace"
	SigningKeyStatusRetired = "retired"
)

type Instance struct {
	Id            int64          `db:"id"`
	InstanceId    string         `db:"instance_id"`
	SiteId        string         `db:"site_id"`
	SiteUrl       sql.NullString `db:"site_url"`
	Status        string         `db:"status"`
	PendingReason sql.NullString `db:"pending_reason"`
	SitePubKey    string         `db:"site_pub_key"`
	SiteKeyAlg    string         `db:"site_key_alg"`
	MinuteOfDay   int            `db:"minute_of_day"`
	NextRunAt     pq.NullTime    `db:"next_run_at"`
	LastSeenAt    pq.NullTime    `db:"last_seen_at"`
	LastSuccessAt pq.NullTime    `db:"last_success_at"`
	AppVersion    sql.NullString `db:"app_version"`
	BuildId       sql.NullString `db:"build_id"`
	Commit        sql.NullString `db:"commit"`
	BuiltAt       sql.NullString `db:"built_at"`
	CreatedAt     pq.NullTime    `db:"created_at"`
	UpdatedAt     pq.NullTime    `db:"updated_at"`
}

// GetInstanceFieldTags returns the InstanceFieldTags value.
func GetInstanceFieldTags() map[string]string {
	i := Instance{}
	return getFieldTags(i)
}

// Schedulable reports the scheduling-eligibility predicate.
func (i *Instance) Schedulable() bool {
	return i != nil && i.Status == InstanceStatusActive &&
		!i.PendingReason.Valid && i.SiteUrl.Valid && i.NextRunAt.Valid
}

type Delivery struct {
	Id               string         `db:"id"`
	InstanceId       string         `db:"instance_id"`
	SiteId           string         `db:"site_id"`
	ScheduledFor     pq.NullTime    `db:"scheduled_for"`
	EnqueuedAt       pq.NullTime    `db:"enqueued_at"`
	Status           string         `db:"status"`
	AttemptCount     int            `db:"attempt_count"`
	ResponseStatus   sql.NullInt64  `db:"response_status"`
	Accepted         sql.NullInt16  `db:"accepted"`
	DedupHit         sql.NullInt16  `db:"dedup_hit"`
	LastErrorCode    sql.NullString `db:"last_error_code"`
	LastErrorMessage sql.NullString `db:"last_error_message"`
	CompletedAt      pq.NullTime    `db:"completed_at"`
	CreatedAt        pq.NullTime    `db:"created_at"`
	UpdatedAt        pq.NullTime    `db:"updated_at"`
}

// GetDeliveryFieldTags returns the DeliveryFieldTags value.
func GetDeliveryFieldTags() map[string]string {
	d := Delivery{}
	return getFieldTags(d)
}

type DeliveryAttempt struct {
	DeliveryId   string         `db:"delivery_id"`
	AttemptNo    int            `db:"attempt_no"`
	StartedAt    pq.NullTime    `db:"started_at"`
	FinishedAt   pq.NullTime    `db:"finished_at"`
	DurationMs   int64          `db:"duration_ms"`
	HttpStatus   sql.NullInt64  `db:"http_status"`
	TimedOut     int16          `db:"timed_out"`
	ErrorCode    sql.NullString `db:"error_code"`
	ErrorMessage sql.NullString `db:"error_message"`
}

// GetDeliveryAttemptFieldTags returns the DeliveryAttemptFieldTags value.
func GetDeliveryAttemptFieldTags() map[string]string {
	a := DeliveryAttempt{}
	return getFieldTags(a)
}

type DispatchMinuteLoad struct {
	MinuteStart    time.Time `db:"minute_start"`
	ScheduledCount int       `db:"scheduled_count"`
	RetryCount     int       `db:"retry_count"`
	TotalCount     int       `db:"total_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type TelemetrySample struct {
	DeliveryId    string         `db:"delivery_id"`
	InstanceId    string         `db:"instance_id"`
	SiteId        string         `db:"site_id"`
	SchemaVer     int64          `db:"schema_ver"`
	CollectedAt   pq.NullTime    `db:"collected_at"`
	Accepted      int16          `db:"accepted"`
	DedupHit      int16          `db:"dedup_hit"`
	VerifyMs      sql.NullInt64  `db:"verify_ms"`
	ItemsVerified sql.NullInt64  `db:"items_verified"`
	ItemsFailed   sql.NullInt64  `db:"items_failed"`
	QueueDepth    sql.NullInt64  `db:"queue_depth"`
	AppVersion    sql.NullString `db:"app_version"`
	RawJson       string         `db:"raw_json"`
}

// GetTelemetrySampleFieldTags returns the TelemetrySampleFieldTags value.
func GetTelemetrySampleFieldTags() map[string]string {
	s := TelemetrySample{}
	return getFieldTags(s)
}

// BuildEvent rows are managed through gorm.
type BuildEvent struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	InstanceId     string    `gorm:"column:instance_id"`
	IdempotencyKey string    `gorm:"column:idempotency_key"`
	AppVersion     string    `gorm:"column:app_version"`
	BuildId        string    `gorm:"column:build_id"`
	Commit         string    `gorm:"column:commit"`
	BuiltAt        string    `gorm:"column:built_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName maps BuildEvent onto build_events.
func (BuildEvent) TableName() string {
	return TPBuildEvent
}

// TelemetryHourly rows are managed through gorm.
type TelemetryHourly struct {
	Id               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	InstanceId       string    `gorm:"column:instance_id"`
	BucketHour       time.Time `gorm:"column:bucket_hour"`
	SampleCount      int64     `gorm:"column:sample_count"`
	AcceptedCount    int64     `gorm:"column:accepted_count"`
	AvgVerifyMs      float64   `gorm:"column:avg_verify_ms"`
	MaxVerifyMs      int64     `gorm:"column:max_verify_ms"`
	SumItemsVerified int64     `gorm:"column:sum_items_verified"`
	SumItemsFailed   int64     `gorm:"column:sum_items_failed"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

// TableName maps TelemetryHourly onto telemetry_hourly.
func (TelemetryHourly) TableName() string {
	return TPTelemetryHourly
}

// CloudSigningKey rows are managed through gorm.
type CloudSigningKey struct {
	Kid       string     `gorm:"column:kid;primaryKey"`
	Status    string     `gorm:"column:status"`
	PublicJwk string     `gorm:"column:public_jwk"`
	RetireAt  *time.Time `gorm:"column:retire_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

// TableName maps CloudSigningKey onto cloud_signing_keys.
func (CloudSigningKey) TableName() string {
	return TPCloudSigningKey
}

// getFieldTags retrieves FieldTags for internal use.
func getFieldTags(obj interface{}) map[string]string {
	result := make(map[string]string)
	t := reflect.TypeOf(obj)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		result[strings.ToLower(field.Name)] = field.Tag.Get("db")
	}
	return result
}

// generateCommand generates SQL command string using reflection
// Iterates through struct fields and builds column and value lists
// Skips fields with specified ignoreTag
// Returns formatted SQL command with columns and values
func generateCommand(obj interface{}, format, ignoreTag string) string {
	t := reflect.TypeOf(obj)
	columns := make([]string, 0, t.NumField())
	values := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == ignoreTag {
			continue
		}
		columns = append(columns, quoteColumn(tag))
		values = append(values, fmt.Sprintf(":%s", tag))
	}
	return fmt.Sprintf(format, strings.Join(columns, ", "), strings.Join(values, ", "))
}

// quoteColumn protects reserved words such as commit.
func quoteColumn(tag string) string {
	return fmt.Sprintf("%q", tag)
}
