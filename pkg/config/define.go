/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

const (
	// server
	serverPrefix = "server."
	serverPort   = serverPrefix + "port"

	// cloud signing identity
	cloudPrefix          = "cloud."
	cloudJwksJson        = cloudPrefix + "jwks_json"
	cloudPrivateKeysJson = cloudPrefix + "private_keys_json"
	cloudActiveKid       = cloudPrefix + "active_kid"
	cloudIssuer          = cloudPrefix + "issuer"
	cloudTriggerAudience = cloudPrefix + "trigger_audience"

	// inbound signature gate
	signaturePrefix   = "signature."
	signatureWindowMs = signaturePrefix + "window_ms"

	// dispatch pipeline
	dispatchPrefix              = "dispatch."
	dispatchTriggerPath         = dispatchPrefix + "trigger_path"
	dispatchRequestTimeoutMs    = dispatchPrefix + "request_timeout_ms"
	dispatchMaxRetryAttempts    = dispatchPrefix + "max_retry_attempts"
	dispatchMaxPerMinute        = dispatchPrefix + "max_per_minute"
	dispatchMaxSlotLookahead    = dispatchPrefix + "max_slot_lookahead_minutes"
	dispatchMaxScanPerTick      = dispatchPrefix + "max_schedule_scan_per_tick"
	dispatchScheduleBatchLimit  = dispatchPrefix + "schedule_batch_limit"
	dispatchMinuteLoadRetention = dispatchPrefix + "minute_load_retention_hours"

	// telemetry ingestion
	telemetryPrefix        = "telemetry."
	telemetryRawMaxBytes   = telemetryPrefix + "raw_max_bytes"
	telemetrySchemaVersion = telemetryPrefix + "schema_version"

	// maintenance retention
	maintenancePrefix         = "maintenance."
	maintenanceRawSampleDays  = maintenancePrefix + "raw_sample_days"
	maintenanceHourlyDays     = maintenancePrefix + "hourly_days"
	maintenanceBuildEventDays = maintenancePrefix + "build_event_days"
	maintenanceAggregateHours = maintenancePrefix + "aggregate_hours"

	// queue
	queuePrefix          = "queue."
	queueRegion          = queuePrefix + "region"
	queueDispatchUrl     = queuePrefix + "dispatch_url"
	queueDlqUrl          = queuePrefix + "dlq_url"
	queueWaitTimeSeconds = queuePrefix + "wait_time_seconds"
	queueMaxMessages     = queuePrefix + "max_messages"

	// db
	dbPrefix               = "db."
	dbSecretPath           = dbPrefix + "secret_path"
	dbSslMode              = dbPrefix + "ssl_mode"
	dbMaxOpenConns         = dbPrefix + "max_open_conns"
	dbMaxIdleConns         = dbPrefix + "max_idle_conns"
	dbMaxLifetime          = dbPrefix + "max_life_time_second"
	dbMaxIdleTimeSecond    = dbPrefix + "max_idle_time_second"
	dbConnectTimeoutSecond = dbPrefix + "connect_timeout_second"
	dbRequestTimeoutSecond = dbPrefix + "request_timeout_second"

	// tracing
	tracingPrefix        = "tracing."
	tracingEnable        = tracingPrefix + "enable"
	tracingSamplingRatio = tracingPrefix + "sampling_ratio"
)
