/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// SetValue sets a configuration value for the specified key.
func SetValue(key string, value interface{}) {
	viper.Set(key, value)
}

// LoadConfig loads configuration from the specified file path.
func LoadConfig(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func getFloat(key string, defaultValue float64) float64 {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetFloat64(key)
}

func getFromFile(configPath, item string) string {
	path := getString(configPath, "")
	data, err := os.ReadFile(filepath.Join(path, item))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\r\n")
}

// GetServerPort returns the API server port.
func GetServerPort() int {
	return getInt(serverPort, 8080)
}

// GetCloudJwksJson returns the published JWKS document.
func GetCloudJwksJson() string {
	return getString(cloudJwksJson, "")
}

// GetCloudPrivateKeysJson returns the private key ring document.
func GetCloudPrivateKeysJson() string {
	return getString(cloudPrivateKeysJson, "")
}

// GetCloudActiveKid returns the kid that signs outbound trigger tokens.
// Empty means the first key of the ring.
func GetCloudActiveKid() string {
	return getString(cloudActiveKid, "")
}

// GetCloudIssuer returns the JWT issuer claim for trigger tokens.
func GetCloudIssuer() string {
	return getString(cloudIssuer, "np-cloud")
}

// GetTriggerAudience returns the JWT audience claim for trigger tokens.
func GetTriggerAudience() string {
	return getString(cloudTriggerAudience, "np-instance")
}

// GetSignatureWindowMs returns the inbound signature freshness window in
// milliseconds.
func GetSignatureWindowMs() int {
	return getInt(signatureWindowMs, 300000)
}

// GetTriggerPath returns the path on the instance to POST trigger calls to.
func GetTriggerPath() string {
	return getString(dispatchTriggerPath, "/api/internal/cron/cloud-trigger")
}

// GetRequestTimeoutMs returns the outbound dispatch timeout in milliseconds.
func GetRequestTimeoutMs() int {
	return getInt(dispatchRequestTimeoutMs, 15000)
}

// GetMaxRetryAttempts returns the delivery retry ceiling.
func GetMaxRetryAttempts() int {
	return getInt(dispatchMaxRetryAttempts, 6)
}

// GetMaxDispatchPerMinute returns the per-minute dispatch quota.
func GetMaxDispatchPerMinute() int {
	return getInt(dispatchMaxPerMinute, 60)
}

// GetMaxSlotLookaheadMinutes returns the slot reservation look-ahead window.
func GetMaxSlotLookaheadMinutes() int {
	return getInt(dispatchMaxSlotLookahead, 5)
}

// GetMaxScheduleScanPerTick returns the soft ceiling of enqueues per tick.
func GetMaxScheduleScanPerTick() int {
	return getInt(dispatchMaxScanPerTick, 500)
}

// GetScheduleBatchLimit returns the due-instance scan batch size.
func GetScheduleBatchLimit() int {
	return getInt(dispatchScheduleBatchLimit, 100)
}

// GetMinuteLoadRetentionHours returns how long dispatch_minute_load rows are
// kept.
func GetMinuteLoadRetentionHours() int {
	return getInt(dispatchMinuteLoadRetention, 24)
}

// GetTelemetryRawMaxBytes returns the raw telemetry payload cap.
func GetTelemetryRawMaxBytes() int {
	return getInt(telemetryRawMaxBytes, 4096)
}

// GetTelemetrySchemaVersion returns the default telemetry schema version.
func GetTelemetrySchemaVersion() int {
	return getInt(telemetrySchemaVersion, 1)
}

// GetMaintenanceRawSampleDays returns raw telemetry retention in days.
func GetMaintenanceRawSampleDays() int {
	return getInt(maintenanceRawSampleDays, 90)
}

// GetMaintenanceHourlyDays returns hourly aggregate retention in days.
func GetMaintenanceHourlyDays() int {
	return getInt(maintenanceHourlyDays, 365)
}

// GetMaintenanceBuildEventDays returns build event retention in days.
func GetMaintenanceBuildEventDays() int {
	return getInt(maintenanceBuildEventDays, 365)
}

// GetMaintenanceAggregateHours returns the raw window recomputed into hourly
// aggregates.
func GetMaintenanceAggregateHours() int {
	return getInt(maintenanceAggregateHours, 2)
}

// GetQueueRegion returns the AWS region of the dispatch queues.
func GetQueueRegion() string {
	return getString(queueRegion, "")
}

// GetQueueDispatchUrl returns the main dispatch queue URL.
func GetQueueDispatchUrl() string {
	return getString(queueDispatchUrl, "")
}

// GetQueueDlqUrl returns the dead-letter queue URL.
func GetQueueDlqUrl() string {
	return getString(queueDlqUrl, "")
}

// GetQueueWaitTimeSeconds returns the long-poll wait time.
func GetQueueWaitTimeSeconds() int {
	return getInt(queueWaitTimeSeconds, 20)
}

// GetQueueMaxMessages returns the receive batch size.
func GetQueueMaxMessages() int {
	return getInt(queueMaxMessages, 10)
}

// GetDBHost returns the database host address.
func GetDBHost() string {
	return getFromFile(dbSecretPath, "host")
}

// GetDBPort returns the database port number.
func GetDBPort() int {
	data := getFromFile(dbSecretPath, "port")
	n, err := strconv.Atoi(data)
	if err != nil {
		return 0
	}
	return n
}

// GetDBName returns the database name.
func GetDBName() string {
	return getFromFile(dbSecretPath, "dbname")
}

// GetDBUser returns the database username.
func GetDBUser() string {
	return getFromFile(dbSecretPath, "user")
}

// GetDBPassword returns the database password.
func GetDBPassword() string {
	return getFromFile(dbSecretPath, "password")
}

// GetDBSslMode returns the database SSL mode.
func GetDBSslMode() string {
	return getString(dbSslMode, "require")
}

// GetDBMaxOpenConns returns the maximum number of open database connections.
func GetDBMaxOpenConns() int {
	return getInt(dbMaxOpenConns, 100)
}

// GetDBMaxIdleConns returns the maximum number of idle database connections.
func GetDBMaxIdleConns() int {
	return getInt(dbMaxIdleConns, 10)
}

// GetDBMaxLifetimeSecond returns the maximum lifetime of database connections in seconds.
func GetDBMaxLifetimeSecond() int {
	return getInt(dbMaxLifetime, 600)
}

// GetDBMaxIdleTimeSecond returns the maximum idle time of database connections in seconds.
func GetDBMaxIdleTimeSecond() int {
	return getInt(dbMaxIdleTimeSecond, 60)
}

// GetDBConnectTimeoutSecond returns the database connection timeout in seconds.
func GetDBConnectTimeoutSecond() int {
	return getInt(dbConnectTimeoutSecond, 10)
}

// GetDBRequestTimeoutSecond returns the database request timeout in seconds.
func GetDBRequestTimeoutSecond() int {
	return getInt(dbRequestTimeoutSecond, 20)
}

// IsTracingEnable returns whether OpenTelemetry tracing is enabled.
func IsTracingEnable() bool {
	return getBool(tracingEnable, false)
}

// GetTracingSamplingRatio returns the sampling ratio for trace export (0.0 to 1.0).
func GetTracingSamplingRatio() float64 {
	return getFloat(tracingSamplingRatio, 1.0)
}
