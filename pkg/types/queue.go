/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

// DispatchMessage is the queue wire format for one delivery attempt.
// Timestamps are RFC3339 UTC strings; DispatchAttempt starts at 1.
type DispatchMessage struct {
	DeliveryId      string `json:"deliveryId"`
	InstanceId      string `json:"instanceId"`
	SiteId          string `json:"siteId"`
	SiteUrl         string `json:"siteUrl"`
	ScheduledFor    string `json:"scheduledFor"`
	EnqueuedAt      string `json:"enqueuedAt"`
	DispatchAttempt int    `json:"dispatchAttempt"`
}

// Valid reports whether the message carries the fields the consumer needs.
func (m *DispatchMessage) Valid() bool {
	return m != nil && m.DeliveryId != "" && m.InstanceId != "" &&
		m.SiteId != "" && m.DispatchAttempt >= 1
}

// TriggerRequest is the body POSTed to the instance trigger endpoint.
type TriggerRequest struct {
	DeliveryId  string `json:"deliveryId"`
	SiteId      string `json:"siteId"`
	TriggerType string `json:"triggerType"`
	RequestedAt string `json:"requestedAt"`
}
