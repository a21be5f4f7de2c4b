/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

// SignatureBlock is the detached signature envelope carried by every signed
// instance request. Ts is epoch milliseconds at signing time.
type SignatureBlock struct {
	Alg   string `json:"alg"`
	Ts    int64  `json:"ts"`
	Nonce string `json:"nonce"`
	Sig   string `json:"sig"`
	Kid   string `json:"kid,omitempty"`
}

// SyncRequest registers or refreshes an instance.
type SyncRequest struct {
	SiteId         string          `json:"siteId"`
	SitePubKey     string          `json:"sitePubKey"`
	SiteKeyAlg     string          `json:"siteKeyAlg"`
	SiteUrl        string          `json:"siteUrl"`
	AppVersion     string          `json:"appVersion"`
	BuildId        string          `json:"buildId"`
	Commit         string          `json:"commit"`
	BuiltAt        string          `json:"builtAt"`
	IdempotencyKey string          `json:"idempotencyKey"`
	MinuteOfDay    *int            `json:"minuteOfDay,omitempty"`
	Signature      *SignatureBlock `json:"signature"`
}

// SyncResponse is the sync reply projection.
type SyncResponse struct {
	InstanceId     string `json:"instanceId"`
	Status         string `json:"status"`
	PendingReason  string `json:"pendingReason,omitempty"`
	MinuteOfDay    int    `json:"minuteOfDay"`
	NextRunAt      string `json:"nextRunAt,omitempty"`
	CloudActiveKid string `json:"cloudActiveKid"`
	SyncedAt       string `json:"syncedAt"`
}

// DeregisterRequest disables an instance.
type DeregisterRequest struct {
	SiteId      string          `json:"siteId"`
	Reason      string          `json:"reason"`
	RequestedAt string          `json:"requestedAt"`
	Signature   *SignatureBlock `json:"signature"`
}

// DeregisterResponse acknowledges a deregistration.
type DeregisterResponse struct {
	InstanceId     string `json:"instanceId"`
	Status         string `json:"status"`
	DeregisteredAt string `json:"deregisteredAt"`
}

// StatusRequest asks for the read-only instance projection.
type StatusRequest struct {
	SiteId      string          `json:"siteId"`
	RequestedAt string          `json:"requestedAt"`
	Signature   *SignatureBlock `json:"signature"`
}

// StatusResponse is the read-only instance projection.
type StatusResponse struct {
	InstanceId    string `json:"instanceId"`
	SiteId        string `json:"siteId"`
	Status        string `json:"status"`
	PendingReason string `json:"pendingReason,omitempty"`
	SiteUrl       string `json:"siteUrl,omitempty"`
	MinuteOfDay   int    `json:"minuteOfDay"`
	NextRunAt     string `json:"nextRunAt,omitempty"`
	LastSeenAt    string `json:"lastSeenAt,omitempty"`
	LastSuccessAt string `json:"lastSuccessAt,omitempty"`
	AppVersion    string `json:"appVersion,omitempty"`
	BuildId       string `json:"buildId,omitempty"`
	Commit        string `json:"commit,omitempty"`
	BuiltAt       string `json:"builtAt,omitempty"`
}

// ApiError is the error half of the response envelope.
type ApiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the JSON envelope every endpoint replies with.
type Response struct {
	Ok    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ApiError   `json:"error,omitempty"`
}

// BannerResponse is the GET / service banner.
type BannerResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
