/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package utils

import (
	"net/url"
	"strings"
)

// Pending reasons produced by site-URL normalization.
const (
	PendingUrlMissing         = "pending_url_missing"
	PendingUrlInvalid         = "pending_url_invalid"
	PendingUrlInvalidProtocol = "pending_url_invalid_protocol"
	PendingUrlDefaultExample  = "pending_url_default_example"
	PendingUrlLocalhost       = "pending_url_localhost"
)

// NormalizeSiteUrl reduces a raw site URL to its origin. It returns the
// normalized "<scheme>://<host>" and an empty reason, or an empty URL and the
// pending reason that keeps the instance out of scheduling.
func NormalizeSiteUrl(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", PendingUrlMissing
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", PendingUrlInvalid
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", PendingUrlInvalidProtocol
	}
	host := strings.ToLower(u.Host)
	hostname := strings.ToLower(u.Hostname())
	if hostname == "example.com" {
		return "", PendingUrlDefaultExample
	}
	if isLocalHost(hostname) {
		return "", PendingUrlLocalhost
	}
	return scheme + "://" + host, ""
}

func isLocalHost(hostname string) bool {
	switch hostname {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	if strings.HasSuffix(hostname, ".localhost") || strings.HasSuffix(hostname, ".local") {
		return true
	}
	return strings.HasPrefix(hostname, "127.")
}
