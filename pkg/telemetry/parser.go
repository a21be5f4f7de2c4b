/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/NeutralPress/cloud/pkg/timeutil"
)

// Sample is the flat projection of an instance's trigger response.
// Nullable numeric fields stay nil when the response omits or mangles them.
type Sample struct {
	Accepted      bool
	DedupHit      bool
	VerifyMs      *int64
	ItemsVerified *int64
	ItemsFailed   *int64
	QueueDepth    *int64
	AppVersion    string
	SchemaVer     int64
	CollectedAt   time.Time
	RawJson       string
}

// Parse tolerantly projects the raw trigger response into a Sample.
// Missing or malformed fields degrade to their defaults; the raw body is
// retained up to rawMaxBytes, truncated on a UTF-8 boundary.
func Parse(raw []byte, now time.Time, schemaVersion, rawMaxBytes int) Sample {
	var root map[string]interface{}
	_ = json.Unmarshal(raw, &root)

	sample := Sample{
		SchemaVer:   int64(schemaVersion),
		CollectedAt: now.UTC(),
		RawJson:     TruncateUTF8(string(raw), rawMaxBytes),
	}

	pv := readPath(root, "data", "protocolVerification")
	data := readPath(root, "data")

	sample.Accepted = readBooleanFallback(false, valueAt(pv, "accepted"), valueAt(data, "accepted"), valueAt(root, "accepted"))
	sample.DedupHit = readBooleanFallback(false, valueAt(pv, "dedupHit"), valueAt(data, "dedupHit"), valueAt(root, "dedupHit"))
	sample.VerifyMs = readNumber(valueAt(pv, "verifyMs"))
	sample.ItemsVerified = readNumber(valueAt(pv, "itemsVerified"))
	sample.ItemsFailed = readNumber(valueAt(pv, "itemsFailed"))
	sample.QueueDepth = readNumber(valueAt(pv, "queueDepth"))
	sample.AppVersion = readString(valueAt(data, "appVersion"))

	if ver := readNumber(valueAt(data, "schemaVer")); ver != nil {
		sample.SchemaVer = *ver
	}
	if at := readString(valueAt(data, "collectedAt")); at != "" {
		if parsed, err := timeutil.ParseRFC3339(at); err == nil {
			sample.CollectedAt = parsed
		}
	}
	return sample
}

// readPath walks nested objects only; a non-object on the way yields nil.
func readPath(root map[string]interface{}, path ...string) map[string]interface{} {
	current := root
	for _, key := range path {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

func valueAt(obj map[string]interface{}, key string) interface{} {
	if obj == nil {
		return nil
	}
	return obj[key]
}

// readString accepts non-empty trimmed strings only.
func readString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// readBoolean accepts true/false, 0/1 and their string forms
// (case-insensitive). Anything else is nil.
func readBoolean(v interface{}) *bool {
	switch val := v.(type) {
	case bool:
		return &val
	case float64:
		if val == 0 || val == 1 {
			b := val == 1
			return &b
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1":
			b := true
			return &b
		case "false", "0":
			b := false
			return &b
		}
	}
	return nil
}

func readBooleanFallback(def bool, candidates ...interface{}) bool {
	for _, candidate := range candidates {
		if b := readBoolean(candidate); b != nil {
			return *b
		}
	}
	return def
}

// readNumber accepts finite numbers rounded to the nearest integer, and
// base-10 decimal strings. Anything else is nil.
func readNumber(v interface{}) *int64 {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		n := int64(math.Round(val))
		return &n
	case string:
		trimmed := strings.TrimSpace(val)
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			n := int64(math.Round(f))
			return &n
		}
	}
	return nil
}

// TruncateUTF8 cuts s to at most maxBytes without splitting a codepoint.
func TruncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		if maxBytes <= 0 {
			return ""
		}
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
