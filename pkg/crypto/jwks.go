/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
)

const (
	jwksCacheKey = "published_jwks"
	// JwksCacheSeconds is the public cache lifetime of the JWKS document.
	JwksCacheSeconds = 300
)

var jwksCache = gocache.New(JwksCacheSeconds*time.Second, 10*time.Minute)

// ValidateJwksDocument checks that doc is structurally a JWKS: a JSON object
// with a keys array whose entries are objects carrying a kty.
func ValidateJwksDocument(doc string) error {
	var parsed struct {
		Keys []map[string]interface{} `json:"keys"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return commonerrors.NewJwksParseError("JWKS is not valid JSON").WithError(err)
	}
	if parsed.Keys == nil {
		return commonerrors.NewJwksParseError("JWKS has no keys array")
	}
	for _, key := range parsed.Keys {
		if _, ok := key["kty"].(string); !ok {
			return commonerrors.NewJwksParseError("JWKS entry has no kty")
		}
	}
	return nil
}

// PublishedJwks returns doc verbatim once it validates, caching the validated
// document so repeated requests skip re-parsing.
func PublishedJwks(doc string) (string, error) {
	if cached, ok := jwksCache.Get(jwksCacheKey); ok {
		return cached.(string), nil
	}
	if err := ValidateJwksDocument(doc); err != nil {
		return "", err
	}
	jwksCache.SetDefault(jwksCacheKey, doc)
	return doc, nil
}
