/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
)

// Trigger token lifetimes.
const (
	tokenNotBeforeSkew = 5 * time.Second
	tokenLifetime      = 60 * time.Second
)

// MintTriggerToken signs the short-lived JWT presented to the instance's
// trigger endpoint. The active key of the ring signs; the kid travels in the
// protected header.
func MintTriggerToken(ring *KeyRing, issuer, audience, deliveryId, siteId string, now time.Time) (string, error) {
	key, err := ring.PrivateKey(ring.ActiveKid())
	if err != nil {
		return "", commonerrors.NewTokenSignFailed("signing key unavailable").WithError(err)
	}
	now = now.UTC()
	claims := jwt.MapClaims{
		"iss":        issuer,
		"aud":        audience,
		"sub":        siteId,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"nbf":        now.Add(-tokenNotBeforeSkew).Unix(),
		"exp":        now.Add(tokenLifetime).Unix(),
		"deliveryId": deliveryId,
		"siteId":     siteId,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = ring.ActiveKid()
	signed, err := token.SignedString(key)
	if err != nil {
		return "", commonerrors.NewTokenSignFailed("failed to sign trigger token").WithError(err)
	}
	return signed, nil
}
