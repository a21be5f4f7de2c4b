/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"crypto/ed25519"
	"fmt"
	"strings"
	"time"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/types"
)

const (
	// SignaturePrefix versions the signed tuple format.
	SignaturePrefix = "NP-CLOUD-SIGN-V1"

	minNonceLength = 8
	minSigLength   = 16
)

// BuildSigningMessage assembles the newline-joined tuple the instance signed.
func BuildSigningMessage(method, path, bodyHash string, ts int64, nonce string) string {
	return strings.Join([]string{
		SignaturePrefix,
		strings.ToUpper(method),
		path,
		bodyHash,
		fmt.Sprintf("%d", ts),
		nonce,
	}, "\n")
}

// CheckFreshness enforces |now - ts| <= windowMs. The boundary accepts.
func CheckFreshness(sig *types.SignatureBlock, now time.Time, windowMs int) error {
	if sig == nil {
		return commonerrors.NewInvalidSignature("missing signature")
	}
	skew := now.UnixMilli() - sig.Ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(windowMs) {
		return commonerrors.NewSignatureTimestampExpired(
			fmt.Sprintf("signature timestamp outside %dms window", windowMs))
	}
	return nil
}

// VerifyRequest verifies the detached signature of a registration request.
// payload must be the decoded request body; its signature field is removed
// before hashing. Verification fails closed on any parse error.
func VerifyRequest(keyMaterial string, sig *types.SignatureBlock, method, path string, payload map[string]interface{}) error {
	if sig == nil {
		return commonerrors.NewInvalidSignature("missing signature")
	}
	if sig.Alg != "EdDSA" {
		return commonerrors.NewInvalidSignature("unsupported signature alg")
	}
	if len(sig.Nonce) < minNonceLength {
		return commonerrors.NewInvalidSignature("nonce too short")
	}
	if len(sig.Sig) < minSigLength {
		return commonerrors.NewInvalidSignature("signature too short")
	}
	pub, err := ParseSitePublicKey(keyMaterial)
	if err != nil {
		return commonerrors.NewInvalidSignature("invalid site public key").WithError(err)
	}
	body := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if k == "signature" {
			continue
		}
		body[k] = v
	}
	bodyHash, err := HashPayload(body)
	if err != nil {
		return commonerrors.NewInvalidSignature("failed to hash payload").WithError(err)
	}
	sigBytes, err := DecodeBase64Flexible(sig.Sig)
	if err != nil {
		return commonerrors.NewInvalidSignature("signature is not base64").WithError(err)
	}
	message := BuildSigningMessage(method, path, bodyHash, sig.Ts, sig.Nonce)
	if !ed25519.Verify(pub, []byte(message), sigBytes) {
		return commonerrors.NewInvalidSignature("signature verification failed")
	}
	return nil
}
