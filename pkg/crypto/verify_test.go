/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/NeutralPress/cloud/pkg/errors"
	"github.com/NeutralPress/cloud/pkg/types"
)

func signedRequest(t *testing.T, priv ed25519.PrivateKey, method, path string, body []byte, ts int64) (*types.SignatureBlock, map[string]interface{}) {
	t.Helper()
	payload, err := DecodeBody(body)
	require.NoError(t, err)
	bodyHash, err := HashPayload(payload)
	require.NoError(t, err)

	nonce := "nonce-12345678"
	message := BuildSigningMessage(method, path, bodyHash, ts, nonce)
	sig := ed25519.Sign(priv, []byte(message))
	return &types.SignatureBlock{
		Alg:   "EdDSA",
		Ts:    ts,
		Nonce: nonce,
		Sig:   EncodeBase64Url(sig),
	}, payload
}

func TestVerifyRequestAcceptsValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"siteId":"11111111-2222-3333-4444-555555555555","siteUrl":"https://site.test"}`)
	sig, payload := signedRequest(t, priv, "post", "/v1/instances/sync", body, time.Now().UnixMilli())
	payload["signature"] = map[string]interface{}{"alg": sig.Alg}

	keyMaterial := EncodeBase64Url(pub)
	assert.NoError(t, VerifyRequest(keyMaterial, sig, "POST", "/v1/instances/sync", payload))
}

func TestVerifyRequestRejectsTamperedPayload(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"siteId":"a","siteUrl":"https://site.test"}`)
	sig, payload := signedRequest(t, priv, "POST", "/v1/instances/sync", body, time.Now().UnixMilli())
	payload["siteUrl"] = "https://evil.test"

	err = VerifyRequest(EncodeBase64Url(pub), sig, "POST", "/v1/instances/sync", payload)
	assert.True(t, commonerrors.IsCode(err, commonerrors.InvalidSignature))
}

func TestVerifyRequestRejectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"siteId":"a"}`)
	sig, payload := signedRequest(t, priv, "POST", "/v1/instances/sync", body, time.Now().UnixMilli())

	err = VerifyRequest(EncodeBase64Url(otherPub), sig, "POST", "/v1/instances/sync", payload)
	assert.True(t, commonerrors.IsCode(err, commonerrors.InvalidSignature))
}

func TestVerifyRequestRejectsShortNonce(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	body := []byte(`{"siteId":"a"}`)
	sig, payload := signedRequest(t, priv, "POST", "/v1/instances/sync", body, time.Now().UnixMilli())
	sig.Nonce = "short"

	err = VerifyRequest(EncodeBase64Url(pub), sig, "POST", "/v1/instances/sync", payload)
	assert.True(t, commonerrors.IsCode(err, commonerrors.InvalidSignature))
}

func TestCheckFreshnessBoundary(t *testing.T) {
	now := time.Now()
	windowMs := 300000

	atBoundary := &types.SignatureBlock{Ts: now.UnixMilli() - int64(windowMs)}
	assert.NoError(t, CheckFreshness(atBoundary, now, windowMs))

	beyond := &types.SignatureBlock{Ts: now.UnixMilli() - int64(windowMs) - 1}
	err := CheckFreshness(beyond, now, windowMs)
	assert.True(t, commonerrors.IsCode(err, commonerrors.SignatureTimestampExpired))

	future := &types.SignatureBlock{Ts: now.UnixMilli() + int64(windowMs) + 1}
	err = CheckFreshness(future, now, windowMs)
	assert.True(t, commonerrors.IsCode(err, commonerrors.SignatureTimestampExpired))
}

func TestParseSitePublicKeyShapes(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	// Raw 32 bytes, base64url.
	parsed, err := ParseSitePublicKey(EncodeBase64Url(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	// Raw 32 bytes, padded standard base64.
	parsed, err = ParseSitePublicKey(base64.StdEncoding.EncodeToString(pub))
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	// SPKI PEM.
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	parsed, err = ParseSitePublicKey(pemText)
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	// SPKI DER, base64.
	parsed, err = ParseSitePublicKey(base64.StdEncoding.EncodeToString(der))
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	// DNS-TXT style.
	txt := "v=NPKEY1; k=ed25519; p=" + base64.StdEncoding.EncodeToString(pub)
	parsed, err = ParseSitePublicKey(txt)
	require.NoError(t, err)
	assert.Equal(t, pub, parsed)

	// Fails closed.
	_, err = ParseSitePublicKey("")
	assert.Error(t, err)
	_, err = ParseSitePublicKey("v=NPKEY1; k=rsa; p=AAAA")
	assert.Error(t, err)
	_, err = ParseSitePublicKey("not-a-key")
	assert.Error(t, err)
}
