/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONSortsKeys(t *testing.T) {
	payload, err := DecodeBody([]byte(`{"b":2,"a":{"d":[3,1],"c":"x"}}`))
	require.NoError(t, err)

	canonical, err := CanonicalJSON(payload)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"c":"x","d":[3,1]},"b":2}`, string(canonical))
}

func TestCanonicalJSONIdempotent(t *testing.T) {
	payload, err := DecodeBody([]byte(`{"z":1.50,"m":[{"q":true,"p":null}],"a":"v"}`))
	require.NoError(t, err)

	first, err := CanonicalJSON(payload)
	require.NoError(t, err)

	reparsed, err := DecodeBody(first)
	require.NoError(t, err)
	second, err := CanonicalJSON(reparsed)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCanonicalJSONPreservesNumericLexemes(t *testing.T) {
	payload, err := DecodeBody([]byte(`{"n":1.50}`))
	require.NoError(t, err)

	canonical, err := CanonicalJSON(payload)
	require.NoError(t, err)
	assert.Equal(t, `{"n":1.50}`, string(canonical))
}

func TestHashPayloadIgnoresKeyOrder(t *testing.T) {
	left, err := DecodeBody([]byte(`{"siteId":"s1","siteUrl":"https://a.test","nested":{"x":1,"y":2}}`))
	require.NoError(t, err)
	right, err := DecodeBody([]byte(`{"nested":{"y":2,"x":1},"siteUrl":"https://a.test","siteId":"s1"}`))
	require.NoError(t, err)

	leftHash, err := HashPayload(left)
	require.NoError(t, err)
	rightHash, err := HashPayload(right)
	require.NoError(t, err)
	assert.Equal(t, leftHash, rightHash)
	assert.NotContains(t, leftHash, "=")
}

func TestCanonicalJSONNoHTMLEscaping(t *testing.T) {
	payload, err := DecodeBody([]byte(`{"url":"https://a.test/path?x=1&y=2"}`))
	require.NoError(t, err)

	canonical, err := CanonicalJSON(payload)
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://a.test/path?x=1&y=2"}`, string(canonical))
}

func TestDecodeBase64FlexibleRoundTrip(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x00, 0x41, 0x7e, 0x3f, 0xfa}
	encoded := EncodeBase64Url(data)

	decoded, err := DecodeBase64Flexible(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	// Padded standard alphabet decodes too.
	decoded, err = DecodeBase64Flexible("+/8AQX4/+g==")
	require.NoError(t, err)
	assert.NotEmpty(t, decoded)

	_, err = DecodeBase64Flexible("!!not base64!!")
	assert.Error(t, err)
}
