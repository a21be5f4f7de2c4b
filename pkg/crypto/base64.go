/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"encoding/base64"
	"fmt"
)

// EncodeBase64Url encodes b as base64url without padding.
func EncodeBase64Url(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64Flexible decodes s accepting either the standard or the URL
// alphabet, padded or unpadded.
func DecodeBase64Flexible(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("not a valid base64 string")
}
