/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
)

// ParseSitePublicKey accepts instance key material in three shapes:
// PEM with a PUBLIC KEY label (SPKI), bare base64/base64url (32 raw Ed25519
// bytes, or SPKI DER), and DNS-TXT style "v=...; k=ed25519; p=<base64>".
// It fails closed on any parse error.
func ParseSitePublicKey(material string) (ed25519.PublicKey, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, fmt.Errorf("empty key material")
	}
	if strings.Contains(material, "-----BEGIN") {
		return parsePemPublicKey(material)
	}
	if strings.Contains(material, "p=") && strings.Contains(material, "=") && strings.Contains(material, ";") {
		return parseTxtPublicKey(material)
	}
	raw, err := DecodeBase64Flexible(material)
	if err != nil {
		return nil, fmt.Errorf("key material is not base64: %v", err)
	}
	if len(raw) == ed25519.PublicKeySize {
		return ed25519.PublicKey(raw), nil
	}
	return parseSpkiDer(raw)
}

func parsePemPublicKey(material string) (ed25519.PublicKey, error) {
	block, _ := pem.Decode([]byte(material))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("invalid PEM public key")
	}
	return parseSpkiDer(block.Bytes)
}

func parseSpkiDer(der []byte) (ed25519.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("invalid SPKI key: %v", err)
	}
	edPub, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is not Ed25519")
	}
	return edPub, nil
}

// parseTxtPublicKey reads a DNS-TXT style record; the p value supplies the
// raw key material.
func parseTxtPublicKey(material string) (ed25519.PublicKey, error) {
	var p string
	for _, part := range strings.Split(material, ";") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "k="):
			if !strings.EqualFold(strings.TrimPrefix(part, "k="), "ed25519") {
				return nil, fmt.Errorf("unsupported key type in TXT record")
			}
		case strings.HasPrefix(part, "p="):
			p = strings.TrimPrefix(part, "p=")
		}
	}
	if p == "" {
		return nil, fmt.Errorf("TXT record has no p value")
	}
	raw, err := DecodeBase64Flexible(p)
	if err != nil {
		return nil, fmt.Errorf("TXT p value is not base64: %v", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("TXT p value is not a raw Ed25519 key")
	}
	return ed25519.PublicKey(raw), nil
}
