/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package crypto

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"sort"

	gocache "github.com/patrickmn/go-cache"
)

// Jwk is the subset of an Ed25519 OKP JWK the ring consumes.
type Jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid,omitempty"`
	X   string `json:"x,omitempty"`
	D   string `json:"d,omitempty"`
}

// KeyRing holds the cloud's private signing keys by kid. Parsed
// ed25519.PrivateKey values are cached per kid for reuse within the process.
type KeyRing struct {
	jwks      map[string]Jwk
	order     []string
	activeKid string
	cache     *gocache.Cache
}

// ParseKeyRing parses CLOUD_PRIVATE_KEYS_JSON, accepting either a
// {kid -> JWK} map or a {keys: [JWK...]} set. activeKid selects the token
// issuer; empty means the first key of the ring.
func ParseKeyRing(raw, activeKid string) (*KeyRing, error) {
	if raw == "" {
		return nil, fmt.Errorf("private key ring is empty")
	}
	ring := &KeyRing{
		jwks:  make(map[string]Jwk),
		cache: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}

	var keySet struct {
		Keys []Jwk `json:"keys"`
	}
	if err := json.Unmarshal([]byte(raw), &keySet); err == nil && len(keySet.Keys) > 0 {
		for _, jwk := range keySet.Keys {
			if jwk.Kid == "" {
				return nil, fmt.Errorf("key set entry has no kid")
			}
			ring.jwks[jwk.Kid] = jwk
			ring.order = append(ring.order, jwk.Kid)
		}
	} else {
		var byKid map[string]Jwk
		if err := json.Unmarshal([]byte(raw), &byKid); err != nil {
			return nil, fmt.Errorf("failed to parse private key ring: %v", err)
		}
		if len(byKid) == 0 {
			return nil, fmt.Errorf("private key ring has no keys")
		}
		for kid, jwk := range byKid {
			jwk.Kid = kid
			ring.jwks[kid] = jwk
			ring.order = append(ring.order, kid)
		}
		sort.Strings(ring.order)
	}

	if activeKid == "" {
		activeKid = ring.order[0]
	}
	if _, ok := ring.jwks[activeKid]; !ok {
		return nil, fmt.Errorf("active kid %s not found in ring", activeKid)
	}
	ring.activeKid = activeKid

	// Fail at boot, not at dispatch time, on malformed material.
	for kid := range ring.jwks {
		if _, err := ring.PrivateKey(kid); err != nil {
			return nil, err
		}
	}
	return ring, nil
}

// ActiveKid returns the kid that signs outbound trigger tokens.
func (r *KeyRing) ActiveKid() string {
	return r.activeKid
}

// Kids returns all kids in ring order.
func (r *KeyRing) Kids() []string {
	return append([]string(nil), r.order...)
}

// PrivateKey returns the Ed25519 private key for kid.
func (r *KeyRing) PrivateKey(kid string) (ed25519.PrivateKey, error) {
	if cached, ok := r.cache.Get(kid); ok {
		return cached.(ed25519.PrivateKey), nil
	}
	jwk, ok := r.jwks[kid]
	if !ok {
		return nil, fmt.Errorf("kid %s not found in ring", kid)
	}
	key, err := privateKeyFromJwk(jwk)
	if err != nil {
		return nil, err
	}
	r.cache.Set(kid, key, gocache.NoExpiration)
	return key, nil
}

func privateKeyFromJwk(jwk Jwk) (ed25519.PrivateKey, error) {
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
		return nil, fmt.Errorf("kid %s is not an Ed25519 OKP key", jwk.Kid)
	}
	if jwk.D == "" {
		return nil, fmt.Errorf("kid %s has no private material", jwk.Kid)
	}
	seed, err := DecodeBase64Flexible(jwk.D)
	if err != nil {
		return nil, fmt.Errorf("kid %s has invalid private material: %v", jwk.Kid, err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("kid %s private material is not a %d-byte seed", jwk.Kid, ed25519.SeedSize)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// PublicJwk returns the public half of the kid's JWK for bookkeeping.
func (r *KeyRing) PublicJwk(kid string) (Jwk, error) {
	jwk, ok := r.jwks[kid]
	if !ok {
		return Jwk{}, fmt.Errorf("kid %s not found in ring", kid)
	}
	jwk.D = ""
	return jwk, nil
}
