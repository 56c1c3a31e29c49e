/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package hashing computes the multibase-encoded multihashes that
// did:webvh uses for SCIDs, entry hashes and pre-rotation commitments.
package hashing

import (
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/decentralized-identity/didwebvh-go/doc/json/canonicalizer"
)

// Multihash returns the base58btc multibase encoding of the SHA2-256
// multihash of the given bytes.
func Multihash(data []byte) (string, error) {
	computed, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("compute multihash: %w", err)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, computed)
	if err != nil {
		return "", fmt.Errorf("encode multihash: %w", err)
	}

	return encoded, nil
}

// MultihashModel canonicalizes the model with JCS and returns the
// base58btc multibase encoding of its SHA2-256 multihash.
func MultihashModel(model interface{}) (string, error) {
	canonical, err := canonicalizer.MarshalCanonical(model)
	if err != nil {
		return "", err
	}

	return Multihash(canonical)
}

// IsMultihash reports whether the encoded string is a well-formed
// base58btc multibase encoding of a SHA2-256 multihash.
func IsMultihash(encoded string) bool {
	encoding, decoded, err := multibase.Decode(encoded)
	if err != nil || encoding != multibase.Base58BTC {
		return false
	}

	parsed, err := multihash.Decode(decoded)
	if err != nil {
		return false
	}

	return parsed.Code == multihash.SHA2_256
}
