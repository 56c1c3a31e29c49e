/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package multikey encodes and decodes multibase/multicodec public keys
// of the kind carried in did:webvh update key sets.
package multikey

import (
	"crypto/ed25519"
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

// ED25519PubKeyMultiCodec is the multicodec code for Ed25519 public keys.
const ED25519PubKeyMultiCodec = uint64(0xed)

// Encode returns the base58btc multibase encoding of the multicodec
// framing of an Ed25519 public key.
func Encode(pubKey ed25519.PublicKey) (string, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid ed25519 public key length %d", len(pubKey))
	}

	prefix := varint.ToUvarint(ED25519PubKeyMultiCodec)

	framed := make([]byte, 0, len(prefix)+len(pubKey))
	framed = append(framed, prefix...)
	framed = append(framed, pubKey...)

	encoded, err := multibase.Encode(multibase.Base58BTC, framed)
	if err != nil {
		return "", fmt.Errorf("encode multikey: %w", err)
	}

	return encoded, nil
}

// Decode parses a multibase multikey string and returns the Ed25519
// public key it frames.
func Decode(encoded string) (ed25519.PublicKey, error) {
	encoding, decoded, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode multikey: %w", err)
	}

	if encoding != multibase.Base58BTC {
		return nil, fmt.Errorf("multikey %s is not base58btc encoded", encoded)
	}

	code, read, err := varint.FromUvarint(decoded)
	if err != nil {
		return nil, fmt.Errorf("decode multikey codec: %w", err)
	}

	if code != ED25519PubKeyMultiCodec {
		return nil, fmt.Errorf("unsupported multikey codec 0x%x", code)
	}

	keyBytes := decoded[read:]
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid ed25519 public key length %d", len(keyBytes))
	}

	return ed25519.PublicKey(keyBytes), nil
}
