/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk provides a minimal JWK model for the public keys carried
// in DID document verification methods.
package jwk

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jose "github.com/go-jose/go-jose/v3"
)

// ErrInvalidKey is returned when a passed JWK is invalid.
var ErrInvalidKey = errors.New("invalid JWK")

// JWK represents a public key in JWK format.
type JWK struct {
	Use   string      `json:"use,omitempty"`
	Kty   string      `json:"kty,omitempty"`
	KeyID string      `json:"kid,omitempty"`
	Crv   string      `json:"crv,omitempty"`
	Alg   string      `json:"alg,omitempty"`
	X     *ByteBuffer `json:"x,omitempty"`
	Y     *ByteBuffer `json:"y,omitempty"`
}

// Parse parses a JWK from its JSON serialization.
func Parse(data []byte) (*JWK, error) {
	key := &JWK{}

	if err := json.Unmarshal(data, key); err != nil {
		return nil, fmt.Errorf("parse JWK: %w", err)
	}

	if key.Kty == "" {
		return nil, fmt.Errorf("parse JWK: %w: missing kty", ErrInvalidKey)
	}

	return key, nil
}

// FromPublicKey builds a JWK from a raw public key, using go-jose for
// the key-type plumbing.
func FromPublicKey(pub interface{}) (*JWK, error) {
	joseKey := jose.JSONWebKey{Key: pub}

	serialized, err := joseKey.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal public key as JWK: %w", err)
	}

	return Parse(serialized)
}

// ED25519PublicKeyBytes returns the raw Ed25519 public key bytes held
// in an OKP JWK.
func (j *JWK) ED25519PublicKeyBytes() (ed25519.PublicKey, error) {
	if j.Kty != "OKP" || j.Crv != "Ed25519" {
		return nil, fmt.Errorf("%w: not an Ed25519 OKP key", ErrInvalidKey)
	}

	if j.X == nil || len(j.X.Bytes()) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: bad Ed25519 x coordinate", ErrInvalidKey)
	}

	return ed25519.PublicKey(j.X.Bytes()), nil
}

// ByteBuffer represents a slice of bytes serialized as url-safe base64.
type ByteBuffer struct {
	Data []byte `json:"-"`
}

// NewBuffer creates a new ByteBuffer from the given bytes.
func NewBuffer(data []byte) *ByteBuffer {
	return &ByteBuffer{Data: data}
}

// MarshalJSON serializes buffer data into JSON.
func (b *ByteBuffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.RawURLEncoding.EncodeToString(b.Data))
}

// UnmarshalJSON deserializes buffer data from JSON.
func (b *ByteBuffer) UnmarshalJSON(data []byte) error {
	var encoded string

	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}

	if encoded == "" {
		return nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return err
	}

	*b = *NewBuffer(decoded)

	return nil
}

// Bytes returns the buffer bytes.
func (b *ByteBuffer) Bytes() []byte {
	return b.Data
}
