/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package integrity

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
)

// KeyRing is an in-memory Signer holding Ed25519 private keys indexed
// by their multikey encoding.
type KeyRing struct {
	keys map[string]ed25519.PrivateKey
}

// NewKeyRing creates an empty key ring.
func NewKeyRing() *KeyRing {
	return &KeyRing{keys: make(map[string]ed25519.PrivateKey)}
}

// Generate creates a fresh Ed25519 key pair, stores the private key and
// returns the multikey encoding of the public key.
func (r *KeyRing) Generate() (string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate ed25519 key: %w", err)
	}

	keyID, err := multikey.Encode(pub)
	if err != nil {
		return "", err
	}

	r.keys[keyID] = priv

	return keyID, nil
}

// Add stores a private key under the multikey encoding of its public key.
func (r *KeyRing) Add(priv ed25519.PrivateKey) (string, error) {
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return "", errors.New("not an ed25519 private key")
	}

	keyID, err := multikey.Encode(pub)
	if err != nil {
		return "", err
	}

	r.keys[keyID] = priv

	return keyID, nil
}

// KeyIDs lists the multikey identifiers held by the ring.
func (r *KeyRing) KeyIDs() []string {
	ids := make([]string, 0, len(r.keys))
	for id := range r.keys {
		ids = append(ids, id)
	}

	return ids
}

// PrivateKey exports the private key held under a multikey identifier.
func (r *KeyRing) PrivateKey(keyID string) (ed25519.PrivateKey, bool) {
	priv, ok := r.keys[keyID]

	return priv, ok
}

// Sign implements Signer.
func (r *KeyRing) Sign(keyID string, data []byte) ([]byte, error) {
	priv, ok := r.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("no private key for %s", keyID)
	}

	return ed25519.Sign(priv, data), nil
}

// ED25519Verifier verifies Ed25519 signatures over proof input.
type ED25519Verifier struct{}

// NewED25519Verifier creates an Ed25519 verifier.
func NewED25519Verifier() *ED25519Verifier {
	return &ED25519Verifier{}
}

// Verify implements Verifier.
func (v *ED25519Verifier) Verify(pubKey, data, signature []byte) error {
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid ed25519 public key length %d", len(pubKey))
	}

	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("invalid ed25519 signature length %d", len(signature))
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey), data, signature) {
		return errors.New("ed25519 signature mismatch")
	}

	return nil
}
