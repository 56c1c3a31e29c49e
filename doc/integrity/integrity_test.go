/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package integrity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
)

type testDoc struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func TestCreateAndVerifyProof(t *testing.T) {
	ring := NewKeyRing()

	keyID, err := ring.Generate()
	require.NoError(t, err)

	pubKey, err := multikey.Decode(keyID)
	require.NoError(t, err)

	doc := &testDoc{ID: "did:example:123", Value: 7}

	template := Proof{
		Created:            "2025-03-01T00:00:00Z",
		VerificationMethod: "did:example:123#" + keyID,
	}

	t.Run("test sign then verify", func(t *testing.T) {
		proof, err := CreateProof(doc, template, ring, keyID)
		require.NoError(t, err)
		require.Equal(t, ProofType, proof.Type)
		require.Equal(t, CryptosuiteEDDSAJCS2022, proof.Cryptosuite)
		require.Equal(t, ProofPurposeAssertionMethod, proof.ProofPurpose)
		require.NotEmpty(t, proof.ProofValue)

		err = VerifyProof(doc, *proof, pubKey, NewED25519Verifier())
		require.NoError(t, err)
	})

	t.Run("test tampered document fails", func(t *testing.T) {
		proof, err := CreateProof(doc, template, ring, keyID)
		require.NoError(t, err)

		tampered := &testDoc{ID: doc.ID, Value: doc.Value + 1}

		err = VerifyProof(tampered, *proof, pubKey, NewED25519Verifier())
		require.Error(t, err)
		require.ErrorIs(t, err, ErrProofInvalid)
	})

	t.Run("test wrong key fails", func(t *testing.T) {
		proof, err := CreateProof(doc, template, ring, keyID)
		require.NoError(t, err)

		otherID, err := ring.Generate()
		require.NoError(t, err)

		otherKey, err := multikey.Decode(otherID)
		require.NoError(t, err)

		err = VerifyProof(doc, *proof, otherKey, NewED25519Verifier())
		require.Error(t, err)
		require.ErrorIs(t, err, ErrProofInvalid)
	})

	t.Run("test unknown signing key fails", func(t *testing.T) {
		_, err := CreateProof(doc, template, ring, "z6MkunknownKey")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no private key")
	})

	t.Run("test unsupported cryptosuite rejected", func(t *testing.T) {
		proof, err := CreateProof(doc, template, ring, keyID)
		require.NoError(t, err)

		proof.Cryptosuite = "ecdsa-jcs-2019"

		err = VerifyProof(doc, *proof, pubKey, NewED25519Verifier())
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported cryptosuite")
	})

	t.Run("test malformed proof value rejected", func(t *testing.T) {
		proof, err := CreateProof(doc, template, ring, keyID)
		require.NoError(t, err)

		proof.ProofValue = "not-multibase"

		err = VerifyProof(doc, *proof, pubKey, NewED25519Verifier())
		require.Error(t, err)
		require.ErrorIs(t, err, ErrProofInvalid)
	})
}
