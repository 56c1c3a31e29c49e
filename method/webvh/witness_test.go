/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
)

type testWitness struct {
	did  string
	ring *integrity.KeyRing
	key  string
}

func newTestWitness(t *testing.T) *testWitness {
	t.Helper()

	ring := integrity.NewKeyRing()

	key, err := ring.Generate()
	require.NoError(t, err)

	return &testWitness{did: "did:key:" + key, ring: ring, key: key}
}

func (w *testWitness) proofOver(t *testing.T, versionID string) integrity.Proof {
	t.Helper()

	proof, err := integrity.CreateProof(
		&witnessSignedDocument{VersionID: versionID},
		integrity.Proof{VerificationMethod: w.did + "#" + w.key},
		w.ring, w.key)
	require.NoError(t, err)

	return *proof
}

func (w *testWitness) publicKey(t *testing.T) []byte {
	t.Helper()

	key, err := multikey.Decode(w.key)
	require.NoError(t, err)

	return key
}

func TestEvaluateWitnesses(t *testing.T) {
	const versionID = "2-zQmVersionHash"

	w1 := newTestWitness(t)
	w2 := newTestWitness(t)
	w3 := newTestWitness(t)

	config := &Witness{
		Threshold: 2,
		Witnesses: []WitnessEntry{
			{ID: w1.did, Weight: 1},
			{ID: w2.did, Weight: 1},
			{ID: w3.did, Weight: 1},
		},
	}

	keys := StaticWitnessKeys{
		w1.did: w1.publicKey(t),
		w2.did: w2.publicKey(t),
		w3.did: w3.publicKey(t),
	}

	verifier := integrity.NewED25519Verifier()

	t.Run("test quorum met with two of three", func(t *testing.T) {
		collection := WitnessProofCollection{{
			VersionID: versionID,
			Proof:     []integrity.Proof{w1.proofOver(t, versionID), w3.proofOver(t, versionID)},
		}}

		require.NoError(t, EvaluateWitnesses(config, versionID, collection, keys, verifier))
	})

	t.Run("test quorum missed with one of three", func(t *testing.T) {
		collection := WitnessProofCollection{{
			VersionID: versionID,
			Proof:     []integrity.Proof{w1.proofOver(t, versionID)},
		}}

		err := EvaluateWitnesses(config, versionID, collection, keys, verifier)
		require.ErrorIs(t, err, ErrWitnessInsufficient)
	})

	t.Run("test duplicate proofs count once", func(t *testing.T) {
		collection := WitnessProofCollection{{
			VersionID: versionID,
			Proof: []integrity.Proof{
				w1.proofOver(t, versionID),
				w1.proofOver(t, versionID),
				w1.proofOver(t, versionID),
			},
		}}

		err := EvaluateWitnesses(config, versionID, collection, keys, verifier)
		require.ErrorIs(t, err, ErrWitnessInsufficient)
	})

	t.Run("test proof over wrong version not counted", func(t *testing.T) {
		collection := WitnessProofCollection{{
			VersionID: versionID,
			Proof:     []integrity.Proof{w1.proofOver(t, "1-zQmOther"), w2.proofOver(t, versionID)},
		}}

		err := EvaluateWitnesses(config, versionID, collection, keys, verifier)
		require.ErrorIs(t, err, ErrWitnessInsufficient)
	})

	t.Run("test unresolvable witness key not counted", func(t *testing.T) {
		collection := WitnessProofCollection{{
			VersionID: versionID,
			Proof:     []integrity.Proof{w1.proofOver(t, versionID), w2.proofOver(t, versionID)},
		}}

		partial := StaticWitnessKeys{w1.did: w1.publicKey(t)}

		err := EvaluateWitnesses(config, versionID, collection, partial, verifier)
		require.ErrorIs(t, err, ErrWitnessInsufficient)
	})

	t.Run("test empty collection", func(t *testing.T) {
		err := EvaluateWitnesses(config, versionID, nil, keys, verifier)
		require.ErrorIs(t, err, ErrWitnessInsufficient)
	})

	t.Run("test nil config needs no proofs", func(t *testing.T) {
		require.NoError(t, EvaluateWitnesses(nil, versionID, nil, keys, verifier))
	})

	t.Run("test weights accumulate", func(t *testing.T) {
		weighted := &Witness{
			Threshold: 3,
			Witnesses: []WitnessEntry{
				{ID: w1.did, Weight: 2},
				{ID: w2.did, Weight: 1},
				{ID: w3.did, Weight: 1},
			},
		}

		collection := WitnessProofCollection{{
			VersionID: versionID,
			Proof:     []integrity.Proof{w1.proofOver(t, versionID), w2.proofOver(t, versionID)},
		}}

		require.NoError(t, EvaluateWitnesses(weighted, versionID, collection, keys, verifier))
	})
}

func TestParseWitnessProofs(t *testing.T) {
	t.Run("test empty input is empty collection", func(t *testing.T) {
		collection, err := ParseWitnessProofs(nil)
		require.NoError(t, err)
		require.Empty(t, collection)
	})

	t.Run("test malformed input rejected", func(t *testing.T) {
		_, err := ParseWitnessProofs([]byte(`{`))
		require.ErrorIs(t, err, ErrParse)
	})

	t.Run("test round trip", func(t *testing.T) {
		w := newTestWitness(t)

		collection := WitnessProofCollection{{
			VersionID: "1-zQmHash",
			Proof:     []integrity.Proof{w.proofOver(t, "1-zQmHash")},
		}}

		data, err := json.Marshal(collection)
		require.NoError(t, err)

		reparsed, err := ParseWitnessProofs(data)
		require.NoError(t, err)
		require.Equal(t, collection, reparsed)
	})
}

func TestCachingWitnessKeyResolver(t *testing.T) {
	t.Run("test caches resolved keys", func(t *testing.T) {
		calls := 0

		resolver := NewCachingWitnessKeyResolver(witnessResolverFunc(
			func(witnessDID, _ string, _ int) ([]byte, error) {
				calls++

				return []byte{1, 2, 3}, nil
			}))

		for i := 0; i < 3; i++ {
			key, err := resolver.ResolveWitnessKey("did:key:z6MkW", "", 0)
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, key)
		}

		require.Equal(t, 1, calls)
	})

	t.Run("test depth bound stops recursion", func(t *testing.T) {
		var resolver *CachingWitnessKeyResolver

		resolver = NewCachingWitnessKeyResolver(witnessResolverFunc(
			func(witnessDID, method string, depth int) ([]byte, error) {
				// a witness whose key resolution dereferences another witness
				return resolver.ResolveWitnessKey(witnessDID+":next", method, depth)
			}))

		_, err := resolver.ResolveWitnessKey("did:key:z6MkW", "", 0)
		require.Error(t, err)
		require.Contains(t, err.Error(), "depth limit")
	})
}

type witnessResolverFunc func(witnessDID, verificationMethod string, depth int) ([]byte, error)

func (f witnessResolverFunc) ResolveWitnessKey(witnessDID, verificationMethod string, depth int) ([]byte, error) {
	return f(witnessDID, verificationMethod, depth)
}
