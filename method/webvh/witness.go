/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"encoding/json"
	"fmt"

	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
)

// witnessResolutionDepthLimit bounds recursive witness key resolution
// so that witness DIDs referencing each other cannot loop forever.
const witnessResolutionDepthLimit = 5

// WitnessProof is one record of a witness proof document: the proofs a
// set of witnesses produced over a versionId.
type WitnessProof struct {
	VersionID string            `json:"versionId"`
	Proof     []integrity.Proof `json:"proof"`
}

// WitnessProofCollection is the parsed did-witness.json document.
type WitnessProofCollection []WitnessProof

// ParseWitnessProofs parses a witness proof document. Empty input is a
// valid empty collection: an absent file means no attestations.
func ParseWitnessProofs(data []byte) (WitnessProofCollection, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var collection WitnessProofCollection

	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("%w: witness proofs: %s", ErrParse, err)
	}

	return collection, nil
}

// proofsFor collects every proof recorded for the given versionId.
func (c WitnessProofCollection) proofsFor(versionID string) []integrity.Proof {
	var proofs []integrity.Proof

	for _, record := range c {
		if record.VersionID == versionID {
			proofs = append(proofs, record.Proof...)
		}
	}

	return proofs
}

// WitnessKeyResolver resolves the public key a witness proof names.
// Implementations dereference the witness DID; errors degrade to "proof
// not counted" rather than failing evaluation.
type WitnessKeyResolver interface {
	ResolveWitnessKey(witnessDID, verificationMethod string, depth int) ([]byte, error)
}

// StaticWitnessKeys resolves witness keys from an in-memory map of
// witness DID to raw public key, the form used by test vectors.
type StaticWitnessKeys map[string][]byte

// ResolveWitnessKey implements WitnessKeyResolver.
func (s StaticWitnessKeys) ResolveWitnessKey(witnessDID, _ string, _ int) ([]byte, error) {
	key, ok := s[witnessDID]
	if !ok {
		return nil, fmt.Errorf("no key registered for witness %s", witnessDID)
	}

	return key, nil
}

// CachingWitnessKeyResolver wraps a resolver with a per-DID cache and a
// recursion depth bound, the cycle-safety layer for witness DIDs that
// reference one another.
type CachingWitnessKeyResolver struct {
	next  WitnessKeyResolver
	cache map[string][]byte
}

// NewCachingWitnessKeyResolver wraps the given resolver.
func NewCachingWitnessKeyResolver(next WitnessKeyResolver) *CachingWitnessKeyResolver {
	return &CachingWitnessKeyResolver{next: next, cache: make(map[string][]byte)}
}

// ResolveWitnessKey implements WitnessKeyResolver.
func (r *CachingWitnessKeyResolver) ResolveWitnessKey(witnessDID, verificationMethod string, depth int) ([]byte, error) {
	if depth >= witnessResolutionDepthLimit {
		return nil, fmt.Errorf("witness resolution depth limit reached at %s", witnessDID)
	}

	if key, ok := r.cache[witnessDID]; ok {
		return key, nil
	}

	key, err := r.next.ResolveWitnessKey(witnessDID, verificationMethod, depth+1)
	if err != nil {
		return nil, err
	}

	r.cache[witnessDID] = key

	return key, nil
}

// witnessSignedDocument is the document a witness signs: the versionId
// it attests to having observed.
type witnessSignedDocument struct {
	VersionID string `json:"versionId"`
}

// EvaluateWitnesses checks the witness quorum for versionID against the
// given configuration. A witness with no valid proof contributes zero
// weight; a witness with several proofs counts at most once.
func EvaluateWitnesses(config *Witness, versionID string, collection WitnessProofCollection,
	resolver WitnessKeyResolver, verifier integrity.Verifier) error {
	if config == nil {
		return nil
	}

	proofs := collection.proofsFor(versionID)
	document := &witnessSignedDocument{VersionID: versionID}

	total := 0

	for _, witness := range config.Witnesses {
		weight := witnessWeight(witness, document, proofs, resolver, verifier)
		total += weight
	}

	if total < config.Threshold {
		return fmt.Errorf("%w: weight %d of required %d for %s",
			ErrWitnessInsufficient, total, config.Threshold, versionID)
	}

	return nil
}

// witnessWeight returns the witness's weight when one of the proofs
// validates against a key resolvable from its DID; first valid wins.
func witnessWeight(witness WitnessEntry, document *witnessSignedDocument,
	proofs []integrity.Proof, resolver WitnessKeyResolver, verifier integrity.Verifier) int {
	for _, proof := range proofs {
		if !proofBelongsTo(proof, witness.ID) {
			continue
		}

		key, err := resolver.ResolveWitnessKey(witness.ID, proof.VerificationMethod, 0)
		if err != nil {
			logger.Warnf("witness key resolution failed for %s: %v", witness.ID, err)

			continue
		}

		if err := integrity.VerifyProof(document, proof, key, verifier); err != nil {
			logger.Warnf("witness proof rejected for %s: %v", witness.ID, err)

			continue
		}

		return witness.Weight
	}

	return 0
}

// proofBelongsTo reports whether a proof's verificationMethod is rooted
// in the witness DID.
func proofBelongsTo(proof integrity.Proof, witnessDID string) bool {
	method := proof.VerificationMethod

	if method == witnessDID {
		return true
	}

	return len(method) > len(witnessDID) &&
		method[:len(witnessDID)] == witnessDID &&
		method[len(witnessDID)] == '#'
}
