/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package integrity creates and verifies the Data Integrity proofs
// attached to did:webvh log entries (eddsa-jcs-2022 cryptosuite).
package integrity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/decentralized-identity/didwebvh-go/doc/json/canonicalizer"
)

const (
	// ProofType is the W3C Data Integrity proof type.
	ProofType = "DataIntegrityProof"

	// CryptosuiteEDDSAJCS2022 is the supported cryptosuite identifier.
	CryptosuiteEDDSAJCS2022 = "eddsa-jcs-2022"

	// ProofPurposeAssertionMethod is the proof purpose used on log entries.
	ProofPurposeAssertionMethod = "assertionMethod"
)

// ErrProofInvalid is returned when a signature does not verify.
var ErrProofInvalid = errors.New("proof verification failed")

// Proof is a Data Integrity proof.
type Proof struct {
	Type               string `json:"type"`
	Cryptosuite        string `json:"cryptosuite"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// Signer signs proof input on behalf of the key identified by keyID.
// Implementations hold the private key material; the core never sees it.
type Signer interface {
	Sign(keyID string, data []byte) ([]byte, error)
}

// Verifier checks a signature against raw public key material.
type Verifier interface {
	Verify(pubKey, data, signature []byte) error
}

// CreateProof signs the document with the given proof template and
// returns the completed proof. The template's ProofValue is ignored;
// the signing input is the JCS form of the document carrying this
// proof with an empty proofValue.
func CreateProof(document interface{}, template Proof, signer Signer, keyID string) (*Proof, error) {
	if template.Type == "" {
		template.Type = ProofType
	}

	if template.Cryptosuite == "" {
		template.Cryptosuite = CryptosuiteEDDSAJCS2022
	}

	if template.ProofPurpose == "" {
		template.ProofPurpose = ProofPurposeAssertionMethod
	}

	input, err := verifyData(document, template)
	if err != nil {
		return nil, err
	}

	signature, err := signer.Sign(keyID, input)
	if err != nil {
		return nil, fmt.Errorf("sign proof: %w", err)
	}

	encoded, err := multibase.Encode(multibase.Base58BTC, signature)
	if err != nil {
		return nil, fmt.Errorf("encode proof value: %w", err)
	}

	template.ProofValue = encoded

	return &template, nil
}

// VerifyProof checks the proof's signature over the document against
// the given public key.
func VerifyProof(document interface{}, proof Proof, pubKey []byte, verifier Verifier) error {
	if proof.Type != ProofType {
		return fmt.Errorf("%w: unsupported proof type %q", ErrProofInvalid, proof.Type)
	}

	if proof.Cryptosuite != CryptosuiteEDDSAJCS2022 {
		return fmt.Errorf("%w: unsupported cryptosuite %q", ErrProofInvalid, proof.Cryptosuite)
	}

	encoding, signature, err := multibase.Decode(proof.ProofValue)
	if err != nil {
		return fmt.Errorf("%w: decode proof value: %s", ErrProofInvalid, err)
	}

	if encoding != multibase.Base58BTC {
		return fmt.Errorf("%w: proof value is not base58btc encoded", ErrProofInvalid)
	}

	input, err := verifyData(document, proof)
	if err != nil {
		return err
	}

	if err := verifier.Verify(pubKey, input, signature); err != nil {
		return fmt.Errorf("%w: %s", ErrProofInvalid, err)
	}

	return nil
}

// verifyData builds the signing input: the JCS serialization of the
// document with any prior proof removed and this proof attached with
// an empty proofValue.
func verifyData(document interface{}, proof Proof) ([]byte, error) {
	serialized, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("marshal proof document: %w", err)
	}

	var asMap map[string]interface{}

	if err := json.Unmarshal(serialized, &asMap); err != nil {
		return nil, fmt.Errorf("unmarshal proof document: %w", err)
	}

	proof.ProofValue = ""

	delete(asMap, "proof")
	asMap["proof"] = []Proof{proof}

	return canonicalizer.MarshalCanonical(asMap)
}
