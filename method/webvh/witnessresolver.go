/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"fmt"
	"strings"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

// DIDReader resolves a DID to its document, the subset of the VDR
// interface witness key resolution needs.
type DIDReader interface {
	Read(did string, opts ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error)
}

// VDRWitnessKeyResolver dereferences witness DIDs through a DID method
// VDR (typically did:key) and extracts the named verification method's
// public key.
type VDRWitnessKeyResolver struct {
	resolver DIDReader
}

// NewVDRWitnessKeyResolver wraps a DID method VDR as a witness key
// lookup capability.
func NewVDRWitnessKeyResolver(resolver DIDReader) *VDRWitnessKeyResolver {
	return &VDRWitnessKeyResolver{resolver: resolver}
}

// ResolveWitnessKey implements WitnessKeyResolver.
func (r *VDRWitnessKeyResolver) ResolveWitnessKey(witnessDID, verificationMethod string, _ int) ([]byte, error) {
	resolution, err := r.resolver.Read(witnessDID)
	if err != nil {
		return nil, fmt.Errorf("resolve witness %s: %w", witnessDID, err)
	}

	document := resolution.DIDDocument

	reference := verificationMethod
	if reference == "" && len(document.VerificationMethod) > 0 {
		reference = document.VerificationMethod[0].ID
	}

	if index := strings.Index(reference, "#"); index > 0 {
		reference = reference[index:]
	}

	method, err := document.VerificationMethodByID(reference)
	if err != nil {
		return nil, err
	}

	return method.PublicKeyBytes()
}
