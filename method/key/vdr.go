/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key implements the read side of the did:key method for the
// multikey form used by witness identifiers.
package key

import (
	"errors"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const namespace = "key"

// VDR implements the did:key verifiable data registry.
type VDR struct{}

// New creates a new did:key VDR.
func New() *VDR {
	return &VDR{}
}

// Accept implements the VDR interface.
func (v *VDR) Accept(method string, _ ...vdrapi.DIDMethodOption) bool {
	return method == namespace
}

// Create is not supported: a did:key document is derived, not registered.
func (v *VDR) Create(didDoc *diddoc.Doc, _ ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	return nil, errors.New("not supported")
}

// Update is not supported.
func (v *VDR) Update(didDoc *diddoc.Doc, _ ...vdrapi.DIDMethodOption) error {
	return errors.New("not supported")
}

// Deactivate is not supported.
func (v *VDR) Deactivate(didID string, _ ...vdrapi.DIDMethodOption) error {
	return errors.New("not supported")
}

// Close implements the VDR interface.
func (v *VDR) Close() error {
	return nil
}
