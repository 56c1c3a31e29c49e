/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package web implements the did:web method, the alias form a
// did:webvh identifier reduces to when its SCID segment is stripped.
package web

import (
	"errors"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const namespace = "web"

// VDR implements the did:web verifiable data registry.
type VDR struct{}

// New creates a new did:web VDR.
func New() *VDR {
	return &VDR{}
}

// Accept implements the VDR interface.
func (v *VDR) Accept(method string, _ ...vdrapi.DIDMethodOption) bool {
	return method == namespace
}

// Create is not supported: did:web documents are published by hosting them.
func (v *VDR) Create(didDoc *diddoc.Doc, _ ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	return nil, errors.New("error building did:web did doc --> build not supported in http binding vdr")
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
