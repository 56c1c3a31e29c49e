/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api defines the verifiable data registry interfaces shared by
// DID method implementations.
package api

import (
	"errors"

	"github.com/decentralized-identity/didwebvh-go/doc/did"
)

// ErrNotFound is returned when a DID resolver does not find the DID.
var ErrNotFound = errors.New("DID does not exist")

// Registry is a registry of DID methods.
type Registry interface {
	Resolve(did string, opts ...DIDMethodOption) (*did.DocResolution, error)
	Create(method string, did *did.Doc, opts ...DIDMethodOption) (*did.DocResolution, error)
	Update(did *did.Doc, opts ...DIDMethodOption) error
	Deactivate(did string, opts ...DIDMethodOption) error
	Close() error
}

// VDR is a verifiable data registry for one DID method.
type VDR interface {
	Read(did string, opts ...DIDMethodOption) (*did.DocResolution, error)
	Create(did *did.Doc, opts ...DIDMethodOption) (*did.DocResolution, error)
	Accept(method string, opts ...DIDMethodOption) bool
	Update(did *did.Doc, opts ...DIDMethodOption) error
	Deactivate(did string, opts ...DIDMethodOption) error
	Close() error
}

// DIDMethodOpts did method opts.
type DIDMethodOpts struct {
	Values map[string]interface{}
}

// DIDMethodOption is an option for a DID method call.
type DIDMethodOption func(opts *DIDMethodOpts)

// WithOption adds an option for a DID method call.
func WithOption(name string, value interface{}) DIDMethodOption {
	return func(opts *DIDMethodOpts) {
		opts.Values[name] = value
	}
}
