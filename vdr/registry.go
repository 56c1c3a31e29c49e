/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr provides a registry dispatching DID operations to the
// method implementations that accept them.
package vdr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/vdr/api"
)

// Registry dispatches to registered DID method VDRs.
type Registry struct {
	vdrs []api.VDR
}

// Option configures the registry.
type Option func(r *Registry)

// WithVDR registers a DID method VDR.
func WithVDR(vdr api.VDR) Option {
	return func(r *Registry) {
		r.vdrs = append(r.vdrs, vdr)
	}
}

// New creates a new method registry.
func New(opts ...Option) *Registry {
	r := &Registry{}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve resolves a DID through the method that accepts it.
func (r *Registry) Resolve(didID string, opts ...api.DIDMethodOption) (*did.DocResolution, error) {
	method, err := didMethod(didID)
	if err != nil {
		return nil, err
	}

	vdr, err := r.vdrForMethod(method, opts...)
	if err != nil {
		return nil, err
	}

	resolution, err := vdr.Read(didID, opts...)
	if err != nil {
		return nil, fmt.Errorf("did method read failed: %w", err)
	}

	return resolution, nil
}

// Create builds a new DID through the named method.
func (r *Registry) Create(method string, didDoc *did.Doc, opts ...api.DIDMethodOption) (*did.DocResolution, error) {
	vdr, err := r.vdrForMethod(method, opts...)
	if err != nil {
		return nil, err
	}

	resolution, err := vdr.Create(didDoc, opts...)
	if err != nil {
		return nil, fmt.Errorf("did method create failed: %w", err)
	}

	return resolution, nil
}

// Update updates a DID document through the method its id names.
func (r *Registry) Update(didDoc *did.Doc, opts ...api.DIDMethodOption) error {
	method, err := didMethod(didDoc.ID)
	if err != nil {
		return err
	}

	vdr, err := r.vdrForMethod(method, opts...)
	if err != nil {
		return err
	}

	return vdr.Update(didDoc, opts...)
}

// Deactivate deactivates a DID through the method its id names.
func (r *Registry) Deactivate(didID string, opts ...api.DIDMethodOption) error {
	method, err := didMethod(didID)
	if err != nil {
		return err
	}

	vdr, err := r.vdrForMethod(method, opts...)
	if err != nil {
		return err
	}

	return vdr.Deactivate(didID, opts...)
}

// Close closes all registered VDRs.
func (r *Registry) Close() error {
	for _, vdr := range r.vdrs {
		if err := vdr.Close(); err != nil {
			return fmt.Errorf("close vdr: %w", err)
		}
	}

	return nil
}

func (r *Registry) vdrForMethod(method string, opts ...api.DIDMethodOption) (api.VDR, error) {
	for _, vdr := range r.vdrs {
		if vdr.Accept(method, opts...) {
			return vdr, nil
		}
	}

	return nil, fmt.Errorf("did method %s not supported for vdr", method)
}

func didMethod(didID string) (string, error) {
	parts := strings.SplitN(didID, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" {
		return "", errors.New("wrong format did input")
	}

	return parts[1], nil
}
