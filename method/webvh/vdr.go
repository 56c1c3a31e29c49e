/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package webvh implements the did:webvh DID method: a web-hosted DID
// whose history is an append-only, hash-chained log of entries secured
// by a self-certifying identifier, per-entry Data Integrity proofs,
// pre-rotation commitments and optional witness attestations.
package webvh

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

// Method option keys accepted by Create, Update and Deactivate.
const (
	// LogOpt carries the *DIDLog a mutation operates on.
	LogOpt = "log"

	// SignerOpt carries the integrity.Signer producing entry proofs.
	SignerOpt = "signer"

	// UpdateKeysOpt carries the []string of authorized multikeys.
	UpdateKeysOpt = "updateKeys"

	// NextKeyHashesOpt carries the []string pre-rotation commitment.
	NextKeyHashesOpt = "nextKeyHashes"

	// PortableOpt marks the created DID as migratable.
	PortableOpt = "portable"

	// WitnessOpt carries the *Witness quorum configuration.
	WitnessOpt = "witness"

	// VersionTimeOverrideOpt carries a time.Time overriding the clock.
	VersionTimeOverrideOpt = "versionTimeOverride"
)

// VDR implements the did:webvh verifiable data registry. All external
// capabilities are injected collaborators: fetcher, signature verifier,
// witness key resolver and clock.
type VDR struct {
	fetcher         Fetcher
	verifier        integrity.Verifier
	witnessResolver WitnessKeyResolver
	strictWitness   bool
	now             func() time.Time
	skew            time.Duration
}

// Option configures the VDR.
type Option func(v *VDR)

// WithFetcher injects the byte fetcher capability.
func WithFetcher(fetcher Fetcher) Option {
	return func(v *VDR) {
		v.fetcher = fetcher
	}
}

// WithHTTPClient uses the given client in the default HTTP fetcher.
func WithHTTPClient(client *http.Client) Option {
	return func(v *VDR) {
		v.fetcher = NewHTTPFetcher(client)
	}
}

// WithSignatureVerifier injects the signature verifier capability.
func WithSignatureVerifier(verifier integrity.Verifier) Option {
	return func(v *VDR) {
		v.verifier = verifier
	}
}

// WithWitnessKeyResolver injects the witness key lookup capability.
func WithWitnessKeyResolver(resolver WitnessKeyResolver) Option {
	return func(v *VDR) {
		v.witnessResolver = NewCachingWitnessKeyResolver(resolver)
	}
}

// WithStrictWitnessVerification promotes an unmet witness threshold
// from resolution metadata to a resolution failure.
func WithStrictWitnessVerification() Option {
	return func(v *VDR) {
		v.strictWitness = true
	}
}

// WithTimeSource injects the clock used for time-bounded validation.
func WithTimeSource(now func() time.Time) Option {
	return func(v *VDR) {
		v.now = now
	}
}

// WithMaxSkew sets the tolerated clock skew for future-dated entries.
func WithMaxSkew(skew time.Duration) Option {
	return func(v *VDR) {
		v.skew = skew
	}
}

// New creates a new did:webvh VDR.
func New(opts ...Option) *VDR {
	v := &VDR{
		fetcher:         NewHTTPFetcher(nil),
		verifier:        integrity.NewED25519Verifier(),
		witnessResolver: NewCachingWitnessKeyResolver(StaticWitnessKeys{}),
		now:             time.Now,
		skew:            defaultMaxClockSkew,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Accept implements the VDR interface.
func (v *VDR) Accept(method string, _ ...vdrapi.DIDMethodOption) bool {
	return method == namespace
}

// Create builds the genesis entry of a new DID log from the document
// template and returns the resolved genesis document. The created
// *DIDLog is neither returned nor kept; the package-level Create with a
// CreateInfo returns it.
func (v *VDR) Create(didDoc *diddoc.Doc, opts ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	didMethodOpts := &vdrapi.DIDMethodOpts{Values: make(map[string]interface{})}
	for _, opt := range opts {
		opt(didMethodOpts)
	}

	info := &CreateInfo{Document: didDoc}

	if signer, ok := didMethodOpts.Values[SignerOpt].(integrity.Signer); ok {
		info.Signer = signer
	}

	if keys, ok := didMethodOpts.Values[UpdateKeysOpt].([]string); ok {
		info.UpdateKeys = keys
	}

	if hashes, ok := didMethodOpts.Values[NextKeyHashesOpt].([]string); ok {
		info.NextKeyHashes = hashes
	}

	if portable, ok := didMethodOpts.Values[PortableOpt].(bool); ok {
		info.Portable = portable
	}

	if witness, ok := didMethodOpts.Values[WitnessOpt].(*Witness); ok {
		info.Witness = witness
	}

	if versionTime, ok := didMethodOpts.Values[VersionTimeOverrideOpt].(time.Time); ok {
		info.VersionTime = versionTime
	}

	log, err := Create(info, WithVerifier(v.verifier), WithClock(v.now), WithMaxClockSkew(v.skew))
	if err != nil {
		return nil, err
	}

	document, err := log.DIDDocument()
	if err != nil {
		return nil, err
	}

	genesis, err := log.Entry(1)
	if err != nil {
		return nil, err
	}

	return &diddoc.DocResolution{
		DIDDocument: document,
		DocumentMetadata: &diddoc.DocumentMetadata{
			Created:     genesis.VersionTime,
			Updated:     genesis.VersionTime,
			VersionID:   genesis.VersionID,
			CanonicalID: log.DID(),
			Method:      &diddoc.MethodMetadata{SCID: log.SCID(), Portable: log.Portable()},
		},
	}, nil
}

// Update appends an entry replacing the DID document state on the log
// supplied through LogOpt.
func (v *VDR) Update(didDoc *diddoc.Doc, opts ...vdrapi.DIDMethodOption) error {
	didMethodOpts := &vdrapi.DIDMethodOpts{Values: make(map[string]interface{})}
	for _, opt := range opts {
		opt(didMethodOpts)
	}

	log, signer, err := mutationOpts(didMethodOpts)
	if err != nil {
		return err
	}

	info := &UpdateInfo{Document: didDoc, Signer: signer}

	if keys, ok := didMethodOpts.Values[UpdateKeysOpt].([]string); ok {
		info.UpdateKeys = keys
	}

	if hashes, ok := didMethodOpts.Values[NextKeyHashesOpt].([]string); ok {
		info.NextKeyHashes = hashes
	}

	if versionTime, ok := didMethodOpts.Values[VersionTimeOverrideOpt].(time.Time); ok {
		info.VersionTime = versionTime
	}

	_, err = Update(log, info)

	return err
}

// Deactivate appends the terminal entry on the log supplied through LogOpt.
func (v *VDR) Deactivate(didID string, opts ...vdrapi.DIDMethodOption) error {
	didMethodOpts := &vdrapi.DIDMethodOpts{Values: make(map[string]interface{})}
	for _, opt := range opts {
		opt(didMethodOpts)
	}

	log, signer, err := mutationOpts(didMethodOpts)
	if err != nil {
		return err
	}

	if log.DID() != didID {
		return fmt.Errorf("%w: log documents %s, requested %s", ErrResolution, log.DID(), didID)
	}

	info := &DeactivateInfo{Signer: signer}

	if versionTime, ok := didMethodOpts.Values[VersionTimeOverrideOpt].(time.Time); ok {
		info.VersionTime = versionTime
	}

	_, err = Deactivate(log, info)

	return err
}

// Close implements the VDR interface.
func (v *VDR) Close() error {
	return nil
}

func mutationOpts(opts *vdrapi.DIDMethodOpts) (*DIDLog, integrity.Signer, error) {
	log, ok := opts.Values[LogOpt].(*DIDLog)
	if !ok {
		return nil, nil, errors.New("mutation requires the DID log via LogOpt")
	}

	signer, ok := opts.Values[SignerOpt].(integrity.Signer)
	if !ok {
		return nil, nil, errors.New("mutation requires a signer via SignerOpt")
	}

	return log, signer, nil
}
