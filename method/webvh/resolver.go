/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"context"
	"errors"
	"fmt"
	"time"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const (
	// VersionIDOpt selects a version by exact "<n>-<hash>" versionId.
	VersionIDOpt = "versionId"

	// VersionNumberOpt selects a version by its 1-based number.
	VersionNumberOpt = "versionNumber"

	// VersionTimeOpt selects the latest version at or before an RFC 3339 instant.
	VersionTimeOpt = "versionTime"

	// ContextOpt carries a context.Context honored at I/O boundaries.
	ContextOpt = "context"

	schemaResV1 = "https://w3id.org/did-resolution/v1"
)

// Read resolves a did:webvh identifier: it fetches the JSON-Lines log,
// replays it through the state machine, applies an optional version
// selector and returns the document with resolution metadata.
func (v *VDR) Read(didID string, opts ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	didMethodOpts := &vdrapi.DIDMethodOpts{Values: make(map[string]interface{})}
	for _, opt := range opts {
		opt(didMethodOpts)
	}

	ctx, err := resolutionContext(didMethodOpts)
	if err != nil {
		return nil, err
	}

	parsed, err := ParseDID(didID)
	if err != nil {
		return nil, err
	}

	log, err := v.ResolveLog(ctx, parsed)
	if err != nil {
		return nil, err
	}

	selected, err := selectVersion(log, didMethodOpts)
	if err != nil {
		return nil, err
	}

	witnessVerified, err := v.evaluateLatestWitness(ctx, parsed, log)
	if err != nil {
		return nil, err
	}

	document, err := log.DIDDocumentAt(selected)
	if err != nil {
		return nil, err
	}

	addImpliedServices(document, parsed)

	metadata, err := resolutionMetadata(log, parsed, selected, witnessVerified)
	if err != nil {
		return nil, err
	}

	return &diddoc.DocResolution{
		Context:          []string{schemaResV1},
		DIDDocument:      document,
		DocumentMetadata: metadata,
	}, nil
}

// ResolveLog fetches and replays the full log for a DID, returning the
// validated state machine. This is the raw access path: documents read
// from the returned log carry no resolution-time augmentation.
func (v *VDR) ResolveLog(ctx context.Context, parsed *DID) (*DIDLog, error) {
	data, err := v.fetcher.Fetch(ctx, parsed.LogURL())
	if err != nil {
		if errors.Is(err, vdrapi.ErrNotFound) {
			return nil, vdrapi.ErrNotFound
		}

		return nil, fmt.Errorf("%w: fetch log: %s", ErrResolution, err)
	}

	entries, err := ParseLog(data)
	if err != nil {
		return nil, err
	}

	log := NewLog(WithVerifier(v.verifier), WithClock(v.now), WithMaxClockSkew(v.skew))

	if err := log.Load(entries); err != nil {
		return nil, err
	}

	if log.SCID() != parsed.SCID {
		return nil, fmt.Errorf("%w: log scid %s does not match did scid %s",
			ErrResolution, log.SCID(), parsed.SCID)
	}

	if log.DID() != parsed.String() {
		return nil, fmt.Errorf("%w: log documents %s, requested %s",
			ErrResolution, log.DID(), parsed.String())
	}

	return log, nil
}

// evaluateLatestWitness fetches the witness proof document and checks
// the quorum governing the latest entry. The fetch is best-effort: an
// absent or unreachable document counts as zero attestations. In strict
// mode an unmet threshold fails resolution.
func (v *VDR) evaluateLatestWitness(ctx context.Context, parsed *DID, log *DIDLog) (*bool, error) {
	config := v.preTransitionWitness(log)
	if config == nil {
		return nil, nil
	}

	var collection WitnessProofCollection

	data, err := v.fetcher.Fetch(ctx, parsed.WitnessURL())
	if err != nil {
		logger.Warnf("witness proof fetch failed for %s: %v", parsed.String(), err)
	} else {
		collection, err = ParseWitnessProofs(data)
		if err != nil {
			return nil, err
		}
	}

	latest, err := log.Entry(log.Length())
	if err != nil {
		return nil, err
	}

	verified := true

	if err := EvaluateWitnesses(config, latest.VersionID, collection, v.witnessResolver, v.verifier); err != nil {
		if !errors.Is(err, ErrWitnessInsufficient) {
			return nil, err
		}

		if v.strictWitness {
			return nil, err
		}

		verified = false
	}

	return &verified, nil
}

// preTransitionWitness returns the witness configuration governing the
// latest entry: the folded value before that entry's delta applied.
func (v *VDR) preTransitionWitness(log *DIDLog) *Witness {
	if log.Length() < 2 {
		return nil
	}

	params, err := log.EffectiveParameters(log.Length() - 1)
	if err != nil {
		return nil
	}

	return params.Witness
}

// selectVersion applies at most one query selector and returns the
// selected 1-based entry number.
//
//nolint:gocyclo
func selectVersion(log *DIDLog, opts *vdrapi.DIDMethodOpts) (int, error) {
	selectors := 0
	for _, name := range []string{VersionIDOpt, VersionNumberOpt, VersionTimeOpt} {
		if opts.Values[name] != nil {
			selectors++
		}
	}

	if selectors > 1 {
		return 0, ErrConflictingSelectors
	}

	if value := opts.Values[VersionIDOpt]; value != nil {
		versionID, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("%w: versionId option is not a string", ErrResolution)
		}

		for _, entry := range log.Entries() {
			if entry.VersionID == versionID {
				number, err := entry.Number()
				if err != nil {
					return 0, err
				}

				return number, nil
			}
		}

		return 0, fmt.Errorf("%w: versionId %s", ErrNotFound, versionID)
	}

	if value := opts.Values[VersionNumberOpt]; value != nil {
		number, ok := value.(int)
		if !ok || number < 1 {
			return 0, fmt.Errorf("%w: versionNumber option is not a positive integer", ErrResolution)
		}

		if number > log.Length() {
			return 0, fmt.Errorf("%w: versionNumber %d of %d", ErrNotFound, number, log.Length())
		}

		return number, nil
	}

	if value := opts.Values[VersionTimeOpt]; value != nil {
		instant, err := parseVersionTimeOpt(value)
		if err != nil {
			return 0, err
		}

		return selectByTime(log, instant)
	}

	return log.Length(), nil
}

// selectByTime returns the entry with the greatest versionTime at or
// before the instant.
func selectByTime(log *DIDLog, instant time.Time) (int, error) {
	selected := 0

	for i, entry := range log.Entries() {
		entryTime, err := entry.Time()
		if err != nil {
			return 0, err
		}

		if entryTime.After(instant) {
			break
		}

		selected = i + 1
	}

	if selected == 0 {
		return 0, fmt.Errorf("%w: no version at or before %s", ErrNotFound, instant.Format(time.RFC3339))
	}

	return selected, nil
}

func parseVersionTimeOpt(value interface{}) (time.Time, error) {
	switch typed := value.(type) {
	case time.Time:
		return typed, nil
	case string:
		instant, err := time.Parse(time.RFC3339, typed)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: versionTime option: %s", ErrResolution, err)
		}

		return instant, nil
	default:
		return time.Time{}, fmt.Errorf("%w: versionTime option is not a time", ErrResolution)
	}
}

// addImpliedServices appends the #files and #whois services when the
// stored document does not declare them.
func addImpliedServices(document *diddoc.Doc, parsed *DID) {
	if !hasService(document, "#files") {
		document.Service = append(document.Service, diddoc.Service{
			ID:              document.ID + "#files",
			Type:            "relativeRef",
			ServiceEndpoint: parsed.FilesURL(),
		})
	}

	if !hasService(document, "#whois") {
		document.Service = append(document.Service, diddoc.Service{
			ID:              document.ID + "#whois",
			Type:            "LinkedVerifiablePresentation",
			ServiceEndpoint: parsed.WhoisURL(),
		})
	}
}

func hasService(document *diddoc.Doc, fragment string) bool {
	for _, service := range document.Service {
		if service.ID == fragment || service.ID == document.ID+fragment {
			return true
		}
	}

	return false
}

func resolutionMetadata(log *DIDLog, parsed *DID, selected int, witnessVerified *bool) (*diddoc.DocumentMetadata, error) {
	first, err := log.Entry(1)
	if err != nil {
		return nil, err
	}

	entry, err := log.Entry(selected)
	if err != nil {
		return nil, err
	}

	params := log.CurrentParameters()

	return &diddoc.DocumentMetadata{
		Created:      first.VersionTime,
		Updated:      entry.VersionTime,
		VersionID:    entry.VersionID,
		Deactivated:  log.Deactivated(),
		CanonicalID:  log.DID(),
		EquivalentID: []string{parsed.WebDID(), parsed.SCIDDID()},
		Method: &diddoc.MethodMetadata{
			SCID:            log.SCID(),
			Portable:        params.Portable,
			WitnessVerified: witnessVerified,
			Watchers:        params.Watchers,
			TTL:             params.TTL,
		},
	}, nil
}

func resolutionContext(opts *vdrapi.DIDMethodOpts) (context.Context, error) {
	value := opts.Values[ContextOpt]
	if value == nil {
		return context.Background(), nil
	}

	ctx, ok := value.(context.Context)
	if !ok {
		return nil, fmt.Errorf("%w: context option is not a context.Context", ErrResolution)
	}

	return ctx, nil
}
