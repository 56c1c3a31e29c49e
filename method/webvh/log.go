/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hyperledger/aries-framework-go/component/log"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/doc/hashing"
	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
)

var logger = log.New("didwebvh-go/method/webvh")

const defaultMaxClockSkew = 5 * time.Minute

// DIDLog is the authoritative state of one did:webvh identifier: an
// ordered chain of validated entries, the SCID, the folded parameters
// and the deactivation flag. Replay is strictly sequential; the log is
// an owned value with no internal locking.
type DIDLog struct {
	entries  []*LogEntry
	folded   []*EffectiveParameters
	scid     string
	didID    string
	verifier integrity.Verifier
	now      func() time.Time
	skew     time.Duration
}

// LogOption configures a DIDLog.
type LogOption func(l *DIDLog)

// WithVerifier injects the signature verifier capability.
func WithVerifier(verifier integrity.Verifier) LogOption {
	return func(l *DIDLog) {
		l.verifier = verifier
	}
}

// WithClock injects the time source used for future-dating checks.
func WithClock(now func() time.Time) LogOption {
	return func(l *DIDLog) {
		l.now = now
	}
}

// WithMaxClockSkew sets the tolerated skew when rejecting future-dated entries.
func WithMaxClockSkew(skew time.Duration) LogOption {
	return func(l *DIDLog) {
		l.skew = skew
	}
}

// NewLog creates an empty DIDLog.
func NewLog(opts ...LogOption) *DIDLog {
	l := &DIDLog{
		verifier: integrity.NewED25519Verifier(),
		now:      time.Now,
		skew:     defaultMaxClockSkew,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load replays a parsed log through the state machine. Either the whole
// chain validates, or Load fails with ChainBrokenError and the log
// remains empty.
func (l *DIDLog) Load(entries []*LogEntry) error {
	if len(l.entries) > 0 {
		return fmt.Errorf("log already loaded")
	}

	if len(entries) == 0 {
		return fmt.Errorf("%w: log holds no entries", ErrParse)
	}

	staged := &DIDLog{verifier: l.verifier, now: l.now, skew: l.skew}

	for i, entry := range entries {
		if err := staged.append(entry); err != nil {
			return &ChainBrokenError{At: i + 1, Cause: err}
		}
	}

	*l = *staged

	return nil
}

// Append verifies one new entry against the current state and appends
// it: the Active(n) -> Active(n+1) / Deactivated transition.
func (l *DIDLog) Append(entry *LogEntry) error {
	return l.append(entry)
}

//nolint:gocyclo
func (l *DIDLog) append(entry *LogEntry) error {
	n := len(l.entries) + 1

	number, hash, err := parseVersionID(entry.VersionID)
	if err != nil {
		return err
	}

	if number != n {
		return fmt.Errorf("%w: versionId number %d, expected %d", ErrParse, number, n)
	}

	if l.Deactivated() {
		return fmt.Errorf("%w: no further entries accepted", ErrDeactivated)
	}

	prior := l.currentParams()

	params, err := prior.Apply(entry.Parameters)
	if err != nil {
		return err
	}

	if err := l.checkHash(entry, hash, params, n); err != nil {
		return err
	}

	if err := l.checkTime(entry, n); err != nil {
		return err
	}

	state, err := l.checkState(entry, params, n)
	if err != nil {
		return err
	}

	authorized := params.UpdateKeys
	if n > 1 {
		authorized = prior.UpdateKeys
	}

	if err := l.checkProofs(entry, state, authorized); err != nil {
		return err
	}

	if n == 1 {
		l.scid = params.SCID
		l.didID = state.ID
	}

	l.entries = append(l.entries, entry)
	l.folded = append(l.folded, params)

	return nil
}

func (l *DIDLog) checkHash(entry *LogEntry, hash string, params *EffectiveParameters, n int) error {
	var (
		expected string
		err      error
	)

	if n == 1 {
		scid, scidErr := computeSCID(entry, params.SCID)
		if scidErr != nil {
			return scidErr
		}

		if scid != params.SCID {
			return fmt.Errorf("%w: scid %s is not self-certifying", ErrHashMismatch, params.SCID)
		}

		expected, err = hashing.MultihashModel(genesisHashInput(entry, params.SCID))
	} else {
		expected, err = l.entries[n-2].Hash()
	}

	if err != nil {
		return err
	}

	if hash != expected {
		return fmt.Errorf("%w: versionId carries %s, recomputed %s", ErrHashMismatch, hash, expected)
	}

	return nil
}

func (l *DIDLog) checkTime(entry *LogEntry, n int) error {
	entryTime, err := entry.Time()
	if err != nil {
		return err
	}

	if entryTime.After(l.now().Add(l.skew)) {
		return fmt.Errorf("%w: versionTime %s is in the future", ErrTime, entry.VersionTime)
	}

	if n > 1 {
		priorTime, err := l.entries[n-2].Time()
		if err != nil {
			return err
		}

		if !entryTime.After(priorTime) {
			return fmt.Errorf("%w: versionTime %s does not advance past %s",
				ErrTime, entry.VersionTime, l.entries[n-2].VersionTime)
		}
	}

	return nil
}

func (l *DIDLog) checkState(entry *LogEntry, params *EffectiveParameters, n int) (*diddoc.Doc, error) {
	state, err := diddoc.ParseDocument(entry.State)
	if err != nil {
		return nil, fmt.Errorf("%w: entry state: %s", ErrParse, err)
	}

	if n == 1 {
		parsed, err := ParseDID(state.ID)
		if err != nil {
			return nil, err
		}

		if parsed.SCID != params.SCID {
			return nil, fmt.Errorf("%w: document id %s does not carry scid %s", ErrParse, state.ID, params.SCID)
		}

		return state, nil
	}

	if state.ID != l.didID {
		return nil, fmt.Errorf("%w: document id changed from %s to %s within one log",
			ErrPortability, l.didID, state.ID)
	}

	return state, nil
}

// checkProofs validates the entry's Data Integrity proofs against the
// authorized update key set. Verification is any-of; entries carrying
// more than one proof produce a warning pending spec clarification.
func (l *DIDLog) checkProofs(entry *LogEntry, state *diddoc.Doc, authorized []string) error {
	if len(entry.Proof) == 0 {
		return fmt.Errorf("%w: entry carries no proof", ErrProofInvalid)
	}

	if len(entry.Proof) > 1 {
		logger.Warnf("entry %s carries %d proofs; verifying any-of", entry.VersionID, len(entry.Proof))
	}

	authorizedSet := make(map[string]bool, len(authorized))
	for _, key := range authorized {
		authorizedSet[key] = true
	}

	var (
		failures     error
		unauthorized int
	)

	for _, proof := range entry.Proof {
		keyID, pubKey, err := l.resolveProofKey(proof, state)
		if err != nil {
			failures = multierror.Append(failures, err)

			continue
		}

		if !authorizedSet[keyID] {
			unauthorized++

			failures = multierror.Append(failures,
				fmt.Errorf("%w: %s is not an active update key", ErrUnauthorizedKey, keyID))

			continue
		}

		if err := integrity.VerifyProof(entry.Unsigned(), proof, pubKey, l.verifier); err != nil {
			failures = multierror.Append(failures, err)

			continue
		}

		return nil
	}

	if unauthorized == len(entry.Proof) {
		return fmt.Errorf("%w: %s", ErrUnauthorizedKey, failures)
	}

	return fmt.Errorf("%w: %s", ErrProofInvalid, failures)
}

// resolveProofKey maps a proof's verificationMethod to the multikey it
// names and the raw public key material. The fragment either is a
// multikey itself or references a verification method in the entry's
// state document.
func (l *DIDLog) resolveProofKey(proof integrity.Proof, state *diddoc.Doc) (string, []byte, error) {
	_, fragment, found := strings.Cut(proof.VerificationMethod, "#")
	if !found || fragment == "" {
		return "", nil, fmt.Errorf("%w: verificationMethod %q has no fragment",
			ErrProofInvalid, proof.VerificationMethod)
	}

	if pubKey, err := multikey.Decode(fragment); err == nil {
		return fragment, pubKey, nil
	}

	method, err := state.VerificationMethodByID("#" + fragment)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrProofInvalid, err)
	}

	pubKey, err := method.PublicKeyBytes()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrProofInvalid, err)
	}

	keyID, err := multikey.Encode(pubKey)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", ErrProofInvalid, err)
	}

	return keyID, pubKey, nil
}

func (l *DIDLog) currentParams() *EffectiveParameters {
	if len(l.folded) == 0 {
		return nil
	}

	return l.folded[len(l.folded)-1]
}

// Length returns the number of validated entries.
func (l *DIDLog) Length() int {
	return len(l.entries)
}

// Entry returns the validated entry with 1-based number n.
func (l *DIDLog) Entry(n int) (*LogEntry, error) {
	if n < 1 || n > len(l.entries) {
		return nil, fmt.Errorf("%w: entry %d of %d", ErrNotFound, n, len(l.entries))
	}

	return l.entries[n-1], nil
}

// Entries returns the validated chain in order.
func (l *DIDLog) Entries() []*LogEntry {
	return append([]*LogEntry(nil), l.entries...)
}

// EffectiveParameters returns the folded parameter state after entry n,
// the state governing entry n+1.
func (l *DIDLog) EffectiveParameters(n int) (*EffectiveParameters, error) {
	if n < 1 || n > len(l.folded) {
		return nil, fmt.Errorf("%w: entry %d of %d", ErrNotFound, n, len(l.folded))
	}

	return l.folded[n-1].Clone(), nil
}

// CurrentParameters returns the folded parameter state after the latest entry.
func (l *DIDLog) CurrentParameters() *EffectiveParameters {
	params := l.currentParams()
	if params == nil {
		return nil
	}

	return params.Clone()
}

// DIDDocument returns a deep copy of the DID document stored in the
// latest entry, without resolution-time augmentation.
func (l *DIDLog) DIDDocument() (*diddoc.Doc, error) {
	return l.DIDDocumentAt(len(l.entries))
}

// DIDDocumentAt returns a deep copy of the DID document stored in entry n.
func (l *DIDLog) DIDDocumentAt(n int) (*diddoc.Doc, error) {
	entry, err := l.Entry(n)
	if err != nil {
		return nil, err
	}

	state, err := diddoc.ParseDocument(entry.State)
	if err != nil {
		return nil, fmt.Errorf("%w: entry state: %s", ErrParse, err)
	}

	return state.Copy()
}

// Deactivated reports whether the terminal deactivation entry has been applied.
func (l *DIDLog) Deactivated() bool {
	params := l.currentParams()

	return params != nil && params.Deactivated
}

// SCID returns the log's self-certifying identifier.
func (l *DIDLog) SCID() string {
	return l.scid
}

// DID returns the identifier the log documents.
func (l *DIDLog) DID() string {
	return l.didID
}

// Portable reports whether every entry so far carried portability, the
// precondition for migrating the DID to a new host or path.
func (l *DIDLog) Portable() bool {
	if len(l.folded) == 0 {
		return false
	}

	for _, params := range l.folded {
		if !params.Portable {
			return false
		}
	}

	return true
}
