/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/doc/hashing"
	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
)

// CreateInfo contains the data required to create a new DID log.
type CreateInfo struct {

	// Document is the DID document template. Its id and every self
	// reference carry the literal {SCID} placeholder.
	// required
	Document *diddoc.Doc

	// UpdateKeys authorizes the keys that may sign the next entry.
	// required
	UpdateKeys []string

	// Signer signs the genesis proof(s).
	// required
	Signer integrity.Signer

	// SigningKeys selects which update keys produce proofs. Defaults to
	// the first update key.
	SigningKeys []string

	// NextKeyHashes pre-commits the successor update key set (optional).
	NextKeyHashes []string

	// Portable marks the DID as migratable (optional).
	Portable bool

	// Witness configures the witness quorum (optional).
	Witness *Witness

	// Watchers lists watcher URLs, opaque to the method (optional).
	Watchers []string

	// TTL is the resolution cache hint in seconds (optional).
	TTL int

	// MethodVersion is the method token; defaults to MethodV1.
	MethodVersion string

	// VersionTime overrides the clock for the genesis entry (optional).
	VersionTime time.Time
}

// Create builds and validates the genesis entry of a new DID log:
// the Empty -> Active(1) transition.
//
//nolint:gocyclo
func Create(info *CreateInfo, opts ...LogOption) (*DIDLog, error) {
	if err := validateCreateInfo(info); err != nil {
		return nil, err
	}

	method := info.MethodVersion
	if method == "" {
		method = MethodV1
	}

	stateBytes, err := info.Document.JSONBytes()
	if err != nil {
		return nil, err
	}

	if !bytes.Contains(stateBytes, []byte(SCIDPlaceholder)) {
		return nil, fmt.Errorf("document template does not carry the %s placeholder", SCIDPlaceholder)
	}

	params := Parameters{}

	if err := setParam(params, paramMethod, method); err != nil {
		return nil, err
	}

	if err := setParam(params, paramSCID, SCIDPlaceholder); err != nil {
		return nil, err
	}

	if err := setParam(params, paramUpdateKeys, info.UpdateKeys); err != nil {
		return nil, err
	}

	if len(info.NextKeyHashes) > 0 {
		if err := setParam(params, paramNextKeyHashes, info.NextKeyHashes); err != nil {
			return nil, err
		}
	}

	if info.Portable {
		if err := setParam(params, paramPortable, true); err != nil {
			return nil, err
		}
	}

	if info.Witness != nil {
		if err := setParam(params, paramWitness, info.Witness); err != nil {
			return nil, err
		}
	}

	if len(info.Watchers) > 0 {
		if err := setParam(params, paramWatchers, info.Watchers); err != nil {
			return nil, err
		}
	}

	if info.TTL > 0 {
		if err := setParam(params, paramTTL, info.TTL); err != nil {
			return nil, err
		}
	}

	entry := &LogEntry{
		VersionTime: versionTime(info.VersionTime),
		Parameters:  params,
		State:       stateBytes,
	}

	scid, err := computeSCID(entry, "")
	if err != nil {
		return nil, err
	}

	entry, err = substituteSCID(entry, scid)
	if err != nil {
		return nil, err
	}

	entryHash, err := hashing.MultihashModel(genesisHashInput(entry, scid))
	if err != nil {
		return nil, err
	}

	entry.VersionID = "1-" + entryHash

	state, err := diddoc.ParseDocument(entry.State)
	if err != nil {
		return nil, fmt.Errorf("%w: entry state: %s", ErrParse, err)
	}

	if err := attachProofs(entry, state.ID, info.Signer,
		chooseSigningKeys(info.SigningKeys, info.UpdateKeys)); err != nil {
		return nil, err
	}

	log := NewLog(opts...)
	if err := log.Append(entry); err != nil {
		return nil, err
	}

	return log, nil
}

// UpdateInfo contains the data required to append an entry to a log.
// Nil slices leave the corresponding parameter unchanged; the Clear
// flags emit an explicit JSON null.
type UpdateInfo struct {

	// Document replaces the DID document state (optional; nil keeps the
	// current document).
	Document *diddoc.Doc

	// Signer signs the entry's proof(s).
	// required
	Signer integrity.Signer

	// SigningKeys selects the authorized keys producing proofs.
	// Defaults to the first key authorized for this entry.
	SigningKeys []string

	UpdateKeys         []string
	NextKeyHashes      []string
	ClearNextKeyHashes bool
	Witness            *Witness
	ClearWitness       bool
	Watchers           []string
	ClearWatchers      bool
	TTL                *int

	// VersionTime overrides the clock for this entry (optional).
	VersionTime time.Time
}

// Update builds, validates and appends the next entry:
// the Active(n) -> Active(n+1) transition.
func Update(log *DIDLog, info *UpdateInfo) (*LogEntry, error) {
	if info == nil || info.Signer == nil {
		return nil, errors.New("update info with signer is required")
	}

	params, err := updateDelta(info)
	if err != nil {
		return nil, err
	}

	return appendEntry(log, params, info.Document, info.Signer, info.SigningKeys, info.VersionTime)
}

// DeactivateInfo contains the data required to terminate a log.
type DeactivateInfo struct {

	// Document replaces the final DID document state (optional).
	Document *diddoc.Doc

	// Signer signs the terminal proof.
	// required
	Signer integrity.Signer

	// SigningKeys selects the authorized keys producing proofs.
	SigningKeys []string

	// VersionTime overrides the clock for the terminal entry (optional).
	VersionTime time.Time
}

// Deactivate builds, validates and appends the terminal entry:
// the Active(n) -> Deactivated transition. The delta sets
// deactivated=true, empties updateKeys and clears nextKeyHashes.
func Deactivate(log *DIDLog, info *DeactivateInfo) (*LogEntry, error) {
	if info == nil || info.Signer == nil {
		return nil, errors.New("deactivate info with signer is required")
	}

	if log.Length() == 0 {
		return nil, fmt.Errorf("%w: log holds no entries", ErrParse)
	}

	params := Parameters{}

	if err := setParam(params, paramDeactivated, true); err != nil {
		return nil, err
	}

	if err := setParam(params, paramUpdateKeys, []string{}); err != nil {
		return nil, err
	}

	if len(log.CurrentParameters().NextKeyHashes) > 0 {
		params[paramNextKeyHashes] = json.RawMessage(jsonNull)
	}

	return appendEntry(log, params, info.Document, info.Signer, info.SigningKeys, info.VersionTime)
}

// MigrateInfo contains the data required to move a portable DID to a
// new host or path.
type MigrateInfo struct {

	// Document is the new log's genesis document template, carrying
	// {SCID} placeholders for the new identifier.
	// required
	Document *diddoc.Doc

	// UpdateKeys authorizes the new log's update keys.
	// required
	UpdateKeys []string

	// Signer signs both the old log's final entry and the new genesis.
	// required
	Signer integrity.Signer

	// SigningKeys for the old log's final entry; defaults to the old
	// log's first active update key.
	SigningKeys []string

	// NewSigningKeys for the new genesis; defaults to the first new
	// update key.
	NewSigningKeys []string

	// VersionTime overrides the clock (optional).
	VersionTime time.Time
}

// Migrate terminates a portable log and opens a successor log on a new
// DID: the Active(n) -> Migrated(target) transition. The old log's
// final entry points at the new DID through alsoKnownAs, and the new
// genesis points back symmetrically.
func Migrate(oldLog *DIDLog, info *MigrateInfo) (*DIDLog, error) {
	if info == nil || info.Document == nil || info.Signer == nil {
		return nil, errors.New("migrate info with document and signer is required")
	}

	if !oldLog.Portable() {
		return nil, fmt.Errorf("%w: log history is not portable", ErrPortability)
	}

	newLog, err := Create(&CreateInfo{
		Document:      withAlsoKnownAs(info.Document, oldLog.DID()),
		UpdateKeys:    info.UpdateKeys,
		Signer:        info.Signer,
		SigningKeys:   info.NewSigningKeys,
		Portable:      true,
		MethodVersion: oldLog.CurrentParameters().Method,
		VersionTime:   info.VersionTime,
	}, WithClock(oldLog.now), WithMaxClockSkew(oldLog.skew), WithVerifier(oldLog.verifier))
	if err != nil {
		return nil, err
	}

	finalDoc, err := oldLog.DIDDocument()
	if err != nil {
		return nil, err
	}

	if _, err := Deactivate(oldLog, &DeactivateInfo{
		Document:    withAlsoKnownAs(finalDoc, newLog.DID()),
		Signer:      info.Signer,
		SigningKeys: info.SigningKeys,
		VersionTime: info.VersionTime,
	}); err != nil {
		return nil, err
	}

	return newLog, nil
}

// VerifyMigration checks the symmetric alsoKnownAs linkage between a
// terminated log and its successor.
func VerifyMigration(oldLog, newLog *DIDLog) error {
	if !oldLog.Portable() {
		return fmt.Errorf("%w: source log history is not portable", ErrPortability)
	}

	oldDoc, err := oldLog.DIDDocument()
	if err != nil {
		return err
	}

	newDoc, err := newLog.DIDDocumentAt(1)
	if err != nil {
		return err
	}

	if !containsString(oldDoc.AlsoKnownAs, newLog.DID()) {
		return fmt.Errorf("%w: source log does not reference %s", ErrPortability, newLog.DID())
	}

	if !containsString(newDoc.AlsoKnownAs, oldLog.DID()) {
		return fmt.Errorf("%w: target genesis does not reference %s", ErrPortability, oldLog.DID())
	}

	return nil
}

func appendEntry(log *DIDLog, params Parameters, document *diddoc.Doc,
	signer integrity.Signer, signingKeys []string, overrideTime time.Time) (*LogEntry, error) {
	if log.Length() == 0 {
		return nil, fmt.Errorf("%w: log holds no entries", ErrParse)
	}

	if log.Deactivated() {
		return nil, fmt.Errorf("%w: no further entries accepted", ErrDeactivated)
	}

	prevEntry, err := log.Entry(log.Length())
	if err != nil {
		return nil, err
	}

	state := prevEntry.State
	if document != nil {
		state, err = document.JSONBytes()
		if err != nil {
			return nil, err
		}
	}

	prevHash, err := prevEntry.Hash()
	if err != nil {
		return nil, err
	}

	entry := &LogEntry{
		VersionID:   fmt.Sprintf("%d-%s", log.Length()+1, prevHash),
		VersionTime: versionTime(overrideTime),
		Parameters:  params,
		State:       state,
	}

	if err := attachProofs(entry, log.DID(), signer,
		chooseSigningKeys(signingKeys, log.CurrentParameters().UpdateKeys)); err != nil {
		return nil, err
	}

	if err := log.Append(entry); err != nil {
		return nil, err
	}

	return entry, nil
}

func updateDelta(info *UpdateInfo) (Parameters, error) {
	params := Parameters{}

	if info.UpdateKeys != nil {
		if err := setParam(params, paramUpdateKeys, info.UpdateKeys); err != nil {
			return nil, err
		}
	}

	switch {
	case info.ClearNextKeyHashes:
		params[paramNextKeyHashes] = json.RawMessage(jsonNull)
	case info.NextKeyHashes != nil:
		if err := setParam(params, paramNextKeyHashes, info.NextKeyHashes); err != nil {
			return nil, err
		}
	}

	switch {
	case info.ClearWitness:
		params[paramWitness] = json.RawMessage(jsonNull)
	case info.Witness != nil:
		if err := setParam(params, paramWitness, info.Witness); err != nil {
			return nil, err
		}
	}

	switch {
	case info.ClearWatchers:
		params[paramWatchers] = json.RawMessage(jsonNull)
	case info.Watchers != nil:
		if err := setParam(params, paramWatchers, info.Watchers); err != nil {
			return nil, err
		}
	}

	if info.TTL != nil {
		if err := setParam(params, paramTTL, *info.TTL); err != nil {
			return nil, err
		}
	}

	return params, nil
}

// attachProofs signs the entry once per selected key.
func attachProofs(entry *LogEntry, didID string, signer integrity.Signer, keys []string) error {
	if len(keys) == 0 {
		return errors.New("no signing keys selected")
	}

	for _, key := range keys {
		proof, err := integrity.CreateProof(entry.Unsigned(), integrity.Proof{
			Created:            entry.VersionTime,
			VerificationMethod: didID + "#" + key,
		}, signer, key)
		if err != nil {
			return err
		}

		entry.Proof = append(entry.Proof, *proof)
	}

	return nil
}

func validateCreateInfo(info *CreateInfo) error {
	if info == nil || info.Document == nil {
		return errors.New("document template is required")
	}

	if len(info.UpdateKeys) == 0 {
		return ErrEmptyUpdateKeys
	}

	if info.Signer == nil {
		return errors.New("signer is required")
	}

	for _, hash := range info.NextKeyHashes {
		if !hashing.IsMultihash(hash) {
			return fmt.Errorf("%w: next key hash %q is not a multihash", ErrParameter, hash)
		}
	}

	return nil
}

// substituteSCID replaces every placeholder occurrence in the entry.
func substituteSCID(entry *LogEntry, scid string) (*LogEntry, error) {
	serialized, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal genesis entry: %w", err)
	}

	serialized = bytes.ReplaceAll(serialized, []byte(SCIDPlaceholder), []byte(scid))

	substituted := &LogEntry{}
	if err := json.Unmarshal(serialized, substituted); err != nil {
		return nil, fmt.Errorf("unmarshal genesis entry: %w", err)
	}

	return substituted, nil
}

func setParam(params Parameters, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal parameter %s: %w", key, err)
	}

	params[key] = raw

	return nil
}

func versionTime(override time.Time) string {
	if override.IsZero() {
		override = time.Now()
	}

	return override.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// chooseSigningKeys defaults to the first authorized key when the
// caller selects none.
func chooseSigningKeys(selected, authorized []string) []string {
	if len(selected) > 0 {
		return selected
	}

	if len(authorized) == 0 {
		return nil
	}

	return authorized[:1]
}

func withAlsoKnownAs(doc *diddoc.Doc, didID string) *diddoc.Doc {
	if containsString(doc.AlsoKnownAs, didID) {
		return doc
	}

	linked := *doc
	linked.AlsoKnownAs = append(append([]string(nil), doc.AlsoKnownAs...), didID)

	return &linked
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
