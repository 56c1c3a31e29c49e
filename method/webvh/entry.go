/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/decentralized-identity/didwebvh-go/doc/hashing"
	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
	"github.com/decentralized-identity/didwebvh-go/doc/json/canonicalizer"
)

// SCIDPlaceholder is the literal token carried by the preliminary
// genesis entry wherever the SCID will be substituted.
const SCIDPlaceholder = "{SCID}"

// LogEntry is one line of a did:webvh log.
type LogEntry struct {
	VersionID   string            `json:"versionId"`
	VersionTime string            `json:"versionTime"`
	Parameters  Parameters        `json:"parameters"`
	State       json.RawMessage   `json:"state"`
	Proof       []integrity.Proof `json:"proof,omitempty"`
}

// unsignedEntry is the hash and signing input view of an entry: the
// entry with its proof elided entirely.
type unsignedEntry struct {
	VersionID   string          `json:"versionId"`
	VersionTime string          `json:"versionTime"`
	Parameters  Parameters      `json:"parameters"`
	State       json.RawMessage `json:"state"`
}

// Unsigned returns the entry without its proof, the form over which
// hashes and proofs are computed.
func (e *LogEntry) Unsigned() interface{} {
	return &unsignedEntry{
		VersionID:   e.VersionID,
		VersionTime: e.VersionTime,
		Parameters:  e.Parameters,
		State:       e.State,
	}
}

// Hash JCS-serializes the entry with its proof elided and returns the
// base58btc multibase encoding of the SHA2-256 multihash.
func (e *LogEntry) Hash() (string, error) {
	return hashing.MultihashModel(e.Unsigned())
}

// Time parses the entry's RFC 3339 versionTime.
func (e *LogEntry) Time() (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, e.VersionTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: versionTime %q: %s", ErrTime, e.VersionTime, err)
	}

	return parsed, nil
}

// Number returns the numeric component of the entry's versionId.
func (e *LogEntry) Number() (int, error) {
	number, _, err := parseVersionID(e.VersionID)

	return number, err
}

// parseVersionID splits a "<n>-<entryHash>" versionId.
func parseVersionID(versionID string) (int, string, error) {
	number, hash, found := strings.Cut(versionID, "-")
	if !found || number == "" || hash == "" {
		return 0, "", fmt.Errorf("%w: malformed versionId %q", ErrParse, versionID)
	}

	parsed, err := strconv.Atoi(number)
	if err != nil || parsed < 1 {
		return 0, "", fmt.Errorf("%w: versionId number %q is not a positive integer", ErrParse, number)
	}

	if !hashing.IsMultihash(hash) {
		return 0, "", fmt.Errorf("%w: versionId hash %q is not a multihash", ErrParse, hash)
	}

	return parsed, hash, nil
}

// genesisHashInput returns the hashing view of the genesis entry: the
// stored entry with its versionId replaced by the SCID and its proof
// elided.
func genesisHashInput(entry *LogEntry, scid string) interface{} {
	return &unsignedEntry{
		VersionID:   scid,
		VersionTime: entry.VersionTime,
		Parameters:  entry.Parameters,
		State:       entry.State,
	}
}

// computeSCID hashes the placeholder form of a genesis entry: every
// occurrence of the SCID (or of an existing SCID value) replaced by
// the literal placeholder token.
func computeSCID(entry *LogEntry, existingSCID string) (string, error) {
	input := genesisHashInput(entry, SCIDPlaceholder)

	serialized, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal genesis entry: %w", err)
	}

	if existingSCID != "" {
		serialized = bytes.ReplaceAll(serialized, []byte(existingSCID), []byte(SCIDPlaceholder))
	}

	canonical, err := canonicalizer.TransformCanonical(serialized)
	if err != nil {
		return "", err
	}

	return hashing.Multihash(canonical)
}

// ParseLog parses a UTF-8 JSON-Lines log into entries. Line order is
// the authoritative order of versions; trailing blank lines are ignored.
func ParseLog(data []byte) ([]*LogEntry, error) {
	var entries []*LogEntry

	for i, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		entry := &LogEntry{}
		if err := json.Unmarshal(line, entry); err != nil {
			return nil, fmt.Errorf("%w: log line %d: %s", ErrParse, i+1, err)
		}

		// encoding/json keeps the last value of a duplicated key, so a
		// line that parses can still be ambiguous for hashing purposes.
		if err := canonicalizer.CheckDuplicateKeys(line); err != nil {
			return nil, fmt.Errorf("log line %d: %w", i+1, err)
		}

		if entry.Parameters == nil {
			entry.Parameters = Parameters{}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// MarshalLog serializes entries into JSON-Lines form, one LF-terminated
// line per entry.
func MarshalLog(entries []*LogEntry) ([]byte, error) {
	var buffer bytes.Buffer

	for i, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("marshal log entry %d: %w", i+1, err)
		}

		buffer.Write(line)
		buffer.WriteByte('\n')
	}

	return buffer.Bytes(), nil
}
