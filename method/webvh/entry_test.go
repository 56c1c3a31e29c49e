/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentralized-identity/didwebvh-go/doc/integrity"
	"github.com/decentralized-identity/didwebvh-go/doc/json/canonicalizer"
)

func testEntry(t *testing.T) *LogEntry {
	t.Helper()

	return &LogEntry{
		VersionID:   "1-zQmHash",
		VersionTime: "2025-03-01T00:00:00Z",
		Parameters:  Parameters{paramMethod: json.RawMessage(`"did:webvh:1.0"`)},
		State:       json.RawMessage(`{"id":"did:webvh:scid:example.com"}`),
	}
}

func TestEntryHash(t *testing.T) {
	t.Run("test hash ignores proof", func(t *testing.T) {
		entry := testEntry(t)

		unsigned, err := entry.Hash()
		require.NoError(t, err)

		entry.Proof = []integrity.Proof{{Type: "DataIntegrityProof", ProofValue: "zSig"}}

		signed, err := entry.Hash()
		require.NoError(t, err)

		require.Equal(t, unsigned, signed)
	})

	t.Run("test hash covers every other field", func(t *testing.T) {
		entry := testEntry(t)

		base, err := entry.Hash()
		require.NoError(t, err)

		changed := testEntry(t)
		changed.VersionTime = "2025-03-02T00:00:00Z"

		changedHash, err := changed.Hash()
		require.NoError(t, err)
		require.NotEqual(t, base, changedHash)

		changed = testEntry(t)
		changed.State = json.RawMessage(`{"id":"did:webvh:scid:evil.example.com"}`)

		changedHash, err = changed.Hash()
		require.NoError(t, err)
		require.NotEqual(t, base, changedHash)
	})
}

func TestParseVersionID(t *testing.T) {
	t.Run("test parse success", func(t *testing.T) {
		hash, err := testEntry(t).Hash()
		require.NoError(t, err)

		number, parsedHash, err := parseVersionID("3-" + hash)
		require.NoError(t, err)
		require.Equal(t, 3, number)
		require.Equal(t, hash, parsedHash)
	})

	t.Run("test parse failures", func(t *testing.T) {
		for _, invalid := range []string{"", "3", "-zQm", "0-zQm", "x-zQm", "3-not-multihash"} {
			_, _, err := parseVersionID(invalid)
			require.Error(t, err, invalid)
			require.ErrorIs(t, err, ErrParse, invalid)
		}
	})
}

func TestEntryTime(t *testing.T) {
	t.Run("test rfc3339 parsed", func(t *testing.T) {
		parsed, err := testEntry(t).Time()
		require.NoError(t, err)
		require.Equal(t, 2025, parsed.Year())
	})

	t.Run("test malformed time rejected", func(t *testing.T) {
		entry := testEntry(t)
		entry.VersionTime = "yesterday"

		_, err := entry.Time()
		require.ErrorIs(t, err, ErrTime)
	})
}

func TestParseLog(t *testing.T) {
	t.Run("test json lines round trip", func(t *testing.T) {
		first := testEntry(t)
		second := testEntry(t)
		second.VersionID = "2-zQmOther"

		data, err := MarshalLog([]*LogEntry{first, second})
		require.NoError(t, err)

		entries, err := ParseLog(data)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, first.VersionID, entries[0].VersionID)
		require.Equal(t, second.VersionID, entries[1].VersionID)
	})

	t.Run("test trailing blank lines ignored", func(t *testing.T) {
		data, err := MarshalLog([]*LogEntry{testEntry(t)})
		require.NoError(t, err)

		entries, err := ParseLog(append(data, []byte("\n\n  \n")...))
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("test malformed line fails with line number", func(t *testing.T) {
		data, err := MarshalLog([]*LogEntry{testEntry(t)})
		require.NoError(t, err)

		_, err = ParseLog(append(data, []byte("{oops\n")...))
		require.Error(t, err)
		require.ErrorIs(t, err, ErrParse)
		require.Contains(t, err.Error(), "log line 2")
	})

	t.Run("test duplicate keys in line rejected", func(t *testing.T) {
		_, err := ParseLog([]byte(
			`{"versionId":"1-z","versionId":"1-zOther","versionTime":"2025-03-01T00:00:00Z",` +
				`"parameters":{},"state":{"id":"did:ex:1"}}` + "\n"))
		require.Error(t, err)
		require.ErrorIs(t, err, canonicalizer.ErrCanonicalization)
		require.Contains(t, err.Error(), "log line 1")
	})

	t.Run("test empty parameters normalized", func(t *testing.T) {
		entries, err := ParseLog([]byte(
			`{"versionId":"1-z","versionTime":"2025-03-01T00:00:00Z","state":{"id":"did:ex:1"}}` + "\n"))
		require.NoError(t, err)
		require.NotNil(t, entries[0].Parameters)
	})
}

func TestSerializationRoundTrip(t *testing.T) {
	entry := testEntry(t)
	entry.Proof = []integrity.Proof{{
		Type:               "DataIntegrityProof",
		Cryptosuite:        "eddsa-jcs-2022",
		VerificationMethod: "did:webvh:scid:example.com#z6MkKey",
		ProofPurpose:       "assertionMethod",
		ProofValue:         "z3sig",
	}}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	reparsed := &LogEntry{}
	require.NoError(t, json.Unmarshal(data, reparsed))

	originalHash, err := entry.Hash()
	require.NoError(t, err)

	reparsedHash, err := reparsed.Hash()
	require.NoError(t, err)

	require.Equal(t, originalHash, reparsedHash)
	require.Equal(t, entry.Proof, reparsed.Proof)
}
