/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"fmt"
)

// DocResolution is a DID resolution result.
type DocResolution struct {
	Context          []string          `json:"@context,omitempty"`
	DIDDocument      *Doc              `json:"didDocument"`
	DocumentMetadata *DocumentMetadata `json:"didDocumentMetadata,omitempty"`
}

// DocumentMetadata holds resolution metadata about the document.
type DocumentMetadata struct {
	Created      string          `json:"created,omitempty"`
	Updated      string          `json:"updated,omitempty"`
	VersionID    string          `json:"versionId,omitempty"`
	Deactivated  bool            `json:"deactivated,omitempty"`
	CanonicalID  string          `json:"canonicalId,omitempty"`
	EquivalentID []string        `json:"equivalentId,omitempty"`
	Method       *MethodMetadata `json:"method,omitempty"`
}

// MethodMetadata holds method-specific resolution metadata.
type MethodMetadata struct {
	SCID            string   `json:"scid,omitempty"`
	Portable        bool     `json:"portable,omitempty"`
	WitnessVerified *bool    `json:"witnessVerified,omitempty"`
	Watchers        []string `json:"watchers,omitempty"`
	TTL             int      `json:"ttl,omitempty"`
}

type rawResolution struct {
	Context          interface{}       `json:"@context,omitempty"`
	DIDDocument      json.RawMessage   `json:"didDocument"`
	DocumentMetadata *DocumentMetadata `json:"didDocumentMetadata,omitempty"`
}

// JSONBytes converts the resolution result into JSON bytes.
func (r *DocResolution) JSONBytes() ([]byte, error) {
	if r.DIDDocument == nil {
		return nil, ErrDIDDocumentNotExist
	}

	docBytes, err := r.DIDDocument.JSONBytes()
	if err != nil {
		return nil, err
	}

	raw := &rawResolution{
		DIDDocument:      docBytes,
		DocumentMetadata: r.DocumentMetadata,
	}

	if len(r.Context) > 0 {
		raw.Context = r.Context
	}

	bytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of did resolution failed: %w", err)
	}

	return bytes, nil
}

// ParseDocumentResolution parses a DID resolution result from JSON bytes.
func ParseDocumentResolution(data []byte) (*DocResolution, error) {
	raw := &rawResolution{}

	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of did resolution failed: %w", err)
	}

	if len(raw.DIDDocument) == 0 {
		return nil, ErrDIDDocumentNotExist
	}

	doc, err := ParseDocument(raw.DIDDocument)
	if err != nil {
		return nil, err
	}

	context, err := stringsFromValue(raw.Context, "@context")
	if err != nil {
		return nil, err
	}

	return &DocResolution{
		Context:          context,
		DIDDocument:      doc,
		DocumentMetadata: raw.DocumentMetadata,
	}, nil
}
