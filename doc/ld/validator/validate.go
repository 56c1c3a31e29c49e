/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package validator checks that DID documents are structurally sound
// JSON-LD: every term must be defined by the declared contexts.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/piprate/json-gold/ld"
)

type validateOpts struct {
	documentLoader ld.DocumentLoader
}

// ValidateOpts sets JSON-LD validation options.
type ValidateOpts func(opts *validateOpts)

// WithDocumentLoader passes a custom JSON-LD document loader.
func WithDocumentLoader(documentLoader ld.DocumentLoader) ValidateOpts {
	return func(opts *validateOpts) {
		opts.documentLoader = documentLoader
	}
}

// ValidateJSONLD validates that the document expands without dropping
// terms and compacts back to an equivalent structure.
func ValidateJSONLD(doc []byte, options ...ValidateOpts) error {
	docMap := make(map[string]interface{})

	if err := json.Unmarshal(doc, &docMap); err != nil {
		return fmt.Errorf("convert JSON-LD doc to map: %w", err)
	}

	return ValidateJSONLDMap(docMap, options...)
}

// ValidateJSONLDMap validates an unmarshalled JSON-LD document.
func ValidateJSONLDMap(docMap map[string]interface{}, options ...ValidateOpts) error {
	opts := &validateOpts{}

	for _, opt := range options {
		opt(opts)
	}

	loader := opts.documentLoader
	if loader == nil {
		loader = ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(http.DefaultClient))
	}

	if _, ok := docMap["@context"]; !ok {
		return errors.New("JSON-LD doc is missing @context")
	}

	proc := ld.NewJsonLdProcessor()

	ldOptions := ld.NewJsonLdOptions("")
	ldOptions.DocumentLoader = loader

	expanded, err := proc.Expand(docMap, ldOptions)
	if err != nil {
		return fmt.Errorf("expand JSON-LD document: %w", err)
	}

	if len(expanded) == 0 {
		return errors.New("JSON-LD doc expands to nothing")
	}

	compacted, err := proc.Compact(docMap, docMap["@context"], ldOptions)
	if err != nil {
		return fmt.Errorf("compact JSON-LD document: %w", err)
	}

	if diff := droppedTerms(docMap, compacted); len(diff) > 0 {
		return fmt.Errorf("JSON-LD doc drops terms after compaction: %v", diff)
	}

	return nil
}

// droppedTerms reports top-level keys that do not survive compaction,
// the signature of terms undefined by the declared contexts.
func droppedTerms(original, compacted map[string]interface{}) []string {
	var dropped []string

	for key := range original {
		if key == "@context" {
			continue
		}

		if _, ok := compacted[key]; !ok {
			dropped = append(dropped, key)
		}
	}

	return dropped
}
