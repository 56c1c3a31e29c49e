/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package canonicalizer serializes JSON documents into the RFC 8785
// JSON Canonicalization Scheme (JCS) form used for hashing and signing.
package canonicalizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gowebpki/jcs"
)

// ErrCanonicalization is returned when a value cannot be canonicalized,
// such as non-finite numbers, malformed JSON or duplicate object keys.
var ErrCanonicalization = errors.New("canonicalization failed")

// MarshalCanonical marshals the object into the RFC 8785 canonical form:
// object keys sorted by code point, no insignificant whitespace, numbers
// serialized per the ECMAScript number-to-string algorithm.
func MarshalCanonical(value interface{}) ([]byte, error) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCanonicalization, err)
	}

	return TransformCanonical(bytes)
}

// TransformCanonical converts already-serialized JSON into canonical form.
func TransformCanonical(data []byte) ([]byte, error) {
	if err := CheckDuplicateKeys(data); err != nil {
		return nil, err
	}

	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCanonicalization, err)
	}

	return canonical, nil
}

// CheckDuplicateKeys rejects JSON documents in which any object carries
// the same key twice after string normalization. encoding/json silently
// keeps the last value, so hashing such a document would not commit to
// what a reader actually sees.
func CheckDuplicateKeys(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCanonicalization, err)
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return nil
	}

	return checkContainer(decoder, delim)
}

// checkContainer walks the members of an object or array whose opening
// delimiter has just been consumed.
func checkContainer(decoder *json.Decoder, open json.Delim) error {
	if open == '[' {
		for decoder.More() {
			if err := checkMember(decoder); err != nil {
				return err
			}
		}

		_, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("%w: %s", ErrCanonicalization, err)
		}

		return nil
	}

	seen := make(map[string]struct{})

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("%w: %s", ErrCanonicalization, err)
		}

		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("%w: unexpected object key token %v", ErrCanonicalization, token)
		}

		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate object key %q", ErrCanonicalization, key)
		}

		seen[key] = struct{}{}

		if err := checkMember(decoder); err != nil {
			return err
		}
	}

	_, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCanonicalization, err)
	}

	return nil
}

// checkMember consumes one value, descending into nested containers.
func checkMember(decoder *json.Decoder) error {
	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCanonicalization, err)
	}

	if delim, ok := token.(json.Delim); ok {
		return checkContainer(decoder, delim)
	}

	return nil
}
