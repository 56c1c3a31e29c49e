/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"fmt"
	"strings"

	diddoc "github.com/decentralized-identity/didwebvh-go/doc/did"
	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
	vdrapi "github.com/decentralized-identity/didwebvh-go/vdr/api"
)

const (
	didPrefix = "did:" + namespace + ":"

	multikeyType = "Multikey"
)

// Read derives the DID document from the multikey embedded in the
// identifier; no network access is involved.
func (v *VDR) Read(didID string, _ ...vdrapi.DIDMethodOption) (*diddoc.DocResolution, error) {
	if !strings.HasPrefix(didID, didPrefix) {
		return nil, fmt.Errorf("%s is not a valid did:%s", didID, namespace)
	}

	encoded := strings.TrimPrefix(didID, didPrefix)
	if index := strings.Index(encoded, "#"); index >= 0 {
		encoded = encoded[:index]
	}

	if _, err := multikey.Decode(encoded); err != nil {
		return nil, fmt.Errorf("error resolving did:key did --> %w", err)
	}

	keyID := didID + "#" + encoded

	doc := &diddoc.Doc{
		Context: []string{diddoc.ContextV1, diddoc.ContextMultikey},
		ID:      didID,
		VerificationMethod: []diddoc.VerificationMethod{{
			ID:                 keyID,
			Type:               multikeyType,
			Controller:         didID,
			PublicKeyMultibase: encoded,
		}},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID},
	}

	return &diddoc.DocResolution{DIDDocument: doc}, nil
}
