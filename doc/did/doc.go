/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did provides the DID document model returned by resolvers.
package did

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/decentralized-identity/didwebvh-go/doc/jose/jwk"
	"github.com/decentralized-identity/didwebvh-go/doc/json/canonicalizer"
	"github.com/decentralized-identity/didwebvh-go/doc/multikey"
)

// ContextV1 is the DID core context.
const ContextV1 = "https://www.w3.org/ns/did/v1"

// ContextMultikey is the multikey verification method context.
const ContextMultikey = "https://w3id.org/security/multikey/v1"

// ErrDIDDocumentNotExist is returned when a resolution result holds no document.
var ErrDIDDocumentNotExist = errors.New("did document not exists")

// Doc is a DID document.
type Doc struct {
	Context              []string
	ID                   string
	AlsoKnownAs          []string
	Controller           []string
	VerificationMethod   []VerificationMethod
	Authentication       []string
	AssertionMethod      []string
	KeyAgreement         []string
	CapabilityInvocation []string
	CapabilityDelegation []string
	Service              []Service
}

// VerificationMethod is a DID document verification method.
type VerificationMethod struct {
	ID                 string   `json:"id"`
	Type               string   `json:"type"`
	Controller         string   `json:"controller,omitempty"`
	PublicKeyMultibase string   `json:"publicKeyMultibase,omitempty"`
	PublicKeyJwk       *jwk.JWK `json:"publicKeyJwk,omitempty"`
}

// Service is a DID document service endpoint.
type Service struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	ServiceEndpoint interface{} `json:"serviceEndpoint"`
}

type rawDoc struct {
	Context              interface{}          `json:"@context,omitempty"`
	ID                   string               `json:"id,omitempty"`
	AlsoKnownAs          []string             `json:"alsoKnownAs,omitempty"`
	Controller           interface{}          `json:"controller,omitempty"`
	VerificationMethod   []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication       []string             `json:"authentication,omitempty"`
	AssertionMethod      []string             `json:"assertionMethod,omitempty"`
	KeyAgreement         []string             `json:"keyAgreement,omitempty"`
	CapabilityInvocation []string             `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []string             `json:"capabilityDelegation,omitempty"`
	Service              []Service            `json:"service,omitempty"`
}

// ParseDocument creates an instance of DID document by reading a JSON document from bytes.
func ParseDocument(data []byte) (*Doc, error) {
	raw := &rawDoc{}

	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("JSON unmarshalling of did document failed: %w", err)
	}

	if err := canonicalizer.CheckDuplicateKeys(data); err != nil {
		return nil, err
	}

	if raw.ID == "" {
		return nil, errors.New("did document id is missing")
	}

	context, err := stringsFromValue(raw.Context, "@context")
	if err != nil {
		return nil, err
	}

	controller, err := stringsFromValue(raw.Controller, "controller")
	if err != nil {
		return nil, err
	}

	doc := &Doc{
		Context:              context,
		ID:                   raw.ID,
		AlsoKnownAs:          raw.AlsoKnownAs,
		Controller:           controller,
		VerificationMethod:   raw.VerificationMethod,
		Authentication:       raw.Authentication,
		AssertionMethod:      raw.AssertionMethod,
		KeyAgreement:         raw.KeyAgreement,
		CapabilityInvocation: raw.CapabilityInvocation,
		CapabilityDelegation: raw.CapabilityDelegation,
		Service:              raw.Service,
	}

	return doc, nil
}

// JSONBytes converts document data into JSON bytes.
func (doc *Doc) JSONBytes() ([]byte, error) {
	raw := &rawDoc{
		ID:                   doc.ID,
		AlsoKnownAs:          doc.AlsoKnownAs,
		VerificationMethod:   doc.VerificationMethod,
		Authentication:       doc.Authentication,
		AssertionMethod:      doc.AssertionMethod,
		KeyAgreement:         doc.KeyAgreement,
		CapabilityInvocation: doc.CapabilityInvocation,
		CapabilityDelegation: doc.CapabilityDelegation,
		Service:              doc.Service,
	}

	if len(doc.Context) > 0 {
		raw.Context = doc.Context
	}

	switch len(doc.Controller) {
	case 0:
	case 1:
		raw.Controller = doc.Controller[0]
	default:
		raw.Controller = doc.Controller
	}

	bytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("JSON marshalling of did document failed: %w", err)
	}

	return bytes, nil
}

// Copy returns a deep copy of the document so that callers cannot
// mutate resolver or state machine internals.
func (doc *Doc) Copy() (*Doc, error) {
	copied := &Doc{}

	if err := copier.CopyWithOption(copied, doc, copier.Option{DeepCopy: true, IgnoreEmpty: true}); err != nil {
		return nil, fmt.Errorf("copy did document: %w", err)
	}

	return copied, nil
}

// VerificationMethodByID returns the verification method with the given
// id. A fragment-only reference resolves against the document id.
func (doc *Doc) VerificationMethodByID(id string) (*VerificationMethod, error) {
	for i := range doc.VerificationMethod {
		method := &doc.VerificationMethod[i]

		if method.ID == id {
			return method, nil
		}

		if len(id) > 0 && id[0] == '#' && method.ID == doc.ID+id {
			return method, nil
		}
	}

	return nil, fmt.Errorf("verification method %s not found in document %s", id, doc.ID)
}

// PublicKeyBytes returns the raw public key material of a verification method.
func (method *VerificationMethod) PublicKeyBytes() ([]byte, error) {
	if method.PublicKeyMultibase != "" {
		decoded, err := multikey.Decode(method.PublicKeyMultibase)
		if err != nil {
			return nil, err
		}

		return decoded, nil
	}

	if method.PublicKeyJwk != nil {
		decoded, err := method.PublicKeyJwk.ED25519PublicKeyBytes()
		if err != nil {
			return nil, err
		}

		return decoded, nil
	}

	return nil, fmt.Errorf("verification method %s carries no public key material", method.ID)
}

func stringsFromValue(value interface{}, field string) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{typed}, nil
	case []interface{}:
		result := make([]string, 0, len(typed))

		for _, entry := range typed {
			s, ok := entry.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected %s entry type %T", field, entry)
			}

			result = append(result, s)
		}

		return result, nil
	default:
		return nil, fmt.Errorf("unexpected %s type %T", field, value)
	}
}
