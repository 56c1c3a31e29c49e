/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webvh

import (
	"bytes"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/decentralized-identity/didwebvh-go/doc/hashing"
)

// Supported method version tokens. Unknown tokens are refused rather
// than silently accepted.
const (
	MethodV1  = "did:webvh:1.0"
	MethodV05 = "did:webvh:0.5"
)

// Parameter keys understood by the engine.
const (
	paramMethod        = "method"
	paramSCID          = "scid"
	paramUpdateKeys    = "updateKeys"
	paramNextKeyHashes = "nextKeyHashes"
	paramPortable      = "portable"
	paramWitness       = "witness"
	paramWatchers      = "watchers"
	paramDeactivated   = "deactivated"
	paramTTL           = "ttl"
)

var jsonNull = []byte("null")

// Parameters is the wire form of an entry's parameter delta. A key set
// to JSON null clears that parameter.
type Parameters map[string]json.RawMessage

// Witness is the witness quorum configuration parameter.
type Witness struct {
	Threshold int            `json:"threshold"`
	Witnesses []WitnessEntry `json:"witnesses"`
}

// WitnessEntry names one witness and its quorum weight.
type WitnessEntry struct {
	ID     string `json:"id"`
	Weight int    `json:"weight"`
}

// Validate checks the structural constraints on a witness configuration.
func (w *Witness) Validate() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Threshold, validation.Required, validation.Min(1)),
		validation.Field(&w.Witnesses, validation.Required, validation.Each(validation.By(func(value interface{}) error {
			entry, ok := value.(WitnessEntry)
			if !ok {
				return fmt.Errorf("unexpected witness entry type %T", value)
			}

			return validation.ValidateStruct(&entry,
				validation.Field(&entry.ID, validation.Required, validation.Match(didPattern)),
				validation.Field(&entry.Weight, validation.Required, validation.Min(1)),
			)
		}))),
	)
}

// EffectiveParameters is the folded parameter state entering an entry.
type EffectiveParameters struct {
	Method        string
	SCID          string
	UpdateKeys    []string
	NextKeyHashes []string
	Portable      bool
	Witness       *Witness
	Watchers      []string
	Deactivated   bool
	TTL           int
}

// Clone returns an independent copy of the parameter state.
func (p *EffectiveParameters) Clone() *EffectiveParameters {
	cloned := *p

	cloned.UpdateKeys = append([]string(nil), p.UpdateKeys...)
	cloned.NextKeyHashes = append([]string(nil), p.NextKeyHashes...)
	cloned.Watchers = append([]string(nil), p.Watchers...)

	if p.Witness != nil {
		witness := *p.Witness
		witness.Witnesses = append([]WitnessEntry(nil), p.Witness.Witnesses...)
		cloned.Witness = &witness
	}

	return &cloned
}

// Apply folds an entry's delta onto the prior state and returns the
// parameter state governing the entry that carries the delta. A nil
// prior state marks the genesis entry.
//
//nolint:gocyclo
func (p *EffectiveParameters) Apply(delta Parameters) (*EffectiveParameters, error) {
	genesis := p == nil

	var next *EffectiveParameters
	if genesis {
		next = &EffectiveParameters{}
	} else {
		next = p.Clone()
	}

	for key := range delta {
		switch key {
		case paramMethod, paramSCID, paramUpdateKeys, paramNextKeyHashes,
			paramPortable, paramWitness, paramWatchers, paramDeactivated, paramTTL:
		default:
			return nil, fmt.Errorf("%w: unknown parameter %q", ErrParse, key)
		}
	}

	if err := applyMethod(next, delta, genesis); err != nil {
		return nil, err
	}

	if err := applySCID(next, delta, genesis); err != nil {
		return nil, err
	}

	deactivating, err := applyDeactivated(next, delta)
	if err != nil {
		return nil, err
	}

	if err := applyUpdateKeys(next, delta, genesis, deactivating); err != nil {
		return nil, err
	}

	if err := applyNextKeyHashes(next, delta); err != nil {
		return nil, err
	}

	if err := applyPortable(next, delta, genesis); err != nil {
		return nil, err
	}

	if err := applyWitness(next, delta); err != nil {
		return nil, err
	}

	if err := applyWatchers(next, delta); err != nil {
		return nil, err
	}

	if err := applyTTL(next, delta); err != nil {
		return nil, err
	}

	if deactivating {
		if len(next.UpdateKeys) != 0 {
			return nil, fmt.Errorf("%w: deactivation requires empty update keys", ErrParameter)
		}

		if len(next.NextKeyHashes) != 0 {
			return nil, fmt.Errorf("%w: deactivation requires cleared nextKeyHashes", ErrParameter)
		}
	}

	return next, nil
}

func applyMethod(next *EffectiveParameters, delta Parameters, genesis bool) error {
	raw, present := delta[paramMethod]
	if !present {
		if genesis {
			return fmt.Errorf("%w: genesis entry must declare the method parameter", ErrInvalidMethod)
		}

		return nil
	}

	var method string
	if err := json.Unmarshal(raw, &method); err != nil {
		return fmt.Errorf("%w: method: %s", ErrParse, err)
	}

	if method != MethodV1 && method != MethodV05 {
		return fmt.Errorf("%w: unsupported method token %q", ErrInvalidMethod, method)
	}

	if !genesis && method != next.Method {
		return fmt.Errorf("%w: method cannot change after genesis", ErrImmutableField)
	}

	next.Method = method

	return nil
}

func applySCID(next *EffectiveParameters, delta Parameters, genesis bool) error {
	raw, present := delta[paramSCID]
	if !present {
		if genesis {
			return fmt.Errorf("%w: genesis entry must declare the scid parameter", ErrParameter)
		}

		return nil
	}

	var scid string
	if err := json.Unmarshal(raw, &scid); err != nil {
		return fmt.Errorf("%w: scid: %s", ErrParse, err)
	}

	if scid == "" {
		return fmt.Errorf("%w: scid cannot be empty", ErrParameter)
	}

	if !genesis && scid != next.SCID {
		return fmt.Errorf("%w: scid cannot change after genesis", ErrImmutableField)
	}

	next.SCID = scid

	return nil
}

func applyUpdateKeys(next *EffectiveParameters, delta Parameters, genesis, deactivating bool) error {
	raw, present := delta[paramUpdateKeys]
	if !present {
		if genesis {
			return fmt.Errorf("%w: genesis entry must declare updateKeys", ErrEmptyUpdateKeys)
		}

		return nil
	}

	var keys []string
	if !bytes.Equal(raw, jsonNull) {
		if err := json.Unmarshal(raw, &keys); err != nil {
			return fmt.Errorf("%w: updateKeys: %s", ErrParse, err)
		}
	}

	if len(keys) == 0 {
		if !deactivating {
			return ErrEmptyUpdateKeys
		}

		next.UpdateKeys = nil

		return nil
	}

	if !genesis && len(next.NextKeyHashes) > 0 {
		if err := checkPreRotation(next.NextKeyHashes, keys); err != nil {
			return err
		}
	}

	next.UpdateKeys = keys

	return nil
}

// checkPreRotation enforces the pre-rotation commitment: every new key
// must hash to a committed value and the new set must cover the full
// commitment.
func checkPreRotation(committed, keys []string) error {
	committedSet := make(map[string]bool, len(committed))
	for _, hash := range committed {
		committedSet[hash] = false
	}

	for _, key := range keys {
		hash, err := hashing.Multihash([]byte(key))
		if err != nil {
			return err
		}

		if _, ok := committedSet[hash]; !ok {
			return fmt.Errorf("%w: key %s was not pre-committed", ErrPreRotationMismatch, key)
		}

		committedSet[hash] = true
	}

	for hash, used := range committedSet {
		if !used {
			return fmt.Errorf("%w: committed hash %s has no matching key", ErrPreRotationMismatch, hash)
		}
	}

	return nil
}

func applyNextKeyHashes(next *EffectiveParameters, delta Parameters) error {
	raw, present := delta[paramNextKeyHashes]
	if !present {
		return nil
	}

	if bytes.Equal(raw, jsonNull) {
		next.NextKeyHashes = nil

		return nil
	}

	var hashes []string
	if err := json.Unmarshal(raw, &hashes); err != nil {
		return fmt.Errorf("%w: nextKeyHashes: %s", ErrParse, err)
	}

	for _, hash := range hashes {
		if !hashing.IsMultihash(hash) {
			return fmt.Errorf("%w: nextKeyHashes entry %q is not a multihash", ErrParameter, hash)
		}
	}

	next.NextKeyHashes = hashes

	return nil
}

func applyPortable(next *EffectiveParameters, delta Parameters, genesis bool) error {
	raw, present := delta[paramPortable]
	if !present {
		return nil
	}

	var portable bool
	if err := json.Unmarshal(raw, &portable); err != nil {
		return fmt.Errorf("%w: portable: %s", ErrParse, err)
	}

	// Portability can only be granted at inception; enabling it later
	// would let an attacker retroactively move the DID.
	if portable && !genesis && !next.Portable {
		return fmt.Errorf("%w: portable cannot be enabled after genesis", ErrParameter)
	}

	next.Portable = portable

	return nil
}

func applyWitness(next *EffectiveParameters, delta Parameters) error {
	raw, present := delta[paramWitness]
	if !present {
		return nil
	}

	if bytes.Equal(raw, jsonNull) {
		next.Witness = nil

		return nil
	}

	witness := &Witness{}
	if err := json.Unmarshal(raw, witness); err != nil {
		return fmt.Errorf("%w: witness: %s", ErrParse, err)
	}

	if err := witness.Validate(); err != nil {
		return fmt.Errorf("%w: witness: %s", ErrParameter, err)
	}

	next.Witness = witness

	return nil
}

func applyWatchers(next *EffectiveParameters, delta Parameters) error {
	raw, present := delta[paramWatchers]
	if !present {
		return nil
	}

	if bytes.Equal(raw, jsonNull) {
		next.Watchers = nil

		return nil
	}

	var watchers []string
	if err := json.Unmarshal(raw, &watchers); err != nil {
		return fmt.Errorf("%w: watchers: %s", ErrParse, err)
	}

	next.Watchers = watchers

	return nil
}

func applyDeactivated(next *EffectiveParameters, delta Parameters) (bool, error) {
	raw, present := delta[paramDeactivated]
	if !present {
		return false, nil
	}

	var deactivated bool
	if err := json.Unmarshal(raw, &deactivated); err != nil {
		return false, fmt.Errorf("%w: deactivated: %s", ErrParse, err)
	}

	if !deactivated && next.Deactivated {
		return false, fmt.Errorf("%w: deactivation is terminal", ErrParameter)
	}

	next.Deactivated = deactivated

	return deactivated, nil
}

func applyTTL(next *EffectiveParameters, delta Parameters) error {
	raw, present := delta[paramTTL]
	if !present {
		return nil
	}

	if bytes.Equal(raw, jsonNull) {
		next.TTL = 0

		return nil
	}

	var ttl int
	if err := json.Unmarshal(raw, &ttl); err != nil {
		return fmt.Errorf("%w: ttl: %s", ErrParse, err)
	}

	if ttl < 0 {
		return fmt.Errorf("%w: ttl cannot be negative", ErrParameter)
	}

	next.TTL = ttl

	return nil
}
