// Package normalize produces a comparison-stable canonical rendering of an
// Entry. Two entries are considered equal for sync purposes iff their
// canonical strings are identical; the diff engine also feeds these strings
// into its line differ.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/tavern-tools/loresync/internal/book"
)

// Policy controls the normalization heuristics that were observed behavior in
// the tool this engine replaces rather than confirmed requirements.
type Policy struct {
	// ZeroMeansUnset drops sticky, cooldown, delay, and role from the
	// canonical form when they equal 0, treating zero as "not set" even
	// though it is technically a valid value distinct from absent.
	ZeroMeansUnset bool
}

// DefaultPolicy matches the historical behavior.
func DefaultPolicy() Policy {
	return Policy{ZeroMeansUnset: true}
}

// noiseFields are dropped from the canonical form: the uid is positional and
// not stable across pulls, and the rest is remote-only bookkeeping that never
// reaches the local store.
var noiseFields = []string{
	"uid",
	"displayIndex",
	"characterFilter",
	"triggers",
	"vectorized",
}

// zeroUnsetFields are subject to the Policy.ZeroMeansUnset heuristic.
var zeroUnsetFields = []string{"sticky", "cooldown", "delay", "role"}

// Canonical renders e as a deterministic string: noise fields, nulls, and
// (per policy) zero-valued unset-like fields are dropped, and the remaining
// fields appear in lexicographic order in a stable pretty-printed form.
func Canonical(e book.Entry, policy Policy) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshaling entry: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("reshaping entry: %w", err)
	}

	for _, f := range noiseFields {
		delete(m, f)
	}
	for k, v := range m {
		if v == nil {
			delete(m, k)
		}
	}
	if policy.ZeroMeansUnset {
		for _, f := range zeroUnsetFields {
			if v, ok := m[f].(float64); ok && v == 0 {
				delete(m, f)
			}
		}
	}

	// encoding/json marshals map keys in sorted order, which gives the
	// lexicographic field ordering the canonical form requires.
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering canonical form: %w", err)
	}
	return string(out), nil
}

// Equal reports whether a and b normalize to the same canonical string.
func Equal(a, b book.Entry, policy Policy) (bool, error) {
	ca, err := Canonical(a, policy)
	if err != nil {
		return false, err
	}
	cb, err := Canonical(b, policy)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}
