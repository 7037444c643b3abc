// Package book defines the in-memory data model shared by the local file
// store and the remote API: lore book entries, the lore book aggregate, and
// character records. Decoding always passes through the declared defaults so
// that every consumer sees fully-formed records.
package book

import (
	"encoding/json"
	"fmt"
)

// Entry is a single lore book item as the remote API understands it.
//
// The uid is assigned by the remote (or by local ordinal position) and is not
// stable across pulls; the comment is the human name and serves as the
// cross-store identity key when non-empty.
type Entry struct {
	UID     int    `json:"uid"`
	Comment string `json:"comment"`

	Key          []string `json:"key"`
	KeySecondary []string `json:"keysecondary"`
	Content      string   `json:"content"`

	Constant            bool     `json:"constant"`
	Selective           bool     `json:"selective"`
	SelectiveLogic      int      `json:"selectiveLogic"`
	Order               int      `json:"order"`
	Position            Position `json:"position"`
	Disable             bool     `json:"disable"`
	ExcludeRecursion    bool     `json:"excludeRecursion"`
	PreventRecursion    bool     `json:"preventRecursion"`
	DelayUntilRecursion bool     `json:"delayUntilRecursion"`
	Probability         int      `json:"probability"`
	Depth               int      `json:"depth"`
	Group               string   `json:"group"`
	GroupOverride       bool     `json:"groupOverride"`
	GroupWeight         int      `json:"groupWeight"`

	// Nullable fields: nil means "not set", which is distinct from the
	// zero value for each of these.
	ScanDepth       *int    `json:"scanDepth"`
	CaseSensitive   *bool   `json:"caseSensitive"`
	MatchWholeWords *bool   `json:"matchWholeWords"`
	UseGroupScoring *bool   `json:"useGroupScoring"`
	AutomationID    *string `json:"automationId"`
	Role            *int    `json:"role"`
	Sticky          *int    `json:"sticky"`
	Cooldown        *int    `json:"cooldown"`
	Delay           *int    `json:"delay"`
}

// Entry behavioral defaults. DefaultEntry is the single source of truth for
// these values; the codec and the validator both consume it.
const (
	DefaultSelective   = true
	DefaultOrder       = 100
	DefaultProbability = 100
	DefaultDepth       = 4
	DefaultGroupWeight = 100
)

// DefaultEntry returns an Entry with every field at its declared default.
func DefaultEntry() Entry {
	return Entry{
		Key:          []string{},
		KeySecondary: []string{},
		Selective:    DefaultSelective,
		Order:        DefaultOrder,
		Position:     PositionBeforeCharacter,
		Probability:  DefaultProbability,
		Depth:        DefaultDepth,
		GroupWeight:  DefaultGroupWeight,
	}
}

// entryAlias avoids UnmarshalJSON recursion while keeping the field tags.
type entryAlias Entry

// entryWire adds the legacy field aliases some remote payloads still carry.
type entryWire struct {
	entryAlias
	LegacyKeys          []string `json:"keys"`
	LegacySecondaryKeys []string `json:"secondary_keys"`
}

// UnmarshalJSON decodes an entry with defaults pre-applied, so absent fields
// inherit their declared default instead of the Go zero value. Legacy aliases
// (keys, secondary_keys) are repaired before the result is returned.
func (e *Entry) UnmarshalJSON(data []byte) error {
	defaults := DefaultEntry()
	// Leave key fields nil so an absent "key" is distinguishable from an
	// empty one; the legacy aliases only apply when the canonical field is
	// absent, and normalize() restores the never-null invariant afterwards.
	defaults.Key = nil
	defaults.KeySecondary = nil
	wire := entryWire{entryAlias: entryAlias(defaults)}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := Entry(wire.entryAlias)
	if out.Key == nil {
		out.Key = wire.LegacyKeys
	}
	if out.KeySecondary == nil {
		out.KeySecondary = wire.LegacySecondaryKeys
	}
	out.normalize()
	*e = out
	return nil
}

// normalize enforces the "key is never null" invariant.
func (e *Entry) normalize() {
	if e.Key == nil {
		e.Key = []string{}
	}
	if e.KeySecondary == nil {
		e.KeySecondary = []string{}
	}
}

// Validate checks the Entry invariants. It is non-destructive; callers that
// want repaired records should decode through UnmarshalJSON or DefaultEntry.
func (e *Entry) Validate() error {
	if e.Key == nil {
		return fmt.Errorf("key must not be null")
	}
	if e.Probability < 0 || e.Probability > 100 {
		return fmt.Errorf("probability must be between 0 and 100 (got %d)", e.Probability)
	}
	if e.UID < 0 {
		return fmt.Errorf("uid must not be negative (got %d)", e.UID)
	}
	return nil
}
