package book

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Position identifies where an entry's content is injected into the prompt.
//
// The remote API encodes positions as raw integers. Local index files render
// the symbolic name when the value matches a known insertion point, and fall
// back to the raw integer for values this version does not recognize. Unknown
// integers are preserved, not rejected.
type Position int

const (
	// PositionBeforeCharacter injects before the character definition.
	PositionBeforeCharacter Position = iota
	// PositionAfterCharacter injects after the character definition.
	PositionAfterCharacter
	// PositionAuthorNoteTop injects at the top of the author's note.
	PositionAuthorNoteTop
	// PositionAuthorNoteBottom injects at the bottom of the author's note.
	PositionAuthorNoteBottom
	// PositionAtDepth injects at a fixed depth in the chat history.
	PositionAtDepth
	// PositionExamplesTop injects before the example messages.
	PositionExamplesTop
	// PositionExamplesBottom injects after the example messages.
	PositionExamplesBottom
)

var positionNames = map[Position]string{
	PositionBeforeCharacter:   "before_character_definition",
	PositionAfterCharacter:    "after_character_definition",
	PositionAuthorNoteTop:     "author_note_top",
	PositionAuthorNoteBottom:  "author_note_bottom",
	PositionAtDepth:           "at_depth",
	PositionExamplesTop:       "example_messages_top",
	PositionExamplesBottom:    "example_messages_bottom",
}

var positionValues = func() map[string]Position {
	m := make(map[string]Position, len(positionNames))
	for p, name := range positionNames {
		m[name] = p
	}
	return m
}()

// Name returns the symbolic name for p and whether p is a known insertion point.
func (p Position) Name() (string, bool) {
	name, ok := positionNames[p]
	return name, ok
}

// String returns the symbolic name when known, else the raw integer.
func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("%d", int(p))
}

// ParsePosition resolves a symbolic position name.
func ParsePosition(name string) (Position, bool) {
	p, ok := positionValues[name]
	return p, ok
}

// MarshalYAML renders the symbolic name for known positions and the raw
// integer otherwise, matching the terse index file encoding.
func (p Position) MarshalYAML() (interface{}, error) {
	if name, ok := positionNames[p]; ok {
		return name, nil
	}
	return int(p), nil
}

// UnmarshalYAML accepts either a symbolic name or a raw integer.
func (p *Position) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err == nil {
		if pos, ok := positionValues[name]; ok {
			*p = pos
			return nil
		}
		// Fall through: scalar may be an integer that decoded as a string.
	}
	var raw int
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid position %q: not a known name or integer", value.Value)
	}
	*p = Position(raw)
	return nil
}

// MarshalJSON always encodes the raw integer; the remote API has no notion
// of symbolic position names.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// UnmarshalJSON accepts a raw integer.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}
	*p = Position(raw)
	return nil
}
