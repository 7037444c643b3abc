package book

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPositionYAMLRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		pos      Position
		wantYAML string
	}{
		{"known position renders name", PositionAtDepth, "at_depth\n"},
		{"default position renders name", PositionBeforeCharacter, "before_character_definition\n"},
		{"unknown position renders raw integer", Position(42), "42\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := yaml.Marshal(tt.pos)
			if err != nil {
				t.Fatalf("Marshal() failed: %v", err)
			}
			if string(data) != tt.wantYAML {
				t.Errorf("Marshal() = %q, want %q", data, tt.wantYAML)
			}

			var back Position
			if err := yaml.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal() failed: %v", err)
			}
			if back != tt.pos {
				t.Errorf("round trip = %d, want %d", back, tt.pos)
			}
		})
	}
}

func TestPositionUnmarshalRejectsUnknownName(t *testing.T) {
	var p Position
	if err := yaml.Unmarshal([]byte("somewhere_else"), &p); err == nil {
		t.Error("unknown position name should be rejected")
	}
}

func TestParsePosition(t *testing.T) {
	p, ok := ParsePosition("author_note_top")
	if !ok || p != PositionAuthorNoteTop {
		t.Errorf("ParsePosition(author_note_top) = %d, %v", p, ok)
	}
	if _, ok := ParsePosition("nope"); ok {
		t.Error("ParsePosition should reject unknown names")
	}
}
