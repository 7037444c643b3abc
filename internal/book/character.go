package book

import "fmt"

// Character bundles free-text fields, metadata, and an optionally embedded
// lore book. The Avatar, Chat, and CreateDate fields are owned by the remote:
// local pushes must fetch the existing record first and re-attach them
// unchanged, since the local file set keeps no copy.
type Character struct {
	Name string `json:"name"`

	Description             string   `json:"description"`
	Personality             string   `json:"personality"`
	Scenario                string   `json:"scenario"`
	FirstMes                string   `json:"first_mes"`
	AlternateGreetings      []string `json:"alternate_greetings"`
	MesExample              string   `json:"mes_example"`
	SystemPrompt            string   `json:"system_prompt"`
	PostHistoryInstructions string   `json:"post_history_instructions"`

	Tags             []string `json:"tags"`
	Creator          string   `json:"creator"`
	CreatorNotes     string   `json:"creator_notes"`
	CharacterVersion string   `json:"character_version"`

	// World names the linked lore book the running application loads
	// alongside the character.
	World string `json:"world,omitempty"`

	CharacterBook *LoreBook `json:"character_book,omitempty"`

	// Remote-owned fields; see the type comment.
	Avatar     string `json:"avatar,omitempty"`
	Chat       string `json:"chat,omitempty"`
	CreateDate string `json:"create_date,omitempty"`
}

// Validate checks the Character invariants.
func (c *Character) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.CharacterBook != nil {
		for i := range c.CharacterBook.Entries {
			if err := c.CharacterBook.Entries[i].Validate(); err != nil {
				return fmt.Errorf("character_book entry %d: %w", i, err)
			}
		}
	}
	return nil
}

// MergeRemoteOwned copies the remote-owned fields from prev onto c. Used on
// push, where the local file set has no record of them.
func (c *Character) MergeRemoteOwned(prev *Character) {
	if prev == nil {
		return
	}
	c.Avatar = prev.Avatar
	c.Chat = prev.Chat
	c.CreateDate = prev.CreateDate
}
