// Package codec converts between the canonical Entry record and its two
// local encodings: the content file (match keys + body) and the index entry
// (identity + behavioral parameters). Behavioral fields are suppressed in the
// index when they equal their declared default, which keeps index files terse
// and diff-friendly; decoding restores the defaults so the round trip is safe.
package codec

import "github.com/tavern-tools/loresync/internal/book"

// IndexEntry is the control-plane projection of an Entry stored in the index
// file. Every behavioral field is optional; absence means "inherit the Entry
// default". The id is the filename stem of the entry's content file and is
// the stable local identity.
type IndexEntry struct {
	ID      string `yaml:"id"`
	Comment string `yaml:"comment,omitempty"`

	Constant            *bool          `yaml:"constant,omitempty"`
	Selective           *bool          `yaml:"selective,omitempty"`
	SelectiveLogic      *int           `yaml:"selectiveLogic,omitempty"`
	Order               *int           `yaml:"order,omitempty"`
	Position            *book.Position `yaml:"position,omitempty"`
	Disable             *bool          `yaml:"disable,omitempty"`
	ExcludeRecursion    *bool          `yaml:"excludeRecursion,omitempty"`
	PreventRecursion    *bool          `yaml:"preventRecursion,omitempty"`
	DelayUntilRecursion *bool          `yaml:"delayUntilRecursion,omitempty"`
	Probability         *int           `yaml:"probability,omitempty"`
	Depth               *int           `yaml:"depth,omitempty"`
	Group               *string        `yaml:"group,omitempty"`
	GroupOverride       *bool          `yaml:"groupOverride,omitempty"`
	GroupWeight         *int           `yaml:"groupWeight,omitempty"`

	ScanDepth       *int    `yaml:"scanDepth,omitempty"`
	CaseSensitive   *bool   `yaml:"caseSensitive,omitempty"`
	MatchWholeWords *bool   `yaml:"matchWholeWords,omitempty"`
	UseGroupScoring *bool   `yaml:"useGroupScoring,omitempty"`
	AutomationID    *string `yaml:"automationId,omitempty"`
	Role            *int    `yaml:"role,omitempty"`
	Sticky          *int    `yaml:"sticky,omitempty"`
	Cooldown        *int    `yaml:"cooldown,omitempty"`
	Delay           *int    `yaml:"delay,omitempty"`
}

// ContentFile is the data-plane projection of an Entry: one YAML file per
// entry under the entries subtree. An empty content string is a valid value
// and is written explicitly.
type ContentFile struct {
	Key          []string `yaml:"key"`
	KeySecondary []string `yaml:"keysecondary,omitempty"`
	Content      string   `yaml:"content"`
}

// ToIndexAndContent splits an Entry into its index and content projections.
// The index keeps only the behavioral fields that differ from their default.
// The comment is recorded only when it differs from the id, since decoding
// falls back to the id anyway.
func ToIndexAndContent(e book.Entry, id string) (IndexEntry, ContentFile) {
	content := ContentFile{
		Key:          e.Key,
		KeySecondary: e.KeySecondary,
		Content:      e.Content,
	}
	if content.Key == nil {
		content.Key = []string{}
	}
	if len(content.KeySecondary) == 0 {
		content.KeySecondary = nil
	}

	idx := IndexEntry{ID: id}
	if e.Comment != "" && e.Comment != id {
		idx.Comment = e.Comment
	}

	def := book.DefaultEntry()
	idx.Constant = boolIfDiff(e.Constant, def.Constant)
	idx.Selective = boolIfDiff(e.Selective, def.Selective)
	idx.SelectiveLogic = intIfDiff(e.SelectiveLogic, def.SelectiveLogic)
	idx.Order = intIfDiff(e.Order, def.Order)
	if e.Position != def.Position {
		p := e.Position
		idx.Position = &p
	}
	idx.Disable = boolIfDiff(e.Disable, def.Disable)
	idx.ExcludeRecursion = boolIfDiff(e.ExcludeRecursion, def.ExcludeRecursion)
	idx.PreventRecursion = boolIfDiff(e.PreventRecursion, def.PreventRecursion)
	idx.DelayUntilRecursion = boolIfDiff(e.DelayUntilRecursion, def.DelayUntilRecursion)
	idx.Probability = intIfDiff(e.Probability, def.Probability)
	idx.Depth = intIfDiff(e.Depth, def.Depth)
	if e.Group != def.Group {
		g := e.Group
		idx.Group = &g
	}
	idx.GroupOverride = boolIfDiff(e.GroupOverride, def.GroupOverride)
	idx.GroupWeight = intIfDiff(e.GroupWeight, def.GroupWeight)

	idx.ScanDepth = copyIntPtr(e.ScanDepth)
	idx.CaseSensitive = copyBoolPtr(e.CaseSensitive)
	idx.MatchWholeWords = copyBoolPtr(e.MatchWholeWords)
	idx.UseGroupScoring = copyBoolPtr(e.UseGroupScoring)
	idx.AutomationID = copyStringPtr(e.AutomationID)
	idx.Role = copyIntPtr(e.Role)
	idx.Sticky = copyIntPtr(e.Sticky)
	idx.Cooldown = copyIntPtr(e.Cooldown)
	idx.Delay = copyIntPtr(e.Delay)

	return idx, content
}

// FromIndexAndContent rebuilds a full Entry from its two projections. Every
// field absent from the index inherits its declared default. The comment
// falls back to the index id, and the uid is set to the entry's ordinal in
// the index list, which is what lets remote and local entry sets be aligned
// positionally when no name exists.
func FromIndexAndContent(idx IndexEntry, content ContentFile, ordinal int) book.Entry {
	e := book.DefaultEntry()
	e.UID = ordinal

	e.Comment = idx.Comment
	if e.Comment == "" {
		e.Comment = idx.ID
	}

	e.Key = content.Key
	if e.Key == nil {
		e.Key = []string{}
	}
	e.KeySecondary = content.KeySecondary
	if e.KeySecondary == nil {
		e.KeySecondary = []string{}
	}
	e.Content = content.Content

	applyBool(&e.Constant, idx.Constant)
	applyBool(&e.Selective, idx.Selective)
	applyInt(&e.SelectiveLogic, idx.SelectiveLogic)
	applyInt(&e.Order, idx.Order)
	if idx.Position != nil {
		e.Position = *idx.Position
	}
	applyBool(&e.Disable, idx.Disable)
	applyBool(&e.ExcludeRecursion, idx.ExcludeRecursion)
	applyBool(&e.PreventRecursion, idx.PreventRecursion)
	applyBool(&e.DelayUntilRecursion, idx.DelayUntilRecursion)
	applyInt(&e.Probability, idx.Probability)
	applyInt(&e.Depth, idx.Depth)
	if idx.Group != nil {
		e.Group = *idx.Group
	}
	applyBool(&e.GroupOverride, idx.GroupOverride)
	applyInt(&e.GroupWeight, idx.GroupWeight)

	e.ScanDepth = copyIntPtr(idx.ScanDepth)
	e.CaseSensitive = copyBoolPtr(idx.CaseSensitive)
	e.MatchWholeWords = copyBoolPtr(idx.MatchWholeWords)
	e.UseGroupScoring = copyBoolPtr(idx.UseGroupScoring)
	e.AutomationID = copyStringPtr(idx.AutomationID)
	e.Role = copyIntPtr(idx.Role)
	e.Sticky = copyIntPtr(idx.Sticky)
	e.Cooldown = copyIntPtr(idx.Cooldown)
	e.Delay = copyIntPtr(idx.Delay)

	return e
}

func boolIfDiff(v, def bool) *bool {
	if v == def {
		return nil
	}
	return &v
}

func intIfDiff(v, def int) *int {
	if v == def {
		return nil
	}
	return &v
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
