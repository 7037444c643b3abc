package book

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// GlobalSettings holds book-wide scan behavior.
type GlobalSettings struct {
	RecursiveScanning bool `json:"recursive_scanning" yaml:"recursive_scanning"`
}

// LoreBook is the canonical in-memory shape of a lore collection: an ordered
// list of entries plus a parallel list of positional keys. The remote API may
// deliver entries either as a uid-keyed map or as an array; both are resolved
// into this one shape at the JSON boundary.
type LoreBook struct {
	Name     string
	Settings GlobalSettings
	Entries  []Entry

	// keys holds the positional key each entry arrived under: the map key
	// for map-shaped payloads, the array index for array-shaped ones, and
	// the index list ordinal for locally loaded books. It feeds the
	// synthetic identity used when an entry has no comment.
	keys []string
}

// Append adds an entry under the given positional key.
func (b *LoreBook) Append(key string, e Entry) {
	b.Entries = append(b.Entries, e)
	b.keys = append(b.keys, key)
}

// PositionalKey returns the positional key for the entry at index i. Entries
// appended without an explicit key report their ordinal.
func (b *LoreBook) PositionalKey(i int) string {
	if i < len(b.keys) && b.keys[i] != "" {
		return b.keys[i]
	}
	return strconv.Itoa(i)
}

// SortForWrite orders entries by (order, uid) ascending so repeated pulls
// materialize files in a stable order. Positional keys travel with their
// entries.
func (b *LoreBook) SortForWrite() {
	type pair struct {
		entry Entry
		key   string
	}
	pairs := make([]pair, len(b.Entries))
	for i, e := range b.Entries {
		pairs[i] = pair{entry: e, key: b.PositionalKey(i)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].entry.Order != pairs[j].entry.Order {
			return pairs[i].entry.Order < pairs[j].entry.Order
		}
		return pairs[i].entry.UID < pairs[j].entry.UID
	})
	for i, p := range pairs {
		b.Entries[i] = p.entry
		if i < len(b.keys) {
			b.keys[i] = p.key
		}
	}
}

// bookWire is the remote JSON shape of a lore book.
type bookWire struct {
	Name              string         `json:"name"`
	RecursiveScanning bool           `json:"recursive_scanning"`
	Entries           entryContainer `json:"entries"`
}

// entryContainer is the tagged map-or-array variant for the entries field,
// resolved once at ingestion into an ordered list plus positional keys.
type entryContainer struct {
	keys    []string
	entries []Entry
}

// UnmarshalJSON accepts either {"0": {...}, "1": {...}} or [{...}, {...}].
// Map keys are ordered numerically when every key parses as an integer, and
// lexicographically otherwise, so ingestion order is deterministic.
func (c *entryContainer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = entryContainer{}
		return nil
	}
	switch trimmed[0] {
	case '[':
		var list []Entry
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("decoding entries array: %w", err)
		}
		c.entries = list
		c.keys = make([]string, len(list))
		for i := range list {
			c.keys[i] = strconv.Itoa(i)
		}
		return nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding entries map: %w", err)
		}
		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		sortEntryKeys(keys)
		c.keys = keys
		c.entries = make([]Entry, 0, len(keys))
		for _, k := range keys {
			var e Entry
			if err := json.Unmarshal(raw[k], &e); err != nil {
				return fmt.Errorf("decoding entry %q: %w", k, err)
			}
			c.entries = append(c.entries, e)
		}
		return nil
	default:
		return fmt.Errorf("entries must be a map or an array")
	}
}

// MarshalJSON always emits the uid-keyed map shape on the way out.
func (c entryContainer) MarshalJSON() ([]byte, error) {
	m := make(map[string]Entry, len(c.entries))
	for _, e := range c.entries {
		m[strconv.Itoa(e.UID)] = e
	}
	return json.Marshal(m)
}

func sortEntryKeys(keys []string) {
	allNumeric := true
	for _, k := range keys {
		if _, err := strconv.Atoi(k); err != nil {
			allNumeric = false
			break
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if allNumeric {
			a, _ := strconv.Atoi(keys[i])
			b, _ := strconv.Atoi(keys[j])
			return a < b
		}
		return keys[i] < keys[j]
	})
}

// UnmarshalJSON decodes the remote wire shape into the canonical form.
func (b *LoreBook) UnmarshalJSON(data []byte) error {
	var wire bookWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	b.Name = wire.Name
	b.Settings = GlobalSettings{RecursiveScanning: wire.RecursiveScanning}
	b.Entries = wire.Entries.entries
	b.keys = wire.Entries.keys
	return nil
}

// MarshalJSON encodes the canonical form back to the remote wire shape.
func (b LoreBook) MarshalJSON() ([]byte, error) {
	wire := bookWire{
		Name:              b.Name,
		RecursiveScanning: b.Settings.RecursiveScanning,
		Entries:           entryContainer{keys: b.keys, entries: b.Entries},
	}
	return json.Marshal(wire)
}
