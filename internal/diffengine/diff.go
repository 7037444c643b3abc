// Package diffengine aligns local and remote entry sets by derived identity
// and reports what changed on each side. It is read-only: it never mutates
// either store, so it is safe to run concurrently with reads and with an
// in-flight push.
package diffengine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tavern-tools/loresync/internal/book"
	"github.com/tavern-tools/loresync/internal/normalize"
)

// DuplicateIdentityPolicy says what to do when two entries on one side derive
// the same identity.
type DuplicateIdentityPolicy string

const (
	// DuplicateLastWins silently collapses duplicates onto the last-seen
	// entry. This matches the historical behavior and is the default.
	DuplicateLastWins DuplicateIdentityPolicy = "last-wins"
	// DuplicateError aborts the comparison on a duplicate identity.
	DuplicateError DuplicateIdentityPolicy = "error"
)

// Policy bundles the comparison knobs.
type Policy struct {
	Normalize         normalize.Policy
	DuplicateIdentity DuplicateIdentityPolicy
}

// DefaultPolicy matches the historical behavior.
func DefaultPolicy() Policy {
	return Policy{
		Normalize:         normalize.DefaultPolicy(),
		DuplicateIdentity: DuplicateLastWins,
	}
}

// Op classifies one run of a line diff.
type Op int

const (
	// OpEqual marks lines present on both sides.
	OpEqual Op = iota
	// OpDelete marks lines present only on the remote (the diff base).
	OpDelete
	// OpInsert marks lines present only locally (the revision).
	OpInsert
)

// Line is one line of a textual diff.
type Line struct {
	Op   Op
	Text string
}

// Modified describes a common entry whose canonical forms differ.
type Modified struct {
	ID    string
	Lines []Line
}

// Result is the outcome of a comparison. Identity lists are sorted.
type Result struct {
	AddedLocally  []string
	AddedRemotely []string
	Modified      []Modified
}

// Empty reports whether the two sides are in sync.
func (r *Result) Empty() bool {
	return len(r.AddedLocally) == 0 && len(r.AddedRemotely) == 0 && len(r.Modified) == 0
}

// IdentityOf derives the cross-store alignment key for an entry: the trimmed
// comment when non-empty, else a synthetic placeholder built from the entry's
// positional key. There is no other stable cross-store id.
func IdentityOf(comment, positionalKey string) string {
	if trimmed := strings.TrimSpace(comment); trimmed != "" {
		return trimmed
	}
	return "__index_" + positionalKey
}

// Compare aligns local against remote and classifies every identity as
// added locally, added remotely, or (when common but unequal under the
// canonical form) modified. Remote is the diff base and local the revision.
func Compare(local, remote *book.LoreBook, policy Policy) (*Result, error) {
	localByID, err := indexByIdentity(local, policy)
	if err != nil {
		return nil, fmt.Errorf("indexing local entries: %w", err)
	}
	remoteByID, err := indexByIdentity(remote, policy)
	if err != nil {
		return nil, fmt.Errorf("indexing remote entries: %w", err)
	}

	result := &Result{}
	for id := range localByID {
		if _, ok := remoteByID[id]; !ok {
			result.AddedLocally = append(result.AddedLocally, id)
		}
	}
	for id := range remoteByID {
		if _, ok := localByID[id]; !ok {
			result.AddedRemotely = append(result.AddedRemotely, id)
		}
	}
	sort.Strings(result.AddedLocally)
	sort.Strings(result.AddedRemotely)

	common := make([]string, 0, len(localByID))
	for id := range localByID {
		if _, ok := remoteByID[id]; ok {
			common = append(common, id)
		}
	}
	sort.Strings(common)

	for _, id := range common {
		localCanon, err := normalize.Canonical(localByID[id], policy.Normalize)
		if err != nil {
			return nil, fmt.Errorf("normalizing local entry %q: %w", id, err)
		}
		remoteCanon, err := normalize.Canonical(remoteByID[id], policy.Normalize)
		if err != nil {
			return nil, fmt.Errorf("normalizing remote entry %q: %w", id, err)
		}
		if localCanon == remoteCanon {
			continue
		}
		result.Modified = append(result.Modified, Modified{
			ID:    id,
			Lines: lineDiff(remoteCanon, localCanon),
		})
	}

	return result, nil
}

// indexByIdentity maps every entry to its derived identity. Depending on
// policy, duplicates either collapse last-seen-wins or abort.
func indexByIdentity(b *book.LoreBook, policy Policy) (map[string]book.Entry, error) {
	m := make(map[string]book.Entry, len(b.Entries))
	for i, e := range b.Entries {
		id := IdentityOf(e.Comment, b.PositionalKey(i))
		if _, dup := m[id]; dup && policy.DuplicateIdentity == DuplicateError {
			return nil, fmt.Errorf("duplicate entry identity %q", id)
		}
		m[id] = e
	}
	return m, nil
}

// lineDiff computes a line-based diff between base and revision using
// diffmatchpatch's line mode, then flattens the runs into individual lines.
func lineDiff(base, revision string) []Line {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(base, revision)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []Line
	for _, d := range diffs {
		var op Op
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		default:
			op = OpEqual
		}
		for _, text := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			lines = append(lines, Line{Op: op, Text: text})
		}
	}
	return lines
}
