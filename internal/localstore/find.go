package localstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// contentExtensions are the accepted content file extensions, in fast-path
// probe order.
var contentExtensions = []string{".yaml", ".yml"}

// ContentIndex maps normalized filename stems to content file paths for one
// entries subtree. Both NFC and NFD forms of every stem are indexed so that
// lookups tolerate filesystem-level Unicode decomposition differences across
// platforms.
//
// When two files share a normalized stem, the first one encountered wins.
// Directory iteration order is not guaranteed, so which file that is depends
// on the platform; this is a known limitation, not behavior to rely on.
type ContentIndex struct {
	byStem map[string]string
}

// BuildContentIndex walks the entries subtree once and indexes every content
// file by its normalized stem. Walking replaces repeated recursive searches
// with one traversal and makes collision behavior observable in one place.
func BuildContentIndex(entriesRoot string) (*ContentIndex, error) {
	idx := &ContentIndex{byStem: make(map[string]string)}
	err := filepath.WalkDir(entriesRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), ext)
		for _, form := range []norm.Form{norm.NFC, norm.NFD} {
			key := form.String(stem)
			if _, exists := idx.byStem[key]; !exists {
				idx.byStem[key] = path
			}
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("indexing entries under %s: %w", entriesRoot, err)
	}
	return idx, nil
}

// Lookup resolves an id to a content file path, trying both Unicode
// normalization forms of the id.
func (idx *ContentIndex) Lookup(id string) (string, bool) {
	for _, form := range []norm.Form{norm.NFC, norm.NFD} {
		if path, ok := idx.byStem[form.String(id)]; ok {
			return path, true
		}
	}
	return "", false
}

// FindEntryContentFile resolves an entry id to its content file path. The
// fast path probes id.yaml and id.yml directly under entriesRoot; otherwise
// the whole subtree is indexed and searched under both Unicode forms.
func FindEntryContentFile(entriesRoot, id string) (string, bool, error) {
	for _, ext := range contentExtensions {
		candidate := filepath.Join(entriesRoot, id+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	idx, err := BuildContentIndex(entriesRoot)
	if err != nil {
		return "", false, err
	}
	path, ok := idx.Lookup(id)
	return path, ok, nil
}
