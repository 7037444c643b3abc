// Package localstore owns the on-disk layout of lore books and characters:
// an index file carrying identity and behavioral parameters, one content file
// per entry under an entries subtree (which may be nested), and the character
// file set with its split long-text fields.
package localstore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/tavern-tools/loresync/internal/book"
	"github.com/tavern-tools/loresync/internal/codec"
)

// IndexFileName is the lore book control-plane file inside a book root.
const IndexFileName = "index.yaml"

// EntriesDirName is the data-plane subtree inside a book root.
const EntriesDirName = "entries"

// indexFile is the YAML shape of index.yaml.
type indexFile struct {
	Name           string              `yaml:"name"`
	GlobalSettings book.GlobalSettings `yaml:"global_settings"`
	Entries        []codec.IndexEntry  `yaml:"entries"`
}

// Store reads and writes lore book and character file sets.
type Store struct {
	logger *log.Logger
}

// New creates a Store. If logger is nil, a default logger writing to stderr
// is used.
func New(logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[local] ", log.LstdFlags)
	}
	return &Store{logger: logger}
}

// WriteBook materializes b under dir: one content file per entry, a fresh
// index.yaml, and orphan cleanup of stale content files directly under
// entries/. Entries whose content file already exists somewhere in the
// subtree are rewritten in place, preserving manual folder organization.
//
// Files inside subdirectories that no entry resolves to are not scanned for
// deletion; only the top level of entries/ is cleaned. Known limitation.
func (s *Store) WriteBook(b *book.LoreBook, dir string) error {
	entriesDir := filepath.Join(dir, EntriesDirName)
	if err := os.MkdirAll(entriesDir, 0755); err != nil {
		return fmt.Errorf("failed to create entries directory: %w", err)
	}

	existing, err := BuildContentIndex(entriesDir)
	if err != nil {
		return err
	}

	used := make(map[string]bool)
	keep := make(map[string]bool)
	index := indexFile{Name: b.Name, GlobalSettings: b.Settings}

	for _, e := range b.Entries {
		id := SanitizeID(e.Comment)
		if id == "" {
			id = FallbackID(e.UID)
		}
		id = uniqueID(id, used)
		keep[norm.NFC.String(id)] = true
		keep[norm.NFD.String(id)] = true

		idxEntry, content := codec.ToIndexAndContent(e, id)

		path, ok := existing.Lookup(id)
		if !ok {
			path = filepath.Join(entriesDir, id+".yaml")
		}
		data, err := yaml.Marshal(content)
		if err != nil {
			return fmt.Errorf("failed to marshal entry %s: %w", id, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write entry file %s: %w", path, err)
		}

		index.Entries = append(index.Entries, idxEntry)
	}

	if err := s.cleanOrphans(entriesDir, keep); err != nil {
		return err
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	indexPath := filepath.Join(dir, IndexFileName)
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file %s: %w", indexPath, err)
	}

	return nil
}

// cleanOrphans deletes content files directly under entriesDir whose stem
// does not match any freshly written id under either Unicode form.
func (s *Store) cleanOrphans(entriesDir string, keep map[string]bool) error {
	dirEntries, err := os.ReadDir(entriesDir)
	if err != nil {
		return fmt.Errorf("failed to read entries directory: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		stem := strings.TrimSuffix(de.Name(), ext)
		if keep[norm.NFC.String(stem)] || keep[norm.NFD.String(stem)] {
			continue
		}
		path := filepath.Join(entriesDir, de.Name())
		s.logger.Printf("Removing orphaned entry file: %s", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove orphan %s: %w", path, err)
		}
	}
	return nil
}

// ReadBook loads the lore book rooted at dir into full Entry records.
//
// Index entries without an id are skipped with a warning (malformed state).
// Index entries whose content file is missing are skipped silently: absence
// of the file is the user's deletion signal, and the entry must not appear
// in the record set handed to a subsequent push.
func (s *Store) ReadBook(dir string) (*book.LoreBook, error) {
	indexPath := filepath.Join(dir, IndexFileName)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", indexPath, err)
	}
	var index indexFile
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file %s: %w", indexPath, err)
	}

	entriesDir := filepath.Join(dir, EntriesDirName)
	contentIdx, err := BuildContentIndex(entriesDir)
	if err != nil {
		return nil, err
	}

	b := &book.LoreBook{Name: index.Name, Settings: index.GlobalSettings}
	for i, ie := range index.Entries {
		if ie.ID == "" {
			s.logger.Printf("WARNING: skipping index entry %d: missing id", i)
			continue
		}

		path, found := s.resolveContentPath(entriesDir, contentIdx, ie.ID)
		if !found {
			// Deleted content file: intentional deletion, drop silently.
			continue
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry file %s: %w", path, err)
		}
		var content codec.ContentFile
		if err := yaml.Unmarshal(raw, &content); err != nil {
			return nil, fmt.Errorf("failed to parse entry file %s: %w", path, err)
		}

		e := codec.FromIndexAndContent(ie, content, i)
		b.Append(strconv.Itoa(i), e)
	}

	return b, nil
}

// resolveContentPath tries the exact fast path first, then the prebuilt
// normalized index.
func (s *Store) resolveContentPath(entriesDir string, idx *ContentIndex, id string) (string, bool) {
	for _, ext := range contentExtensions {
		candidate := filepath.Join(entriesDir, id+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return idx.Lookup(id)
}
