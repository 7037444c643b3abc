package localstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tavern-tools/loresync/internal/codec"
)

// ScaffoldEntries creates count empty content files named prefix_1..N under
// dir's entries subtree and appends matching index entries. Ids that collide
// with an existing index entry or content file are skipped with a warning.
// Returns the number of entries actually created. A missing index file is
// created fresh with the directory name as the book name.
func (s *Store) ScaffoldEntries(dir, prefix string, count int) (int, error) {
	indexPath := filepath.Join(dir, IndexFileName)
	var index indexFile
	if data, err := os.ReadFile(indexPath); err == nil {
		if err := yaml.Unmarshal(data, &index); err != nil {
			return 0, fmt.Errorf("failed to parse index file %s: %w", indexPath, err)
		}
	} else if !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to read index file %s: %w", indexPath, err)
	} else {
		abs, _ := filepath.Abs(dir)
		index.Name = filepath.Base(abs)
	}

	entriesDir := filepath.Join(dir, EntriesDirName)
	if err := os.MkdirAll(entriesDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create entries directory: %w", err)
	}

	taken := make(map[string]bool, len(index.Entries))
	for _, ie := range index.Entries {
		taken[ie.ID] = true
	}
	existing, err := BuildContentIndex(entriesDir)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("%s_%d", prefix, i)
		if taken[id] {
			s.logger.Printf("WARNING: skipping %s: already in index", id)
			continue
		}
		if _, ok := existing.Lookup(id); ok {
			s.logger.Printf("WARNING: skipping %s: content file already exists", id)
			continue
		}

		content := codec.ContentFile{Key: []string{}, Content: ""}
		data, err := yaml.Marshal(content)
		if err != nil {
			return created, fmt.Errorf("failed to marshal entry %s: %w", id, err)
		}
		path := filepath.Join(entriesDir, id+".yaml")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return created, fmt.Errorf("failed to write entry file %s: %w", path, err)
		}

		index.Entries = append(index.Entries, codec.IndexEntry{ID: id})
		taken[id] = true
		created++
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return created, fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return created, fmt.Errorf("failed to write index file %s: %w", indexPath, err)
	}
	return created, nil
}
