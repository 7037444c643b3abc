// Package syncer orchestrates whole-collection pulls (remote wins, full
// overwrite of the local file set) and pushes (local wins, full replacement
// of the remote collection). Per-item problems are skipped with a warning on
// pull; anything that would cause a destructive partial write to the remote
// aborts the whole push instead.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/tavern-tools/loresync/internal/book"
	"github.com/tavern-tools/loresync/internal/diffengine"
	"github.com/tavern-tools/loresync/internal/localstore"
	"github.com/tavern-tools/loresync/internal/remote"
	"github.com/tavern-tools/loresync/internal/ui"
)

// ErrEmptyCollection is returned when the named remote collection exists but
// holds no entries, or does not exist at all.
var ErrEmptyCollection = errors.New("remote collection is empty or missing")

// ValidationError aggregates per-field problems that aborted a push.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Syncer converts between the local file-tree representation and the remote
// live store.
type Syncer struct {
	remote   remote.Store
	local    *localstore.Store
	reporter ui.Reporter
	logger   *log.Logger
	policy   diffengine.Policy
}

// Options configures a Syncer. Zero values select a stderr logger, a no-op
// reporter, and the historical comparison policy.
type Options struct {
	Logger   *log.Logger
	Reporter ui.Reporter
	Policy   *diffengine.Policy
}

// New creates a Syncer.
func New(remoteStore remote.Store, local *localstore.Store, opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	var reporter ui.Reporter = ui.Noop{}
	if opts.Reporter != nil {
		reporter = opts.Reporter
	}
	policy := diffengine.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	return &Syncer{
		remote:   remoteStore,
		local:    local,
		reporter: reporter,
		logger:   logger,
		policy:   policy,
	}
}

// PullBook fetches the named lore book and materializes it under dir,
// overwriting previous content and deleting orphans.
func (s *Syncer) PullBook(ctx context.Context, name, dir string) error {
	b, err := s.remote.FetchLoreBook(ctx, name)
	if err != nil {
		return err
	}
	if len(b.Entries) == 0 {
		return fmt.Errorf("%w: lore book %q", ErrEmptyCollection, name)
	}
	if b.Name == "" {
		b.Name = name
	}
	if err := s.materializeBook(b, dir); err != nil {
		return err
	}
	s.reporter.Successf("Pulled lore book %q (%d entries) into %s", name, len(b.Entries), dir)
	return nil
}

// materializeBook validates, sorts, and writes a fetched book. Entries that
// fail validation are dropped with a per-entry warning; a single bad entry
// must not block the rest of the pull.
func (s *Syncer) materializeBook(b *book.LoreBook, dir string) error {
	valid := &book.LoreBook{Name: b.Name, Settings: b.Settings}
	for i := range b.Entries {
		if err := b.Entries[i].Validate(); err != nil {
			s.logger.Printf("WARNING: dropping invalid entry %q: %v", s.entryLabel(b, i), err)
			s.reporter.Warnf("Dropped invalid entry %q: %v", s.entryLabel(b, i), err)
			continue
		}
		valid.Append(b.PositionalKey(i), b.Entries[i])
	}
	valid.SortForWrite()
	return s.local.WriteBook(valid, dir)
}

func (s *Syncer) entryLabel(b *book.LoreBook, i int) string {
	if b.Entries[i].Comment != "" {
		return b.Entries[i].Comment
	}
	return "__index_" + b.PositionalKey(i)
}

// PushBook reads the local book under dir into fully-formed entries and
// replaces the remote collection wholesale. Validation failure aborts the
// entire push; the remote schema requires every field, and a partial write
// would be a silent inconsistency. When name is empty the book's own name
// from the index is used. With dryRun set, everything up to the replace call
// runs and the call itself is skipped.
func (s *Syncer) PushBook(ctx context.Context, dir, name string, dryRun bool) error {
	b, err := s.local.ReadBook(dir)
	if err != nil {
		return err
	}
	if name == "" {
		name = b.Name
	}
	if name == "" {
		return fmt.Errorf("lore book under %s has no name; set one in %s or pass --name",
			dir, localstore.IndexFileName)
	}

	if err := validateBook(b); err != nil {
		return err
	}

	if dryRun {
		s.reporter.Infof("Dry run: would replace lore book %q with %d entries", name, len(b.Entries))
		return nil
	}
	if err := s.remote.ReplaceLoreBook(ctx, name, b); err != nil {
		return err
	}
	s.reporter.Successf("Pushed %d entries to lore book %q", len(b.Entries), name)
	return nil
}

// validateBook checks every entry and aggregates the failures.
func validateBook(b *book.LoreBook) error {
	var problems []string
	for i := range b.Entries {
		if err := b.Entries[i].Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("entry %q: %v", b.Entries[i].Comment, err))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// PullCharacter fetches the named character and materializes its file set
// under dir: split long-text fields, a best-effort avatar download, and a
// recursive pull of the embedded lore book into linked_worldbooks/.
func (s *Syncer) PullCharacter(ctx context.Context, name, dir string) error {
	ch, err := s.remote.FetchCharacter(ctx, name)
	if err != nil {
		return err
	}

	if err := s.local.WriteCharacter(ch, dir); err != nil {
		return err
	}

	if ch.Avatar != "" {
		data, err := s.remote.FetchAsset(ctx, ch.Avatar)
		if err != nil {
			// Avatar download is best-effort; the character pull stands.
			s.logger.Printf("WARNING: failed to fetch avatar %q: %v", ch.Avatar, err)
			s.reporter.Warnf("Avatar download failed: %v", err)
		} else if err := s.local.WriteAvatar(dir, data); err != nil {
			return err
		}
	}

	if ch.CharacterBook != nil && len(ch.CharacterBook.Entries) > 0 {
		embedded := ch.CharacterBook
		bookName := embedded.Name
		if bookName == "" {
			bookName = name
		}
		bookDir := localstore.LinkedBookDir(dir, bookName)
		if err := s.materializeBook(embedded, bookDir); err != nil {
			return fmt.Errorf("pulling linked lore book %q: %w", bookName, err)
		}
	}

	s.reporter.Successf("Pulled character %q into %s", name, dir)
	return nil
}

// PushCharacter reads the local character file set and replaces the remote
// record. A push is an edit, not a create: the existing remote record is
// fetched first so that the fields local has no copy of (avatar reference,
// chat-history pointer, creation timestamp) are re-attached unchanged. Any
// linked lore books are pushed first, and the character's world link is
// pointed at the first one.
func (s *Syncer) PushCharacter(ctx context.Context, name, dir string, dryRun bool) error {
	ch, err := s.local.ReadCharacter(dir)
	if err != nil {
		return err
	}
	if name == "" {
		name = ch.Name
	}
	if err := ch.Validate(); err != nil {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	prev, err := s.remote.FetchCharacter(ctx, name)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return fmt.Errorf("character %q does not exist on the remote; push edits an existing record: %w", name, err)
		}
		return err
	}
	ch.MergeRemoteOwned(prev)

	linked, err := s.local.ListLinkedBooks(dir)
	if err != nil {
		return err
	}
	for i, bookDirName := range linked {
		bookDir := localstore.LinkedBookDir(dir, bookDirName)
		b, err := s.local.ReadBook(bookDir)
		if err != nil {
			return fmt.Errorf("reading linked lore book %q: %w", bookDirName, err)
		}
		bookName := b.Name
		if bookName == "" {
			bookName = bookDirName
		}
		if err := validateBook(b); err != nil {
			return fmt.Errorf("linked lore book %q: %w", bookName, err)
		}
		if !dryRun {
			if err := s.remote.ReplaceLoreBook(ctx, bookName, b); err != nil {
				return fmt.Errorf("pushing linked lore book %q: %w", bookName, err)
			}
		}
		if i == 0 {
			ch.World = bookName
		}
	}

	if dryRun {
		s.reporter.Infof("Dry run: would replace character %q", name)
		return nil
	}
	if err := s.remote.ReplaceCharacter(ctx, name, ch); err != nil {
		return err
	}
	s.reporter.Successf("Pushed character %q", name)
	return nil
}

// Compare answers "what changed" between the local book under dir and the
// named remote collection without mutating either side. When name is empty
// the local book's own name is used. Safe to call concurrently with reads
// and with an in-flight push.
func (s *Syncer) Compare(ctx context.Context, dir, name string) (*diffengine.Result, error) {
	localBook, err := s.local.ReadBook(dir)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = localBook.Name
	}
	remoteBook, err := s.remote.FetchLoreBook(ctx, name)
	if err != nil {
		return nil, err
	}
	return diffengine.Compare(localBook, remoteBook, s.policy)
}

// GenerateEntries scaffolds count empty entries named prefix_1..N under dir.
func (s *Syncer) GenerateEntries(prefix string, count int, dir string) error {
	created, err := s.local.ScaffoldEntries(dir, prefix, count)
	if err != nil {
		return err
	}
	s.reporter.Successf("Created %d of %d entries with prefix %q", created, count, prefix)
	return nil
}
