package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/tavern-tools/loresync/internal/book"
	"github.com/tavern-tools/loresync/internal/localstore"
	"github.com/tavern-tools/loresync/internal/remote"
)

// fakeStore is an in-memory remote.Store recording replace calls in order.
type fakeStore struct {
	books      map[string]*book.LoreBook
	characters map[string]*book.Character
	assets     map[string][]byte

	replacedBooks      []string
	replacedCharacters []string
	assetErr           error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:      make(map[string]*book.LoreBook),
		characters: make(map[string]*book.Character),
		assets:     make(map[string][]byte),
	}
}

func (f *fakeStore) FetchLoreBook(_ context.Context, name string) (*book.LoreBook, error) {
	b, ok := f.books[name]
	if !ok {
		return nil, fmt.Errorf("lore book %q: %w", name, remote.ErrNotFound)
	}
	return b, nil
}

func (f *fakeStore) ReplaceLoreBook(_ context.Context, name string, b *book.LoreBook) error {
	f.books[name] = b
	f.replacedBooks = append(f.replacedBooks, name)
	return nil
}

func (f *fakeStore) FetchCharacter(_ context.Context, name string) (*book.Character, error) {
	ch, ok := f.characters[name]
	if !ok {
		return nil, fmt.Errorf("character %q: %w", name, remote.ErrNotFound)
	}
	return ch, nil
}

func (f *fakeStore) ReplaceCharacter(_ context.Context, name string, ch *book.Character) error {
	f.characters[name] = ch
	f.replacedCharacters = append(f.replacedCharacters, name)
	return nil
}

func (f *fakeStore) FetchAsset(_ context.Context, id string) ([]byte, error) {
	if f.assetErr != nil {
		return nil, f.assetErr
	}
	data, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %q: %w", id, remote.ErrNotFound)
	}
	return data, nil
}

func newTestSyncer(store *fakeStore) *Syncer {
	logger := log.New(io.Discard, "", 0)
	return New(store, localstore.New(logger), Options{Logger: logger})
}

func remoteEntry(uid int, comment, content string) book.Entry {
	e := book.DefaultEntry()
	e.UID = uid
	e.Comment = comment
	e.Content = content
	return e
}

func remoteBook(name string, entries ...book.Entry) *book.LoreBook {
	b := &book.LoreBook{Name: name}
	for i, e := range entries {
		b.Append(b.PositionalKey(i), e)
	}
	return b
}

func TestPullBookMaterializesFiles(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world",
		remoteEntry(0, "rule_a", "hot"),
		remoteEntry(1, "rule_b", "wet"),
	)
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}

	for _, name := range []string{
		localstore.IndexFileName,
		filepath.Join(localstore.EntriesDirName, "rule_a.yaml"),
		filepath.Join(localstore.EntriesDirName, "rule_b.yaml"),
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing after pull: %v", name, err)
		}
	}
}

func TestPullBookEmptyCollection(t *testing.T) {
	store := newFakeStore()
	store.books["empty"] = remoteBook("empty")
	s := newTestSyncer(store)

	err := s.PullBook(context.Background(), "empty", t.TempDir())
	if !errors.Is(err, ErrEmptyCollection) {
		t.Errorf("error = %v, want ErrEmptyCollection", err)
	}
}

func TestPullBookMissingCollection(t *testing.T) {
	store := newFakeStore()
	s := newTestSyncer(store)

	err := s.PullBook(context.Background(), "nowhere", t.TempDir())
	if !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPullBookIdempotent(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world", remoteEntry(0, "rule_a", "hot"))
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("first PullBook() failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, localstore.IndexFileName))
	if err != nil {
		t.Fatalf("reading index failed: %v", err)
	}

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("second PullBook() failed: %v", err)
	}
	second, _ := os.ReadFile(filepath.Join(dir, localstore.IndexFileName))
	if string(first) != string(second) {
		t.Error("index differs between identical pulls")
	}
}

func TestPullBookRemovesOrphans(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world",
		remoteEntry(0, "keep", "k"),
		remoteEntry(1, "gone", "g"),
	)
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("first PullBook() failed: %v", err)
	}

	store.books["world"] = remoteBook("world", remoteEntry(0, "keep", "k"))
	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("second PullBook() failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, localstore.EntriesDirName, "gone.yaml")); !os.IsNotExist(err) {
		t.Error("gone.yaml should have been removed after the entry left the remote")
	}
}

func TestPullBookDropsInvalidEntries(t *testing.T) {
	bad := remoteEntry(1, "broken", "x")
	bad.Probability = 150
	store := newFakeStore()
	store.books["world"] = remoteBook("world", remoteEntry(0, "good", "x"), bad)
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	got, err := localstore.New(log.New(io.Discard, "", 0)).ReadBook(dir)
	if err != nil {
		t.Fatalf("ReadBook() failed: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Comment != "good" {
		t.Errorf("entries = %+v, want only the valid one", got.Entries)
	}
}

func TestPushBookRoundTrip(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world", remoteEntry(0, "rule_a", "hot"))
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	if err := s.PushBook(context.Background(), dir, "", false); err != nil {
		t.Fatalf("PushBook() failed: %v", err)
	}

	if len(store.replacedBooks) != 1 || store.replacedBooks[0] != "world" {
		t.Fatalf("replaced books = %v, want [world] (name taken from index)", store.replacedBooks)
	}
	pushed := store.books["world"]
	if len(pushed.Entries) != 1 || pushed.Entries[0].Content != "hot" {
		t.Errorf("pushed entries = %+v, want the pulled entry back", pushed.Entries)
	}
}

func TestPushBookSkipsDeletedContentFiles(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world",
		remoteEntry(0, "keep", "k"),
		remoteEntry(1, "gone", "g"),
	)
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, localstore.EntriesDirName, "gone.yaml")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.PushBook(context.Background(), dir, "", false); err != nil {
		t.Fatalf("PushBook() failed: %v", err)
	}

	pushed := store.books["world"]
	if len(pushed.Entries) != 1 || pushed.Entries[0].Comment != "keep" {
		t.Errorf("pushed entries = %+v, want the deletion propagated", pushed.Entries)
	}
}

func TestPushBookAbortsOnValidationFailure(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world", remoteEntry(0, "rule_a", "hot"))
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	indexPath := filepath.Join(dir, localstore.IndexFileName)
	index := "name: world\nentries:\n  - id: rule_a\n    probability: 150\n"
	if err := os.WriteFile(indexPath, []byte(index), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err := s.PushBook(context.Background(), dir, "", false)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if len(store.replacedBooks) != 0 {
		t.Error("push must not reach the remote when validation fails")
	}
}

func TestPushBookDryRun(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world", remoteEntry(0, "rule_a", "hot"))
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	if err := s.PushBook(context.Background(), dir, "", true); err != nil {
		t.Fatalf("dry-run PushBook() failed: %v", err)
	}
	if len(store.replacedBooks) != 0 {
		t.Error("dry run must not replace anything")
	}
}

func TestPullCharacterWritesFilesAndLinkedBook(t *testing.T) {
	store := newFakeStore()
	store.characters["Mira"] = &book.Character{
		Name:        "Mira",
		Description: "A wandering scholar.",
		FirstMes:    "Hello.",
		Avatar:      "asset-1",
		CharacterBook: remoteBook("mira_lore",
			remoteEntry(0, "rule_a", "hot"),
		),
	}
	store.assets["asset-1"] = []byte{0x89, 'P', 'N', 'G'}
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullCharacter(context.Background(), "Mira", dir); err != nil {
		t.Fatalf("PullCharacter() failed: %v", err)
	}

	for _, name := range []string{
		localstore.CharacterFileName,
		localstore.DescriptionFileName,
		localstore.AvatarFileName,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing after pull: %v", name, err)
		}
	}
	bookIndex := filepath.Join(localstore.LinkedBookDir(dir, "mira_lore"), localstore.IndexFileName)
	if _, err := os.Stat(bookIndex); err != nil {
		t.Errorf("linked lore book index missing: %v", err)
	}
}

func TestPullCharacterAvatarFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	store.characters["Mira"] = &book.Character{Name: "Mira", Avatar: "asset-1"}
	store.assetErr = errors.New("asset service down")
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullCharacter(context.Background(), "Mira", dir); err != nil {
		t.Fatalf("PullCharacter() should survive an avatar failure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, localstore.AvatarFileName)); !os.IsNotExist(err) {
		t.Error("no avatar file should be written on download failure")
	}
}

func TestPushCharacterMergesRemoteOwnedFields(t *testing.T) {
	store := newFakeStore()
	store.characters["Mira"] = &book.Character{
		Name:       "Mira",
		Avatar:     "asset-1",
		Chat:       "chat-7",
		CreateDate: "2024-01-01",
	}
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullCharacter(context.Background(), "Mira", dir); err != nil {
		t.Fatalf("PullCharacter() failed: %v", err)
	}
	if err := s.PushCharacter(context.Background(), "", dir, false); err != nil {
		t.Fatalf("PushCharacter() failed: %v", err)
	}

	pushed := store.characters["Mira"]
	if pushed.Avatar != "asset-1" || pushed.Chat != "chat-7" || pushed.CreateDate != "2024-01-01" {
		t.Errorf("remote-owned fields not re-attached: %+v", pushed)
	}
}

func TestPushCharacterRequiresExistingRecord(t *testing.T) {
	store := newFakeStore()
	store.characters["Mira"] = &book.Character{Name: "Mira"}
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullCharacter(context.Background(), "Mira", dir); err != nil {
		t.Fatalf("PullCharacter() failed: %v", err)
	}
	delete(store.characters, "Mira")

	err := s.PushCharacter(context.Background(), "", dir, false)
	if !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound (push edits, never creates)", err)
	}
}

func TestPushCharacterPushesLinkedBooksAndSetsWorld(t *testing.T) {
	store := newFakeStore()
	store.characters["Mira"] = &book.Character{
		Name:          "Mira",
		CharacterBook: remoteBook("mira_lore", remoteEntry(0, "rule_a", "hot")),
	}
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullCharacter(context.Background(), "Mira", dir); err != nil {
		t.Fatalf("PullCharacter() failed: %v", err)
	}
	if err := s.PushCharacter(context.Background(), "", dir, false); err != nil {
		t.Fatalf("PushCharacter() failed: %v", err)
	}

	if len(store.replacedBooks) != 1 || store.replacedBooks[0] != "mira_lore" {
		t.Fatalf("replaced books = %v, want the linked book pushed first", store.replacedBooks)
	}
	if got := store.characters["Mira"].World; got != "mira_lore" {
		t.Errorf("world = %q, want mira_lore", got)
	}
}

func TestCompareLocalEditShowsOneModified(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world",
		remoteEntry(0, "rule_a", "cold"),
		remoteEntry(1, "rule_b", "wet"),
	)
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	entryPath := filepath.Join(dir, localstore.EntriesDirName, "rule_a.yaml")
	if err := os.WriteFile(entryPath, []byte("key: []\ncontent: hot\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	result, err := s.Compare(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Compare() failed: %v", err)
	}
	if len(result.AddedLocally) != 0 || len(result.AddedRemotely) != 0 {
		t.Errorf("no additions expected: %+v", result)
	}
	if len(result.Modified) != 1 || result.Modified[0].ID != "rule_a" {
		t.Fatalf("modified = %+v, want exactly rule_a", result.Modified)
	}
}

func TestCompareAfterPullIsEmpty(t *testing.T) {
	store := newFakeStore()
	store.books["world"] = remoteBook("world",
		remoteEntry(0, "rule_a", "hot"),
		remoteEntry(1, "rule_b", "wet"),
	)
	s := newTestSyncer(store)
	dir := t.TempDir()

	if err := s.PullBook(context.Background(), "world", dir); err != nil {
		t.Fatalf("PullBook() failed: %v", err)
	}
	result, err := s.Compare(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Compare() failed: %v", err)
	}
	if !result.Empty() {
		t.Errorf("fresh pull should compare clean, got %+v", result)
	}
}
