// Package remote defines the capability the sync engine consumes to reach
// the authoritative live store, plus an HTTP implementation of it. Every
// operation is whole-resource; there are no partial or patch semantics.
// Retries, auth, and TLS trust configuration live here, not in the engine.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/tavern-tools/loresync/internal/book"
)

// Common errors returned by remote operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, remote.ErrNotFound) {
//	    // the named collection or character does not exist
//	}
var (
	// ErrNotFound is returned when the named collection, character, or
	// asset does not exist on the remote.
	ErrNotFound = errors.New("not found on remote")
)

// StatusError is a non-2xx response from the remote, carrying the status
// code and the response body for diagnosis.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned status %d: %s", e.Status, e.Body)
}

// Store is the abstract capability consumed by the sync engine. The engine
// treats it entirely as a black box and never depends on the transport.
type Store interface {
	// FetchLoreBook retrieves the named collection.
	FetchLoreBook(ctx context.Context, name string) (*book.LoreBook, error)

	// ReplaceLoreBook replaces the named collection wholesale.
	ReplaceLoreBook(ctx context.Context, name string, b *book.LoreBook) error

	// FetchCharacter retrieves the named character record.
	FetchCharacter(ctx context.Context, name string) (*book.Character, error)

	// ReplaceCharacter replaces the named character record wholesale.
	ReplaceCharacter(ctx context.Context, name string, ch *book.Character) error

	// FetchAsset retrieves a binary asset by its opaque reference.
	FetchAsset(ctx context.Context, id string) ([]byte, error)
}
