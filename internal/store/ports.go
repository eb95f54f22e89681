// Package store defines the persistence ports for the two record kinds.
//
// Mutations return no data. Callers re-read the list to observe the effect
// of a write instead of patching their own copy.
package store

import (
	"context"

	"cafeledger/internal/core"
)

// Ports for persistence adapters.
type (
	TransactionStore interface {
		// List returns every transaction, newest creation time first.
		List(ctx context.Context) ([]core.Transaction, error)
		Create(ctx context.Context, in core.NewTransaction) error
		// Delete is a no-op when id does not exist.
		Delete(ctx context.Context, id string) error
		ClearAll(ctx context.Context) error
	}

	NoteStore interface {
		ListNotes(ctx context.Context) ([]core.Note, error)
		CreateNote(ctx context.Context, text string) error
		DeleteNote(ctx context.Context, id string) error
	}

	// ProfileReader looks up a stored role override for a user id. It
	// returns an empty role when no profile exists.
	ProfileReader interface {
		ProfileRole(ctx context.Context, userID string) (string, error)
	}

	ProfileWriter interface {
		SetProfileRole(ctx context.Context, userID, role string) error
	}

	// Ledger is what a complete backend provides.
	Ledger interface {
		TransactionStore
		NoteStore
		ProfileReader
		ProfileWriter
	}
)
