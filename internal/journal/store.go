// Package journal persists command lifecycle transitions observed through
// scheduler hooks.
package journal

import (
	"context"

	"github.com/me/robocmd/pkg/model"
)

// Store defines the persistence layer for journal entries.
type Store interface {
	// Append writes entries in a single transaction.
	Append(ctx context.Context, entries []model.JournalEntry) error

	// List returns entries of one session in recording order. An empty
	// sessionID lists every session.
	List(ctx context.Context, sessionID string, opts model.ListOptions) ([]model.JournalEntry, int, error)

	// Sessions summarizes every recorded session, newest first.
	Sessions(ctx context.Context) ([]model.JournalSession, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
