package store

import (
	"context"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
)

// CheckpointStore is the narrow persistence contract the player orchestrator
// depends on. Both the Badger and SQLite stores implement it.
type CheckpointStore interface {
	// GetCheckpoint returns the checkpoint for a book. A missing checkpoint is
	// reported via errors.ErrNotFound, not a nil-with-no-error.
	GetCheckpoint(ctx context.Context, bookID string) (*domain.Checkpoint, error)
	// SaveCheckpoint upserts the checkpoint, stamping LastPlayedAt with the
	// current time. Checkpoints with non-positive duration are rejected.
	SaveCheckpoint(ctx context.Context, checkpoint *domain.Checkpoint) error
	// DeleteCheckpoint removes the checkpoint. Absence is not an error.
	DeleteCheckpoint(ctx context.Context, bookID string) error
}

// Catalog is the book library contract used by the importer and the entry point.
type Catalog interface {
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, bookID string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	// DeleteBook removes the book and its checkpoint.
	DeleteBook(ctx context.Context, bookID string) error
}

// Library combines the catalog and checkpoint contracts.
type Library interface {
	Catalog
	CheckpointStore
	Close() error
}
