package store

import (
	"context"
	"time"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
)

// Sentinel errors for checkpoint operations.
var (
	ErrCheckpointNotFound = domainerrors.NotFound("checkpoint not found")
)

// GetCheckpoint retrieves the playback checkpoint for a book.
// The stored position is clamped into [0, duration] on read; writers may
// race with adapter rounding and persist a position slightly past the end.
func (s *Store) GetCheckpoint(ctx context.Context, bookID string) (*domain.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var checkpoint domain.Checkpoint
	err := s.get([]byte(checkpointPrefix+bookID), &checkpoint)
	if domainerrors.Is(err, domainerrors.ErrNotFound) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, err
	}

	checkpoint.Clamp()
	return &checkpoint, nil
}

// SaveCheckpoint creates or overwrites the checkpoint for a book.
// LastPlayedAt is always stamped with the current time, overriding any
// caller-supplied value. Checkpoints without a known positive duration are
// rejected - a zero-duration checkpoint cannot express meaningful progress.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if checkpoint.BookID == "" {
		return domainerrors.Validation("checkpoint requires a book ID")
	}
	if checkpoint.DurationMs <= 0 {
		return domainerrors.Validation("checkpoint requires a positive duration")
	}

	saved := *checkpoint
	saved.Clamp()
	saved.LastPlayedAt = time.Now()

	return s.set([]byte(checkpointPrefix+saved.BookID), &saved)
}

// DeleteCheckpoint removes the checkpoint for a book. Best-effort: a missing
// key is not an error.
func (s *Store) DeleteCheckpoint(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(checkpointPrefix + bookID))
}
