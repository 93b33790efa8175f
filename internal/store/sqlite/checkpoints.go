package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
	"github.com/shelfplayapp/shelfplay-player/internal/store"
)

// GetCheckpoint retrieves the playback checkpoint for a book.
// The stored position is clamped into [0, duration] on read.
func (s *Store) GetCheckpoint(ctx context.Context, bookID string) (*domain.Checkpoint, error) {
	var c domain.Checkpoint
	var lastPlayedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT book_id, position_ms, duration_ms, chapter_index, last_played_at
		FROM checkpoints WHERE book_id = ?`, bookID).
		Scan(&c.BookID, &c.PositionMs, &c.DurationMs, &c.ChapterIndex, &lastPlayedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCheckpointNotFound
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "get checkpoint")
	}

	c.LastPlayedAt, err = parseTime(lastPlayedAt)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodePersistence, "parse checkpoint time")
	}

	c.Clamp()
	return &c, nil
}

// SaveCheckpoint creates or overwrites the checkpoint for a book.
// LastPlayedAt is always stamped with the current time; checkpoints without a
// known positive duration are rejected.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *domain.Checkpoint) error {
	if checkpoint.BookID == "" {
		return domainerrors.Validation("checkpoint requires a book ID")
	}
	if checkpoint.DurationMs <= 0 {
		return domainerrors.Validation("checkpoint requires a positive duration")
	}

	saved := *checkpoint
	saved.Clamp()
	saved.LastPlayedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (book_id, position_ms, duration_ms, chapter_index, last_played_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			position_ms = excluded.position_ms,
			duration_ms = excluded.duration_ms,
			chapter_index = excluded.chapter_index,
			last_played_at = excluded.last_played_at`,
		saved.BookID, saved.PositionMs, saved.DurationMs, saved.ChapterIndex,
		formatTime(saved.LastPlayedAt))
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "save checkpoint")
	}
	return nil
}

// DeleteCheckpoint removes the checkpoint for a book. Absence is not an error.
func (s *Store) DeleteCheckpoint(ctx context.Context, bookID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE book_id = ?`, bookID)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodePersistence, "delete checkpoint")
	}
	return nil
}
