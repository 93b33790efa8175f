package domain

import "time"

// Checkpoint is the persisted snapshot of playback progress for a book.
// It is overwritten on every save for the same BookID, never appended.
type Checkpoint struct {
	BookID     string `json:"book_id"`
	PositionMs int64  `json:"position_ms"`
	DurationMs int64  `json:"duration_ms"`
	// ChapterIndex is the chapter the position refers to. Older single-file
	// saves carry 0, which is also a valid index for a one-chapter book.
	ChapterIndex int       `json:"chapter_index"`
	LastPlayedAt time.Time `json:"last_played_at"`
}

// Clamp forces PositionMs into [0, DurationMs]. Positions can transiently
// exceed the duration due to rounding in the adapter; callers clamp on read.
func (c *Checkpoint) Clamp() {
	if c.PositionMs < 0 {
		c.PositionMs = 0
	}
	if c.DurationMs > 0 && c.PositionMs > c.DurationMs {
		c.PositionMs = c.DurationMs
	}
}

// ValidChapterFor reports whether the stored chapter index is usable for a
// book with the given chapter count.
func (c *Checkpoint) ValidChapterFor(chapterCount int) bool {
	return c.ChapterIndex >= 0 && c.ChapterIndex < chapterCount
}

// Progress returns the completed fraction in [0, 1], or 0 when the duration
// is unknown.
func (c *Checkpoint) Progress() float64 {
	if c.DurationMs <= 0 {
		return 0
	}
	p := float64(c.PositionMs) / float64(c.DurationMs)
	if p > 1 {
		return 1
	}
	return p
}
