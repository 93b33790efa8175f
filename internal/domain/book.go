// Package domain contains the core business entities and domain logic for the Shelfplay library.
package domain

import "time"

// Book represents an audiobook in the library.
// A legacy single-file book is modeled as a book with exactly one chapter;
// nothing above the importer special-cases chapter count.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	CoverPath   string    `json:"cover_path,omitempty"`
	CoverHash   string    `json:"cover_hash,omitempty"` // BlurHash placeholder for the cover
	Chapters    []Chapter `json:"chapters"`
	// TotalDuration is the sum of known chapter duration hints, in ms.
	// Authoritative durations come from the playback adapter once loaded.
	TotalDuration int64     `json:"total_duration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Chapter is one playable audio segment with a fixed position in the book's sequence.
// The sequence order is decided once at import time and never re-derived.
type Chapter struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Source   string `json:"source"` // local path or URI resolvable by the playback adapter
	Filename string `json:"filename"`
	// DurationHint is the probed duration in ms, 0 when unknown.
	DurationHint int64 `json:"duration_hint,omitempty"`
}

// ChapterCount returns the number of chapters.
func (b *Book) ChapterCount() int {
	return len(b.Chapters)
}

// ChapterAt returns the chapter at index, or nil when out of range.
func (b *Book) ChapterAt(index int) *Chapter {
	if index < 0 || index >= len(b.Chapters) {
		return nil
	}
	return &b.Chapters[index]
}

// RecalculateTotals recalculates the total duration from chapter hints.
func (b *Book) RecalculateTotals() {
	b.TotalDuration = 0
	for _, ch := range b.Chapters {
		b.TotalDuration += ch.DurationHint
	}
}

// Touch updates the modification timestamp.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now()
}
