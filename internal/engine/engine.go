// Package engine defines the playback adapter contract the orchestrator drives.
//
// An Engine wraps a single loaded audio source. Switching chapters discards
// the instance and creates a new one; engines are never shared between
// sessions. Implementations are thin wrappers around whatever actually
// produces sound - the orchestrator only relies on the contract below.
package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrSeekUnsupported is returned by Seek when the loaded source encoding does
// not support repositioning. This is a capability limitation of the format,
// not a transient failure.
var ErrSeekUnsupported = errors.New("source does not support seeking")

// Engine is the opaque playback capability for one audio source.
//
// Position and Duration are continuously readable; Duration returns 0 until
// the source is sufficiently loaded for it to be known. Seek is best-effort:
// the resulting position may differ from the requested one and callers must
// re-read Position rather than assume.
type Engine interface {
	// Load prepares the source for playback. Duration may still be unknown
	// when Load returns.
	Load(ctx context.Context, source string) error
	Play() error
	Pause() error
	// Seek repositions playback to the given offset in seconds.
	Seek(seconds float64) error
	// SetRate changes the playback speed multiplier.
	SetRate(rate float64) error
	// Position returns the current playback offset in seconds.
	Position() float64
	// Duration returns the total source duration in seconds, 0 until known.
	Duration() float64
	IsPlaying() bool
	// Close releases the source. The engine is unusable afterwards.
	Close() error
}

// Factory creates an engine for a chapter source. The orchestrator owns the
// returned instance exclusively and closes it on chapter change or teardown.
type Factory func() Engine

// SeekableSource reports whether a source path has an encoding known to
// support seeking. AMR-WB (.awb) files only decode forward; seeks on them
// silently no-op or fail depending on the platform decoder.
func SeekableSource(source string) bool {
	return strings.ToLower(filepath.Ext(source)) != ".awb"
}
