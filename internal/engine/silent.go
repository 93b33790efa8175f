package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/simonhull/audiometa"
)

// Silent is a playback engine that tracks time without producing audio.
// The duration is probed from the file's metadata at load; the position
// advances with wall-clock time scaled by the playback rate. It is the
// reference adapter for headless runs and exercises the full contract,
// including the AWB no-seek limitation.
type Silent struct {
	mu       sync.Mutex
	source   string
	duration float64 // seconds, 0 until probed
	rate     float64
	playing  bool
	// base is the position at the moment playback state last changed;
	// while playing, Position() adds the scaled elapsed time since startedAt.
	base      float64
	startedAt time.Time
	closed    bool
}

// NewSilent creates an unloaded silent engine.
func NewSilent() *Silent {
	return &Silent{rate: 1.0}
}

// Load probes the source metadata for its duration.
// Sources audiometa cannot parse still load with an unknown duration;
// playback then runs until Close rather than auto-advancing.
func (e *Silent) Load(ctx context.Context, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine closed")
	}

	e.source = source
	e.base = 0
	e.playing = false

	file, err := audiometa.OpenContext(ctx, source)
	if err != nil {
		// Duration stays unknown. Not fatal: the file may still be a format
		// the real platform player can handle.
		return nil
	}
	defer file.Close()

	e.duration = file.Audio.Duration.Seconds()
	return nil
}

// Play starts the playback clock.
func (e *Silent) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine closed")
	}
	if e.playing {
		return nil
	}
	e.playing = true
	e.startedAt = time.Now()
	return nil
}

// Pause freezes the playback clock.
func (e *Silent) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine closed")
	}
	if !e.playing {
		return nil
	}
	e.base = e.positionLocked()
	e.playing = false
	return nil
}

// Seek repositions the clock. AWB sources reject seeks.
func (e *Silent) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("engine closed")
	}
	if !SeekableSource(e.source) {
		return ErrSeekUnsupported
	}

	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.base = seconds
	e.startedAt = time.Now()
	return nil
}

// SetRate changes the clock speed.
func (e *Silent) SetRate(rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", rate)
	}
	// Bank the position at the old rate before switching.
	e.base = e.positionLocked()
	e.startedAt = time.Now()
	e.rate = rate
	return nil
}

// Position returns the current offset in seconds.
func (e *Silent) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// positionLocked computes the position; callers hold e.mu.
func (e *Silent) positionLocked() float64 {
	pos := e.base
	if e.playing {
		pos += time.Since(e.startedAt).Seconds() * e.rate
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

// Duration returns the probed duration, 0 when unknown.
func (e *Silent) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// IsPlaying reports whether the clock is running.
func (e *Silent) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Close stops the clock and marks the engine unusable.
func (e *Silent) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	e.closed = true
	return nil
}
