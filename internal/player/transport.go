package player

import domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"

// Transport is the playing/paused/loading/idle status of the current session.
type Transport int

const (
	TransportIdle Transport = iota
	TransportLoading
	TransportPlaying
	TransportPaused
)

// String returns the transport state name.
func (t Transport) String() string {
	switch t {
	case TransportIdle:
		return "idle"
	case TransportLoading:
		return "loading"
	case TransportPlaying:
		return "playing"
	case TransportPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only state the presentation layer renders from.
// It is a value copy; holding one never observes later mutations.
type Snapshot struct {
	BookID       string    `json:"book_id"`
	Transport    Transport `json:"transport"`
	ChapterIndex int       `json:"chapter_index"`
	ChapterTitle string    `json:"chapter_title,omitempty"`
	PositionMs   int64     `json:"position_ms"`
	DurationMs   int64     `json:"duration_ms"`
	PlaybackRate float64   `json:"playback_rate"`
	// SleepRemainingSeconds is nil when no sleep timer is armed.
	SleepRemainingSeconds *int64 `json:"sleep_remaining_seconds,omitempty"`
}

// Notice is a non-fatal error surfaced to the presentation layer.
// Adapter and persistence failures never crash the session; they arrive here.
type Notice struct {
	Code    domainerrors.Code `json:"code"`
	Message string            `json:"message"`
}
