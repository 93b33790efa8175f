package player

import (
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Options tunes the orchestrator's timers and command defaults.
type Options struct {
	// PollInterval is how often engine position is sampled while a chapter
	// is loaded.
	PollInterval time.Duration `validate:"gt=0"`

	// AutosaveInterval is how often a checkpoint is persisted while playing.
	AutosaveInterval time.Duration `validate:"gt=0"`

	// SleepTickInterval is how often an armed sleep timer is checked
	// against its deadline.
	SleepTickInterval time.Duration `validate:"gt=0"`

	// SkipDeltaMs is the jump applied by skip commands when the caller
	// passes no explicit delta.
	SkipDeltaMs int64 `validate:"gt=0"`

	// EndToleranceMs is how close to the end of a chapter the position must
	// be before the orchestrator treats the chapter as finished.
	EndToleranceMs int64 `validate:"gt=0"`

	// SeekRetryInterval and SeekReadyTimeout bound the deferred resume
	// seek: after a load, the engine is polled at SeekRetryInterval until
	// it reports a duration, giving up after SeekReadyTimeout.
	SeekRetryInterval time.Duration `validate:"gt=0"`
	SeekReadyTimeout  time.Duration `validate:"gt=0"`

	// Rates is the ordered set the rate commands cycle through.
	Rates []float64 `validate:"min=1,dive,gt=0"`

	// InitialRate is the session's starting rate. Must be one of Rates.
	InitialRate float64 `validate:"gt=0"`

	// SaveMinInterval throttles opportunistic checkpoint writes (seeks,
	// skips). The pause and autosave paths are never throttled.
	SaveMinInterval time.Duration `validate:"gte=0"`
}

// DefaultOptions returns the tuning used by the app shell.
func DefaultOptions() Options {
	return Options{
		PollInterval:      100 * time.Millisecond,
		AutosaveInterval:  10 * time.Second,
		SleepTickInterval: time.Second,
		SkipDeltaMs:       15000,
		EndToleranceMs:    500,
		SeekRetryInterval: 100 * time.Millisecond,
		SeekReadyTimeout:  5 * time.Second,
		Rates:             []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0},
		InitialRate:       1.0,
		SaveMinInterval:   time.Second,
	}
}

// Validate checks the options, including that InitialRate is a member of
// Rates.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return domainerrors.Validation("invalid player options").WithCause(err)
	}
	if !slices.Contains(o.Rates, o.InitialRate) {
		return domainerrors.Validation("initial rate is not in the rate set")
	}
	return nil
}
