// Package player holds the playback session orchestrator: the state machine
// that sits between the presentation layer, the audio engine adapter, and the
// checkpoint store. One orchestrator owns one book session.
package player

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	"github.com/shelfplayapp/shelfplay-player/internal/engine"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
	"github.com/shelfplayapp/shelfplay-player/internal/store"
)

// Orchestrator drives playback of a single book. All commands are safe for
// concurrent use; internal timers and the engine are guarded by one mutex.
//
// Exactly one poll loop reads the engine. Chapter changes swap the engine
// under the lock, so a retired adapter can never publish positions into the
// session that replaced it.
type Orchestrator struct {
	sessionID string
	book      *domain.Book
	store     store.CheckpointStore
	factory   engine.Factory
	logger    *slog.Logger
	opts      Options

	now func() time.Time

	mu           sync.Mutex
	eng          engine.Engine
	chapterIndex int
	transport    Transport
	positionMs   int64
	durationMs   int64
	rateIndex    int
	// gen increments on every chapter swap. Deferred work captured under an
	// older generation discards itself instead of acting on the wrong chapter.
	gen uint64

	sleepDeadline time.Time

	pollStop     chan struct{}
	pollDone     chan struct{}
	autosaveStop chan struct{}
	autosaveDone chan struct{}
	sleepStop    chan struct{}
	sleepDone    chan struct{}

	saveLimiter *rate.Limiter
	// saveTimer holds a pending trailing save scheduled when the limiter
	// swallowed a seek save. At most one is armed at a time.
	saveTimer *time.Timer
	notices   chan Notice
	closed    bool
}

// New builds an orchestrator for book. Nothing is loaded yet; call Load.
func New(book *domain.Book, checkpoints store.CheckpointStore, factory engine.Factory, logger *slog.Logger, opts Options) (*Orchestrator, error) {
	if book == nil || book.ChapterCount() == 0 {
		return nil, domainerrors.Validation("book has no chapters")
	}
	if checkpoints == nil {
		return nil, domainerrors.Validation("checkpoint store is required")
	}
	if factory == nil {
		return nil, domainerrors.Validation("engine factory is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if opts.SaveMinInterval > 0 {
		limit = rate.Every(opts.SaveMinInterval)
	}

	sessionID := uuid.NewString()
	o := &Orchestrator{
		sessionID:   sessionID,
		book:        book,
		store:       checkpoints,
		factory:     factory,
		logger:      logger.With("component", "player", "session_id", sessionID[:8], "book_id", book.ID),
		opts:        opts,
		now:         time.Now,
		transport:   TransportIdle,
		rateIndex:   slices.Index(opts.Rates, opts.InitialRate),
		saveLimiter: rate.NewLimiter(limit, 1),
		notices:     make(chan Notice, 16),
	}
	return o, nil
}

// SessionID identifies this playback session in logs and diagnostics.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Notices delivers non-fatal adapter and persistence failures. The channel
// is buffered; when nobody drains it, notices are dropped rather than
// blocking playback.
func (o *Orchestrator) Notices() <-chan Notice { return o.notices }

// Load opens the book. With resume true, a stored checkpoint selects the
// chapter and position; otherwise playback starts at chapter zero. Load
// leaves the session paused. A failed engine load resolves to idle with a
// notice instead of a stuck loading state.
func (o *Orchestrator) Load(ctx context.Context, resume bool) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return domainerrors.Internal("session is closed")
	}
	o.transport = TransportLoading
	o.mu.Unlock()

	index := 0
	var resumeMs int64
	if resume {
		cp, err := o.store.GetCheckpoint(ctx, o.book.ID)
		switch {
		case err == nil:
			if cp.ValidChapterFor(o.book.ChapterCount()) {
				index = cp.ChapterIndex
				resumeMs = cp.PositionMs
			} else {
				o.logger.Warn("checkpoint chapter out of range, starting over",
					"chapter_index", cp.ChapterIndex, "chapters", o.book.ChapterCount())
			}
		case domainerrors.Is(err, domainerrors.ErrNotFound):
			// First open, start from the top.
		default:
			o.notify(domainerrors.CodePersistence, "failed to read saved progress")
			o.logger.Error("checkpoint read failed", "error", err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return domainerrors.Internal("session is closed")
	}
	if err := o.swapChapterLocked(ctx, index); err != nil {
		o.transport = TransportIdle
		return err
	}
	o.transport = TransportPaused

	if o.pollStop == nil {
		o.pollStop = make(chan struct{})
		o.pollDone = make(chan struct{})
		go o.pollLoop()
	}

	if resumeMs > 0 {
		go o.seekWhenReady(o.gen, resumeMs)
	}
	return nil
}

// swapChapterLocked tears down the current engine and loads chapter index.
// Position resets to zero. Callers hold o.mu.
func (o *Orchestrator) swapChapterLocked(ctx context.Context, index int) error {
	chapter := o.book.ChapterAt(index)
	if chapter == nil {
		return domainerrors.Validation("chapter index out of range")
	}

	if o.eng != nil {
		if err := o.eng.Close(); err != nil {
			o.logger.Warn("engine close failed", "error", err)
		}
		o.eng = nil
	}
	o.gen++

	eng := o.factory()
	if err := eng.Load(ctx, chapter.Source); err != nil {
		_ = eng.Close()
		o.notify(domainerrors.CodeAdapter, "failed to load chapter audio")
		o.logger.Error("engine load failed", "chapter_index", index, "source", chapter.Source, "error", err)
		return domainerrors.Adapterf("load chapter %d", index).WithCause(err)
	}
	if err := eng.SetRate(o.opts.Rates[o.rateIndex]); err != nil {
		o.logger.Warn("engine rejected rate, continuing at default", "rate", o.opts.Rates[o.rateIndex], "error", err)
	}

	o.eng = eng
	o.chapterIndex = index
	o.positionMs = 0
	o.durationMs = int64(eng.Duration() * 1000)
	if o.durationMs <= 0 && chapter.DurationHint > 0 {
		o.durationMs = chapter.DurationHint
	}
	o.logger.Debug("chapter loaded", "chapter_index", index, "duration_ms", o.durationMs)
	return nil
}

// seekWhenReady retries a resume seek until the engine reports a duration,
// then applies it. Restoring a position before the engine knows its duration
// would be silently clamped to zero.
func (o *Orchestrator) seekWhenReady(gen uint64, targetMs int64) {
	deadline := o.now().Add(o.opts.SeekReadyTimeout)
	ticker := time.NewTicker(o.opts.SeekRetryInterval)
	defer ticker.Stop()

	for range ticker.C {
		o.mu.Lock()
		if o.closed || o.gen != gen || o.eng == nil {
			o.mu.Unlock()
			return
		}
		if dur := o.eng.Duration(); dur > 0 {
			o.durationMs = int64(dur * 1000)
			o.mu.Unlock()
			if err := o.SeekTo(targetMs); err != nil {
				o.logger.Warn("resume seek failed", "target_ms", targetMs, "error", err)
			}
			return
		}
		o.mu.Unlock()
		if o.now().After(deadline) {
			o.notify(domainerrors.CodeSeekUnavailable, "gave up waiting for track duration, starting from the top")
			o.logger.Warn("resume seek timed out", "target_ms", targetMs)
			return
		}
	}
}

// TogglePlayPause flips playing and paused. Pausing persists a checkpoint
// before returning. With no chapter loaded it is a no-op.
func (o *Orchestrator) TogglePlayPause() error {
	o.mu.Lock()
	if o.closed || o.eng == nil {
		o.mu.Unlock()
		return nil
	}

	if o.transport == TransportPlaying {
		if err := o.eng.Pause(); err != nil {
			o.mu.Unlock()
			o.notify(domainerrors.CodeAdapter, "failed to pause playback")
			o.logger.Error("engine pause failed", "error", err)
			return domainerrors.Adapter("pause").WithCause(err)
		}
		o.syncPositionLocked()
		o.transport = TransportPaused
		o.stopAutosaveLocked()
		cp := o.checkpointLocked()
		o.mu.Unlock()
		o.persist(cp)
		return nil
	}

	if err := o.eng.Play(); err != nil {
		o.mu.Unlock()
		o.notify(domainerrors.CodeAdapter, "failed to start playback")
		o.logger.Error("engine play failed", "error", err)
		return domainerrors.Adapter("play").WithCause(err)
	}
	o.transport = TransportPlaying
	o.startAutosaveLocked()
	o.mu.Unlock()
	return nil
}

// SeekTo jumps to targetMs within the current chapter, clamped to the known
// duration. While the duration is still unknown the seek is refused, since
// clamping against zero would silently rewind to the start. Checkpoint
// saves are rate-limited during seek bursts, but the final position of a
// burst always persists via a trailing save.
func (o *Orchestrator) SeekTo(targetMs int64) error {
	o.mu.Lock()
	if o.closed || o.eng == nil {
		o.mu.Unlock()
		return nil
	}
	if o.durationMs <= 0 {
		o.mu.Unlock()
		o.notify(domainerrors.CodeSeekUnavailable, "track duration not known yet")
		return domainerrors.SeekUnavailable("duration unknown")
	}
	if targetMs < 0 {
		targetMs = 0
	}
	if targetMs > o.durationMs {
		targetMs = o.durationMs
	}

	if err := o.eng.Seek(float64(targetMs) / 1000); err != nil {
		o.mu.Unlock()
		if domainerrors.Is(err, engine.ErrSeekUnsupported) {
			o.notify(domainerrors.CodeSeekUnavailable, "this audio format cannot seek")
			return domainerrors.SeekUnavailable("format does not support seeking")
		}
		o.notify(domainerrors.CodeAdapter, "seek failed")
		o.logger.Error("engine seek failed", "target_ms", targetMs, "error", err)
		return domainerrors.Adapterf("seek to %dms", targetMs).WithCause(err)
	}

	o.positionMs = targetMs
	cp := o.checkpointLocked()
	allow := o.saveLimiter.Allow()
	if allow {
		o.stopSaveTimerLocked()
	} else if o.saveTimer == nil {
		// The limiter dropped this save. Schedule a trailing one so the
		// last seek of a burst is never lost.
		o.saveTimer = time.AfterFunc(o.opts.SaveMinInterval, o.trailingSave)
	}
	o.mu.Unlock()

	if allow {
		o.persist(cp)
	}
	return nil
}

// trailingSave persists whatever position is current once the save throttle
// window has passed.
func (o *Orchestrator) trailingSave() {
	o.mu.Lock()
	o.saveTimer = nil
	if o.closed || o.eng == nil {
		o.mu.Unlock()
		return
	}
	cp := o.checkpointLocked()
	o.mu.Unlock()
	o.persist(cp)
}

func (o *Orchestrator) stopSaveTimerLocked() {
	if o.saveTimer == nil {
		return
	}
	o.saveTimer.Stop()
	o.saveTimer = nil
}

// SkipForward jumps ahead by deltaMs, or the configured default when
// deltaMs is not positive.
func (o *Orchestrator) SkipForward(deltaMs int64) error {
	if deltaMs <= 0 {
		deltaMs = o.opts.SkipDeltaMs
	}
	o.mu.Lock()
	target := o.positionMs + deltaMs
	o.mu.Unlock()
	return o.SeekTo(target)
}

// SkipBackward jumps back by deltaMs, or the configured default when
// deltaMs is not positive.
func (o *Orchestrator) SkipBackward(deltaMs int64) error {
	if deltaMs <= 0 {
		deltaMs = o.opts.SkipDeltaMs
	}
	o.mu.Lock()
	target := o.positionMs - deltaMs
	o.mu.Unlock()
	return o.SeekTo(target)
}

// NextChapter advances to the following chapter, resetting position to
// zero. At the last chapter it is a no-op. Playback continues if it was
// running.
func (o *Orchestrator) NextChapter(ctx context.Context) error {
	return o.jumpChapter(ctx, func(current int) (int, bool) {
		return domain.NextChapterIndex(current, o.book.ChapterCount())
	})
}

// PreviousChapter moves to the preceding chapter, resetting position to
// zero. At the first chapter it is a no-op.
func (o *Orchestrator) PreviousChapter(ctx context.Context) error {
	return o.jumpChapter(ctx, func(current int) (int, bool) {
		return domain.PreviousChapterIndex(current)
	})
}

func (o *Orchestrator) jumpChapter(ctx context.Context, next func(int) (int, bool)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.eng == nil {
		return nil
	}
	index, ok := next(o.chapterIndex)
	if !ok {
		return nil
	}
	return o.switchAndMaybeResumePlayLocked(ctx, index)
}

// switchAndMaybeResumePlayLocked swaps to chapter index, keeping the
// playing/paused state across the swap. Callers hold o.mu.
func (o *Orchestrator) switchAndMaybeResumePlayLocked(ctx context.Context, index int) error {
	wasPlaying := o.transport == TransportPlaying
	if err := o.swapChapterLocked(ctx, index); err != nil {
		o.transport = TransportIdle
		o.stopAutosaveLocked()
		return err
	}
	if wasPlaying {
		if err := o.eng.Play(); err != nil {
			o.transport = TransportPaused
			o.stopAutosaveLocked()
			o.notify(domainerrors.CodeAdapter, "failed to continue playback in next chapter")
			o.logger.Error("engine play failed after chapter switch", "chapter_index", index, "error", err)
			return domainerrors.Adapterf("play chapter %d", index).WithCause(err)
		}
		o.transport = TransportPlaying
	} else {
		o.transport = TransportPaused
	}
	cp := o.checkpointLocked()
	go o.persist(cp)
	return nil
}

// SetRate switches to a playback rate from the configured set. Rates
// outside the set are rejected.
func (o *Orchestrator) SetRate(r float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.eng == nil {
		return nil
	}
	idx := slices.Index(o.opts.Rates, r)
	if idx < 0 {
		return domainerrors.Validationf("rate %.2f is not in the rate set", r)
	}
	return o.applyRateLocked(idx)
}

// CycleRate advances to the next rate in the set, wrapping at the end, and
// returns the rate now in effect.
func (o *Orchestrator) CycleRate() (float64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.eng == nil {
		return o.opts.Rates[o.rateIndex], nil
	}
	idx := (o.rateIndex + 1) % len(o.opts.Rates)
	if err := o.applyRateLocked(idx); err != nil {
		return o.opts.Rates[o.rateIndex], err
	}
	return o.opts.Rates[o.rateIndex], nil
}

func (o *Orchestrator) applyRateLocked(idx int) error {
	if err := o.eng.SetRate(o.opts.Rates[idx]); err != nil {
		o.notify(domainerrors.CodeAdapter, "failed to change playback speed")
		o.logger.Error("engine rate change failed", "rate", o.opts.Rates[idx], "error", err)
		return domainerrors.Adapterf("set rate %.2f", o.opts.Rates[idx]).WithCause(err)
	}
	o.rateIndex = idx
	return nil
}

// SetSleepTimer arms the sleep timer to fire minutes from now. Arming again
// replaces the previous deadline.
func (o *Orchestrator) SetSleepTimer(minutes int) error {
	if minutes <= 0 {
		return domainerrors.Validation("sleep timer minutes must be positive")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return domainerrors.Internal("session is closed")
	}
	o.sleepDeadline = o.now().Add(time.Duration(minutes) * time.Minute)
	if o.sleepStop == nil {
		o.sleepStop = make(chan struct{})
		o.sleepDone = make(chan struct{})
		go o.sleepLoop(o.sleepStop, o.sleepDone)
	}
	o.logger.Debug("sleep timer armed", "minutes", minutes)
	return nil
}

// CancelSleepTimer disarms the sleep timer. Safe to call when none is
// armed.
func (o *Orchestrator) CancelSleepTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sleepDeadline = time.Time{}
	o.stopSleepLocked()
}

// SleepRemaining reports whole seconds left on the sleep timer, and whether
// one is armed.
func (o *Orchestrator) SleepRemaining() (int64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sleepRemainingLocked()
}

func (o *Orchestrator) sleepRemainingLocked() (int64, bool) {
	if o.sleepDeadline.IsZero() {
		return 0, false
	}
	left := o.sleepDeadline.Sub(o.now())
	if left < 0 {
		left = 0
	}
	return int64(left.Seconds()), true
}

// Snapshot returns a copy of the current session state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		BookID:       o.book.ID,
		Transport:    o.transport,
		ChapterIndex: o.chapterIndex,
		PositionMs:   o.positionMs,
		DurationMs:   o.durationMs,
		PlaybackRate: o.opts.Rates[o.rateIndex],
	}
	if ch := o.book.ChapterAt(o.chapterIndex); ch != nil {
		s.ChapterTitle = ch.Title
	}
	if left, ok := o.sleepRemainingLocked(); ok {
		s.SleepRemainingSeconds = &left
	}
	return s
}

// Close tears the session down: all timers stop, a final checkpoint is
// persisted if one is meaningful, and the engine is released. The
// orchestrator is unusable afterwards.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	pollStop, pollDone := o.pollStop, o.pollDone
	o.stopAutosaveLocked()
	o.stopSleepLocked()
	o.stopSaveTimerLocked()
	o.sleepDeadline = time.Time{}
	eng := o.eng
	o.eng = nil
	var cp *domain.Checkpoint
	if eng != nil && o.durationMs > 0 {
		c := o.checkpointLocked()
		cp = &c
	}
	o.mu.Unlock()

	if pollStop != nil {
		close(pollStop)
		<-pollDone
	}
	if cp != nil {
		o.persist(*cp)
	}
	if eng != nil {
		if err := eng.Close(); err != nil {
			o.logger.Warn("engine close failed", "error", err)
			return err
		}
	}
	o.logger.Debug("session closed")
	return nil
}

// pollLoop samples the engine until Close. There is exactly one per
// orchestrator regardless of how many chapters it plays.
func (o *Orchestrator) pollLoop() {
	defer close(o.pollDone)
	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-o.pollStop:
			return
		case <-ticker.C:
			o.pollTick()
		}
	}
}

// pollTick refreshes position and duration from the engine and handles
// end-of-chapter auto-advance.
func (o *Orchestrator) pollTick() {
	o.mu.Lock()
	if o.closed || o.eng == nil {
		o.mu.Unlock()
		return
	}
	o.syncPositionLocked()

	finished := o.transport == TransportPlaying &&
		o.durationMs > 0 &&
		o.positionMs >= o.durationMs-o.opts.EndToleranceMs
	if !finished {
		o.mu.Unlock()
		return
	}

	if next, ok := domain.NextChapterIndex(o.chapterIndex, o.book.ChapterCount()); ok {
		o.logger.Debug("chapter finished, advancing", "chapter_index", o.chapterIndex)
		if err := o.switchAndMaybeResumePlayLocked(context.Background(), next); err != nil {
			o.logger.Error("auto-advance failed", "error", err)
		}
		o.mu.Unlock()
		return
	}

	// Last chapter: stop at the end.
	if err := o.eng.Pause(); err != nil {
		o.logger.Warn("engine pause at end of book failed", "error", err)
	}
	o.transport = TransportPaused
	o.stopAutosaveLocked()
	cp := o.checkpointLocked()
	o.mu.Unlock()
	o.logger.Info("book finished", "chapter_index", cp.ChapterIndex)
	go o.persist(cp)
}

// syncPositionLocked pulls position and duration from the engine. The
// position reset after a chapter swap holds because swapping also swaps the
// engine the next tick reads from.
func (o *Orchestrator) syncPositionLocked() {
	if dur := o.eng.Duration(); dur > 0 {
		o.durationMs = int64(dur * 1000)
	}
	pos := int64(o.eng.Position() * 1000)
	if pos < 0 {
		pos = 0
	}
	if o.durationMs > 0 && pos > o.durationMs {
		pos = o.durationMs
	}
	o.positionMs = pos
}

func (o *Orchestrator) startAutosaveLocked() {
	if o.autosaveStop != nil {
		return
	}
	o.autosaveStop = make(chan struct{})
	o.autosaveDone = make(chan struct{})
	go o.autosaveLoop(o.autosaveStop, o.autosaveDone)
}

func (o *Orchestrator) stopAutosaveLocked() {
	if o.autosaveStop == nil {
		return
	}
	close(o.autosaveStop)
	o.autosaveStop = nil
	o.autosaveDone = nil
}

func (o *Orchestrator) autosaveLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(o.opts.AutosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.autosaveTick()
		}
	}
}

// autosaveTick persists progress while playing. Saves with no position or
// no known duration carry nothing worth keeping.
func (o *Orchestrator) autosaveTick() {
	o.mu.Lock()
	if o.closed || o.transport != TransportPlaying || o.positionMs <= 0 || o.durationMs <= 0 {
		o.mu.Unlock()
		return
	}
	cp := o.checkpointLocked()
	o.mu.Unlock()
	o.persist(cp)
}

func (o *Orchestrator) stopSleepLocked() {
	if o.sleepStop == nil {
		return
	}
	close(o.sleepStop)
	o.sleepStop = nil
	o.sleepDone = nil
}

func (o *Orchestrator) sleepLoop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(o.opts.SleepTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if o.sleepTick() {
				return
			}
		}
	}
}

// sleepTick checks the armed deadline and, once it passes, pauses playback
// and persists. The deadline is absolute, so a device suspend that sleeps
// past it fires on the first tick after wake instead of drifting. Reports
// whether the timer fired or was disarmed.
func (o *Orchestrator) sleepTick() bool {
	o.mu.Lock()
	if o.closed || o.sleepDeadline.IsZero() {
		o.mu.Unlock()
		return true
	}
	if o.now().Before(o.sleepDeadline) {
		o.mu.Unlock()
		return false
	}

	o.sleepDeadline = time.Time{}
	o.sleepStop = nil
	o.sleepDone = nil

	if o.transport != TransportPlaying || o.eng == nil {
		o.mu.Unlock()
		return true
	}
	if err := o.eng.Pause(); err != nil {
		o.mu.Unlock()
		o.notify(domainerrors.CodeAdapter, "sleep timer failed to pause playback")
		o.logger.Error("sleep timer pause failed", "error", err)
		return true
	}
	o.syncPositionLocked()
	o.transport = TransportPaused
	o.stopAutosaveLocked()
	cp := o.checkpointLocked()
	o.mu.Unlock()
	o.logger.Info("sleep timer fired, playback paused")
	o.persist(cp)
	return true
}

// checkpointLocked builds a checkpoint from the current state. Callers hold
// o.mu.
func (o *Orchestrator) checkpointLocked() domain.Checkpoint {
	return domain.Checkpoint{
		BookID:       o.book.ID,
		PositionMs:   o.positionMs,
		DurationMs:   o.durationMs,
		ChapterIndex: o.chapterIndex,
	}
}

// persist writes a checkpoint, never holding o.mu. Failures surface as a
// notice; playback continues.
func (o *Orchestrator) persist(cp domain.Checkpoint) {
	if cp.DurationMs <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.SaveCheckpoint(ctx, &cp); err != nil {
		o.notify(domainerrors.CodePersistence, "failed to save progress")
		o.logger.Error("checkpoint save failed", "position_ms", cp.PositionMs, "chapter_index", cp.ChapterIndex, "error", err)
		return
	}
	o.logger.Debug("checkpoint saved", "position_ms", cp.PositionMs, "chapter_index", cp.ChapterIndex)
}

func (o *Orchestrator) notify(code domainerrors.Code, msg string) {
	select {
	case o.notices <- Notice{Code: code, Message: msg}:
	default:
	}
}
