package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfplayapp/shelfplay-player/internal/domain"
	"github.com/shelfplayapp/shelfplay-player/internal/engine"
	domainerrors "github.com/shelfplayapp/shelfplay-player/internal/errors"
)

// fakeEngine is a scripted playback adapter. Position only moves when a test
// moves it.
type fakeEngine struct {
	mu       sync.Mutex
	source   string
	position float64
	duration float64
	playing  bool
	rate     float64
	closed   bool

	loadErr  error
	playErr  error
	pauseErr error
	seekErr  error

	playCalls  int
	pauseCalls int
	closeCalls int
	seeks      []float64
	rates      []float64
}

func (e *fakeEngine) Load(_ context.Context, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadErr != nil {
		return e.loadErr
	}
	e.source = source
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playCalls++
	if e.playErr != nil {
		return e.playErr
	}
	e.playing = true
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseCalls++
	if e.pauseErr != nil {
		return e.pauseErr
	}
	e.playing = false
	return nil
}

func (e *fakeEngine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seekErr != nil {
		return e.seekErr
	}
	e.seeks = append(e.seeks, seconds)
	e.position = seconds
	return nil
}

func (e *fakeEngine) SetRate(rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rates = append(e.rates, rate)
	e.rate = rate
	return nil
}

func (e *fakeEngine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *fakeEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeCalls++
	e.closed = true
	return nil
}

func (e *fakeEngine) setPosition(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = seconds
}

func (e *fakeEngine) setDuration(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.duration = seconds
}

// enginePool hands out fake engines and remembers them in creation order.
type enginePool struct {
	mu       sync.Mutex
	duration float64
	prepare  func(*fakeEngine)
	engines  []*fakeEngine
}

func newEnginePool(duration float64) *enginePool {
	return &enginePool{duration: duration}
}

func (p *enginePool) factory() engine.Engine {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := &fakeEngine{duration: p.duration}
	if p.prepare != nil {
		p.prepare(e)
	}
	p.engines = append(p.engines, e)
	return e
}

func (p *enginePool) current() *fakeEngine {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.engines) == 0 {
		return nil
	}
	return p.engines[len(p.engines)-1]
}

func (p *enginePool) created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.engines)
}

// memStore is an in-memory checkpoint store with the same stamping and
// validation behavior as the persistent backends.
type memStore struct {
	mu      sync.Mutex
	cps     map[string]domain.Checkpoint
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{cps: make(map[string]domain.Checkpoint)}
}

func (s *memStore) GetCheckpoint(_ context.Context, bookID string) (*domain.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.cps[bookID]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	cp.Clamp()
	return &cp, nil
}

func (s *memStore) SaveCheckpoint(_ context.Context, checkpoint *domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	if checkpoint.DurationMs <= 0 {
		return domainerrors.Validation("checkpoint duration must be positive")
	}
	cp := *checkpoint
	cp.Clamp()
	cp.LastPlayedAt = time.Now()
	s.cps[cp.BookID] = cp
	s.saves++
	return nil
}

func (s *memStore) DeleteCheckpoint(_ context.Context, bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cps, bookID)
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStore) get(bookID string) (domain.Checkpoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.cps[bookID]
	return cp, ok
}

func testBook(chapters int) *domain.Book {
	b := &domain.Book{ID: "book-test", Title: "Test Book"}
	names := []string{"01-intro.mp3", "02-middle.mp3", "03-end.mp3", "04-more.mp3"}
	for i := 0; i < chapters; i++ {
		b.Chapters = append(b.Chapters, domain.Chapter{
			ID:       names[i],
			Title:    names[i],
			Source:   "/library/" + names[i],
			Filename: names[i],
		})
	}
	return b
}

// testOptions parks the poll and autosave timers so tests drive ticks
// directly, and makes the deferred resume seek near-instant.
func testOptions() Options {
	o := DefaultOptions()
	o.PollInterval = time.Hour
	o.AutosaveInterval = time.Hour
	o.SleepTickInterval = 5 * time.Millisecond
	o.SeekRetryInterval = time.Millisecond
	o.SeekReadyTimeout = 250 * time.Millisecond
	o.SaveMinInterval = 0
	return o
}

func newTestOrchestrator(t *testing.T, book *domain.Book, store *memStore, pool *enginePool, opts Options) *Orchestrator {
	t.Helper()
	o, err := New(book, store, pool.factory, nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestNew_Validation(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()

	_, err := New(nil, st, pool.factory, nil, testOptions())
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = New(&domain.Book{ID: "empty"}, st, pool.factory, nil, testOptions())
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	bad := testOptions()
	bad.InitialRate = 1.33
	_, err = New(testBook(1), st, pool.factory, nil, bad)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLoad_StartsAtChapterZero(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(3), st, pool, testOptions())

	require.NoError(t, o.Load(context.Background(), true))

	snap := o.Snapshot()
	assert.Equal(t, TransportPaused, snap.Transport)
	assert.Equal(t, 0, snap.ChapterIndex)
	assert.Equal(t, int64(0), snap.PositionMs)
	assert.Equal(t, int64(90000), snap.DurationMs)
	assert.Equal(t, 1.0, snap.PlaybackRate)
	assert.Equal(t, "/library/01-intro.mp3", pool.current().source)
}

func TestLoad_ResumesSavedChapterAndPosition(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	st.cps["book-test"] = domain.Checkpoint{
		BookID: "book-test", PositionMs: 42000, DurationMs: 90000, ChapterIndex: 1,
	}
	o := newTestOrchestrator(t, testBook(3), st, pool, testOptions())

	require.NoError(t, o.Load(context.Background(), true))
	assert.Equal(t, 1, o.Snapshot().ChapterIndex)
	assert.Equal(t, "/library/02-middle.mp3", pool.current().source)

	// The resume seek is deferred until the engine reports a duration.
	require.Eventually(t, func() bool {
		return o.Snapshot().PositionMs == 42000
	}, time.Second, time.Millisecond)
	assert.Equal(t, []float64{42}, pool.current().seeks)
	assert.Equal(t, TransportPaused, o.Snapshot().Transport)
}

func TestLoad_ResumeWaitsForDuration(t *testing.T) {
	pool := newEnginePool(0)
	st := newMemStore()
	st.cps["book-test"] = domain.Checkpoint{
		BookID: "book-test", PositionMs: 30000, DurationMs: 90000, ChapterIndex: 0,
	}
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())

	require.NoError(t, o.Load(context.Background(), true))
	assert.Empty(t, pool.current().seeks)

	pool.current().setDuration(90)
	require.Eventually(t, func() bool {
		return o.Snapshot().PositionMs == 30000
	}, time.Second, time.Millisecond)
}

func TestLoad_InvalidCheckpointChapterStartsOver(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	st.cps["book-test"] = domain.Checkpoint{
		BookID: "book-test", PositionMs: 5000, DurationMs: 90000, ChapterIndex: 7,
	}
	o := newTestOrchestrator(t, testBook(2), st, pool, testOptions())

	require.NoError(t, o.Load(context.Background(), true))
	snap := o.Snapshot()
	assert.Equal(t, 0, snap.ChapterIndex)
	assert.Equal(t, int64(0), snap.PositionMs)
}

func TestLoad_WithoutResumeIgnoresCheckpoint(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	st.cps["book-test"] = domain.Checkpoint{
		BookID: "book-test", PositionMs: 42000, DurationMs: 90000, ChapterIndex: 1,
	}
	o := newTestOrchestrator(t, testBook(3), st, pool, testOptions())

	require.NoError(t, o.Load(context.Background(), false))
	snap := o.Snapshot()
	assert.Equal(t, 0, snap.ChapterIndex)
	assert.Equal(t, int64(0), snap.PositionMs)
}

func TestLoad_EngineFailureResolvesToIdle(t *testing.T) {
	pool := newEnginePool(90)
	pool.prepare = func(e *fakeEngine) { e.loadErr = domainerrors.Internal("no decoder") }
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())

	err := o.Load(context.Background(), false)
	require.ErrorIs(t, err, domainerrors.ErrAdapter)
	assert.Equal(t, TransportIdle, o.Snapshot().Transport)
	assert.True(t, pool.current().closed)

	select {
	case n := <-o.Notices():
		assert.Equal(t, domainerrors.CodeAdapter, n.Code)
	default:
		t.Fatal("expected an adapter notice")
	}
}

func TestTogglePlayPause(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	require.NoError(t, o.TogglePlayPause())
	assert.Equal(t, TransportPlaying, o.Snapshot().Transport)
	assert.True(t, pool.current().IsPlaying())

	pool.current().setPosition(12.5)
	require.NoError(t, o.TogglePlayPause())
	assert.Equal(t, TransportPaused, o.Snapshot().Transport)
	assert.False(t, pool.current().IsPlaying())

	// Pausing persists synchronously.
	cp, ok := st.get("book-test")
	require.True(t, ok)
	assert.Equal(t, int64(12500), cp.PositionMs)
	assert.Equal(t, int64(90000), cp.DurationMs)
	assert.Equal(t, 0, cp.ChapterIndex)
	assert.False(t, cp.LastPlayedAt.IsZero())
}

func TestTogglePlayPause_RapidTogglesPersistOncePerPause(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	pool.current().setPosition(10)

	for i := 0; i < 6; i++ {
		require.NoError(t, o.TogglePlayPause())
	}
	assert.Equal(t, 3, st.saveCount())
}

func TestTogglePlayPause_NoChapterIsNoop(t *testing.T) {
	pool := newEnginePool(90)
	o := newTestOrchestrator(t, testBook(1), newMemStore(), pool, testOptions())
	assert.NoError(t, o.TogglePlayPause())
	assert.Equal(t, TransportIdle, o.Snapshot().Transport)
}

func TestSeekTo_Clamps(t *testing.T) {
	tests := []struct {
		name   string
		target int64
		want   int64
	}{
		{"negative clamps to start", -5000, 0},
		{"within range is exact", 42000, 42000},
		{"beyond end clamps to duration", 500000, 90000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newEnginePool(90)
			st := newMemStore()
			o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
			require.NoError(t, o.Load(context.Background(), false))

			require.NoError(t, o.SeekTo(tt.target))
			assert.Equal(t, tt.want, o.Snapshot().PositionMs)
			assert.Equal(t, float64(tt.want)/1000, pool.current().seeks[0])

			cp, ok := st.get("book-test")
			require.True(t, ok)
			assert.Equal(t, tt.want, cp.PositionMs)
		})
	}
}

func TestSeekTo_UnknownDurationRefused(t *testing.T) {
	pool := newEnginePool(0)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	err := o.SeekTo(30000)
	require.ErrorIs(t, err, domainerrors.ErrSeekUnavailable)
	assert.Empty(t, pool.current().seeks)
	assert.Equal(t, int64(0), o.Snapshot().PositionMs)
	assert.Equal(t, 0, st.saveCount())
}

func TestSeekTo_UnsupportedFormat(t *testing.T) {
	pool := newEnginePool(90)
	pool.prepare = func(e *fakeEngine) { e.seekErr = engine.ErrSeekUnsupported }
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	err := o.SeekTo(30000)
	require.ErrorIs(t, err, domainerrors.ErrSeekUnavailable)
	assert.Equal(t, int64(0), o.Snapshot().PositionMs)
	assert.Equal(t, 0, st.saveCount())
}

func TestSeekTo_ThrottlesOpportunisticSaves(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	opts := testOptions()
	opts.SaveMinInterval = time.Minute
	o := newTestOrchestrator(t, testBook(1), st, pool, opts)
	require.NoError(t, o.Load(context.Background(), false))

	require.NoError(t, o.SeekTo(10000))
	require.NoError(t, o.SeekTo(20000))
	require.NoError(t, o.SeekTo(30000))

	// Every seek still lands on the engine, but only the first persists
	// right away; the rest wait for the trailing save.
	assert.Len(t, pool.current().seeks, 3)
	assert.Equal(t, 1, st.saveCount())
	assert.Equal(t, int64(30000), o.Snapshot().PositionMs)
}

func TestSeekTo_TrailingSavePersistsLastSeek(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	opts := testOptions()
	opts.SaveMinInterval = 20 * time.Millisecond
	o := newTestOrchestrator(t, testBook(1), st, pool, opts)
	require.NoError(t, o.Load(context.Background(), false))

	require.NoError(t, o.SeekTo(10000))
	require.NoError(t, o.SeekTo(20000))
	require.NoError(t, o.SeekTo(30000))
	assert.Equal(t, 1, st.saveCount())

	// The throttled seeks persist once the window passes, at the latest
	// position rather than the one the limiter dropped.
	require.Eventually(t, func() bool { return st.saveCount() >= 2 }, time.Second, 5*time.Millisecond)
	cp, ok := st.get("book-test")
	require.True(t, ok)
	assert.Equal(t, int64(30000), cp.PositionMs)
}

func TestSkip_Defaults(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	require.NoError(t, o.SeekTo(30000))
	require.NoError(t, o.SkipForward(0))
	assert.Equal(t, int64(45000), o.Snapshot().PositionMs)

	require.NoError(t, o.SkipBackward(0))
	assert.Equal(t, int64(30000), o.Snapshot().PositionMs)

	require.NoError(t, o.SkipBackward(60000))
	assert.Equal(t, int64(0), o.Snapshot().PositionMs)

	require.NoError(t, o.SkipForward(600000))
	assert.Equal(t, int64(90000), o.Snapshot().PositionMs)
}

func TestChapterNavigation(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(3), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	ctx := context.Background()

	require.NoError(t, o.SeekTo(42000))
	require.NoError(t, o.NextChapter(ctx))
	snap := o.Snapshot()
	assert.Equal(t, 1, snap.ChapterIndex)
	assert.Equal(t, int64(0), snap.PositionMs)
	assert.Equal(t, "/library/02-middle.mp3", pool.current().source)

	require.Eventually(t, func() bool {
		cp, ok := st.get("book-test")
		return ok && cp.ChapterIndex == 1 && cp.PositionMs == 0
	}, time.Second, time.Millisecond)

	require.NoError(t, o.PreviousChapter(ctx))
	assert.Equal(t, 0, o.Snapshot().ChapterIndex)
}

func TestChapterNavigation_BoundariesAreNoops(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(2), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	ctx := context.Background()

	created := pool.created()
	require.NoError(t, o.PreviousChapter(ctx))
	assert.Equal(t, 0, o.Snapshot().ChapterIndex)
	assert.Equal(t, created, pool.created())

	require.NoError(t, o.NextChapter(ctx))
	require.NoError(t, o.NextChapter(ctx))
	assert.Equal(t, 1, o.Snapshot().ChapterIndex)
}

func TestChapterNavigation_KeepsPlaying(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(2), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	require.NoError(t, o.TogglePlayPause())

	require.NoError(t, o.NextChapter(context.Background()))
	assert.Equal(t, TransportPlaying, o.Snapshot().Transport)
	assert.True(t, pool.current().IsPlaying())
}

func TestPollTick_AutoAdvancesOnce(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(2), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	require.NoError(t, o.TogglePlayPause())

	// Within the end tolerance of chapter 0.
	pool.current().setPosition(89.8)
	o.pollTick()

	snap := o.Snapshot()
	assert.Equal(t, 1, snap.ChapterIndex)
	assert.Equal(t, int64(0), snap.PositionMs)
	assert.Equal(t, TransportPlaying, snap.Transport)
	assert.True(t, pool.current().IsPlaying())

	// The fresh engine starts at zero, so the next tick must not advance
	// again.
	o.pollTick()
	assert.Equal(t, 1, o.Snapshot().ChapterIndex)
	assert.Equal(t, 2, pool.created())
}

func TestPollTick_LastChapterPausesAtEnd(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	require.NoError(t, o.TogglePlayPause())

	pool.current().setPosition(90)
	o.pollTick()

	snap := o.Snapshot()
	assert.Equal(t, TransportPaused, snap.Transport)
	assert.Equal(t, 0, snap.ChapterIndex)
	assert.Equal(t, int64(90000), snap.PositionMs)
	assert.False(t, pool.current().IsPlaying())

	require.Eventually(t, func() bool {
		cp, ok := st.get("book-test")
		return ok && cp.PositionMs == 90000
	}, time.Second, time.Millisecond)
}

func TestPollTick_PausedDoesNotAdvance(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(2), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	pool.current().setPosition(90)
	o.pollTick()
	assert.Equal(t, 0, o.Snapshot().ChapterIndex)
	assert.Equal(t, TransportPaused, o.Snapshot().Transport)
}

func TestAutosaveTick(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	// Not playing: nothing to save.
	o.autosaveTick()
	assert.Equal(t, 0, st.saveCount())

	require.NoError(t, o.TogglePlayPause())
	pool.current().setPosition(33)
	o.pollTick()
	o.autosaveTick()

	cp, ok := st.get("book-test")
	require.True(t, ok)
	assert.Equal(t, int64(33000), cp.PositionMs)
}

func TestRates(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	want := []float64{1.25, 1.5, 2.0, 0.5, 0.75, 1.0}
	for _, w := range want {
		got, err := o.CycleRate()
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}
	assert.Equal(t, 1.0, o.Snapshot().PlaybackRate)

	require.NoError(t, o.SetRate(1.5))
	assert.Equal(t, 1.5, o.Snapshot().PlaybackRate)

	err := o.SetRate(1.33)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, 1.5, o.Snapshot().PlaybackRate)
}

func TestSleepTimer_FiresAtDeadline(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	require.NoError(t, o.TogglePlayPause())
	pool.current().setPosition(25)

	var clockMu sync.Mutex
	base := time.Now()
	o.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return base
	}

	require.NoError(t, o.SetSleepTimer(15))
	left, armed := o.SleepRemaining()
	require.True(t, armed)
	assert.Equal(t, int64(15*60), left)
	assert.Equal(t, TransportPlaying, o.Snapshot().Transport)

	clockMu.Lock()
	base = base.Add(15*time.Minute + time.Second)
	clockMu.Unlock()

	require.Eventually(t, func() bool {
		return o.Snapshot().Transport == TransportPaused
	}, time.Second, time.Millisecond)
	assert.False(t, pool.current().IsPlaying())

	_, armed = o.SleepRemaining()
	assert.False(t, armed)

	cp, ok := st.get("book-test")
	require.True(t, ok)
	assert.Equal(t, int64(25000), cp.PositionMs)
}

func TestSleepTimer_CancelDisarms(t *testing.T) {
	pool := newEnginePool(90)
	o := newTestOrchestrator(t, testBook(1), newMemStore(), pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	require.NoError(t, o.SetSleepTimer(5))
	_, armed := o.SleepRemaining()
	require.True(t, armed)

	o.CancelSleepTimer()
	_, armed = o.SleepRemaining()
	assert.False(t, armed)

	// Canceling when nothing is armed stays quiet.
	o.CancelSleepTimer()
}

func TestSleepTimer_RearmReplacesDeadline(t *testing.T) {
	pool := newEnginePool(90)
	o := newTestOrchestrator(t, testBook(1), newMemStore(), pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	require.NoError(t, o.SetSleepTimer(30))
	require.NoError(t, o.SetSleepTimer(5))
	left, armed := o.SleepRemaining()
	require.True(t, armed)
	assert.LessOrEqual(t, left, int64(5*60))
}

func TestSleepTimer_RejectsNonPositiveMinutes(t *testing.T) {
	pool := newEnginePool(90)
	o := newTestOrchestrator(t, testBook(1), newMemStore(), pool, testOptions())
	assert.ErrorIs(t, o.SetSleepTimer(0), domainerrors.ErrValidation)
	assert.ErrorIs(t, o.SetSleepTimer(-3), domainerrors.ErrValidation)
}

func TestPersistenceFailureSurfacesAsNotice(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	st.saveErr = domainerrors.Persistence("disk full")
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	require.NoError(t, o.TogglePlayPause())
	pool.current().setPosition(10)

	// Pause still succeeds even though the save fails.
	require.NoError(t, o.TogglePlayPause())
	assert.Equal(t, TransportPaused, o.Snapshot().Transport)

	select {
	case n := <-o.Notices():
		assert.Equal(t, domainerrors.CodePersistence, n.Code)
	default:
		t.Fatal("expected a persistence notice")
	}
}

func TestAdapterFailureKeepsState(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	pool.current().mu.Lock()
	pool.current().playErr = domainerrors.Internal("focus lost")
	pool.current().mu.Unlock()

	err := o.TogglePlayPause()
	require.ErrorIs(t, err, domainerrors.ErrAdapter)
	assert.Equal(t, TransportPaused, o.Snapshot().Transport)
}

func TestClose(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(1), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))
	require.NoError(t, o.TogglePlayPause())
	pool.current().setPosition(40)
	o.pollTick()

	require.NoError(t, o.Close())
	assert.True(t, pool.current().closed)

	// The final checkpoint survives teardown.
	cp, ok := st.get("book-test")
	require.True(t, ok)
	assert.Equal(t, int64(40000), cp.PositionMs)

	// Everything after Close is inert.
	require.NoError(t, o.Close())
	assert.NoError(t, o.TogglePlayPause())
	assert.ErrorIs(t, o.Load(context.Background(), false), domainerrors.ErrInternal)
}

func TestSnapshotIsACopy(t *testing.T) {
	pool := newEnginePool(90)
	st := newMemStore()
	o := newTestOrchestrator(t, testBook(2), st, pool, testOptions())
	require.NoError(t, o.Load(context.Background(), false))

	before := o.Snapshot()
	require.NoError(t, o.SeekTo(50000))
	assert.Equal(t, int64(0), before.PositionMs)
	assert.Equal(t, int64(50000), o.Snapshot().PositionMs)
}
