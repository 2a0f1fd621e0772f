package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoshift/neppage/internal/domain"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(zerolog.Nop())
	t.Cleanup(s.Stop)
	return s
}

func TestSchedulerAdd_Validation(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add(JobSpec{Interval: time.Second, Run: noop}))
	assert.Error(t, s.Add(JobSpec{Name: "a", Interval: time.Second}))
	assert.Error(t, s.Add(JobSpec{Name: "a", Run: noop}))

	require.NoError(t, s.Add(JobSpec{Name: "a", Interval: time.Second, Run: noop}))
	assert.Error(t, s.Add(JobSpec{Name: "a", Interval: time.Second, Run: noop}))
}

func TestSchedulerRunNowAndList(t *testing.T) {
	s := newTestScheduler(t)
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	s.nowFn = func() time.Time { return now }

	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Minute, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))

	require.NoError(t, s.RunNow(context.Background(), "pages"))
	assert.Equal(t, int32(1), runs.Load())

	entries := s.List()
	require.Len(t, entries, 1)
	assert.Equal(t, now, entries[0].LastRun)
	assert.Equal(t, now.Add(time.Minute), entries[0].NextRun)
	assert.False(t, entries[0].Running)

	err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestSchedulerRunNow_ReturnsJobError(t *testing.T) {
	s := newTestScheduler(t)
	boom := errors.New("boom")
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Minute, Run: func(context.Context) error {
		return boom
	}}))

	assert.ErrorIs(t, s.RunNow(context.Background(), "pages"), boom)
}

func TestSchedulerRunNow_NonReentrant(t *testing.T) {
	s := newTestScheduler(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Minute, Run: func(context.Context) error {
		close(entered)
		<-release
		return nil
	}}))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "pages") }()
	<-entered

	err := s.RunNow(context.Background(), "pages")
	assert.ErrorIs(t, err, domain.ErrCycleInProgress)

	close(release)
	require.NoError(t, <-done)
}

func TestSchedulerTrigger_Coalesces(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{
		Name:     "files",
		Interval: time.Hour,
		Debounce: 50 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	for range 5 {
		require.NoError(t, s.Trigger("files"))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestSchedulerTrigger_IndependentWindows(t *testing.T) {
	s := newTestScheduler(t)
	var pages, files atomic.Int32
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Hour, Debounce: 20 * time.Millisecond,
		Run: func(context.Context) error { pages.Add(1); return nil }}))
	require.NoError(t, s.Add(JobSpec{Name: "files", Interval: time.Hour, Debounce: 20 * time.Millisecond,
		Run: func(context.Context) error { files.Add(1); return nil }}))

	require.NoError(t, s.Trigger("pages"))
	require.NoError(t, s.Trigger("files"))

	assert.Eventually(t, func() bool { return pages.Load() == 1 && files.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSchedulerTrigger_QueuesRerunWhileRunning(t *testing.T) {
	s := newTestScheduler(t)
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{
		Name:     "pages",
		Interval: time.Hour,
		Debounce: 10 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			entered <- struct{}{}
			<-release
			return nil
		},
	}))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "pages") }()
	<-entered

	// Two triggers while running collapse into one queued rerun.
	require.NoError(t, s.Trigger("pages"))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Trigger("pages"))
	time.Sleep(30 * time.Millisecond)

	close(release)
	require.NoError(t, <-done)

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
}

func TestSchedulerTrigger_UnknownJob(t *testing.T) {
	s := newTestScheduler(t)
	assert.ErrorIs(t, s.Trigger("nope"), domain.ErrJobNotFound)
}

func TestSchedulerStart_RunOnStartAndTicks(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{
		Name:       "pages",
		Interval:   20 * time.Millisecond,
		RunOnStart: true,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestSchedulerTick_SkippedWhileRunning(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{
		Name:       "files",
		Interval:   10 * time.Millisecond,
		RunOnStart: true,
		Run: func(context.Context) error {
			if runs.Add(1) == 1 {
				<-release
			}
			return nil
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	// Many ticks elapse while the first run blocks.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	close(release)
	s.Stop()
}

func TestTriggerHandler(t *testing.T) {
	s := newTestScheduler(t)
	var files atomic.Int32
	require.NoError(t, s.Add(JobSpec{Name: domain.JobFiles, Interval: time.Hour, Debounce: 10 * time.Millisecond,
		Run: func(context.Context) error { files.Add(1); return nil }}))
	require.NoError(t, s.Add(JobSpec{Name: domain.JobPages, Interval: time.Hour,
		Run: func(context.Context) error { return nil }}))

	h := NewTriggerHandler(s)
	assert.True(t, h.CanHandle(domain.EventManualReload))
	assert.True(t, h.CanHandle(domain.EventPagesRefreshed))
	assert.False(t, h.CanHandle("other"))

	require.NoError(t, h.Handle(context.Background(), domain.Event{Type: domain.EventPagesRefreshed}))
	assert.Eventually(t, func() bool { return files.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSchedulerFire_QueuesForHolder(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))
	e := s.getEntry("pages")

	// Another run holds the job when the debounce window elapses.
	require.True(t, e.running.CompareAndSwap(false, true))
	s.fire(e, 0)
	assert.Zero(t, runs.Load())
	assert.True(t, s.List()[0].Pending)

	// The holder picks the queued run up once its own run returns.
	require.NoError(t, s.runHeld(context.Background(), e))
	assert.Equal(t, int32(2), runs.Load())
	assert.False(t, e.running.Load())
	assert.False(t, s.List()[0].Pending)
}

func TestSchedulerFire_IdleRunsOnce(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))
	e := s.getEntry("pages")

	s.fire(e, 0)
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, s.List()[0].Pending)
}

func TestSchedulerFire_RacingRunNowLeavesNothingPending(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Add(JobSpec{Name: "files", Interval: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}}))
	e := s.getEntry("files")

	for i := 0; i < 2000; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.RunNow(context.Background(), "files")
		}()
		go func() {
			defer wg.Done()
			s.fire(e, 0)
		}()
		wg.Wait()

		require.False(t, e.rerun.Load(), "iteration %d stranded a rerun", i)
		require.False(t, e.running.Load(), "iteration %d left the job running", i)
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(2000))
}

func TestScheduler_LogsComponent(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(zerolog.New(&buf).Level(zerolog.DebugLevel))
	t.Cleanup(s.Stop)
	require.NoError(t, s.Add(JobSpec{Name: "pages", Interval: time.Hour, Run: func(context.Context) error { return nil }}))

	require.NoError(t, s.RunNow(context.Background(), "pages"))

	assert.Contains(t, buf.String(), `"component":"scheduler"`)
	assert.Contains(t, buf.String(), `"job":"pages"`)
}
