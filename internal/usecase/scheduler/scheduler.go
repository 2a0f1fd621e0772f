// Package scheduler drives recurring sync jobs on timers and on debounced
// manual triggers.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

// DefaultDebounce is used when a job does not set its own window.
const DefaultDebounce = 500 * time.Millisecond

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// JobSpec registers a job.
type JobSpec struct {
	Name       string
	Interval   time.Duration
	Debounce   time.Duration
	RunOnStart bool
	Run        Job
}

// Scheduler runs each job on its own ticker. A job never overlaps itself:
// ticks that land while it runs are skipped, and triggers that land while
// it runs queue exactly one rerun.
type Scheduler struct {
	entries map[string]*entry
	mu      sync.RWMutex
	stopCh  chan struct{}
	stopped bool
	wg      sync.WaitGroup
	baseCtx context.Context
	log     zerolog.Logger
	nowFn   func() time.Time
}

type entry struct {
	spec    JobSpec
	lastRun time.Time
	nextRun time.Time
	timer   *time.Timer // debounce, guarded by Scheduler.mu
	gen     uint64      // guarded by Scheduler.mu
	running atomic.Bool
	rerun   atomic.Bool
}

// NewScheduler creates a scheduler instance.
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
		baseCtx: context.Background(),
		log:     log.With().Str(logging.FieldComponent, "scheduler").Logger(),
		nowFn:   time.Now,
	}
}

// Add registers a job.
func (s *Scheduler) Add(spec JobSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("name is required")
	}
	if spec.Run == nil {
		return fmt.Errorf("job is required")
	}
	if spec.Interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", spec.Name)
	}
	if spec.Debounce <= 0 {
		spec.Debounce = DefaultDebounce
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[spec.Name]; exists {
		return fmt.Errorf("job %q already exists", spec.Name)
	}

	s.entries[spec.Name] = &entry{
		spec:    spec,
		nextRun: s.nowFn().Add(spec.Interval),
	}
	return nil
}

// Start begins one ticker loop per job.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	entries := s.snapshotLocked()
	s.mu.Unlock()

	for _, e := range entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

// Stop stops the ticker loops and pending triggers, and waits for running
// jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// List returns the current job states sorted by name.
func (s *Scheduler) List() []domain.JobEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.JobEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, domain.JobEntry{
			Name:     e.spec.Name,
			Interval: e.spec.Interval,
			LastRun:  e.lastRun,
			NextRun:  e.nextRun,
			Running:  e.running.Load(),
			Pending:  e.timer != nil || e.rerun.Load(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// RunNow runs a job synchronously, failing when it is already running.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	e := s.getEntry(name)
	if e == nil {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, name)
	}
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", domain.ErrCycleInProgress, name)
	}
	return s.runHeld(ctx, e)
}

// Trigger asks for a run once the job's debounce window passes without a
// further trigger.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrJobNotFound, name)
	}
	if s.stopped {
		return nil
	}

	if e.timer != nil && e.timer.Stop() {
		e.timer.Reset(e.spec.Debounce)
		return nil
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(e.spec.Debounce, func() { s.fire(e, gen) })
	return nil
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	if e.spec.RunOnStart {
		s.tick(ctx, e)
	}

	ticker := time.NewTicker(e.spec.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx, e)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		s.log.Debug().Str(logging.FieldJob, e.spec.Name).Msg("job still running, skipping tick")
		return
	}
	_ = s.runHeld(ctx, e)
}

func (s *Scheduler) fire(e *entry, gen uint64) {
	s.mu.Lock()
	if e.gen == gen {
		e.timer = nil
	}
	if s.stopped {
		s.mu.Unlock()
		return
	}
	ctx := s.baseCtx
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if !acquireOrQueue(e) {
		s.log.Debug().Str(logging.FieldJob, e.spec.Name).Msg("job running, rerun queued")
		return
	}
	_ = s.runHeld(ctx, e)
}

// acquireOrQueue marks e running, or queues a rerun for the current holder.
// The flag is set before the running check so a holder that stops running
// afterwards still sees it in runHeld.
func acquireOrQueue(e *entry) bool {
	e.rerun.Store(true)
	if !e.running.CompareAndSwap(false, true) {
		return false
	}
	e.rerun.Store(false)
	return true
}

// runHeld runs e, which the caller has marked running, and then any rerun
// queued meanwhile. It returns the error of the first run.
func (s *Scheduler) runHeld(ctx context.Context, e *entry) error {
	first := true
	var firstErr error
	for {
		err := s.execute(ctx, e)
		if first {
			firstErr, first = err, false
		}
		e.running.Store(false)

		if !e.rerun.Swap(false) {
			return firstErr
		}
		if !acquireOrQueue(e) {
			return firstErr
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) error {
	log := s.log.With().Str(logging.FieldJob, e.spec.Name).Logger()
	ctx = logging.WithCtx(ctx, log)

	start := s.nowFn()
	err := e.spec.Run(ctx)

	s.mu.Lock()
	e.lastRun = start
	e.nextRun = start.Add(e.spec.Interval)
	s.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Dur(logging.FieldDuration, s.nowFn().Sub(start)).Msg("scheduled job failed")
	} else {
		log.Debug().Dur(logging.FieldDuration, s.nowFn().Sub(start)).Msg("scheduled job finished")
	}
	return err
}

func (s *Scheduler) getEntry(name string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[name]
}

func (s *Scheduler) snapshotLocked() []*entry {
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	return entries
}
