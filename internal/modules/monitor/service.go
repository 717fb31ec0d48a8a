// Package monitor drives the poll schedules: one independent loop per
// enabled account, sharing only the state store and the rate governor.
package monitor

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	accountRepo "tweetwatch/internal/modules/account/repository"
	"tweetwatch/internal/modules/detect"
	"tweetwatch/internal/modules/dispatch"
	snapshotDomain "tweetwatch/internal/modules/snapshot/domain"
)

// Fetcher is the remote tweet API collaborator
type Fetcher interface {
	FetchSnapshot(ctx context.Context, handle string) (*snapshotDomain.Snapshot, error)
}

// Governor gates remote fetch calls against the spend budget
type Governor interface {
	AcquireN(ctx context.Context, n int) error
}

// Dispatcher delivers one event to a terminal outcome
type Dispatcher interface {
	Dispatch(ctx context.Context, event detect.Event) dispatch.Outcome
}

// Config tunes the scheduling
type Config struct {
	Interval time.Duration
	// JitterPercent randomizes each tick by ±N% so account schedules do not
	// fire in synchronized bursts.
	JitterPercent int
	// CycleTimeout bounds one fetch+dispatch cycle; a disabled account's
	// in-flight cycle is allowed to finish within this budget.
	CycleTimeout time.Duration
	// CallsPerPoll is how many remote API calls one snapshot fetch costs.
	CallsPerPoll int
	Detector     detect.Options
}

// DefaultConfig returns the default scheduling configuration
func DefaultConfig() Config {
	return Config{
		Interval:      60 * time.Second,
		JitterPercent: 10,
		CycleTimeout:  30*time.Second + 5*(5*time.Minute),
		CallsPerPoll:  2,
		Detector:      detect.DefaultOptions(),
	}
}

// Service runs the per-account poll loops. It is restartable: Stop cancels
// all loops and waits for in-flight cycles, Start brings them back from the
// registry.
type Service struct {
	cfg        Config
	states     accountRepo.StateStore
	dispatcher Dispatcher
	fetcher    Fetcher
	governor   Governor
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	loops   map[string]context.CancelFunc
	wg      sync.WaitGroup

	// degraded tracks accounts whose last fetch failed with an auth error.
	// They stay on schedule until credentials are fixed or they are removed.
	dmu      sync.Mutex
	degraded map[string]bool
}

// New creates the scheduler
func New(cfg Config, states accountRepo.StateStore, dispatcher Dispatcher, fetcher Fetcher, governor Governor) *Service {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.JitterPercent <= 0 {
		cfg.JitterPercent = def.JitterPercent
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = def.CycleTimeout
	}
	if cfg.CallsPerPoll <= 0 {
		cfg.CallsPerPoll = def.CallsPerPoll
	}

	return &Service{
		cfg:        cfg,
		states:     states,
		dispatcher: dispatcher,
		fetcher:    fetcher,
		governor:   governor,
		logger:     slog.Default(),
		loops:      make(map[string]context.CancelFunc),
		degraded:   make(map[string]bool),
	}
}

// SetLogger sets the logger
func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start begins scheduling for the given handles. Calling Start on a running
// service is a no-op.
func (s *Service) Start(handles []string) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	for _, handle := range handles {
		s.Watch(handle)
	}

	s.logger.Info("Monitor started", "accounts", len(handles))
}

// Stop cancels all schedules and waits for in-flight cycles to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.loops = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Monitor stopped")
}

// Running reports whether the scheduler is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Watched returns the handles with an active schedule.
func (s *Service) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	handles := make([]string, 0, len(s.loops))
	for handle := range s.loops {
		handles = append(handles, handle)
	}
	return handles
}

// Watch starts one independent schedule for the handle. Watching an already
// watched handle is a no-op; other schedules are unaffected.
func (s *Service) Watch(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if _, ok := s.loops[handle]; ok {
		return
	}

	loopCtx, cancel := context.WithCancel(s.runCtx)
	s.loops[handle] = cancel
	runCtx := s.runCtx

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(loopCtx, runCtx, handle)
	}()
}

// Unwatch stops future ticks for the handle. An in-flight cycle completes
// within its timeout; other schedules are unaffected.
func (s *Service) Unwatch(handle string) {
	s.mu.Lock()
	cancel, ok := s.loops[handle]
	if ok {
		delete(s.loops, handle)
	}
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

// loop ticks on a jittered interval. loopCtx stops future ticks (per-account
// disable); cycles themselves run against runCtx so an unwatch lets the
// in-flight cycle finish instead of corrupting half-advanced state.
func (s *Service) loop(loopCtx, runCtx context.Context, handle string) {
	s.logger.Info("Schedule started", "handle", handle)

	// Initial check: a freshly added account gets its baseline right away
	// instead of one interval later.
	cycleCtx, cancel := context.WithTimeout(runCtx, s.cfg.CycleTimeout)
	s.runCycle(cycleCtx, handle)
	cancel()

	for {
		timer := time.NewTimer(s.jittered())
		select {
		case <-loopCtx.Done():
			timer.Stop()
			s.logger.Info("Schedule stopped", "handle", handle)
			return
		case <-timer.C:
		}

		cycleCtx, cancel := context.WithTimeout(runCtx, s.cfg.CycleTimeout)
		s.runCycle(cycleCtx, handle)
		cancel()
	}
}

func (s *Service) markDegraded(handle string) {
	s.dmu.Lock()
	s.degraded[handle] = true
	s.dmu.Unlock()
}

func (s *Service) clearDegraded(handle string) {
	s.dmu.Lock()
	delete(s.degraded, handle)
	s.dmu.Unlock()
}

// Degraded returns the handles whose last fetch failed with an auth error.
func (s *Service) Degraded() []string {
	s.dmu.Lock()
	defer s.dmu.Unlock()

	handles := make([]string, 0, len(s.degraded))
	for handle := range s.degraded {
		handles = append(handles, handle)
	}
	return handles
}

func (s *Service) jittered() time.Duration {
	interval := s.cfg.Interval
	span := interval * time.Duration(s.cfg.JitterPercent) / 100
	if span <= 0 {
		return interval
	}
	return interval - span + time.Duration(rand.Int63n(int64(2*span)))
}
