/*
sweeper.go - Background retention sweeps for server mode

PURPOSE:
  The CLI sweeps the dispute log inline every few thousand records; a
  server has no such natural cadence, so this runs sweeps from a ticker
  instead. Each pass locks the handler, evicts the oldest undisputed
  entries past the cap, and logs what it removed.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Locks the handler for each sweep, so it never races a request
  - No-op when retention is not configured

USAGE:
  sweeper := api.NewSweeper(handler, cfg.SweepInterval, logger)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - payments/retention.go: The sweep this schedules
  - cmd/server/main.go: Start/Stop wiring
*/
package api

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically bounds the dispute log of a running server.
type Sweeper struct {
	Handler  *Handler
	Interval time.Duration

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweeper creates a sweeper for the handler's retention policy.
func NewSweeper(h *Handler, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		Handler:  h,
		Interval: interval,
		logger:   logger,
		stop:     make(chan bool),
	}
}

// Start begins the sweep loop. Does nothing when the handler carries no
// retention policy or the interval is unset.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Handler.retention == nil || s.Interval <= 0 {
		s.logger.Info("retention sweeper disabled")
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)

	go s.run()

	s.logger.Info("retention sweeper started",
		zap.Duration("interval", s.Interval),
		zap.Int("max_entries", s.Handler.maxEntries))
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.logger.Info("retention sweeper stopped")
	}
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	h := s.Handler

	h.mu.Lock()
	evicted, err := h.retention.Sweep()
	h.mu.Unlock()

	if err != nil {
		s.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	if evicted > 0 {
		s.logger.Info("retention sweep evicted entries", zap.Int("evicted", evicted))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (s *Sweeper) RunNow() {
	s.sweep()
}
