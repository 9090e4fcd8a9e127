package service

import (
	"context"
	"sync"
	"time"

	"auctionhouse-api/internal/repository"

	"go.uber.org/zap"
)

// Sweeper periodically deletes exhausted listing rows. These are rows
// whose remaining quantity reached zero without being deleted in the
// same transaction, which the guarded decrement normally prevents; the
// sweep is a safety net, not a load-bearing path.
type Sweeper struct {
	store    repository.Store
	interval time.Duration
	log      *zap.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSweeper creates a sweeper. A zero interval defaults to 30 minutes.
func NewSweeper(store repository.Store, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep. The first run fires after one full
// interval.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	s.log.Info("sweeper started", zap.Duration("interval", s.interval))

	go s.run()
}

func (s *Sweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.sweep()
		case <-s.stopCh:
			s.log.Info("sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) sweep() {
	removed, err := s.RunNow()
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.log.Info("swept exhausted listings", zap.Int64("removed", removed))
	}
}

// RunNow performs one sweep immediately and returns the rows removed.
func (s *Sweeper) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return s.store.SweepExhausted(ctx)
}

// Stop halts the periodic sweep. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
