package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher is the slice of the pipeline the scheduler drives.
type Refresher interface {
	RefreshAllFeeds(ctx context.Context) error
}

// Scheduler triggers a full feed refresh at a fixed interval, plus once at
// startup. It runs at process level, independent of any client session,
// and refreshes strictly sequentially: one batch at a time.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewScheduler(refresher Refresher, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.refresh()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.refresh()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) refresh() {
	start := time.Now()
	if err := s.refresher.RefreshAllFeeds(s.ctx); err != nil {
		slog.Error("Feed refresh failed", "error", err)
		return
	}
	slog.Debug("Feed refresh completed", "duration", time.Since(start))
}
