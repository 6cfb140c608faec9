package challenge

import (
	"context"
	"sync"
	"time"
)

// Scheduler periodically rolls challenge windows forward: completing
// elapsed weeks and creating/seeding the current one, so the transition
// happens even if nobody opens the app at week boundary.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a rollover scheduler.
func NewScheduler(svc *Service) *Scheduler {
	return &Scheduler{
		service:  svc,
		interval: 15 * time.Minute,
	}
}

// Start begins the scheduler loop. The first tick runs immediately so a
// restart catches up on any weeks that elapsed while the process was down.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.tick()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	households, err := s.service.households.List()
	if err != nil {
		s.service.logger.Error("scheduler: list households", "error", err)
		return
	}

	for _, h := range households {
		full, err := s.service.households.GetByID(h.ID)
		if err != nil || full == nil {
			s.service.logger.Error("scheduler: load household", "household_id", h.ID, "error", err)
			continue
		}
		if err := s.service.CompleteElapsed(full); err != nil {
			s.service.logger.Error("scheduler: complete elapsed", "household_id", h.ID, "error", err)
		}
		if _, err := s.service.EnsureCurrent(full); err != nil {
			s.service.logger.Error("scheduler: ensure current", "household_id", h.ID, "error", err)
		}
	}
}
