package events

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultRetention is how long events are kept before the daily sweep
// removes them.
const DefaultRetention = 30 * 24 * time.Hour

// Sweeper runs the retention delete on a fixed daily cadence. Failures are
// logged and never propagate; the next cycle is unaffected. It is stoppable
// independently of the serving process for clean shutdown and test
// teardown.
type Sweeper struct {
	service   *Service
	retention time.Duration
	interval  time.Duration

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewSweeper(svc *Service, retention time.Duration) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{
		service:   svc,
		retention: retention,
		interval:  24 * time.Hour,
		quit:      make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop is safe to call more than once. Deletions already completed are
// unaffected.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.quit) })
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	// First sweep at the next UTC midnight, then every 24h.
	timer := time.NewTimer(untilNextMidnightUTC(time.Now()))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.quit:
		return
	}

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.quit:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	if count, err := s.Sweep(context.Background()); err != nil {
		log.Printf("Retention sweep failed: %v", err)
	} else {
		log.Printf("Retention sweep deleted %d events older than %s", count, s.retention)
	}
}

// Sweep runs one retention pass: delete everything older than now minus the
// retention window.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	return s.service.DeleteOlderThan(ctx, &cutoff)
}

func untilNextMidnightUTC(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}
