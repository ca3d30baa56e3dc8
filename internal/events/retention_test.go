package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/events"
)

func TestSweeperSweep(t *testing.T) {
	repo := &events.MockRepo{}
	svc := events.NewService(repo, nil)
	now := time.Now().UTC()

	mustCreate(t, svc, events.TypeFire, now.Add(-31*24*time.Hour), 1)
	mustCreate(t, svc, events.TypeFall, now.Add(-29*24*time.Hour), 1)
	mustCreate(t, svc, events.TypeFight, now, 1)

	sweeper := events.NewSweeper(svc, 0) // 0 falls back to the 30-day default
	n, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if len(repo.Events) != 2 {
		t.Errorf("%d events remain, want 2", len(repo.Events))
	}
}

func TestSweeperSweepCustomRetention(t *testing.T) {
	repo := &events.MockRepo{}
	svc := events.NewService(repo, nil)
	now := time.Now().UTC()

	mustCreate(t, svc, events.TypeFire, now.Add(-8*24*time.Hour), 1)
	mustCreate(t, svc, events.TypeFire, now.Add(-6*24*time.Hour), 1)

	sweeper := events.NewSweeper(svc, 7*24*time.Hour)
	n, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestSweeperStopIdempotent(t *testing.T) {
	svc := events.NewService(&events.MockRepo{}, nil)
	sweeper := events.NewSweeper(svc, events.DefaultRetention)
	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop() // must not panic
}
