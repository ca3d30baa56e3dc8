package events

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/watchtowerx/wtx-backend/internal/data"
)

// MockRepo is an in-memory EventRepository shared by package and handler
// tests. Filtering and pagination mirror the real store closely enough for
// the service contract.
type MockRepo struct {
	Events      []*data.Event
	Err         error
	InsertCalls int
}

func (m *MockRepo) Insert(ctx context.Context, e *data.Event) error {
	m.InsertCalls++
	if m.Err != nil {
		return m.Err
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	stored := *e
	m.Events = append(m.Events, &stored)
	return nil
}

func (m *MockRepo) List(ctx context.Context, f data.EventFilter, sortField, order string, limit, offset int) ([]*data.Event, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	matched := []*data.Event{}
	for _, e := range m.Events {
		if !matches(e, f) {
			continue
		}
		matched = append(matched, e)
	}

	asc := strings.EqualFold(order, "asc")
	sort.SliceStable(matched, func(i, j int) bool {
		if asc {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if offset >= len(matched) {
		return []*data.Event{}, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MockRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	kept := m.Events[:0]
	var deleted int64
	for _, e := range m.Events {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.Events = kept
	return deleted, nil
}

func (m *MockRepo) StreamAll(ctx context.Context, fn func(*data.Event) error) error {
	if m.Err != nil {
		return m.Err
	}
	for _, e := range m.Events {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func matches(e *data.Event, f data.EventFilter) bool {
	if len(f.Types) > 0 && !containsString(f.Types, e.EventType) {
		return false
	}
	if f.CameraID != "" && e.CameraID != f.CameraID {
		return false
	}
	if len(f.Priorities) > 0 {
		found := false
		for _, p := range f.Priorities {
			if int(p) == e.Priority {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.Start != nil && e.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.Timestamp.After(*f.End) {
		return false
	}
	return true
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// MockResolver is a stub SnapshotResolver.
type MockResolver struct {
	URL   string
	Err   error
	Calls int
}

func (m *MockResolver) Resolve(ctx context.Context, dataURI string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if m.URL == "" {
		return "https://snapshots.example.com/stub.png", nil
	}
	return m.URL, nil
}
