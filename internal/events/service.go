package events

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/data"
)

// EventRepository is the Record Store contract the service orchestrates.
type EventRepository interface {
	Insert(ctx context.Context, e *data.Event) error
	List(ctx context.Context, f data.EventFilter, sort, order string, limit, offset int) ([]*data.Event, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	StreamAll(ctx context.Context, fn func(*data.Event) error) error
}

// SnapshotResolver converts inline image data into a durable URL.
type SnapshotResolver interface {
	Resolve(ctx context.Context, dataURI string) (string, error)
}

type Service struct {
	repo      EventRepository
	snapshots SnapshotResolver
}

func NewService(repo EventRepository, snapshots SnapshotResolver) *Service {
	return &Service{repo: repo, snapshots: snapshots}
}

// Create resolves any inline snapshot, assembles the canonical Event and
// persists it. No partial success: a resolver failure aborts before the
// store is touched, so either the record is fully durable or none exists.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*data.Event, error) {
	snapshotURL := req.SnapshotURL
	if req.SnapshotData != "" {
		if s.snapshots == nil {
			return nil, fmt.Errorf("%w: no resolver configured", ErrSnapshotUpload)
		}
		resolved, err := s.snapshots.Resolve(ctx, req.SnapshotData)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSnapshotUpload, err)
		}
		snapshotURL = &resolved
	}

	e := &data.Event{
		EventType:     req.EventType,
		Timestamp:     req.Timestamp,
		CameraID:      req.CameraID,
		Confidence:    req.Confidence,
		Priority:      req.Priority,
		PriorityLabel: req.PriorityLabel,
		Location:      req.Location,
		Severity:      req.Severity,
		Status:        req.Status,
		Notes:         req.Notes,
		SnapshotURL:   snapshotURL,
		Mode:          req.Mode,
		FrameIndex:    req.FrameIndex,
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListQuery carries normalized retrieval parameters. Filters combine with
// AND; an empty set matches everything subject to pagination.
type ListQuery struct {
	Types      []string
	CameraID   string
	Priorities []int64
	Location   string
	Start      *time.Time
	End        *time.Time
	Sort       string
	Order      string
	Limit      int
	Page       int
}

type ListResult struct {
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
	Events []*data.Event `json:"events"`
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Sort == "" {
		q.Sort = "timestamp"
	}
	if q.Order == "" {
		q.Order = "desc"
	}

	offset := (q.Page - 1) * q.Limit

	filter := data.EventFilter{
		Types:      q.Types,
		CameraID:   q.CameraID,
		Priorities: q.Priorities,
		Location:   q.Location,
		Start:      q.Start,
		End:        q.End,
	}

	events, err := s.repo.List(ctx, filter, q.Sort, q.Order, q.Limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListResult{Page: q.Page, Limit: q.Limit, Events: events}, nil
}

// DeleteOlderThan removes records strictly older than cutoff. A nil cutoff
// is refused rather than deleting the whole table.
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff *time.Time) (int64, error) {
	if cutoff == nil {
		return 0, ErrMissingCutoff
	}
	return s.repo.DeleteOlderThan(ctx, *cutoff)
}

// All returns the unfiltered full collection. Operational escape hatch; the
// cost warning lives at the API boundary.
func (s *Service) All(ctx context.Context) ([]*data.Event, error) {
	events := []*data.Event{}
	err := s.repo.StreamAll(ctx, func(e *data.Event) error {
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// csvHeader is the declared export column order.
var csvHeader = []string{
	"eventType", "timestamp", "cameraId", "confidence", "priority",
	"priorityLabel", "location", "severity", "status", "notes",
}

// ExportCSV streams the full collection as CSV. The header row is written
// even when the store is empty.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	err := s.repo.StreamAll(ctx, func(e *data.Event) error {
		confidence := ""
		if e.Confidence != nil {
			confidence = strconv.FormatFloat(*e.Confidence, 'f', -1, 64)
		}
		return cw.Write([]string{
			e.EventType,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.CameraID,
			confidence,
			strconv.Itoa(e.Priority),
			e.PriorityLabel,
			e.Location,
			e.Severity,
			e.Status,
			e.Notes,
		})
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// ExportJSON writes the full collection as one JSON array.
func (s *Service) ExportJSON(ctx context.Context, w io.Writer) error {
	events, err := s.All(ctx)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(events)
}
