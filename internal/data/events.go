package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Event is the canonical persisted incident record.
type Event struct {
	ID            uuid.UUID `json:"eventId"`
	EventType     string    `json:"eventType"`
	Timestamp     time.Time `json:"timestamp"`
	CameraID      string    `json:"cameraId"`
	Confidence    *float64  `json:"confidence"`
	Priority      int       `json:"priority"`
	PriorityLabel string    `json:"priorityLabel"`
	Location      string    `json:"location"`
	Severity      string    `json:"severity"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes"`
	SnapshotURL   *string   `json:"snapshotUrl"`
	Mode          string    `json:"mode"`
	FrameIndex    *int      `json:"frameIndex"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EventFilter parameters. All zero-value fields are ignored; set fields
// combine with AND.
type EventFilter struct {
	Types      []string
	CameraID   string
	Priorities []int64
	Location   string // case-insensitive substring
	Start      *time.Time
	End        *time.Time
}

// sortColumns whitelists client-supplied sort fields against real columns.
var sortColumns = map[string]string{
	"timestamp":  "ts",
	"eventType":  "event_type",
	"cameraId":   "camera_id",
	"confidence": "confidence",
	"priority":   "priority",
	"severity":   "severity",
	"status":     "status",
	"createdAt":  "created_at",
}

const eventColumns = `id, event_type, ts, camera_id, confidence, priority, priority_label,
	       location, severity, status, notes, snapshot_url, mode, frame_index, created_at`

type EventModel struct {
	DB DBTX
}

// Insert persists a new event. The store assigns the ID and echoes back the
// stored timestamps.
func (m EventModel) Insert(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO events (
			event_type, ts, camera_id, confidence, priority, priority_label,
			location, severity, status, notes, snapshot_url, mode, frame_index
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, ts, created_at`

	return m.DB.QueryRowContext(ctx, query,
		e.EventType, e.Timestamp, e.CameraID, e.Confidence, e.Priority, e.PriorityLabel,
		e.Location, e.Severity, e.Status, e.Notes, e.SnapshotURL, e.Mode, e.FrameIndex,
	).Scan(&e.ID, &e.Timestamp, &e.CreatedAt)
}

// List retrieves a page of events matching the filter. Ordering is applied
// before pagination; id is a tiebreak so a page walk is stable.
func (m EventModel) List(ctx context.Context, f EventFilter, sort, order string, limit, offset int) ([]*Event, error) {
	where := []string{"1=1"}
	args := []any{}
	nextArg := 1

	if len(f.Types) > 0 {
		where = append(where, fmt.Sprintf("event_type = ANY($%d)", nextArg))
		args = append(args, pq.Array(f.Types))
		nextArg++
	}
	if f.CameraID != "" {
		where = append(where, fmt.Sprintf("camera_id = $%d", nextArg))
		args = append(args, f.CameraID)
		nextArg++
	}
	if len(f.Priorities) > 0 {
		where = append(where, fmt.Sprintf("priority = ANY($%d)", nextArg))
		args = append(args, pq.Array(f.Priorities))
		nextArg++
	}
	if f.Location != "" {
		where = append(where, fmt.Sprintf("location ILIKE $%d", nextArg))
		args = append(args, "%"+f.Location+"%")
		nextArg++
	}
	if f.Start != nil {
		where = append(where, fmt.Sprintf("ts >= $%d", nextArg))
		args = append(args, *f.Start)
		nextArg++
	}
	if f.End != nil {
		where = append(where, fmt.Sprintf("ts <= $%d", nextArg))
		args = append(args, *f.End)
		nextArg++
	}

	col, ok := sortColumns[sort]
	if !ok {
		col = "ts"
	}
	dir := "DESC"
	if strings.EqualFold(order, "asc") {
		dir = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE %s
		ORDER BY %s %s, id %s
		LIMIT $%d OFFSET $%d`,
		eventColumns, strings.Join(where, " AND "), col, dir, dir, nextArg, nextArg+1)
	args = append(args, limit, offset)

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteOlderThan removes every event with ts strictly before cutoff and
// returns the number deleted. Records at exactly the cutoff survive.
func (m EventModel) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := m.DB.ExecContext(ctx, `DELETE FROM events WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StreamAll walks the entire collection in insertion order, invoking fn per
// row. The cursor honours ctx cancellation; an fn error aborts the walk.
func (m EventModel) StreamAll(ctx context.Context, fn func(*Event) error) error {
	query := fmt.Sprintf(`SELECT %s FROM events ORDER BY ts DESC, id DESC`, eventColumns)

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (*Event, error) {
	var e Event
	err := r.Scan(
		&e.ID, &e.EventType, &e.Timestamp, &e.CameraID, &e.Confidence,
		&e.Priority, &e.PriorityLabel, &e.Location, &e.Severity, &e.Status,
		&e.Notes, &e.SnapshotURL, &e.Mode, &e.FrameIndex, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
