package data

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationLog records the outcome of a single dispatch attempt.
// Append-only: no update or delete methods exposed.
type NotificationLog struct {
	ID           uuid.UUID `json:"id"`
	Channel      string    `json:"channel"` // "push" or "sms"
	EventType    string    `json:"eventType"`
	Result       string    `json:"result"` // "sent", "skipped", "failed"
	Detail       string    `json:"detail,omitempty"`
	SuccessCount int       `json:"successCount"`
	FailureCount int       `json:"failureCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NotificationLogModel struct {
	DB DBTX
}

func (m NotificationLogModel) Insert(ctx context.Context, l *NotificationLog) error {
	query := `
		INSERT INTO notification_logs (channel, event_type, result, detail, success_count, failure_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return m.DB.QueryRowContext(ctx, query,
		l.Channel, l.EventType, l.Result, l.Detail, l.SuccessCount, l.FailureCount,
	).Scan(&l.ID, &l.CreatedAt)
}

func (m NotificationLogModel) ListRecent(ctx context.Context, limit int) ([]*NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, channel, event_type, result, detail, success_count, failure_count, created_at
		FROM notification_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := m.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*NotificationLog{}
	for rows.Next() {
		var l NotificationLog
		if err := rows.Scan(&l.ID, &l.Channel, &l.EventType, &l.Result, &l.Detail,
			&l.SuccessCount, &l.FailureCount, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
