package data_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/watchtowerx/wtx-backend/internal/data"
)

func TestNotificationLogInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	id := uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO notification_logs").
		WithArgs("push", "fire", "sent", "", 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id.String(), now))

	m := data.NotificationLogModel{DB: db}
	l := &data.NotificationLog{
		Channel:      "push",
		EventType:    "fire",
		Result:       "sent",
		SuccessCount: 2,
	}
	if err := m.Insert(context.Background(), l); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if l.ID != id {
		t.Errorf("id = %s, want %s", l.ID, id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNotificationLogListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "channel", "event_type", "result", "detail", "success_count", "failure_count", "created_at",
	}).
		AddRow(uuid.New().String(), "push", "fire", "sent", "", 1, 0, now).
		AddRow(uuid.New().String(), "sms", "fall", "failed", "gateway timeout", 0, 1, now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM notification_logs").
		WithArgs(10).
		WillReturnRows(rows)

	m := data.NotificationLogModel{DB: db}
	logs, err := m.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[1].Detail != "gateway timeout" {
		t.Errorf("detail = %q", logs[1].Detail)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
