package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// pushMessage is the envelope placed on the bus for the delivery workers.
type pushMessage struct {
	Tokens []string  `json:"tokens"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// NATSPublisher hands alerts to the messaging provider by publishing on a
// NATS subject. A successful publish counts every token as accepted; actual
// device delivery happens downstream.
type NATSPublisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
}

func NewNATSPublisher(conn *nats.Conn, subject string, maxRetries int) *NATSPublisher {
	if subject == "" {
		subject = "alerts.push"
	}
	return &NATSPublisher{conn: conn, subject: subject, maxRetries: maxRetries}
}

func (p *NATSPublisher) Send(ctx context.Context, tokens []string, title, body string) (*PushResult, error) {
	payload, err := json.Marshal(pushMessage{Tokens: tokens, Title: title, Body: body, SentAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; ; i++ {
		err = p.conn.Publish(p.subject, payload)
		if err == nil {
			break
		}
		if i >= p.maxRetries {
			return nil, fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
		}

		// Backoff
		select {
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results := make([]TokenResult, len(tokens))
	for i, tok := range tokens {
		results[i] = TokenResult{Token: tok}
	}
	return &PushResult{SuccessCount: len(tokens), Results: results}, nil
}
