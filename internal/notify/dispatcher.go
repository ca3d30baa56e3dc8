package notify

import (
	"context"
	"errors"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/watchtowerx/wtx-backend/internal/data"
)

var ErrNoTokens = errors.New("an array of tokens is required")

// PushProvider delivers a composed alert to a set of device tokens and
// reports a per-token result. Delivery beyond the single provider call is
// not guaranteed.
type PushProvider interface {
	Send(ctx context.Context, tokens []string, title, body string) (*PushResult, error)
}

type PushResult struct {
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	Results      []TokenResult `json:"results"`
}

type TokenResult struct {
	Token string `json:"token"`
	Error string `json:"error,omitempty"`
}

// DispatchRequest is a fully-formed alert request from a detector or
// operator.
type DispatchRequest struct {
	Tokens        []string
	EventType     string
	Confidence    *float64
	Reason        string
	OverrideTitle string
	OverrideBody  string
}

type DispatchOutcome struct {
	Skipped bool        `json:"skipped,omitempty"`
	Message string      `json:"message,omitempty"`
	Result  *PushResult `json:"response,omitempty"`
}

// LogWriter appends dispatch outcomes. Writes are best-effort: a failure is
// logged, never surfaced to the caller.
type LogWriter interface {
	Insert(ctx context.Context, l *data.NotificationLog) error
}

// Dispatcher gates alerts on per-type confidence thresholds, applies an
// optional repeat-alert cooldown and hands off to the push provider.
type Dispatcher struct {
	copy     *Copy
	provider PushProvider
	logs     LogWriter

	cooldown    *lru.Cache[string, time.Time]
	cooldownTTL time.Duration
}

// NewDispatcher builds a dispatcher. cooldownTTL <= 0 disables the
// cooldown; logs may be nil.
func NewDispatcher(copy *Copy, provider PushProvider, logs LogWriter, cooldownTTL time.Duration) *Dispatcher {
	d := &Dispatcher{copy: copy, provider: provider, logs: logs, cooldownTTL: cooldownTTL}
	if cooldownTTL > 0 {
		d.cooldown, _ = lru.New[string, time.Time](256)
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchOutcome, error) {
	if len(req.Tokens) == 0 {
		return nil, ErrNoTokens
	}

	if req.Confidence != nil && *req.Confidence < d.copy.Threshold(req.EventType) {
		d.logOutcome(ctx, req.EventType, "skipped", "confidence below threshold", 0, len(req.Tokens))
		return &DispatchOutcome{Skipped: true, Message: "Confidence below threshold."}, nil
	}

	if d.inCooldown(req.EventType) {
		d.logOutcome(ctx, req.EventType, "skipped", "repeat alert within cooldown", 0, len(req.Tokens))
		return &DispatchOutcome{Skipped: true, Message: "Repeat alert suppressed by cooldown."}, nil
	}

	title, body := d.copy.Select(req.EventType, req.OverrideTitle, req.OverrideBody, req.Reason)

	result, err := d.provider.Send(ctx, req.Tokens, title, body)
	if err != nil {
		d.logOutcome(ctx, req.EventType, "failed", err.Error(), 0, len(req.Tokens))
		return nil, err
	}

	d.logOutcome(ctx, req.EventType, "sent", "", result.SuccessCount, result.FailureCount)
	return &DispatchOutcome{Result: result}, nil
}

func (d *Dispatcher) inCooldown(eventType string) bool {
	if d.cooldown == nil {
		return false
	}
	if sentAt, ok := d.cooldown.Get(eventType); ok && time.Since(sentAt) < d.cooldownTTL {
		return true
	}
	d.cooldown.Add(eventType, time.Now())
	return false
}

func (d *Dispatcher) logOutcome(ctx context.Context, eventType, result, detail string, ok, failed int) {
	if d.logs == nil {
		return
	}
	entry := &data.NotificationLog{
		Channel:      "push",
		EventType:    eventType,
		Result:       result,
		Detail:       detail,
		SuccessCount: ok,
		FailureCount: failed,
	}
	if err := d.logs.Insert(ctx, entry); err != nil {
		log.Printf("Notification log write failed: %v", err)
	}
}
