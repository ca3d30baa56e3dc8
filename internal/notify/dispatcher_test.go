package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/data"
	"github.com/watchtowerx/wtx-backend/internal/notify"
)

type mockProvider struct {
	Calls     int
	LastTitle string
	LastBody  string
	Err       error
}

func (m *mockProvider) Send(ctx context.Context, tokens []string, title, body string) (*notify.PushResult, error) {
	m.Calls++
	m.LastTitle = title
	m.LastBody = body
	if m.Err != nil {
		return nil, m.Err
	}
	results := make([]notify.TokenResult, len(tokens))
	for i, tok := range tokens {
		results[i] = notify.TokenResult{Token: tok}
	}
	return &notify.PushResult{SuccessCount: len(tokens), Results: results}, nil
}

type mockLogWriter struct {
	Entries []*data.NotificationLog
}

func (m *mockLogWriter) Insert(ctx context.Context, l *data.NotificationLog) error {
	m.Entries = append(m.Entries, l)
	return nil
}

func floatPtr(f float64) *float64 { return &f }

func TestDispatchRequiresTokens(t *testing.T) {
	d := notify.NewDispatcher(notify.DefaultCopy(), &mockProvider{}, nil, 0)
	_, err := d.Dispatch(context.Background(), notify.DispatchRequest{EventType: "fire"})
	if !errors.Is(err, notify.ErrNoTokens) {
		t.Fatalf("err = %v, want ErrNoTokens", err)
	}
}

func TestDispatchThresholdGate(t *testing.T) {
	provider := &mockProvider{}
	logs := &mockLogWriter{}
	d := notify.NewDispatcher(notify.DefaultCopy(), provider, logs, 0)

	// fall threshold is 0.75: 0.5 is skipped, 0.8 goes out.
	out, err := d.Dispatch(context.Background(), notify.DispatchRequest{
		Tokens:     []string{"tok-1"},
		EventType:  "fall",
		Confidence: floatPtr(0.5),
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !out.Skipped {
		t.Error("confidence 0.5 should be skipped for fall")
	}
	if provider.Calls != 0 {
		t.Errorf("provider called %d times for a skipped alert", provider.Calls)
	}

	out, err = d.Dispatch(context.Background(), notify.DispatchRequest{
		Tokens:     []string{"tok-1"},
		EventType:  "fall",
		Confidence: floatPtr(0.8),
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Skipped {
		t.Error("confidence 0.8 should dispatch for fall")
	}
	if provider.Calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.Calls)
	}
	if out.Result == nil || out.Result.SuccessCount != 1 {
		t.Errorf("result = %+v", out.Result)
	}

	if len(logs.Entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(logs.Entries))
	}
	if logs.Entries[0].Result != "skipped" || logs.Entries[1].Result != "sent" {
		t.Errorf("log results = %q, %q", logs.Entries[0].Result, logs.Entries[1].Result)
	}
}

func TestDispatchNilConfidencePasses(t *testing.T) {
	provider := &mockProvider{}
	d := notify.NewDispatcher(notify.DefaultCopy(), provider, nil, 0)

	out, err := d.Dispatch(context.Background(), notify.DispatchRequest{
		Tokens:    []string{"tok-1"},
		EventType: "fight",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Skipped {
		t.Error("absent confidence must not be gated")
	}
}

func TestDispatchCopySelection(t *testing.T) {
	provider := &mockProvider{}
	d := notify.NewDispatcher(notify.DefaultCopy(), provider, nil, 0)

	_, err := d.Dispatch(context.Background(), notify.DispatchRequest{
		Tokens:    []string{"tok-1"},
		EventType: "fire",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if provider.LastTitle != "Fire Alert" {
		t.Errorf("title = %q", provider.LastTitle)
	}

	_, err = d.Dispatch(context.Background(), notify.DispatchRequest{
		Tokens:        []string{"tok-1"},
		EventType:     "fire",
		OverrideTitle: "Drill",
		OverrideBody:  "This is a drill.",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if provider.LastTitle != "Drill" || provider.LastBody != "This is a drill." {
		t.Errorf("overrides not forwarded: %q / %q", provider.LastTitle, provider.LastBody)
	}
}

func TestDispatchCooldown(t *testing.T) {
	provider := &mockProvider{}
	d := notify.NewDispatcher(notify.DefaultCopy(), provider, nil, time.Minute)

	req := notify.DispatchRequest{Tokens: []string{"tok-1"}, EventType: "fire"}

	out, err := d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if out.Skipped {
		t.Fatal("first alert must go out")
	}

	out, err = d.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if !out.Skipped {
		t.Error("repeat alert within cooldown should be suppressed")
	}
	if provider.Calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.Calls)
	}

	// A different event type has its own cooldown slot.
	out, err = d.Dispatch(context.Background(), notify.DispatchRequest{Tokens: []string{"tok-1"}, EventType: "fall"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out.Skipped {
		t.Error("cooldown must be per event type")
	}
}

func TestDispatchProviderFailure(t *testing.T) {
	provider := &mockProvider{Err: errors.New("broker down")}
	logs := &mockLogWriter{}
	d := notify.NewDispatcher(notify.DefaultCopy(), provider, logs, 0)

	_, err := d.Dispatch(context.Background(), notify.DispatchRequest{
		Tokens:    []string{"tok-1"},
		EventType: "fire",
	})
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
	if len(logs.Entries) != 1 || logs.Entries[0].Result != "failed" {
		t.Errorf("log entries = %+v", logs.Entries)
	}
}
