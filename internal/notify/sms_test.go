package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/watchtowerx/wtx-backend/internal/notify"
)

func TestAlertSMSText(t *testing.T) {
	got := notify.AlertSMSText("fire", "Warehouse B")
	want := "FIRE detected at Warehouse B. Immediate attention required!"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSMSGatewaySend(t *testing.T) {
	var received map[string]string
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	g := notify.NewSMSGateway(notify.SMSGatewayConfig{
		URL:        srv.URL,
		AccountSID: "sid-1",
		AuthToken:  "tok-1",
		FromNumber: "+1000",
	})

	if err := g.Send(context.Background(), "hello", "+2000"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if user != "sid-1" || pass != "tok-1" {
		t.Errorf("basic auth = %q/%q", user, pass)
	}
	if received["from"] != "+1000" || received["to"] != "+2000" || received["body"] != "hello" {
		t.Errorf("payload = %+v", received)
	}
}

func TestSMSGatewaySendRequiresFields(t *testing.T) {
	g := notify.NewSMSGateway(notify.SMSGatewayConfig{URL: "http://localhost:0"})
	if err := g.Send(context.Background(), "", "+2000"); !errors.Is(err, notify.ErrSMSFields) {
		t.Errorf("err = %v, want ErrSMSFields", err)
	}
	if err := g.Send(context.Background(), "hello", ""); !errors.Is(err, notify.ErrSMSFields) {
		t.Errorf("err = %v, want ErrSMSFields", err)
	}
}

func TestSMSGatewaySendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := notify.NewSMSGateway(notify.SMSGatewayConfig{URL: srv.URL})
	if err := g.Send(context.Background(), "hello", "+2000"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}
