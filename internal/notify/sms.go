package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrSMSFields = errors.New("both message and toPhone are required")

// SMSSender delivers one text message to one destination phone.
type SMSSender interface {
	Send(ctx context.Context, message, toPhone string) error
}

// SMSGatewayConfig points at the carrier's REST gateway.
type SMSGatewayConfig struct {
	URL        string
	AccountSID string
	AuthToken  string
	FromNumber string
}

// SMSGateway posts messages to an HTTP carrier gateway using basic auth, in
// the usual carrier REST shape.
type SMSGateway struct {
	cfg    SMSGatewayConfig
	client *http.Client
}

func NewSMSGateway(cfg SMSGatewayConfig) *SMSGateway {
	return &SMSGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *SMSGateway) Send(ctx context.Context, message, toPhone string) error {
	if message == "" || toPhone == "" {
		return ErrSMSFields
	}

	body, err := json.Marshal(map[string]string{
		"from": g.cfg.FromNumber,
		"to":   toPhone,
		"body": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// AlertSMSText composes the outbound text for an incident.
func AlertSMSText(alertType, location string) string {
	return fmt.Sprintf("%s detected at %s. Immediate attention required!", strings.ToUpper(alertType), location)
}
