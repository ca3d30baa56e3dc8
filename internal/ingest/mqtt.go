package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/watchtowerx/wtx-backend/internal/data"
	"github.com/watchtowerx/wtx-backend/internal/events"
)

// EventCreator is the slice of the Event Service the bridge needs.
type EventCreator interface {
	Create(ctx context.Context, req *events.CreateRequest) (*data.Event, error)
}

type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string
	QoS       byte
}

// Bridge subscribes to edge detector topics and pushes payloads through the
// same validate-then-create path as the HTTP surface. Malformed messages
// are logged and dropped; the broker is not nacked.
type Bridge struct {
	client  mqtt.Client
	topic   string
	qos     byte
	service EventCreator
}

func NewBridge(cfg Config, svc EventCreator) (*Bridge, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	cli := mqtt.NewClient(opts)
	token := cli.Connect()
	if ok := token.WaitTimeout(10 * time.Second); !ok {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	return &Bridge{client: cli, topic: cfg.Topic, qos: cfg.QoS, service: svc}, nil
}

func (b *Bridge) Start() error {
	token := b.client.Subscribe(b.topic, b.qos, func(_ mqtt.Client, msg mqtt.Message) {
		if err := b.process(msg.Payload()); err != nil {
			log.Printf("MQTT ingest dropped message on %s: %v", msg.Topic(), err)
		}
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", b.topic, err)
	}
	log.Printf("MQTT ingest listening on %s", b.topic)
	return nil
}

func (b *Bridge) Stop() {
	if b.client != nil {
		b.client.Disconnect(250)
	}
}

func (b *Bridge) process(payload []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	req, err := events.ValidateCreate(raw)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	evt, err := b.service.Create(ctx, req)
	if err != nil {
		return err
	}
	log.Printf("MQTT ingest stored event %s (%s from %s)", evt.ID, evt.EventType, evt.CameraID)
	return nil
}
