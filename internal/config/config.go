package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/watchtowerx/wtx-backend/internal/ratelimit"
)

// Config is the full process configuration. Connection strings and provider
// credentials come from the environment; tunables may come from an optional
// yaml file.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string

	NATSURL      string
	NATSSubject  string
	PushRetryMax int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioBaseURL   string

	SMSGatewayURL string
	SMSAccountSID string
	SMSAuthToken  string
	SMSFromNumber string

	JWTSigningKey string
	RateLimitSalt string
	RateLimit     ratelimit.LimitConfig

	RetentionDays       int
	NotifyCooldown      time.Duration
	NotifyOverridesPath string

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// required environment variables; absence of any is a fatal startup
// condition.
var required = []string{
	"DATABASE_URL",
	"MINIO_ENDPOINT",
	"MINIO_ACCESS_KEY",
	"MINIO_SECRET_KEY",
	"MINIO_BUCKET",
	"NATS_URL",
	"SMS_GATEWAY_URL",
	"SMS_ACCOUNT_SID",
	"SMS_AUTH_TOKEN",
	"SMS_FROM_NUMBER",
}

// tunables is the optional yaml file shape.
type tunables struct {
	RateLimit struct {
		Rate          int `yaml:"rate"`
		WindowSeconds int `yaml:"window_seconds"`
	} `yaml:"rate_limit"`
	RetentionDays int `yaml:"retention_days"`
	Notify        struct {
		CooldownSeconds int    `yaml:"cooldown_seconds"`
		OverridesPath   string `yaml:"overrides_path"`
	} `yaml:"notify"`
}

// Load reads .env (when present), the environment, and the optional yaml
// tunables file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if err := CheckRequired(os.Environ()); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),

		NATSURL:      os.Getenv("NATS_URL"),
		NATSSubject:  getenv("NATS_PUSH_SUBJECT", "alerts.push"),
		PushRetryMax: getenvInt("NATS_PUSH_RETRY_MAX", 3),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    os.Getenv("MINIO_BUCKET"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		MinioBaseURL:   os.Getenv("MINIO_PUBLIC_BASE_URL"),

		SMSGatewayURL: os.Getenv("SMS_GATEWAY_URL"),
		SMSAccountSID: os.Getenv("SMS_ACCOUNT_SID"),
		SMSAuthToken:  os.Getenv("SMS_AUTH_TOKEN"),
		SMSFromNumber: os.Getenv("SMS_FROM_NUMBER"),

		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		RateLimitSalt: os.Getenv("RATE_LIMIT_SALT"),

		RetentionDays: 30,

		MQTTEnabled:  os.Getenv("MQTT_ENABLED") == "true",
		MQTTBroker:   getenv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTTopic:    getenv("MQTT_TOPIC", "wtx/events/#"),
		MQTTClientID: getenv("MQTT_CLIENT_ID", "wtx-backend"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
	}

	if err := cfg.applyTunables(getenv("CONFIG_PATH", "config/default.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CheckRequired verifies every required variable is present in the given
// environ-style list.
func CheckRequired(environ []string) error {
	present := map[string]bool{}
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if kv[i+1:] != "" {
					present[kv[:i]] = true
				}
				break
			}
		}
	}
	for _, k := range required {
		if !present[k] {
			return fmt.Errorf("ENV %s required", k)
		}
	}
	return nil
}

func (c *Config) applyTunables(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // optional
		}
		return err
	}

	var t tunables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	if t.RateLimit.Rate > 0 {
		c.RateLimit.Rate = t.RateLimit.Rate
	}
	if t.RateLimit.WindowSeconds > 0 {
		c.RateLimit.Window = time.Duration(t.RateLimit.WindowSeconds) * time.Second
	}
	if t.RetentionDays > 0 {
		c.RetentionDays = t.RetentionDays
	}
	if t.Notify.CooldownSeconds > 0 {
		c.NotifyCooldown = time.Duration(t.Notify.CooldownSeconds) * time.Second
	}
	if t.Notify.OverridesPath != "" {
		c.NotifyOverridesPath = t.Notify.OverridesPath
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
