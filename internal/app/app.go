package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/watchtowerx/wtx-backend/internal/api"
	"github.com/watchtowerx/wtx-backend/internal/config"
	"github.com/watchtowerx/wtx-backend/internal/data"
	"github.com/watchtowerx/wtx-backend/internal/events"
	"github.com/watchtowerx/wtx-backend/internal/ingest"
	"github.com/watchtowerx/wtx-backend/internal/metrics"
	"github.com/watchtowerx/wtx-backend/internal/middleware"
	"github.com/watchtowerx/wtx-backend/internal/notify"
	"github.com/watchtowerx/wtx-backend/internal/ratelimit"
	"github.com/watchtowerx/wtx-backend/internal/snapshots"
	"github.com/watchtowerx/wtx-backend/internal/tokens"
)

// App owns the process lifecycle: every connection, background job and the
// HTTP server hang off it. Callers (main, tests) acquire an App, Start it,
// and Shutdown deterministically; there is no shared module state.
type App struct {
	cfg *config.Config

	db  *sql.DB
	rdb *redis.Client
	nc  *nats.Conn

	server   *http.Server
	handler  http.Handler
	sweeper  *events.Sweeper
	ingestor *ingest.Bridge

	bgCancel context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("wtx-backend"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	store, err := snapshots.NewMinioStore(snapshots.Config{
		Endpoint:      cfg.MinioEndpoint,
		AccessKey:     cfg.MinioAccessKey,
		SecretKey:     cfg.MinioSecretKey,
		Bucket:        cfg.MinioBucket,
		UseSSL:        cfg.MinioUseSSL,
		PublicBaseURL: cfg.MinioBaseURL,
	})
	if err != nil {
		return nil, err
	}

	eventRepo := data.EventModel{DB: db}
	logRepo := data.NotificationLogModel{DB: db}

	eventService := events.NewService(eventRepo, store)
	collector := metrics.NewCollector()

	alertCopy := notify.DefaultCopy()
	publisher := notify.NewNATSPublisher(nc, cfg.NATSSubject, cfg.PushRetryMax)
	dispatcher := notify.NewDispatcher(alertCopy, publisher, logRepo, cfg.NotifyCooldown)

	smsGateway := notify.NewSMSGateway(notify.SMSGatewayConfig{
		URL:        cfg.SMSGatewayURL,
		AccountSID: cfg.SMSAccountSID,
		AuthToken:  cfg.SMSAuthToken,
		FromNumber: cfg.SMSFromNumber,
	})

	limiter := ratelimit.NewLimiter(rdb, cfg.RateLimitSalt)
	rl := middleware.NewRateLimitMiddleware(limiter, cfg.RateLimit)

	var auth *middleware.JWTAuth
	if cfg.JWTSigningKey != "" {
		auth = middleware.NewJWTAuth(tokens.NewManager(cfg.JWTSigningKey))
	}

	handler := api.NewRouter(api.RouterConfig{
		Events:    api.NewEventHandler(eventService, collector),
		Notify:    api.NewNotifyHandler(dispatcher, collector),
		SMS:       api.NewSMSHandler(smsGateway, collector),
		Auth:      auth,
		RateLimit: rl.GlobalLimiter,
		Metrics:   collector,
	})

	a := &App{
		cfg:     cfg,
		db:      db,
		rdb:     rdb,
		nc:      nc,
		handler: handler,
		server:  &http.Server{Addr: ":" + cfg.Port, Handler: handler},
		sweeper: events.NewSweeper(eventService, time.Duration(cfg.RetentionDays)*24*time.Hour),
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	a.bgCancel = cancel
	notify.WatchOverrides(bgCtx, alertCopy, cfg.NotifyOverridesPath)

	if cfg.MQTTEnabled {
		bridge, err := ingest.NewBridge(ingest.Config{
			BrokerURL: cfg.MQTTBroker,
			ClientID:  cfg.MQTTClientID,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			Topic:     cfg.MQTTTopic,
			QoS:       1,
		}, eventService)
		if err != nil {
			cancel()
			return nil, err
		}
		a.ingestor = bridge
	}

	return a, nil
}

// Handler exposes the assembled router for in-process tests.
func (a *App) Handler() http.Handler { return a.handler }

// Start launches the background jobs and serves HTTP until Shutdown.
func (a *App) Start() error {
	a.sweeper.Start()
	if a.ingestor != nil {
		if err := a.ingestor.Start(); err != nil {
			return err
		}
	}

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops background jobs, drains the server and closes every
// connection. Safe to call after a failed Start.
func (a *App) Shutdown(ctx context.Context) error {
	a.sweeper.Stop()
	if a.ingestor != nil {
		a.ingestor.Stop()
	}
	a.bgCancel()

	err := a.server.Shutdown(ctx)

	a.nc.Close()
	_ = a.rdb.Close()
	_ = a.db.Close()
	return err
}
