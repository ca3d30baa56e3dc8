package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchtowerx/wtx-backend/internal/app"
	"github.com/watchtowerx/wtx-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Missing required configuration: refuse to serve degraded.
		log.Fatalf("Startup error: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		errCh <- a.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown error: %v", err)
	}
	log.Println("Server stopped gracefully")
}
