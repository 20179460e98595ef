package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smarttrack/internal/config"
	"smarttrack/internal/database"
	"smarttrack/internal/messaging"
	"smarttrack/internal/outbox"
)

func main() {
	log.Println("Starting outbox relay service...")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("relay: config: %v", err)
	}
	if cfg.RabbitMQURL == "" {
		log.Fatal("relay: RABBITMQ_URL is required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("relay: db connect failed: %v", err)
	}
	if err := database.Migrate(db, &outbox.Event{}); err != nil {
		log.Fatalf("relay: migrate outbox: %v", err)
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		log.Fatalf("relay: rabbitmq: %v", err)
	}
	defer publisher.Close()
	log.Println("relay: connected to RabbitMQ")

	opts := outbox.RelayOptions{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
	}
	if database.IsPostgres(cfg.DatabaseURL) {
		opts.ListenURL = cfg.DatabaseURL
	}
	relay := outbox.NewRelay(db, publisher, config.NewCircuitBreaker("Relay-Database"), opts)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "UP", http.StatusOK
		if !relay.IsHealthy() {
			status, code = "DOWN", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "component": "outbox-relay"})
	})
	healthMux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		code := http.StatusOK
		if !relay.IsReady() {
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
	})
	healthServer := &http.Server{Addr: cfg.Outbox.HealthAddr, Handler: healthMux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("relay: health server on %s", cfg.Outbox.HealthAddr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("relay: health server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("relay: worker error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("relay: error shutting down health server: %v", err)
	}
	log.Println("relay: shutdown complete")
}
