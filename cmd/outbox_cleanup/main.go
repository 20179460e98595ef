package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"smarttrack/internal/config"
	"smarttrack/internal/database"
	"smarttrack/internal/outbox"
)

// Deletes processed outbox rows older than OUTBOX_RETENTION. Meant for cron.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if os.Getenv("DATABASE_URL") == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := outbox.Cleanup(ctx, db, cfg.Outbox.Retention)
	if err != nil {
		log.Fatalf("cleanup outbox_events failed: %v", err)
	}
	log.Printf("outbox cleanup completed: outbox_events=%d retention=%s", n, cfg.Outbox.Retention)
}
