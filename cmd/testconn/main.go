package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aiuml/api/internal/config"
	"github.com/aiuml/api/internal/database"
	"github.com/aiuml/api/internal/eventbus"
	"github.com/aiuml/api/internal/gemini"
	"go.uber.org/zap"
)

// testconn checks every backing service the server would use, reading the
// same environment the server reads.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	failed := false

	if cfg.DatabaseURL == "memory://" {
		fmt.Println("postgres: skipped (in-memory store)")
	} else {
		fmt.Println("Connecting to postgres...")
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Printf("postgres: %v\n", err)
			failed = true
		} else {
			var result int
			if err := db.Pool().QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
				fmt.Printf("postgres query: %v\n", err)
				failed = true
			} else {
				fmt.Printf("postgres: ok (SELECT 1 = %d)\n", result)
			}
			db.Close()
		}
	}

	fmt.Println("Connecting to redis...")
	rdb, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		fmt.Printf("redis: %v\n", err)
		failed = true
	} else {
		fmt.Println("redis: ok")
		rdb.Close()
	}

	fmt.Println("Connecting to nats...")
	bus, err := eventbus.Connect(cfg.NATSURL, zap.NewNop())
	if err != nil {
		fmt.Printf("nats: %v\n", err)
		failed = true
	} else {
		fmt.Printf("nats: ok (connected=%t)\n", bus.Connected())
		bus.Close()
	}

	if err := gemini.ValidateCredential(cfg.GeminiAPIKey); err != nil {
		fmt.Printf("gemini: %v\n", err)
		failed = true
	} else {
		fmt.Printf("gemini: credential present, %d candidates\n", len(cfg.Candidates))
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("All connections successful!")
}
