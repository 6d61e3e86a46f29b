package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Schema statements are applied in order and written to be re-runnable.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		image_url TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		rarity TEXT NOT NULL DEFAULT 'common',
		visibility TEXT NOT NULL DEFAULT 'private',
		tags TEXT[] NOT NULL DEFAULT '{}',
		creator_country TEXT,
		solo_attribution BOOLEAN NOT NULL DEFAULT TRUE,
		marketplace BOOLEAN NOT NULL DEFAULT FALSE,
		catalog BOOLEAN NOT NULL DEFAULT FALSE,
		print_available BOOLEAN NOT NULL DEFAULT FALSE,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		source_card_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards (created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_cards_rarity ON cards (rarity);`,
	`CREATE TABLE IF NOT EXISTS session_snapshots (
		key TEXT PRIMARY KEY,
		snapshot BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

func main() {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ping database: %v\n", err)
		os.Exit(1)
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			fmt.Fprintf(os.Stderr, "apply statement %d: %v\n", i+1, err)
			os.Exit(1)
		}
	}

	fmt.Printf("applied %d statements\n", len(statements))
}
