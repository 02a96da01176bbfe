package main

import (
	"context"
	"log"

	"billed-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL DEFAULT '',
    type VARCHAR(32) NOT NULL DEFAULT 'Employee' CHECK (type IN ('Employee', 'Admin')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bills (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL,
    type VARCHAR(255) NOT NULL DEFAULT '',
    name VARCHAR(255) NOT NULL DEFAULT '',
    amount INTEGER NOT NULL DEFAULT 0,
    date VARCHAR(32) NOT NULL DEFAULT '',
    vat VARCHAR(32) NOT NULL DEFAULT '',
    pct INTEGER NOT NULL DEFAULT 20,
    commentary TEXT NOT NULL DEFAULT '',
    file_url TEXT,
    file_name TEXT,
    status VARCHAR(16) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'refused')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_bills_email ON bills(email);
`

func main() {
	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("create-schema targets postgres; DATABASE_DRIVER is %s (sqlite3 and mysql are migrated by the server)", cfg.Database.Driver)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// gen_random_uuid is built in from Postgres 13; older servers need pgcrypto
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS pgcrypto"); err != nil {
		log.Printf("Warning: Failed to create pgcrypto extension: %v", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	log.Println("✓ users and bills tables ready")
}
