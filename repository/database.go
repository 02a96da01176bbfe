package repository

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQL connects to a sqlite3 or mysql database.
// MySQL DSNs need parseTime=true so timestamps scan into time.Time.
func OpenSQL(driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// every connection to :memory: is a distinct database
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		}
	case "mysql":
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL DEFAULT 'Employee',
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS bills (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				type TEXT NOT NULL DEFAULT '',
				name TEXT NOT NULL DEFAULT '',
				amount INTEGER NOT NULL DEFAULT 0,
				date TEXT NOT NULL DEFAULT '',
				vat TEXT NOT NULL DEFAULT '',
				pct INTEGER NOT NULL DEFAULT 20,
				commentary TEXT NOT NULL DEFAULT '',
				file_url TEXT,
				file_name TEXT,
				status TEXT NOT NULL DEFAULT 'pending',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_bills_email ON bills(email)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id CHAR(36) PRIMARY KEY,
				email VARCHAR(255) NOT NULL UNIQUE,
				name VARCHAR(255) NOT NULL DEFAULT '',
				type VARCHAR(32) NOT NULL DEFAULT 'Employee',
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS bills (
				id CHAR(36) PRIMARY KEY,
				email VARCHAR(255) NOT NULL,
				type VARCHAR(255) NOT NULL DEFAULT '',
				name VARCHAR(255) NOT NULL DEFAULT '',
				amount INT NOT NULL DEFAULT 0,
				date VARCHAR(32) NOT NULL DEFAULT '',
				vat VARCHAR(32) NOT NULL DEFAULT '',
				pct INT NOT NULL DEFAULT 20,
				commentary TEXT NOT NULL,
				file_url TEXT NULL,
				file_name VARCHAR(512) NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				INDEX idx_bills_email (email)
			)`,
		}
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
