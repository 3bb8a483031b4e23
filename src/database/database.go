package database

import (
	"database/sql"
	"fmt"
	stdlog "log"

	"github.com/username/uahtax/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

const schema = `
	CREATE TABLE IF NOT EXISTS exchange_rates (
		currency TEXT NOT NULL,
		date TEXT NOT NULL,
		rate TEXT NOT NULL,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (currency, date)
	);

	CREATE TABLE IF NOT EXISTS rate_ranges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		currency TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rate_ranges_currency ON rate_ranges (currency, start_date, end_date);
	`

// InitDB opens the exchange rate archive and stores it in DB. Failure is fatal.
func InitDB(databasePath string) {
	db, err := Open(databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}
	DB = db
	logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
}

// Open opens the sqlite database at databasePath and brings its schema up to date.
func Open(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		logger.L.Error("failed to create tables", "error", err)
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return db, nil
}
