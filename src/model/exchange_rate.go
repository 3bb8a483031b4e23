package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/uahtax/backend/src/models"
)

// Rates are stored as decimal text so archived values stay exact.

// GetRatesInRange returns the archived rates of currency between from and to inclusive.
func GetRatesInRange(db *sql.DB, currency, from, to string) (models.RateTable, error) {
	query := `SELECT date, rate FROM exchange_rates WHERE currency = ? AND date >= ? AND date <= ? ORDER BY date`
	rows, err := db.Query(query, currency, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(models.RateTable)
	for rows.Next() {
		var date, rateText string
		if err := rows.Scan(&date, &rateText); err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(rateText)
		if err != nil {
			return nil, fmt.Errorf("archived rate for %s on %s is not a number: %w", currency, date, err)
		}
		rates[date] = rate
	}
	return rates, rows.Err()
}

// SaveRates stores rates in one transaction, replacing rates already archived for the
// same dates.
func SaveRates(db *sql.DB, currency string, rates models.RateTable) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO exchange_rates (currency, date, rate, fetched_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for date, rate := range rates {
		if _, err := stmt.Exec(currency, date, rate.String(), now); err != nil {
			return fmt.Errorf("failed to store rate for %s on %s: %w", currency, date, err)
		}
	}
	return tx.Commit()
}

// RecordRange marks from..to as fully archived for currency.
func RecordRange(db *sql.DB, currency, from, to string) error {
	_, err := db.Exec(`INSERT INTO rate_ranges (currency, start_date, end_date, fetched_at) VALUES (?, ?, ?, ?)`,
		currency, from, to, time.Now().UTC())
	return err
}

// IsRangeCovered reports whether a single archived range spans from..to.
func IsRangeCovered(db *sql.DB, currency, from, to string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM rate_ranges WHERE currency = ? AND start_date <= ? AND end_date >= ? LIMIT 1`,
		currency, from, to).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
