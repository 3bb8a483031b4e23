package model

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/uahtax/backend/src/database"
	"github.com/username/uahtax/backend/src/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetRates(t *testing.T) {
	db := openTestDB(t)

	err := SaveRates(db, "USD", models.RateTable{
		"2024-03-01": decimal.RequireFromString("37.9846"),
		"2024-03-04": decimal.RequireFromString("38.0425"),
		"2024-04-01": decimal.RequireFromString("39.0000"),
	})
	require.NoError(t, err)

	rates, err := GetRatesInRange(db, "USD", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "37.9846", rates["2024-03-01"].String())

	other, err := GetRatesInRange(db, "EUR", "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveRatesReplaces(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SaveRates(db, "USD", models.RateTable{"2024-03-01": decimal.RequireFromString("1")}))
	require.NoError(t, SaveRates(db, "USD", models.RateTable{"2024-03-01": decimal.RequireFromString("2")}))

	rates, err := GetRatesInRange(db, "USD", "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2", rates["2024-03-01"].String())
}

func TestIsRangeCovered(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, RecordRange(db, "USD", "2024-01-01", "2024-06-30"))

	tests := []struct {
		from, to string
		want     bool
	}{
		{"2024-01-01", "2024-06-30", true},
		{"2024-02-10", "2024-03-10", true},
		{"2023-12-31", "2024-03-10", false},
		{"2024-06-01", "2024-07-01", false},
	}
	for _, tt := range tests {
		got, err := IsRangeCovered(db, "USD", tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s..%s", tt.from, tt.to)
	}

	got, err := IsRangeCovered(db, "EUR", "2024-02-10", "2024-03-10")
	require.NoError(t, err)
	assert.False(t, got)
}
