package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/username/uahtax/backend/src/config"
	"github.com/username/uahtax/backend/src/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func assertNullDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	if assert.True(t, got.Valid, "expected a valid value %s", want) {
		assertDecimal(t, want, got.Decimal)
	}
}

func row(cells ...string) models.StatementRow {
	return models.StatementRow{Cells: cells}
}

// closeRow builds a summary row: symbol, datetime, exchange, qty, price, proceeds, comm/fee, basis, realized, code.
func closeRow(symbol, datetime, qty, commission, basis, realized, code string) models.StatementRow {
	return row(symbol, datetime, "NASDAQ", qty, "10.00", "100.00", commission, basis, realized, code)
}

// lotRow builds a closed-lot row: marker, date, -, qty, price, -, -, basis, realized, code.
func lotRow(date, qty, basis, realized, code string) models.StatementRow {
	return row(closedLotMarker, date, "", qty, "10.00", "", "", basis, realized, code)
}

func summaryBlock(rows ...models.StatementRow) models.RowBlock {
	return models.RowBlock{Rows: rows}
}

func detailBlock(rows ...models.StatementRow) models.RowBlock {
	return models.RowBlock{Detail: true, Rows: rows}
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		PersonalIncomeTaxRate: "0.18",
		MilitaryTaxRate:       "0.05",
		DividendTaxRate:       "0.09",
	}
}
