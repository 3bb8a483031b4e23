package models

import "github.com/shopspring/decimal"

// NBURate is one element of the NBU exchange rate response.
type NBURate struct {
	CurrencyCode string          `json:"cc"`
	ExchangeDate string          `json:"exchangedate"` // DD.MM.YYYY
	RatePerUnit  decimal.Decimal `json:"rate_per_unit"`
}

// RateTable maps ISO dates (YYYY-MM-DD) to the UAH price of one unit of currency.
type RateTable map[string]decimal.Decimal

// Lookup returns the rate for date, or zero when no rate was quoted that day.
func (t RateTable) Lookup(date string) decimal.Decimal {
	if rate, ok := t[date]; ok {
		return rate
	}
	return decimal.Zero
}

// Has reports whether a rate was quoted for date.
func (t RateTable) Has(date string) bool {
	_, ok := t[date]
	return ok
}
