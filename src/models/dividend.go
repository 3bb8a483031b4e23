// backend/src/models/dividend.go
package models

import "github.com/shopspring/decimal"

// DividendRecord is one dividend accrual with the withholding tax matched to it.
type DividendRecord struct {
	Date        string              `json:"date"`
	Identifier  string              `json:"identifier"`
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
	Tax         decimal.NullDecimal `json:"tax"`    // Non-positive, withholding is a debit
	Income      decimal.NullDecimal `json:"income"` // Amount + Tax
	Rate        decimal.Decimal     `json:"rate"`
	IncomeUAH   decimal.NullDecimal `json:"income_uah"`
	Enriched    bool                `json:"enriched"`
}

// WithholdingTaxRow is one line of the withholding tax section.
type WithholdingTaxRow struct {
	Date       string              `json:"date"`
	Identifier string              `json:"identifier"`
	Amount     decimal.NullDecimal `json:"amount"`
}

// WithholdingMatch pairs a dividend with a withholding row charged against it.
// Indexes refer to the slices passed to the join.
type WithholdingMatch struct {
	DividendIndex    int `json:"dividend_index"`
	WithholdingIndex int `json:"withholding_index"`
}

// WithholdingSummary is the withholding section filtered to the dividends of the
// statement period.
type WithholdingSummary struct {
	Rows     []WithholdingTaxRow `json:"rows"`
	Excluded []WithholdingTaxRow `json:"excluded"`
	Total    decimal.NullDecimal `json:"total"`
	// Consistent is false when Total differs from the sum of the dividends' Tax.
	Consistent bool `json:"consistent"`
}

// DividendTaxSummary holds the totals of a set of dividends and the tax due on them.
type DividendTaxSummary struct {
	AmountTotal    decimal.NullDecimal `json:"amount_total"`
	TaxTotal       decimal.NullDecimal `json:"tax_total"`
	IncomeTotal    decimal.NullDecimal `json:"income_total"`
	IncomeUAHTotal decimal.NullDecimal `json:"income_uah_total"`
	DividendTax    decimal.NullDecimal `json:"dividend_tax"`
	MilitaryTax    decimal.NullDecimal `json:"military_tax"`
	TotalTax       decimal.NullDecimal `json:"total_tax"`
	NetIncomeUAH   decimal.NullDecimal `json:"net_income_uah"`
}
