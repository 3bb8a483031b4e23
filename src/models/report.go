// backend/src/models/report.go
package models

import "time"

// TradeSection is the outcome of the trades pipeline. When Error is set, the section
// carries no data.
type TradeSection struct {
	Lots             []TradeLot      `json:"lots"`
	Summary          TradeTaxSummary `json:"summary"`
	FromDate         string          `json:"from_date,omitempty"`
	ToDate           string          `json:"to_date,omitempty"`
	MissingRateDates []string        `json:"missing_rate_dates"`
	Error            string          `json:"error,omitempty"`
	ErrorKind        string          `json:"error_kind,omitempty"`
}

// DividendSection is the outcome of the dividends pipeline.
type DividendSection struct {
	Dividends        []DividendRecord   `json:"dividends"`
	Withholding      WithholdingSummary `json:"withholding"`
	Summary          DividendTaxSummary `json:"summary"`
	FromDate         string             `json:"from_date,omitempty"`
	ToDate           string             `json:"to_date,omitempty"`
	MissingRateDates []string           `json:"missing_rate_dates"`
	Error            string             `json:"error,omitempty"`
	ErrorKind        string             `json:"error_kind,omitempty"`
}

// Report is everything produced from one loaded statement.
type Report struct {
	ID         string          `json:"id"`
	Generation uint64          `json:"generation"`
	CreatedAt  time.Time       `json:"created_at"`
	Account    []AccountField  `json:"account,omitempty"`
	Period     string          `json:"period,omitempty"`
	Generated  string          `json:"generated,omitempty"`
	Trades     TradeSection    `json:"trades"`
	Dividends  DividendSection `json:"dividends"`
}
