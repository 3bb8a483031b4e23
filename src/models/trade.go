// backend/src/models/trade.go
package models

import "github.com/shopspring/decimal"

// OpenLeg is the acquisition side of a closed lot.
type OpenLeg struct {
	Date      string              `json:"date"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Basis     decimal.NullDecimal `json:"basis"`
	Realized  decimal.NullDecimal `json:"realized"`
	Code      string              `json:"code"`
}

// CloseLeg is the disposal side of a closed lot, shared by every lot closed by one order.
type CloseLeg struct {
	Symbol        string              `json:"symbol"`
	DateTime      string              `json:"datetime"`
	Date          string              `json:"date"`
	Exchange      string              `json:"exchange"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	UnitPrice     decimal.NullDecimal `json:"unit_price"`
	Proceeds      decimal.NullDecimal `json:"proceeds"`
	CommissionFee decimal.NullDecimal `json:"commission_fee"`
	Basis         decimal.NullDecimal `json:"basis"`
	Realized      decimal.NullDecimal `json:"realized"`
	Code          string              `json:"code"`
}

// TradeLot is one closed lot: an open leg, its close leg and the number of lots the
// close leg was split across.
type TradeLot struct {
	Open  OpenLeg  `json:"open"`
	Close CloseLeg `json:"close"`
	Count int      `json:"count"`

	IsLong    bool `json:"is_long"`
	IsShort   bool `json:"is_short"`
	IsOption  bool `json:"is_option"`
	IsExpired bool `json:"is_expired"`

	OpenRate    decimal.Decimal     `json:"open_rate"`
	CloseRate   decimal.Decimal     `json:"close_rate"`
	OpenUAH     decimal.NullDecimal `json:"open_uah"`
	CloseUAH    decimal.NullDecimal `json:"close_uah"`
	RealizedUAH decimal.NullDecimal `json:"realized_uah"`

	// CurrencyLoss marks a short that made money in USD but lost money in UAH.
	CurrencyLoss bool `json:"currency_loss"`
	Enriched     bool `json:"enriched"`
}

// CommissionPerLot apportions the close leg commission across the lots it closed.
func (t TradeLot) CommissionPerLot() decimal.NullDecimal {
	if !t.Close.CommissionFee.Valid || t.Count < 1 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(t.Close.CommissionFee.Decimal.Div(decimal.NewFromInt(int64(t.Count))))
}

// TradeTaxSummary holds the UAH totals of a set of trades and the tax due on them.
type TradeTaxSummary struct {
	OpenUAHTotal      decimal.NullDecimal `json:"open_uah_total"`
	CloseUAHTotal     decimal.NullDecimal `json:"close_uah_total"`
	RealizedUAHTotal  decimal.NullDecimal `json:"realized_uah_total"`
	PersonalIncomeTax decimal.NullDecimal `json:"personal_income_tax"`
	MilitaryTax       decimal.NullDecimal `json:"military_tax"`
	TotalTax          decimal.NullDecimal `json:"total_tax"`
}
