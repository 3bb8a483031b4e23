package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/utils"
)

// Conversion is a closed lot expressed in UAH.
// OpenUAH is always the outflow leg and CloseUAH the inflow leg, so for a short the
// buyback is the "open" amount even though it happened last.
type Conversion struct {
	OpenUAH     decimal.Decimal
	CloseUAH    decimal.Decimal
	RealizedUAH decimal.Decimal
}

// Convert computes the UAH cost, proceeds and result of a closed lot.
// Longs have a positive basis. Shorts carry the premium received as a negative basis,
// and an expired short keeps the whole premium. Commission does not enter the result.
func Convert(openRate, closeRate, basis, realized, commission decimal.Decimal, isExpired bool) Conversion {
	var c Conversion
	switch {
	case basis.IsPositive():
		c.OpenUAH = basis.Mul(openRate)
		c.CloseUAH = basis.Add(realized).Mul(closeRate)
	case isExpired:
		c.OpenUAH = decimal.Zero
		c.CloseUAH = basis.Abs().Mul(openRate)
	default:
		buyback := basis.Abs().Sub(realized)
		c.OpenUAH = buyback.Mul(closeRate)
		c.CloseUAH = basis.Abs().Mul(openRate)
	}
	c.RealizedUAH = c.CloseUAH.Sub(c.OpenUAH)
	return c
}

type tradeTaxEngineImpl struct {
	rates TaxRates
}

// NewTradeTaxEngine creates a new instance of TradeTaxEngine.
func NewTradeTaxEngine(rates TaxRates) TradeTaxEngine {
	return &tradeTaxEngineImpl{rates: rates}
}

// EnrichTrades fills the rates and UAH amounts of every lot that has not been enriched yet.
// Dates without a quoted rate resolve to a zero rate and are returned sorted.
func (e *tradeTaxEngineImpl) EnrichTrades(lots []models.TradeLot, rates models.RateTable) []string {
	missing := newDateSet()
	for i := range lots {
		lot := &lots[i]
		if lot.Enriched {
			logger.L.Warn("Trade already enriched, skipping", "symbol", lot.Close.Symbol, "closeDate", lot.Close.Date)
			continue
		}

		missing.addIfMissing(rates, lot.Open.Date)
		missing.addIfMissing(rates, lot.Close.Date)
		lot.OpenRate = rates.Lookup(lot.Open.Date)
		lot.CloseRate = rates.Lookup(lot.Close.Date)

		if lot.Open.Basis.Valid && lot.Open.Realized.Valid {
			commission := lot.CommissionPerLot().Decimal
			c := Convert(lot.OpenRate, lot.CloseRate, lot.Open.Basis.Decimal, lot.Open.Realized.Decimal, commission, lot.IsExpired)
			lot.OpenUAH = utils.Valid(c.OpenUAH)
			lot.CloseUAH = utils.Valid(c.CloseUAH)
			lot.RealizedUAH = utils.Valid(c.RealizedUAH)
			lot.CurrencyLoss = lot.IsShort && lot.Open.Realized.Decimal.IsPositive() && c.RealizedUAH.IsNegative()
		} else {
			logger.L.Warn("Trade has unparsable basis or realized P/L", "symbol", lot.Close.Symbol, "closeDate", lot.Close.Date)
			lot.OpenUAH = decimal.NullDecimal{}
			lot.CloseUAH = decimal.NullDecimal{}
			lot.RealizedUAH = decimal.NullDecimal{}
		}
		lot.Enriched = true
	}

	dates := missing.sorted()
	if len(dates) > 0 {
		logger.L.Warn("No exchange rate for trade dates, using zero", "dates", dates)
	}
	return dates
}

// SummarizeTrades totals the UAH amounts and applies personal income and military tax
// to a positive total result. A loss carries no tax.
func (e *tradeTaxEngineImpl) SummarizeTrades(lots []models.TradeLot) models.TradeTaxSummary {
	opens := make([]decimal.NullDecimal, 0, len(lots))
	closes := make([]decimal.NullDecimal, 0, len(lots))
	realized := make([]decimal.NullDecimal, 0, len(lots))
	for _, lot := range lots {
		opens = append(opens, lot.OpenUAH)
		closes = append(closes, lot.CloseUAH)
		realized = append(realized, lot.RealizedUAH)
	}

	s := models.TradeTaxSummary{
		OpenUAHTotal:     utils.SumNull(opens...),
		CloseUAHTotal:    utils.SumNull(closes...),
		RealizedUAHTotal: utils.SumNull(realized...),
	}
	s.PersonalIncomeTax = taxOnGain(s.RealizedUAHTotal, e.rates.PersonalIncome)
	s.MilitaryTax = taxOnGain(s.RealizedUAHTotal, e.rates.Military)
	s.TotalTax = utils.AddNull(s.PersonalIncomeTax, s.MilitaryTax)
	return s
}

func taxOnGain(total decimal.NullDecimal, rate decimal.Decimal) decimal.NullDecimal {
	if !total.Valid {
		return total
	}
	if !total.Decimal.IsPositive() {
		return utils.Valid(decimal.Zero)
	}
	return utils.Valid(total.Decimal.Mul(rate))
}
