package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/utils"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name                            string
		openRate, closeRate             string
		basis, realized, commission     string
		expired                         bool
		wantOpen, wantClose, wantResult string
	}{
		{"long regression", "40", "42", "495.4", "277.58", "-1.02", false, "19816", "32465.16", "12649.16"},
		{"long same rate", "40", "40", "100", "50", "0", false, "4000", "6000", "2000"},
		{"long loss", "40", "41", "100", "-20", "-1", false, "4000", "3280", "-720"},
		{"long expired worthless", "40", "41", "100", "-100", "0", true, "4000", "0", "-4000"},
		{"short", "40", "42", "-100", "20", "-1", false, "3360", "4000", "640"},
		{"short expired", "40", "42", "-100", "0", "0", true, "0", "4000", "4000"},
		{"short expired reported as full gain", "40", "42", "-100", "100", "0", true, "0", "4000", "4000"},
		{"short full gain without expiry flag", "40", "42", "-100", "100", "0", false, "0", "4000", "4000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(dec(tt.openRate), dec(tt.closeRate), dec(tt.basis), dec(tt.realized), dec(tt.commission), tt.expired)
			assertDecimal(t, tt.wantOpen, got.OpenUAH, "open")
			assertDecimal(t, tt.wantClose, got.CloseUAH, "close")
			assertDecimal(t, tt.wantResult, got.RealizedUAH, "realized")
			assert.True(t, got.RealizedUAH.Equal(got.CloseUAH.Sub(got.OpenUAH)))
		})
	}
}

func TestConvertIgnoresCommission(t *testing.T) {
	a := Convert(dec("40"), dec("42"), dec("495.4"), dec("277.58"), dec("0"), false)
	b := Convert(dec("40"), dec("42"), dec("495.4"), dec("277.58"), dec("-25"), false)
	assert.Equal(t, a, b)
}

func TestConvertSymmetry(t *testing.T) {
	r1, r2 := dec("36.57"), dec("39.12")
	for _, b := range []string{"0.01", "12.5", "1000"} {
		for _, x := range []string{"-3.3", "0", "17.25"} {
			basis, realized := dec(b), dec(x)

			long := Convert(r1, r2, basis, realized, decimal.Zero, false)
			assert.True(t, long.OpenUAH.Equal(basis.Mul(r1)))
			assert.True(t, long.CloseUAH.Equal(basis.Add(realized).Mul(r2)))

			short := Convert(r1, r2, basis.Neg(), realized, decimal.Zero, false)
			assert.True(t, short.OpenUAH.Equal(basis.Sub(realized).Mul(r2)))
			assert.True(t, short.CloseUAH.Equal(basis.Mul(r1)))
		}
	}
}

func testLots() []models.TradeLot {
	return []models.TradeLot{
		{
			Open:   models.OpenLeg{Date: "2024-01-02", Quantity: utils.ParseAmount("10"), Basis: utils.ParseAmount("495.4"), Realized: utils.ParseAmount("277.58")},
			Close:  models.CloseLeg{Symbol: "AAPL", Date: "2024-03-15", CommissionFee: utils.ParseAmount("-1.02")},
			Count:  1,
			IsLong: true,
		},
		{
			Open:    models.OpenLeg{Date: "2024-01-03", Quantity: utils.ParseAmount("-1"), Basis: utils.ParseAmount("-100"), Realized: utils.ParseAmount("10")},
			Close:   models.CloseLeg{Symbol: "SPY 16FEB24 480 P", Date: "2024-03-16", CommissionFee: utils.ParseAmount("-0.70")},
			Count:   1,
			IsShort: true,
		},
	}
}

func testRates() models.RateTable {
	return models.RateTable{
		"2024-01-02": dec("40"),
		"2024-01-03": dec("40"),
		"2024-03-15": dec("42"),
	}
}

func TestEnrichTrades(t *testing.T) {
	engine := NewTradeTaxEngine(DefaultTaxRates())
	lots := testLots()

	missing := engine.EnrichTrades(lots, testRates())
	assert.Equal(t, []string{"2024-03-16"}, missing)

	aapl := lots[0]
	assert.True(t, aapl.Enriched)
	assertDecimal(t, "40", aapl.OpenRate)
	assertDecimal(t, "42", aapl.CloseRate)
	assertNullDecimal(t, "19816", aapl.OpenUAH)
	assertNullDecimal(t, "32465.16", aapl.CloseUAH)
	assertNullDecimal(t, "12649.16", aapl.RealizedUAH)
	assert.False(t, aapl.CurrencyLoss)

	spy := lots[1]
	assert.True(t, spy.CloseRate.IsZero())
	assertNullDecimal(t, "0", spy.OpenUAH)
	assertNullDecimal(t, "4000", spy.CloseUAH)
}

func TestEnrichTradesFlagsCurrencyLoss(t *testing.T) {
	lots := []models.TradeLot{{
		Open:    models.OpenLeg{Date: "2024-01-03", Quantity: utils.ParseAmount("-1"), Basis: utils.ParseAmount("-100"), Realized: utils.ParseAmount("10")},
		Close:   models.CloseLeg{Date: "2024-03-15"},
		Count:   1,
		IsShort: true,
	}}
	rates := models.RateTable{"2024-01-03": dec("40"), "2024-03-15": dec("45")}

	NewTradeTaxEngine(DefaultTaxRates()).EnrichTrades(lots, rates)
	assertNullDecimal(t, "-50", lots[0].RealizedUAH)
	assert.True(t, lots[0].CurrencyLoss)
}

func TestEnrichTradesOnlyOnce(t *testing.T) {
	engine := NewTradeTaxEngine(DefaultTaxRates())
	lots := testLots()
	engine.EnrichTrades(lots, testRates())

	other := models.RateTable{"2024-01-02": dec("1"), "2024-03-15": dec("1")}
	assert.Empty(t, engine.EnrichTrades(lots, other))
	assertNullDecimal(t, "19816", lots[0].OpenUAH)
}

func TestEnrichTradesInvalidInput(t *testing.T) {
	lots := testLots()
	lots[0].Open.Realized = decimal.NullDecimal{}

	engine := NewTradeTaxEngine(DefaultTaxRates())
	engine.EnrichTrades(lots, testRates())
	assert.False(t, lots[0].OpenUAH.Valid)
	assert.False(t, lots[0].RealizedUAH.Valid)

	summary := engine.SummarizeTrades(lots)
	assert.False(t, summary.RealizedUAHTotal.Valid)
	assert.False(t, summary.TotalTax.Valid)
}

func TestSummarizeTrades(t *testing.T) {
	engine := NewTradeTaxEngine(DefaultTaxRates())

	gain := []models.TradeLot{
		{OpenUAH: utils.Valid(dec("1000")), CloseUAH: utils.Valid(dec("1600")), RealizedUAH: utils.Valid(dec("600"))},
		{OpenUAH: utils.Valid(dec("500")), CloseUAH: utils.Valid(dec("900")), RealizedUAH: utils.Valid(dec("400"))},
	}
	s := engine.SummarizeTrades(gain)
	assertNullDecimal(t, "1500", s.OpenUAHTotal)
	assertNullDecimal(t, "2500", s.CloseUAHTotal)
	assertNullDecimal(t, "1000", s.RealizedUAHTotal)
	assertNullDecimal(t, "180", s.PersonalIncomeTax)
	assertNullDecimal(t, "50", s.MilitaryTax)
	assertNullDecimal(t, "230", s.TotalTax)

	loss := []models.TradeLot{
		{OpenUAH: utils.Valid(dec("1000")), CloseUAH: utils.Valid(dec("700")), RealizedUAH: utils.Valid(dec("-300"))},
	}
	s = engine.SummarizeTrades(loss)
	assertNullDecimal(t, "0", s.PersonalIncomeTax)
	assertNullDecimal(t, "0", s.MilitaryTax)

	s = engine.SummarizeTrades(nil)
	assertNullDecimal(t, "0", s.RealizedUAHTotal)
	assertNullDecimal(t, "0", s.TotalTax)
}

func TestRateRange(t *testing.T) {
	from, to := RateRange(TradeDates(testLots()))
	assert.Equal(t, "2024-01-02", from)
	assert.Equal(t, "2024-03-16", to)

	from, to = RateRange([]string{"", "Total", "2024-05-01"})
	assert.Equal(t, "2024-05-01", from)
	assert.Equal(t, "2024-05-01", to)

	from, to = RateRange(nil)
	assert.Empty(t, from)
	assert.Empty(t, to)
}

func TestTaxRatesFromConfig(t *testing.T) {
	cfg := testConfig()
	rates, err := TaxRatesFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultTaxRates().PersonalIncome.String(), rates.PersonalIncome.String())

	cfg.MilitaryTaxRate = "five percent"
	_, err = TaxRatesFromConfig(cfg)
	assert.Error(t, err)
}
