package processors

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/utils"
)

const identifierSuffixSep = " ("

// dividendProcessorImpl implements the DividendProcessor interface.
type dividendProcessorImpl struct {
	rates TaxRates
}

// NewDividendProcessor creates a new instance of DividendProcessor.
func NewDividendProcessor(rates TaxRates) DividendProcessor {
	return &dividendProcessorImpl{rates: rates}
}

// ExtractDividends reads the dividend section. Its first row is the currency header
// and its last row the total, so both are skipped.
func ExtractDividends(rows []models.StatementRow) []models.DividendRecord {
	if len(rows) < 3 {
		return []models.DividendRecord{}
	}
	body := rows[1 : len(rows)-1]
	dividends := make([]models.DividendRecord, 0, len(body))
	for _, row := range body {
		description := row.Cell(2)
		identifier, _, _ := strings.Cut(description, identifierSuffixSep)
		dividends = append(dividends, models.DividendRecord{
			Date:        row.Cell(1),
			Identifier:  identifier,
			Description: description,
			Amount:      utils.ParseAmount(row.Cell(3)),
		})
	}
	return dividends
}

// ExtractWithholding reads the withholding tax section. Header and total rows carry no
// date and are skipped.
func ExtractWithholding(rows []models.StatementRow) []models.WithholdingTaxRow {
	withholding := make([]models.WithholdingTaxRow, 0, len(rows))
	for _, row := range rows {
		date := row.Cell(1)
		if _, err := utils.ParseISODate(date); err != nil {
			continue
		}
		withholding = append(withholding, models.WithholdingTaxRow{
			Date:       date,
			Identifier: row.Cell(2),
			Amount:     utils.ParseAmount(row.Cell(3)),
		})
	}
	return withholding
}

// withholdingApplies is the single rule pairing withholding with dividends.
func withholdingApplies(d models.DividendRecord, w models.WithholdingTaxRow) bool {
	return w.Date == d.Date && strings.HasPrefix(w.Identifier, d.Identifier)
}

// MatchWithholding pairs every dividend with every withholding row charged against it,
// in dividend order then withholding order.
func MatchWithholding(dividends []models.DividendRecord, withholding []models.WithholdingTaxRow) []models.WithholdingMatch {
	var matches []models.WithholdingMatch
	for di, d := range dividends {
		for wi, w := range withholding {
			if withholdingApplies(d, w) {
				matches = append(matches, models.WithholdingMatch{DividendIndex: di, WithholdingIndex: wi})
			}
		}
	}
	return matches
}

// ApplyWithholding sets each dividend's Tax to the sum of its matched withholding and
// derives Income.
func ApplyWithholding(dividends []models.DividendRecord, withholding []models.WithholdingTaxRow, matches []models.WithholdingMatch) {
	taxes := make([][]decimal.NullDecimal, len(dividends))
	for _, m := range matches {
		taxes[m.DividendIndex] = append(taxes[m.DividendIndex], withholding[m.WithholdingIndex].Amount)
	}
	for i := range dividends {
		dividends[i].Tax = utils.SumNull(taxes[i]...)
		dividends[i].Income = utils.AddNull(dividends[i].Amount, dividends[i].Tax)
	}
}

// AggregateWithholding keeps the withholding rows that belong to a known dividend, each
// once, and checks their total against the per-dividend tax.
func AggregateWithholding(dividends []models.DividendRecord, withholding []models.WithholdingTaxRow, matches []models.WithholdingMatch) models.WithholdingSummary {
	matched := make([]bool, len(withholding))
	for _, m := range matches {
		matched[m.WithholdingIndex] = true
	}

	summary := models.WithholdingSummary{
		Rows:     []models.WithholdingTaxRow{},
		Excluded: []models.WithholdingTaxRow{},
	}
	amounts := make([]decimal.NullDecimal, 0, len(withholding))
	for i, w := range withholding {
		if matched[i] {
			summary.Rows = append(summary.Rows, w)
			amounts = append(amounts, w.Amount)
		} else {
			summary.Excluded = append(summary.Excluded, w)
		}
	}
	summary.Total = utils.SumNull(amounts...)

	taxes := make([]decimal.NullDecimal, 0, len(dividends))
	for _, d := range dividends {
		taxes = append(taxes, d.Tax)
	}
	dividendTax := utils.SumNull(taxes...)
	summary.Consistent = utils.EqualNull(summary.Total, dividendTax)
	if !summary.Consistent {
		logger.L.Warn("Withholding total does not match dividend tax",
			"withholdingTotal", summary.Total, "dividendTax", dividendTax)
	}
	return summary
}

// Process extracts the dividends and derives both the per-dividend tax and the
// withholding summary from one set of matches.
func (p *dividendProcessorImpl) Process(dividendRows, withholdingRows []models.StatementRow) ([]models.DividendRecord, models.WithholdingSummary) {
	dividends := ExtractDividends(dividendRows)
	withholding := ExtractWithholding(withholdingRows)
	matches := MatchWithholding(dividends, withholding)

	ApplyWithholding(dividends, withholding, matches)
	summary := AggregateWithholding(dividends, withholding, matches)

	logger.L.Debug("Dividends extracted",
		"dividends", len(dividends), "withholdingRows", len(withholding),
		"matched", len(summary.Rows), "excluded", len(summary.Excluded))
	return dividends, summary
}

// EnrichDividends converts each dividend's income to UAH at the rate of its date.
func (p *dividendProcessorImpl) EnrichDividends(dividends []models.DividendRecord, rates models.RateTable) []string {
	missing := newDateSet()
	for i := range dividends {
		d := &dividends[i]
		if d.Enriched {
			continue
		}
		missing.addIfMissing(rates, d.Date)
		d.Rate = rates.Lookup(d.Date)
		d.IncomeUAH = utils.MulNull(d.Income, d.Rate)
		d.Enriched = true
	}

	dates := missing.sorted()
	if len(dates) > 0 {
		logger.L.Warn("No exchange rate for dividend dates, using zero", "dates", dates)
	}
	return dates
}

// SummarizeDividends totals the dividends and applies dividend and military tax to the
// UAH income.
func (p *dividendProcessorImpl) SummarizeDividends(dividends []models.DividendRecord) models.DividendTaxSummary {
	var amounts, taxes, incomes, incomesUAH []decimal.NullDecimal
	for _, d := range dividends {
		amounts = append(amounts, d.Amount)
		taxes = append(taxes, d.Tax)
		incomes = append(incomes, d.Income)
		incomesUAH = append(incomesUAH, d.IncomeUAH)
	}

	s := models.DividendTaxSummary{
		AmountTotal:    utils.SumNull(amounts...),
		TaxTotal:       utils.SumNull(taxes...),
		IncomeTotal:    utils.SumNull(incomes...),
		IncomeUAHTotal: utils.SumNull(incomesUAH...),
	}
	s.DividendTax = utils.MulNull(s.IncomeUAHTotal, p.rates.Dividend)
	s.MilitaryTax = utils.MulNull(s.IncomeUAHTotal, p.rates.Military)
	s.TotalTax = utils.AddNull(s.DividendTax, s.MilitaryTax)
	s.NetIncomeUAH = utils.SubNull(utils.SubNull(s.IncomeUAHTotal, s.DividendTax), s.MilitaryTax)
	return s
}
