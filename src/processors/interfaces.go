package processors

import (
	"github.com/username/uahtax/backend/src/models"
)

// LotMatcher groups the rows of the trades section into closed lots.
type LotMatcher interface {
	Match(tables []models.RowTable) ([]models.TradeLot, error)
}

// TradeTaxEngine converts closed lots to UAH and computes the tax due on them.
type TradeTaxEngine interface {
	EnrichTrades(lots []models.TradeLot, rates models.RateTable) (missingRateDates []string)
	SummarizeTrades(lots []models.TradeLot) models.TradeTaxSummary
}

// DividendProcessor extracts dividends with their withholding tax, converts them to UAH
// and computes the tax due on them.
type DividendProcessor interface {
	Process(dividendRows, withholdingRows []models.StatementRow) ([]models.DividendRecord, models.WithholdingSummary)
	EnrichDividends(dividends []models.DividendRecord, rates models.RateTable) (missingRateDates []string)
	SummarizeDividends(dividends []models.DividendRecord) models.DividendTaxSummary
}
