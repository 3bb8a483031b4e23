package services

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/security/validation"
)

// F1OperationSecurities is the F1 appendix code for operations with securities.
const F1OperationSecurities = "4"

// F1Row is one line of the F1 appendix of the annual tax return.
type F1Row struct {
	Number        int    `csv:"number"`
	OperationType string `csv:"operation_type"`
	Name          string `csv:"name"`
	IncomeUAH     string `csv:"income_uah"`
	ExpenseUAH    string `csv:"expense_uah"`
}

// F1Rows lays out enriched lots as F1 appendix lines, amounts rounded to kopecks.
func F1Rows(lots []models.TradeLot) []F1Row {
	rows := make([]F1Row, 0, len(lots))
	for i, lot := range lots {
		rows = append(rows, F1Row{
			Number:        i + 1,
			OperationType: F1OperationSecurities,
			Name:          validation.SanitizeCell(lot.Close.Symbol),
			IncomeUAH:     formatUAH(lot.CloseUAH),
			ExpenseUAH:    formatUAH(lot.OpenUAH),
		})
	}
	return rows
}

// WriteF1 writes the F1 appendix as CSV rows without a header, ready to paste into the form.
func WriteF1(w io.Writer, lots []models.TradeLot) error {
	if err := gocsv.MarshalWithoutHeaders(F1Rows(lots), w); err != nil {
		return fmt.Errorf("failed to write F1 export: %w", err)
	}
	return nil
}

func formatUAH(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}
