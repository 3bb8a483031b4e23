// backend/src/models/statement.go
package models

// StatementRow is one <tr> of a statement table, reduced to the text of its cells.
type StatementRow struct {
	Cells []string `json:"cells"`
}

// Cell returns the text of the 1-based column n, or "" when the row is shorter.
func (r StatementRow) Cell(n int) string {
	if n < 1 || n > len(r.Cells) {
		return ""
	}
	return r.Cells[n-1]
}

// RowBlock is one <tbody> of a statement table. Detail blocks hold the closed-lot rows
// that break down the summary row of the block before them.
type RowBlock struct {
	Detail bool           `json:"detail"`
	Rows   []StatementRow `json:"rows"`
}

// RowTable is one instance of a statement section (e.g. the stocks or the options part
// of the trades section), in document order.
type RowTable struct {
	ID     string     `json:"id"`
	Blocks []RowBlock `json:"blocks"`
}

// RowCount returns the number of rows across all blocks.
func (t RowTable) RowCount() int {
	n := 0
	for _, b := range t.Blocks {
		n += len(b.Rows)
	}
	return n
}

// AccountField is a key/value line of the account information section.
type AccountField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Statement is the structured content of an activity statement document.
type Statement struct {
	TradeTables     []RowTable     `json:"trade_tables"`
	DividendRows    []StatementRow `json:"dividend_rows"`
	WithholdingRows []StatementRow `json:"withholding_rows"`

	Account   []AccountField `json:"account,omitempty"`
	Period    string         `json:"period,omitempty"`
	Generated string         `json:"generated,omitempty"`
}

// HasTrades reports whether any trade table contains at least one row.
func (s *Statement) HasTrades() bool {
	for _, t := range s.TradeTables {
		if t.RowCount() > 0 {
			return true
		}
	}
	return false
}

// HasDividends reports whether the dividend section contains at least one row.
func (s *Statement) HasDividends() bool {
	return len(s.DividendRows) > 0
}
