package ibkr

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/models"
)

// ErrNoStatementData is returned when the document contains neither trade nor dividend rows.
var ErrNoStatementData = errors.New("statement contains no trades and no dividends")

// Section containers of the IBKR HTML activity statement. Each id carries a per-account suffix.
const (
	tradesSelector      = `div[id^="tblTransactions_"]`
	dividendsSelector   = `div[id^="tblCombDiv_"] table tbody tr`
	withholdingSelector = `div[id^="tblWithholdingTax_"] table tbody tr`
	accountSelector     = `div[id^="tblAccountInformation_"] table tr`
	periodSelector      = `p.text-title span`
	generatedSelector   = `p.text-center.text-gray`

	detailBlockClass = "row-detail"
	generatedPrefix  = "Generated: "
)

// IBKRParser implements the parsers.Parser interface for IBKR HTML activity statements.
type IBKRParser struct{}

// NewParser creates a new instance of the IBKRParser.
func NewParser() *IBKRParser {
	return &IBKRParser{}
}

// Parse reads an HTML activity statement and collects the rows of the trades,
// dividends and withholding tax sections together with the account header.
func (p *IBKRParser) Parse(file io.Reader) (*models.Statement, error) {
	root, err := html.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("ibkr parser: failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	stmt := &models.Statement{
		TradeTables:     readTradeTables(doc),
		DividendRows:    readRows(doc.Find(dividendsSelector)),
		WithholdingRows: readRows(doc.Find(withholdingSelector)),
		Account:         readAccount(doc),
		Period:          strings.TrimSpace(doc.Find(periodSelector).First().Text()),
		Generated:       readGenerated(doc),
	}

	if !stmt.HasTrades() && !stmt.HasDividends() {
		return nil, ErrNoStatementData
	}

	logger.L.Debug("IBKR Parser: statement read",
		"tradeTables", len(stmt.TradeTables),
		"dividendRows", len(stmt.DividendRows),
		"withholdingRows", len(stmt.WithholdingRows))
	return stmt, nil
}

func readTradeTables(doc *goquery.Document) []models.RowTable {
	var tables []models.RowTable
	doc.Find(tradesSelector).Each(func(_ int, div *goquery.Selection) {
		table := models.RowTable{ID: div.AttrOr("id", "")}
		div.Find("table tbody").Each(func(_ int, tbody *goquery.Selection) {
			table.Blocks = append(table.Blocks, models.RowBlock{
				Detail: tbody.HasClass(detailBlockClass),
				Rows:   readRows(tbody.ChildrenFiltered("tr")),
			})
		})
		tables = append(tables, table)
	})
	return tables
}

func readRows(trs *goquery.Selection) []models.StatementRow {
	rows := make([]models.StatementRow, 0, trs.Length())
	trs.Each(func(_ int, tr *goquery.Selection) {
		rows = append(rows, readRow(tr))
	})
	return rows
}

func readRow(tr *goquery.Selection) models.StatementRow {
	cells := tr.ChildrenFiltered("td")
	row := models.StatementRow{Cells: make([]string, 0, cells.Length())}
	cells.Each(func(_ int, td *goquery.Selection) {
		row.Cells = append(row.Cells, strings.TrimSpace(td.Text()))
	})
	return row
}

func readAccount(doc *goquery.Document) []models.AccountField {
	var fields []models.AccountField
	doc.Find(accountSelector).Each(func(_ int, tr *goquery.Selection) {
		row := readRow(tr)
		key := row.Cell(1)
		if key == "" || strings.HasPrefix(key, "Address") {
			return
		}
		fields = append(fields, models.AccountField{Key: key, Value: row.Cell(2)})
	})
	return fields
}

func readGenerated(doc *goquery.Document) string {
	var generated string
	doc.Find(generatedSelector).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if strings.HasPrefix(text, generatedPrefix) {
			generated = strings.TrimPrefix(text, generatedPrefix)
			return false
		}
		return true
	})
	return generated
}
