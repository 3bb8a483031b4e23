package processors

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/utils"
)

// ErrCloseLegNotFound is returned when a closed-lot row has no summary row to pair with.
var ErrCloseLegNotFound = errors.New("closed lot has no close leg")

const (
	closedLotMarker = "Closed Lot:"
	expiredCode     = "Ep"
)

// Option contracts are named "<root> <DD><MON><YY> <strike> <C|P>", e.g. "WMT 17OCT25 92.5 P".
var optionSymbolPattern = regexp.MustCompile(`\s+\d{2}[A-Z]{3}\d{2}\s+\d+(\.\d+)?\s+[CP]$`)

// IsOptionSymbol reports whether symbol names an option contract.
func IsOptionSymbol(symbol string) bool {
	return optionSymbolPattern.MatchString(symbol)
}

func isClosedLot(row models.StatementRow) bool {
	return row.Cell(1) == closedLotMarker
}

type scanState int

const (
	// awaitingClose: no close leg is known for the markers that follow.
	awaitingClose scanState = iota
	// collectingRun: markers are paired with the current close leg.
	collectingRun
)

// rowRef locates a row inside a table.
type rowRef struct {
	block, index int
}

type lotMatcherImpl struct{}

// NewLotMatcher creates a new instance of LotMatcher.
func NewLotMatcher() LotMatcher {
	return &lotMatcherImpl{}
}

// Match produces one TradeLot per closed-lot row, sorted by close date.
// A closed-lot row without a close leg fails the whole statement.
func (m *lotMatcherImpl) Match(tables []models.RowTable) ([]models.TradeLot, error) {
	var lots []models.TradeLot
	for _, table := range tables {
		tableLots, err := m.matchTable(table)
		if err != nil {
			return nil, err
		}
		lots = append(lots, tableLots...)
	}

	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].Close.Date < lots[j].Close.Date
	})

	logger.L.Debug("Lot matcher finished", "tables", len(tables), "lots", len(lots))
	return lots, nil
}

func (m *lotMatcherImpl) matchTable(table models.RowTable) ([]models.TradeLot, error) {
	var lots []models.TradeLot
	counts := make(map[rowRef]int)

	for b, block := range table.Blocks {
		if !block.Detail {
			continue
		}

		state := awaitingClose
		var closeRef rowRef
		for i, row := range block.Rows {
			if !isClosedLot(row) {
				closeRef = rowRef{block: b, index: i}
				state = collectingRun
				continue
			}

			if state == awaitingClose {
				ref, ok := fallbackCloseLeg(table, b)
				if !ok {
					return nil, fmt.Errorf("%w: table %s, block %d, row %d", ErrCloseLegNotFound, table.ID, b, i)
				}
				closeRef = ref
				state = collectingRun
			}

			count, seen := counts[closeRef]
			if !seen {
				count = runLength(table, closeRef)
				counts[closeRef] = count
			}
			closeRow := table.Blocks[closeRef.block].Rows[closeRef.index]
			lots = append(lots, buildLot(row, closeRow, count))
		}
	}
	return lots, nil
}

// fallbackCloseLeg returns the last row of the block before b, when that row is a summary row.
func fallbackCloseLeg(table models.RowTable, b int) (rowRef, bool) {
	if b == 0 {
		return rowRef{}, false
	}
	prev := table.Blocks[b-1].Rows
	if len(prev) == 0 || isClosedLot(prev[len(prev)-1]) {
		return rowRef{}, false
	}
	return rowRef{block: b - 1, index: len(prev) - 1}, true
}

// runLength counts the closed-lot rows that directly follow the close leg in its block.
// A close leg that ends its block closes a single lot.
func runLength(table models.RowTable, closeRef rowRef) int {
	rows := table.Blocks[closeRef.block].Rows
	count := 0
	for i := closeRef.index + 1; i < len(rows) && isClosedLot(rows[i]); i++ {
		count++
	}
	if count < 1 {
		return 1
	}
	return count
}

func buildLot(open, closeRow models.StatementRow, count int) models.TradeLot {
	lot := models.TradeLot{
		Open: models.OpenLeg{
			Date:      open.Cell(2),
			Quantity:  utils.ParseAmount(open.Cell(4)),
			UnitPrice: utils.ParseAmount(open.Cell(5)),
			Basis:     utils.ParseAmount(open.Cell(8)),
			Realized:  utils.ParseAmount(open.Cell(9)),
			Code:      open.Cell(10),
		},
		Close: models.CloseLeg{
			Symbol:        closeRow.Cell(1),
			DateTime:      closeRow.Cell(2),
			Date:          utils.DatePart(closeRow.Cell(2)),
			Exchange:      closeRow.Cell(3),
			Quantity:      utils.ParseAmount(closeRow.Cell(4)),
			UnitPrice:     utils.ParseAmount(closeRow.Cell(5)),
			Proceeds:      utils.ParseAmount(closeRow.Cell(6)),
			CommissionFee: utils.ParseAmount(closeRow.Cell(7)),
			Basis:         utils.ParseAmount(closeRow.Cell(8)),
			Realized:      utils.ParseAmount(closeRow.Cell(9)),
			Code:          closeRow.Cell(10),
		},
		Count: count,
	}

	if qty := lot.Open.Quantity; qty.Valid {
		lot.IsLong = qty.Decimal.IsPositive()
		lot.IsShort = qty.Decimal.IsNegative()
	}
	lot.IsOption = IsOptionSymbol(lot.Close.Symbol)
	lot.IsExpired = strings.Contains(lot.Open.Code, expiredCode) || strings.Contains(lot.Close.Code, expiredCode)
	return lot
}
