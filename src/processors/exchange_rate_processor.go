package processors

import (
	"sort"

	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/utils"
)

// RateRange returns the earliest and latest of the given ISO dates. Empty or malformed
// dates are ignored; with no usable date both bounds are empty.
func RateRange(dates []string) (from, to string) {
	for _, d := range dates {
		if _, err := utils.ParseISODate(d); err != nil {
			continue
		}
		if from == "" || d < from {
			from = d
		}
		if to == "" || d > to {
			to = d
		}
	}
	return from, to
}

// TradeDates lists the open and close dates of the lots.
func TradeDates(lots []models.TradeLot) []string {
	dates := make([]string, 0, 2*len(lots))
	for _, lot := range lots {
		dates = append(dates, lot.Open.Date, lot.Close.Date)
	}
	return dates
}

// DividendDates lists the accrual dates of the dividends.
func DividendDates(dividends []models.DividendRecord) []string {
	dates := make([]string, 0, len(dividends))
	for _, d := range dividends {
		dates = append(dates, d.Date)
	}
	return dates
}

type dateSet map[string]struct{}

func newDateSet() dateSet {
	return make(dateSet)
}

func (s dateSet) addIfMissing(rates models.RateTable, date string) {
	if !rates.Has(date) {
		s[date] = struct{}{}
	}
}

func (s dateSet) sorted() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
