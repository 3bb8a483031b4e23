// backend/src/parsers/factory.go
package parsers

import (
	"fmt"

	"github.com/username/uahtax/backend/src/parsers/ibkr"
)

// ErrNoStatementData is returned when a document has neither trade nor dividend rows.
var ErrNoStatementData = ibkr.ErrNoStatementData

func GetParser(source string) (Parser, error) {
	switch source {
	case "ibkr", "":
		return ibkr.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
