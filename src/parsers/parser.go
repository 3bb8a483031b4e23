// backend/src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/uahtax/backend/src/models"
)

// Parser turns an uploaded broker statement into its structured sections.
type Parser interface {
	Parse(file io.Reader) (*models.Statement, error)
}
