package services

import (
	"context"
	"io"

	"github.com/username/uahtax/backend/src/models"
)

// RateProvider returns the UAH rates quoted between two ISO dates inclusive.
type RateProvider interface {
	FetchRates(ctx context.Context, from, to string) (models.RateTable, error)
}

// StatementService runs the trades and dividends pipelines for a session's statement.
type StatementService interface {
	ParseStatement(file io.Reader) (*models.Statement, error)
	Load(ctx context.Context, sessionID string, statement *models.Statement) (*models.Report, error)
	Latest(sessionID string) (*models.Report, error)
}
