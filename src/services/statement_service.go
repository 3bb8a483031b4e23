// backend/src/services/statement_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/parsers"
	"github.com/username/uahtax/backend/src/processors"
)

const (
	ckSessionReport = "report_session_%s"

	DefaultReportExpiration = 2 * time.Hour
	CacheCleanupInterval    = 30 * time.Minute
)

// Section error kinds reported to clients.
const (
	ErrorKindParse      = "parse"
	ErrorKindRateLookup = "rate_lookup"
	ErrorKindCancelled  = "cancelled"
	ErrorKindInternal   = "internal"
)

type statementServiceImpl struct {
	parser            parsers.Parser
	lotMatcher        processors.LotMatcher
	taxEngine         processors.TradeTaxEngine
	dividendProcessor processors.DividendProcessor
	rates             RateProvider
	reportCache       *cache.Cache
	reportTTL         time.Duration

	mu         sync.Mutex
	generation uint64
	latest     map[string]uint64
	cancels    map[string]context.CancelFunc
}

func NewStatementService(
	parser parsers.Parser,
	lotMatcher processors.LotMatcher,
	taxEngine processors.TradeTaxEngine,
	dividendProcessor processors.DividendProcessor,
	rates RateProvider,
	reportCache *cache.Cache,
	reportTTL time.Duration,
) StatementService {
	if reportTTL <= 0 {
		reportTTL = DefaultReportExpiration
	}
	return &statementServiceImpl{
		parser:            parser,
		lotMatcher:        lotMatcher,
		taxEngine:         taxEngine,
		dividendProcessor: dividendProcessor,
		rates:             rates,
		reportCache:       reportCache,
		reportTTL:         reportTTL,
		latest:            make(map[string]uint64),
		cancels:           make(map[string]context.CancelFunc),
	}
}

// ParseStatement reads an uploaded statement document.
func (s *statementServiceImpl) ParseStatement(file io.Reader) (*models.Statement, error) {
	statement, err := s.parser.Parse(file)
	if err != nil {
		if errors.Is(err, parsers.ErrNoStatementData) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return statement, nil
}

// Load runs both pipelines for statement and publishes the report as the session's
// latest. A newer Load for the same session cancels this one, and a superseded run
// publishes nothing and returns ErrSuperseded.
func (s *statementServiceImpl) Load(ctx context.Context, sessionID string, statement *models.Statement) (*models.Report, error) {
	overallStartTime := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	generation := s.begin(sessionID, cancel)
	defer s.finish(sessionID, generation, cancel)

	log := logger.L.With("sessionID", sessionID, "generation", generation)
	log.Info("Statement pipeline START")

	report := &models.Report{
		ID:         uuid.NewString(),
		Generation: generation,
		CreatedAt:  time.Now().UTC(),
		Account:    statement.Account,
		Period:     statement.Period,
		Generated:  statement.Generated,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Trades = s.runTrades(logger.WithContext(runCtx, log.With("section", "trades")), statement)
	}()
	go func() {
		defer wg.Done()
		report.Dividends = s.runDividends(logger.WithContext(runCtx, log.With("section", "dividends")), statement)
	}()
	wg.Wait()

	if !s.commit(sessionID, generation, report) {
		log.Info("Statement pipeline superseded, discarding results", "duration", time.Since(overallStartTime))
		return nil, ErrSuperseded
	}

	log.Info("Statement pipeline END",
		"lots", len(report.Trades.Lots), "dividends", len(report.Dividends.Dividends),
		"duration", time.Since(overallStartTime))
	return report, nil
}

// Latest returns the last report published for the session.
func (s *statementServiceImpl) Latest(sessionID string) (*models.Report, error) {
	if cached, found := s.reportCache.Get(fmt.Sprintf(ckSessionReport, sessionID)); found {
		return cached.(*models.Report), nil
	}
	return nil, ErrReportNotFound
}

// begin allocates the next generation, makes it the session's latest and cancels the
// run it replaces. The previous report is discarded.
func (s *statementServiceImpl) begin(sessionID string, cancel context.CancelFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if previous, ok := s.cancels[sessionID]; ok {
		logger.L.Info("Cancelling superseded statement pipeline", "sessionID", sessionID, "generation", s.latest[sessionID])
		previous()
	}
	s.latest[sessionID] = s.generation
	s.cancels[sessionID] = cancel
	s.reportCache.Delete(fmt.Sprintf(ckSessionReport, sessionID))
	return s.generation
}

func (s *statementServiceImpl) commit(sessionID string, generation uint64, report *models.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest[sessionID] != generation {
		return false
	}
	s.reportCache.Set(fmt.Sprintf(ckSessionReport, sessionID), report, s.reportTTL)
	return true
}

func (s *statementServiceImpl) finish(sessionID string, generation uint64, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[sessionID] == generation {
		delete(s.latest, sessionID)
		delete(s.cancels, sessionID)
	}
}

func (s *statementServiceImpl) runTrades(ctx context.Context, statement *models.Statement) models.TradeSection {
	log := logger.FromContext(ctx)
	startTime := time.Now()

	lots, err := s.lotMatcher.Match(statement.TradeTables)
	if err != nil {
		return failedTradeSection(log, err)
	}

	from, to := processors.RateRange(processors.TradeDates(lots))
	rates, err := s.rates.FetchRates(ctx, from, to)
	if err != nil {
		return failedTradeSection(log, err)
	}
	if err := ctx.Err(); err != nil {
		return failedTradeSection(log, err)
	}

	section := models.TradeSection{
		Lots:     lots,
		FromDate: from,
		ToDate:   to,
	}
	if section.Lots == nil {
		section.Lots = []models.TradeLot{}
	}
	section.MissingRateDates = s.taxEngine.EnrichTrades(section.Lots, rates)
	section.Summary = s.taxEngine.SummarizeTrades(section.Lots)

	log.Info("Trades section done", "lots", len(section.Lots), "duration", time.Since(startTime))
	return section
}

func (s *statementServiceImpl) runDividends(ctx context.Context, statement *models.Statement) models.DividendSection {
	log := logger.FromContext(ctx)
	startTime := time.Now()

	dividends, withholding := s.dividendProcessor.Process(statement.DividendRows, statement.WithholdingRows)

	from, to := processors.RateRange(processors.DividendDates(dividends))
	rates, err := s.rates.FetchRates(ctx, from, to)
	if err != nil {
		return failedDividendSection(log, err)
	}
	if err := ctx.Err(); err != nil {
		return failedDividendSection(log, err)
	}

	section := models.DividendSection{
		Dividends:   dividends,
		Withholding: withholding,
		FromDate:    from,
		ToDate:      to,
	}
	section.MissingRateDates = s.dividendProcessor.EnrichDividends(section.Dividends, rates)
	section.Summary = s.dividendProcessor.SummarizeDividends(section.Dividends)

	log.Info("Dividends section done", "dividends", len(section.Dividends), "duration", time.Since(startTime))
	return section
}

func failedTradeSection(log *slog.Logger, err error) models.TradeSection {
	log.Warn("Trades section failed", "error", err)
	return models.TradeSection{
		Lots:             []models.TradeLot{},
		MissingRateDates: []string{},
		Error:            err.Error(),
		ErrorKind:        errorKind(err),
	}
}

func failedDividendSection(log *slog.Logger, err error) models.DividendSection {
	log.Warn("Dividends section failed", "error", err)
	return models.DividendSection{
		Dividends:        []models.DividendRecord{},
		MissingRateDates: []string{},
		Error:            err.Error(),
		ErrorKind:        errorKind(err),
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, processors.ErrCloseLegNotFound):
		return ErrorKindParse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindCancelled
	case errors.Is(err, ErrRateLookupFailed):
		return ErrorKindRateLookup
	default:
		return ErrorKindInternal
	}
}
