// backend/src/services/rate_service.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/uahtax/backend/src/config"
	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/model"
	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/utils"
)

// NBURateConfig describes how to reach the National Bank of Ukraine rate feed.
type NBURateConfig struct {
	BaseURL           string
	UpstreamHost      string
	CacheControl      string
	Currency          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// NBURateConfigFromApp builds the rate feed settings from the application configuration.
func NBURateConfigFromApp(cfg *config.AppConfig) NBURateConfig {
	return NBURateConfig{
		BaseURL:           cfg.RateProxyURL,
		UpstreamHost:      cfg.RateUpstreamHost,
		CacheControl:      cfg.RateCacheControl,
		Currency:          cfg.RateCurrency,
		Timeout:           cfg.RateRequestTimeout,
		RequestsPerSecond: cfg.RateRequestsPerSecond,
	}
}

// NBURateService fetches official UAH rates through the caching proxy. Ranges that lie
// fully in the past are archived in sqlite and served from there afterwards.
type NBURateService struct {
	httpClient *http.Client
	cfg        NBURateConfig
	limiter    *rate.Limiter
	db         *sql.DB
	now        func() time.Time
}

// NewNBURateService creates the rate client. db may be nil to disable the archive.
func NewNBURateService(cfg NBURateConfig, db *sql.DB) *NBURateService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	cfg.Currency = strings.ToUpper(cfg.Currency)
	return &NBURateService{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
		db:         db,
		now:        time.Now,
	}
}

// FetchRates returns the rates quoted from..to. An empty range yields an empty table
// without a request. Failures are not retried.
func (s *NBURateService) FetchRates(ctx context.Context, from, to string) (models.RateTable, error) {
	if from == "" || to == "" {
		return models.RateTable{}, nil
	}
	start, err := utils.ToCompactDate(from)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLookupFailed, err)
	}
	end, err := utils.ToCompactDate(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLookupFailed, err)
	}
	if from > to {
		return nil, fmt.Errorf("%w: range %s..%s is reversed", ErrRateLookupFailed, from, to)
	}

	if rates, ok := s.fromArchive(from, to); ok {
		return rates, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateLookupFailed, err)
	}

	startTime := time.Now()
	rates, err := s.request(ctx, start, end)
	if err != nil {
		logger.L.Error("NBU rate request failed", "from", from, "to", to, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRateLookupFailed, err)
	}
	logger.L.Info("NBU rates fetched", "from", from, "to", to, "count", len(rates), "duration", time.Since(startTime))

	s.archive(from, to, rates)
	return rates, nil
}

func (s *NBURateService) request(ctx context.Context, start, end string) (models.RateTable, error) {
	params := url.Values{}
	params.Set("start", start)
	params.Set("end", end)
	params.Set("valcode", strings.ToLower(s.cfg.Currency))
	params.Set("json", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-host", s.cfg.UpstreamHost)
	req.Header.Set("x-cache-control", s.cfg.CacheControl)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from rate feed", resp.StatusCode)
	}

	var quotes []models.NBURate
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("failed to decode rate feed response: %w", err)
	}

	rates := make(models.RateTable, len(quotes))
	for _, q := range quotes {
		if !strings.EqualFold(q.CurrencyCode, s.cfg.Currency) {
			continue
		}
		date, err := utils.NBUDateToISO(q.ExchangeDate)
		if err != nil {
			return nil, err
		}
		rates[date] = q.RatePerUnit
	}
	return rates, nil
}

func (s *NBURateService) fromArchive(from, to string) (models.RateTable, bool) {
	if s.db == nil {
		return nil, false
	}
	covered, err := model.IsRangeCovered(s.db, s.cfg.Currency, from, to)
	if err != nil {
		logger.L.Warn("Rate archive lookup failed, falling back to the feed", "error", err)
		return nil, false
	}
	if !covered {
		return nil, false
	}
	rates, err := model.GetRatesInRange(s.db, s.cfg.Currency, from, to)
	if err != nil {
		logger.L.Warn("Rate archive read failed, falling back to the feed", "error", err)
		return nil, false
	}
	logger.L.Debug("Rates served from archive", "from", from, "to", to, "count", len(rates))
	return rates, true
}

// archive stores fetched rates. Only non-empty replies for ranges ending before today
// are marked complete, since the feed may still publish rates for today and later.
func (s *NBURateService) archive(from, to string, rates models.RateTable) {
	if s.db == nil || len(rates) == 0 {
		return
	}
	if err := model.SaveRates(s.db, s.cfg.Currency, rates); err != nil {
		logger.L.Warn("Failed to archive rates", "error", err)
		return
	}
	today := s.now().UTC().Format(utils.ISODateFormat)
	if to >= today {
		return
	}
	if err := model.RecordRange(s.db, s.cfg.Currency, from, to); err != nil {
		logger.L.Warn("Failed to record archived rate range", "from", from, "to", to, "error", err)
	}
}
