package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/parsers/ibkr"
	"github.com/username/uahtax/backend/src/processors"
	"github.com/username/uahtax/backend/src/security"
	"github.com/username/uahtax/backend/src/services"
)

const testSecret = "handlers-test-secret-of-at-least-32-bytes"

type flatRateProvider struct{}

func (flatRateProvider) FetchRates(ctx context.Context, from, to string) (models.RateTable, error) {
	rates := models.RateTable{}
	if from == "" {
		return rates, nil
	}
	start, _ := time.Parse("2006-01-02", from)
	end, _ := time.Parse("2006-01-02", to)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		rates[d.Format("2006-01-02")] = decimal.NewFromInt(40)
	}
	return rates, nil
}

type testServer struct {
	handler  http.Handler
	sessions *security.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	taxRates := processors.DefaultTaxRates()
	statementService := services.NewStatementService(
		ibkr.NewParser(),
		processors.NewLotMatcher(),
		processors.NewTradeTaxEngine(taxRates),
		processors.NewDividendProcessor(taxRates),
		flatRateProvider{},
		cache.New(time.Hour, time.Hour),
		time.Hour,
	)
	sessions := security.NewSessionService(testSecret, time.Hour)

	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewSessionMiddleware(sessions, time.Hour, false),
		NewUploadHandler(statementService, 1024*1024),
		NewReportHandler(statementService),
	)
	return &testServer{handler: mux, sessions: sessions}
}

func (s *testServer) newToken(t *testing.T) string {
	t.Helper()
	_, token, err := s.sessions.NewSession()
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, contentType string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="statement.html"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	content, err := os.ReadFile("../parsers/ibkr/testdata/statement.html")
	require.NoError(t, err)
	return content
}

func TestSessionMiddlewareIssuesCookie(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	_, err := srv.sessions.ValidateToken(cookies[0].Value)
	assert.NoError(t, err)
}

func TestSessionMiddlewareKeepsValidToken(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newToken(t)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec = srv.do(req, "")
	assert.Empty(t, rec.Result().Cookies())

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), "not-a-token")
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestUploadAndReadReport(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newToken(t)

	rec := srv.do(uploadRequest(t, "text/html", readFixture(t)), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Len(t, uploaded.Trades.Lots, 4)
	assert.Len(t, uploaded.Dividends.Dividends, 2)
	assert.Empty(t, uploaded.Trades.Error)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, uploaded.ID, report.ID)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/report/trades", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var trades models.TradeSection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	assert.Len(t, trades.Lots, 4)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/report/dividends", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	var dividends models.DividendSection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dividends))
	assert.True(t, dividends.Withholding.Consistent)

	// A second session does not see the first one's report.
	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/report", nil), srv.newToken(t))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportETag(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newToken(t)
	require.Equal(t, http.StatusOK, srv.do(uploadRequest(t, "text/html", readFixture(t)), token).Code)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/report/trades", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/report/trades", nil)
	req.Header.Set("If-None-Match", etag)
	rec = srv.do(req, token)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestF1Export(t *testing.T) {
	srv := newTestServer(t)
	token := srv.newToken(t)
	require.Equal(t, http.StatusOK, srv.do(uploadRequest(t, "text/html", readFixture(t)), token).Code)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/report/f1.csv", nil), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "f1.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "1,4,"))
	assert.True(t, strings.HasPrefix(lines[3], "4,4,"))
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		content     []byte
		wantStatus  int
	}{
		{"no statement sections", "text/html", []byte("<!DOCTYPE html><html><body><p>empty</p></body></html>"), http.StatusBadRequest},
		{"pdf declared", "application/pdf", []byte("<!DOCTYPE html><html></html>"), http.StatusBadRequest},
		{"binary content", "text/html", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			rec := srv.do(uploadRequest(t, tt.contentType, tt.content), srv.newToken(t))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUploadWithoutFileField(t *testing.T) {
	srv := newTestServer(t)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := srv.do(req, srv.newToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
