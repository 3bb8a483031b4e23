// backend/src/handlers/report_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/models"
	"github.com/username/uahtax/backend/src/services"
	"github.com/username/uahtax/backend/src/utils"
)

type ReportHandler struct {
	statementService services.StatementService
}

func NewReportHandler(service services.StatementService) *ReportHandler {
	return &ReportHandler{
		statementService: service,
	}
}

func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	if report, ok := h.latest(w, r); ok {
		writeJSONWithETag(w, r, report)
	}
}

func (h *ReportHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	if report, ok := h.latest(w, r); ok {
		writeJSONWithETag(w, r, report.Trades)
	}
}

func (h *ReportHandler) HandleGetDividends(w http.ResponseWriter, r *http.Request) {
	if report, ok := h.latest(w, r); ok {
		writeJSONWithETag(w, r, report.Dividends)
	}
}

// HandleGetF1CSV exports the enriched trades as the F1 appendix of the tax return.
func (h *ReportHandler) HandleGetF1CSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.latest(w, r)
	if !ok {
		return
	}
	if report.Trades.Error != "" {
		utils.SendJSONError(w, fmt.Sprintf("Trades are not available: %s", report.Trades.Error), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="f1.csv"`)
	if err := services.WriteF1(w, report.Trades.Lots); err != nil {
		logger.L.Error("Error writing F1 export", "reportID", report.ID, "error", err)
	}
}

func (h *ReportHandler) latest(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return nil, false
	}
	report, err := h.statementService.Latest(sessionID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendJSONError(w, "No statement has been processed in this session.", http.StatusNotFound)
			return nil, false
		}
		logger.L.Error("Error retrieving report", "sessionID", sessionID, "error", err)
		utils.SendJSONError(w, "Error retrieving report", http.StatusInternalServerError)
		return nil, false
	}
	return report, true
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag", "path", r.URL.Path, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L.Error("Error encoding JSON response", "path", r.URL.Path, "error", err)
	}
}
