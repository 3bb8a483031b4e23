// backend/src/handlers/upload_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/uahtax/backend/src/logger"
	"github.com/username/uahtax/backend/src/parsers"
	"github.com/username/uahtax/backend/src/security/validation"
	"github.com/username/uahtax/backend/src/services"
	"github.com/username/uahtax/backend/src/utils"
)

type UploadHandler struct {
	statementService   services.StatementService
	maxUploadSizeBytes int64
}

func NewUploadHandler(service services.StatementService, maxUploadSizeBytes int64) *UploadHandler {
	return &UploadHandler{
		statementService:   service,
		maxUploadSizeBytes: maxUploadSizeBytes,
	}
}

// HandleUpload accepts an HTML activity statement, runs both pipelines and returns the report.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSizeBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "sessionID", sessionID, "error", err, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "sessionID", sessionID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "sessionID", sessionID, "fileSize", fileHeader.Size, "limit", h.maxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "sessionID", sessionID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("Processing statement upload", "sessionID", sessionID, "filename", fileHeader.Filename, "detectedType", detectedContentType)

	statement, err := h.statementService.ParseStatement(file)
	if err != nil {
		switch {
		case errors.Is(err, parsers.ErrNoStatementData):
			logger.L.Warn("Uploaded statement has no trades and no dividends", "sessionID", sessionID, "filename", fileHeader.Filename)
			utils.SendJSONError(w, "The statement contains no trades and no dividends.", http.StatusBadRequest)
		case errors.Is(err, services.ErrParsingFailed):
			logger.L.Warn("Statement parsing failed", "sessionID", sessionID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing statement: %v", err), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error parsing statement", "sessionID", sessionID, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	report, err := h.statementService.Load(r.Context(), sessionID, statement)
	if err != nil {
		if errors.Is(err, services.ErrSuperseded) {
			utils.SendJSONError(w, "A newer statement was uploaded in this session.", http.StatusConflict)
			return
		}
		logger.L.Error("Internal error running statement pipeline", "sessionID", sessionID, "error", err)
		utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding JSON response for statement report", "sessionID", sessionID, "error", err)
	}
}
