package handlers

import "net/http"

// RegisterRoutes mounts the statement API on mux behind the session middleware.
func RegisterRoutes(mux *http.ServeMux, sessions *SessionMiddleware, upload *UploadHandler, report *ReportHandler) {
	withSession := func(h http.HandlerFunc) http.Handler {
		return sessions.Handler(h)
	}

	mux.Handle("POST /api/statements", withSession(upload.HandleUpload))
	mux.Handle("GET /api/report", withSession(report.HandleGetReport))
	mux.Handle("GET /api/report/trades", withSession(report.HandleGetTrades))
	mux.Handle("GET /api/report/dividends", withSession(report.HandleGetDividends))
	mux.Handle("GET /api/report/f1.csv", withSession(report.HandleGetF1CSV))
}
