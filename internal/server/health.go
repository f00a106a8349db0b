package server

import (
	"context"
	"net/http"
	"time"
)

type pingResp struct {
	Status string `json:"status"`
}

type dbTestResp struct {
	PdfFilesCount int64 `json:"pdf_files_count"`
}

// pingHandler is the liveness probe. It never touches the database.
func (s *Server) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pingResp{Status: "ok"})
}

// dbTestHandler checks that the database is reachable and the pdf_files
// table exists by counting its rows.
func (s *Server) dbTestHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := s.store.CountFiles(ctx)
	if err != nil {
		s.log.Error("db_test failed", map[string]any{"rid": RequestIDFromContext(r.Context())}, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, dbTestResp{PdfFilesCount: n})
}
