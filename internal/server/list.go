package server

import (
	"context"
	"net/http"
	"time"
)

// listHandler handles GET /list: every metadata row, newest first.
func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	files, err := s.store.ListFiles(ctx)
	if err != nil {
		s.log.Error("list files failed", map[string]any{"rid": RequestIDFromContext(r.Context())}, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if files == nil {
		files = []PdfFile{}
	}

	writeJSON(w, http.StatusOK, files)
}
