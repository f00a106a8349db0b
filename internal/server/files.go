package server

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
)

// serveFileHandler handles GET /files/{filename}. The name is used as given;
// anything that is not a plain file in storage is a 404.
func (s *Server) serveFileHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	f, err := s.storage.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.metrics.RecordDownload(false)
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.log.Error("open stored file failed", map[string]any{
			"rid":      RequestIDFromContext(r.Context()),
			"filename": name,
		}, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", contentTypeFor(f.Name))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": f.Name}))

	s.metrics.RecordDownload(true)
	http.ServeContent(w, r, f.Name, f.ModTime, f)
}
