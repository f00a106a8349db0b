package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"
)

// uploadResp is the JSON response returned after a successful upload.
type uploadResp struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// uploadHandler handles POST /upload with a multipart field "file".
//
// The file is written to storage before its metadata row is inserted. If the
// insert fails the stored file is left in place without a row; nothing
// reconciles the two.
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rid := RequestIDFromContext(r.Context())

	if s.maxBody > 0 {
		if r.ContentLength > s.maxBody {
			s.metrics.RecordUploadRejected()
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	part, rawName, err := findFilePart(r)
	if err != nil {
		s.metrics.RecordUploadRejected()
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = part.Close() }()

	if !IsPDFName(rawName) {
		s.metrics.RecordUploadRejected()
		writeError(w, http.StatusBadRequest, "Only PDFs allowed")
		return
	}

	name := SanitizeFilename(rawName)
	if name == "" {
		s.metrics.RecordUploadRejected()
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	n, err := s.storage.Save(ctx, name, part)
	if err != nil {
		if isTooLarge(err) {
			s.metrics.RecordUploadRejected()
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		s.metrics.RecordUploadError()
		s.log.Error("store upload failed", map[string]any{"rid": rid, "filename": name}, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	rec := PdfFile{
		Filename: name,
		URL:      fileURL(name),
		SizeKB:   n / 1024,
	}
	if err := s.store.InsertFile(ctx, rec); err != nil {
		s.metrics.RecordUploadError()
		s.log.Error("insert metadata failed, stored file has no row", map[string]any{
			"rid":      rid,
			"filename": name,
			"bytes":    n,
		}, err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	s.metrics.RecordUpload(n, time.Since(start))
	s.log.Info("uploaded", map[string]any{"rid": rid, "filename": name, "size_kb": rec.SizeKB})

	writeJSON(w, http.StatusCreated, uploadResp{
		Message:  "Uploaded",
		Filename: name,
	})
}

// findFilePart advances the multipart stream to the first part named "file"
// that carries a filename, and returns it with the filename exactly as the
// client sent it.
func findFilePart(r *http.Request) (*multipart.Part, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, "", http.ErrMissingFile
		}
		if err != nil {
			return nil, "", err
		}

		if part.FormName() == "file" {
			if name := rawFilename(part); name != "" {
				return part, name, nil
			}
		}
		_ = part.Close()
	}
}

// rawFilename returns the filename parameter without the base-name reduction
// multipart.Part.FileName applies, so sanitization sees the full name.
func rawFilename(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return part.FileName()
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
