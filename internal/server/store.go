package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PdfFile is one metadata row of pdf_files.
type PdfFile struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	SizeKB     int64     `json:"size_kb"`
	UploadTime time.Time `json:"upload_time"`
}

// FileStore persists PdfFile metadata.
type FileStore interface {
	CountFiles(ctx context.Context) (int64, error)
	// InsertFile stores filename, url and size; upload_time is assigned by
	// the database.
	InsertFile(ctx context.Context, f PdfFile) error
	// ListFiles returns every row, most recently uploaded first.
	ListFiles(ctx context.Context) ([]PdfFile, error)
}

// PgStore is the PostgreSQL FileStore.
type PgStore struct {
	db *sql.DB
}

// NewPgStore wraps an open connection pool.
func NewPgStore(db *sql.DB) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) CountFiles(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pdf_files`).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count pdf_files: %w", err)
	}
	return n.Int64, nil
}

func (s *PgStore) InsertFile(ctx context.Context, f PdfFile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pdf_files (filename, url, size_kb) VALUES ($1, $2, $3)`,
		f.Filename, f.URL, f.SizeKB,
	)
	if err != nil {
		return fmt.Errorf("insert pdf_files: %w", err)
	}
	return nil
}

func (s *PgStore) ListFiles(ctx context.Context) ([]PdfFile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT filename, url, size_kb, upload_time
		FROM pdf_files
		ORDER BY upload_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pdf_files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := make([]PdfFile, 0)
	for rows.Next() {
		var f PdfFile
		if err := rows.Scan(&f.Filename, &f.URL, &f.SizeKB, &f.UploadTime); err != nil {
			return nil, fmt.Errorf("scan pdf_files: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pdf_files: %w", err)
	}
	return files, nil
}

// fileURL is the public path a stored file is served from.
func fileURL(filename string) string {
	return "/files/" + filename
}
