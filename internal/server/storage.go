package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage holds the uploaded file bodies, keyed by sanitized filename.
type Storage interface {
	// Save writes r under name, replacing any existing file, and returns the
	// number of bytes written.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open returns the stored file. Unknown or unsafe names yield an error
	// matching fs.ErrNotExist.
	Open(ctx context.Context, name string) (*StoredFile, error)
}

// StoredFile is an open stored file ready to be served.
type StoredFile struct {
	io.ReadSeekCloser
	Name    string
	Size    int64
	ModTime time.Time
}

// validObjectName reports whether name is a single local path element.
func validObjectName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.IsLocal(name)
}

// DiskStorage keeps files in one directory. All access goes through an
// os.Root so nothing outside the directory can be reached.
type DiskStorage struct {
	root *os.Root
	dir  string
}

// NewDiskStorage creates dir if needed and confines access to it.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("open upload dir: %w", err)
	}
	return &DiskStorage{root: root, dir: abs}, nil
}

// Dir returns the absolute upload directory.
func (d *DiskStorage) Dir() string {
	return d.dir
}

// tempPrefix marks in-flight uploads. Sanitized names never start with '.'.
const tempPrefix = ".upload-"

// Save streams r into a temporary file and renames it over name only once the
// whole body is on disk, so a failed upload never touches an existing file.
func (d *DiskStorage) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if !validObjectName(name) {
		return 0, fmt.Errorf("save %q: %w", name, fs.ErrInvalid)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp := tempPrefix + uuid.NewString()
	f, err := d.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = d.root.Remove(tmp)
		return n, fmt.Errorf("write %s: %w", name, err)
	}

	// os.Root has no Rename before go1.25. Both names are single elements
	// validated above, so joining them to the root directory stays inside it.
	if err := os.Rename(filepath.Join(d.dir, tmp), filepath.Join(d.dir, name)); err != nil {
		_ = d.root.Remove(tmp)
		return n, fmt.Errorf("commit %s: %w", name, err)
	}
	return n, nil
}

func (d *DiskStorage) Open(ctx context.Context, name string) (*StoredFile, error) {
	if !validObjectName(name) || strings.HasPrefix(name, tempPrefix) {
		return nil, fmt.Errorf("open %q: %w", name, fs.ErrNotExist)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := d.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return &StoredFile{
		ReadSeekCloser: f,
		Name:           name,
		Size:           info.Size(),
		ModTime:        info.ModTime(),
	}, nil
}

// Close releases the directory handle.
func (d *DiskStorage) Close() error {
	return d.root.Close()
}
