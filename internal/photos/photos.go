// Package photos stores the before/after photos attached to cleaning records.
package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

// Kind says whether a photo was taken before or after cleaning.
type Kind string

const (
	KindBefore Kind = "before"
	KindAfter  Kind = "after"
)

// ErrTooLarge is returned when an upload exceeds the configured size.
var ErrTooLarge = errors.New("photos: file too large")

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

var safeName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store persists a photo and returns the URL it is served under.
type Store interface {
	Save(ctx context.Context, kind Kind, coachID string, r io.Reader) (string, error)
}

// FileStore keeps photos on the local filesystem, one directory per kind.
type FileStore struct {
	dir      string
	prefix   string
	maxBytes int64
}

// NewFileStore creates dir if needed. URLs are built as <prefix>/<kind>/<file>.
func NewFileStore(dir, prefix string, maxBytes int64) (*FileStore, error) {
	for _, k := range []Kind{KindBefore, KindAfter} {
		if err := os.MkdirAll(filepath.Join(dir, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("create photo dir: %w", err)
		}
	}
	return &FileStore{dir: dir, prefix: prefix, maxBytes: maxBytes}, nil
}

// Save validates kind, coach id and image type, then writes the file.
func (s *FileStore) Save(ctx context.Context, kind Kind, coachID string, r io.Reader) (string, error) {
	if kind != KindBefore && kind != KindAfter {
		return "", domain.NewValidationError("kind", "must be before or after")
	}
	if !safeName.MatchString(coachID) {
		return "", domain.NewValidationError("coachId", "invalid coach id")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return "", domain.NewValidationError("photo", "unsupported image type "+mt.String())
	}

	name := coachID + "-" + uuid.NewString() + mt.Extension()
	dst := filepath.Join(s.dir, string(kind), name)
	if err := writeFile(dst, data); err != nil {
		return "", err
	}
	return path.Join(s.prefix, string(kind), name), nil
}

// Handler serves stored photos. Mount it under the URL prefix with the prefix stripped.
// Directory paths answer 404 so stored names cannot be listed.
func (s *FileStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		if info, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))); err == nil && info.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func writeFile(dst string, data []byte) error {
	tmp := dst + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write photo: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close photo: %w", err)
	}
	return os.Rename(tmp, dst)
}
