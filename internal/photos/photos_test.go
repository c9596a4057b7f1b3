package photos

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jitenkr2030/Rail-Clean/internal/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestFileStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "/photos", 1024)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	url, err := store.Save(context.Background(), KindBefore, "coach-1", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/photos/before/coach-1-") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q", url)
	}

	stored := filepath.Join(dir, strings.TrimPrefix(url, "/photos/"))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Fatalf("stored bytes differ")
	}

	srv := httptest.NewServer(http.StripPrefix("/photos", store.Handler()))
	defer srv.Close()
	resp, err := http.Get(srv.URL + url)
	if err != nil {
		t.Fatalf("GET photo: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestFileStoreSaveRejects(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		coachID string
		body    []byte
		check   func(error) bool
	}{
		{name: "bad kind", kind: "during", coachID: "c1", body: pngHeader, check: domain.IsValidation},
		{name: "path traversal", kind: KindAfter, coachID: "../etc", body: pngHeader, check: domain.IsValidation},
		{name: "not an image", kind: KindAfter, coachID: "c1", body: []byte("hello world"), check: domain.IsValidation},
		{
			name:    "too large",
			kind:    KindAfter,
			coachID: "c1",
			body:    append(append([]byte{}, pngHeader...), make([]byte, 64)...),
			check:   func(err error) bool { return errors.Is(err, ErrTooLarge) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewFileStore(t.TempDir(), "/photos", 48)
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			_, err = store.Save(context.Background(), tt.kind, tt.coachID, bytes.NewReader(tt.body))
			if err == nil || !tt.check(err) {
				t.Fatalf("Save() error = %v", err)
			}
		})
	}
}

func TestHandlerHidesDirectories(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "/photos", 1024)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	url, err := store.Save(context.Background(), KindBefore, "coach-1", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	h := http.StripPrefix("/photos", store.Handler())

	for _, target := range []string{"/photos/", "/photos/before/", "/photos/before", "/photos/after/"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", target, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "coach-1") {
			t.Fatalf("GET %s listed stored names: %s", target, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d, want 200", url, rec.Code)
	}
}
