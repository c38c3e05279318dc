package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		wantError bool
	}{
		{
			name:      "valid base directory",
			baseDir:   t.TempDir(),
			wantError: false,
		},
		{
			name:      "creates non-existent directory",
			baseDir:   filepath.Join(t.TempDir(), "transcripts"),
			wantError: false,
		},
		{
			name:      "empty base directory",
			baseDir:   "",
			wantError: true,
		},
		{
			name:      "dot as base directory",
			baseDir:   ".",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewLocalStorage(tt.baseDir)
			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if storage == nil {
				t.Fatal("expected storage but got nil")
			}
		})
	}
}

func TestLocalStorage_Put(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	tests := []struct {
		name      string
		key       string
		content   string
		wantError bool
	}{
		{
			name:    "put simple blob",
			key:     "transcript.json",
			content: `{"prompt":"p"}`,
		},
		{
			name:    "put dated transcript",
			key:     "transcripts/2025/03/01/abc.json",
			content: `{"steps":[]}`,
		},
		{
			name:    "overwrite existing blob",
			key:     "transcript.json",
			content: `{"prompt":"second"}`,
		},
		{
			name:      "empty key",
			key:       "",
			content:   "content",
			wantError: true,
		},
		{
			name:      "path traversal attempt",
			key:       "../outside.json",
			content:   "malicious",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Put(ctx, tt.key, strings.NewReader(tt.content), "application/json")

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			content, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(tt.key)))
			if err != nil {
				t.Fatalf("failed to read stored file: %v", err)
			}
			if string(content) != tt.content {
				t.Errorf("content mismatch: got %q, want %q", string(content), tt.content)
			}
		})
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatalf("failed to list base dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalStorage_PutFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := storage.Put(ctx, "broken.json", failingReader{}, ""); err == nil {
		t.Fatal("expected error but got none")
	}

	exists, err := storage.Exists(ctx, "broken.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("partial blob should not exist")
	}
}

func TestLocalStorage_Get(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	testContent := `{"steps":["1. Open the login page."]}`
	testKey := "transcripts/2025/03/01/get.json"
	if err := storage.Put(ctx, testKey, strings.NewReader(testContent), "application/json"); err != nil {
		t.Fatalf("failed to put test blob: %v", err)
	}

	t.Run("get existing blob", func(t *testing.T) {
		reader, err := storage.Get(ctx, testKey)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer reader.Close()

		content, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("failed to read content: %v", err)
		}
		if string(content) != testContent {
			t.Errorf("content mismatch: got %q, want %q", string(content), testContent)
		}
	})

	t.Run("get non-existent blob", func(t *testing.T) {
		_, err := storage.Get(ctx, "non-existent.json")
		if !errors.Is(err, ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound but got: %v", err)
		}
	})

	t.Run("path traversal attempt", func(t *testing.T) {
		_, err := storage.Get(ctx, "../outside.json")
		if !errors.Is(err, ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath but got: %v", err)
		}
	})
}

func TestLocalStorage_ExistsAndDelete(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	testKey := "transcripts/delete.json"
	if err := storage.Put(ctx, testKey, strings.NewReader("{}"), ""); err != nil {
		t.Fatalf("failed to put test blob: %v", err)
	}

	exists, err := storage.Exists(ctx, testKey)
	if err != nil || !exists {
		t.Fatalf("blob should exist: exists=%v err=%v", exists, err)
	}

	exists, err = storage.Exists(ctx, "transcripts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("a directory is not a blob")
	}

	if err := storage.Delete(ctx, testKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err = storage.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("blob should not exist after deletion")
	}

	if err := storage.Delete(ctx, testKey); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound but got: %v", err)
	}
	if _, err := storage.Exists(ctx, ""); err == nil {
		t.Error("expected error but got none")
	}
}

func TestLocalStorage_PutLargeBlob(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	size := 1024 * 1024
	data := bytes.Repeat([]byte("x"), size)
	if err := storage.Put(ctx, "large.bin", bytes.NewReader(data), ""); err != nil {
		t.Fatalf("failed to put large blob: %v", err)
	}

	info, err := os.Stat(filepath.Join(baseDir, "large.bin"))
	if err != nil {
		t.Fatalf("failed to stat file: %v", err)
	}
	if info.Size() != int64(size) {
		t.Errorf("file size mismatch: got %d, want %d", info.Size(), size)
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key       string
		want      string
		wantError bool
	}{
		{key: "a.json", want: "a.json"},
		{key: "transcripts/2025/01/02/x.json", want: "transcripts/2025/01/02/x.json"},
		{key: "./a.json", want: "a.json"},
		{key: "sub/../a.json", want: "a.json"},
		{key: "sub\\a.json", want: "sub/a.json"},
		{key: "", wantError: true},
		{key: ".", wantError: true},
		{key: "/etc/passwd", wantError: true},
		{key: "../../../etc/passwd", wantError: true},
		{key: "..\\..\\windows\\system32", wantError: true},
		{key: "subdir/../../outside.txt", wantError: true},
	}

	for _, tt := range tests {
		t.Run("key_"+tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("expected ErrInvalidPath for %q, got %v", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("cleanKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Type: "LOCAL", BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("expected *LocalStorage, got %T", s)
	}

	if _, err := New(ctx, Config{Type: TypeLocal}); err == nil {
		t.Error("expected error for missing base dir")
	}
	if _, err := New(ctx, Config{Type: TypeS3, Region: "us-east-1"}); err == nil {
		t.Error("expected error for missing bucket")
	}
	if _, err := New(ctx, Config{Type: "gcs"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
