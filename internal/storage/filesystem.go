package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FilesystemStorage stores objects as files below a base directory.
type FilesystemStorage struct {
	fs       afero.Fs
	mediaURL string
}

func NewFilesystemStorage(fsys afero.Fs, mediaURL string) *FilesystemStorage {
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &FilesystemStorage{fs: fsys, mediaURL: mediaURL}
}

// NewLocalStorage roots the storage at basePath on the OS filesystem.
func NewLocalStorage(basePath, mediaURL string) (*FilesystemStorage, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return NewFilesystemStorage(afero.NewBasePathFs(osFs, basePath), mediaURL), nil
}

func (s *FilesystemStorage) Save(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := afero.WriteReader(s.fs, key, r); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := CheckKey(key); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *FilesystemStorage) Delete(_ context.Context, key string) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FilesystemStorage) URL(_ context.Context, key string) (string, error) {
	if err := CheckKey(key); err != nil {
		return "", err
	}
	return s.mediaURL + key, nil
}

// MediaHandler serves stored objects. It expects to be mounted with
// http.StripPrefix so the remaining path is the object key.
func MediaHandler(s Storage) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		key := strings.TrimPrefix(r.URL.Path, "/")
		rc, err := s.Open(r.Context(), key)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidKey) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to open media", http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}

		content, ok := rc.(io.ReadSeeker)
		if !ok {
			w.WriteHeader(http.StatusOK)
			if r.Method != http.MethodHead {
				_, _ = io.Copy(w, rc)
			}
			return
		}

		var modTime time.Time
		if st, ok := rc.(interface{ Stat() (fs.FileInfo, error) }); ok {
			if info, err := st.Stat(); err == nil {
				modTime = info.ModTime()
			}
		}
		http.ServeContent(w, r, path.Base(key), modTime, content)
	})
}
