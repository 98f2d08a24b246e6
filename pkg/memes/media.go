package memes

import (
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// DefaultMediaPrefix is the URL path generated images are served under.
const DefaultMediaPrefix = "/media/"

// MediaStore is the directory generated images are written to and served
// from.
type MediaStore struct {
	dir    string
	prefix string
}

// NewMediaStore creates dir if needed. prefix is the URL path the
// directory is served under; empty means [DefaultMediaPrefix].
func NewMediaStore(dir, prefix string) (*MediaStore, error) {
	if prefix == "" {
		prefix = DefaultMediaPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create media directory")
	}
	return &MediaStore{dir: dir, prefix: prefix}, nil
}

// Dir returns the media directory.
func (m *MediaStore) Dir() string { return m.dir }

// Prefix returns the URL prefix.
func (m *MediaStore) Prefix() string { return m.prefix }

// Path resolves a file name inside the media directory.
func (m *MediaStore) Path(name string) (string, error) {
	if err := errors.ValidatePath(name); err != nil {
		return "", err
	}
	return filepath.Join(m.dir, filepath.FromSlash(name)), nil
}

// PutPNG encodes img as name.png and returns its URL.
func (m *MediaStore) PutPNG(name string, img image.Image) (string, error) {
	file := name + ".png"
	path, err := m.Path(file)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(m.dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write image")
	}
	defer os.Remove(tmp.Name())
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return "", errors.Wrap(errors.ErrCodeStorage, err, "encode image")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write image")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "write image")
	}
	return m.prefix + file, nil
}

// Handler serves the media directory under the prefix. Directory listings
// are disabled.
func (m *MediaStore) Handler() http.Handler {
	fs := http.FileServer(http.Dir(m.dir))
	return http.StripPrefix(m.prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(filepath.Base(r.URL.Path), ".") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
