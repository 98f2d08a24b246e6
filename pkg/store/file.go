package store

import (
	"cmp"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// FileStore keeps all memes in one JSON array file. It re-reads the file on
// every call, so it tolerates the file being replaced underneath it, and
// writes through a temporary file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file and its directory
// are created on the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(ctx context.Context, m *Meme) error {
	if err := prepare(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	memes, err := s.load()
	if err != nil {
		return err
	}
	return s.write(append(memes, *m))
}

func (s *FileStore) List(ctx context.Context, opts ListOptions) ([]Meme, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	memes, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(memes, func(a, b Meme) int {
		if opts.Sort == SortTop && a.Votes != b.Votes {
			return cmp.Compare(b.Votes, a.Votes)
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if opts.Offset >= len(memes) {
		return []Meme{}, nil
	}
	memes = memes[opts.Offset:]
	return memes[:min(opts.Limit, len(memes))], nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Meme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memes, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range memes {
		if memes[i].ID == id {
			return &memes[i], nil
		}
	}
	return nil, notFound(id)
}

func (s *FileStore) Vote(ctx context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memes, err := s.load()
	if err != nil {
		return 0, err
	}
	for i := range memes {
		if memes[i].ID == id {
			memes[i].Votes += delta
			return memes[i].Votes, s.write(memes)
		}
	}
	return 0, notFound(id)
}

func (s *FileStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memes, err := s.load()
	return len(memes), err
}

func (s *FileStore) Close() error { return nil }

// load reads the file. A missing or corrupt file reads as empty, matching
// how the file has always been treated.
func (s *FileStore) load() ([]Meme, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %s", s.path)
	}
	var memes []Meme
	if json.Unmarshal(data, &memes) != nil {
		return nil, nil
	}
	return memes, nil
}

func (s *FileStore) write(memes []Meme) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create store directory")
	}
	data, err := json.MarshalIndent(memes, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "encode memes")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memes-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write memes")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeStorage, err, "write memes")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write memes")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write memes")
	}
	return nil
}
