package store

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// Fallback uses Primary and falls back to Secondary when Primary fails.
// A meme saved to Secondary during an outage stays there; reads by id and
// votes therefore also try Secondary when Primary does not know the id.
type Fallback struct {
	Primary   Store
	Secondary Store
	Logger    *log.Logger
}

// NewFallback returns a Fallback. A nil logger means log.Default().
func NewFallback(primary, secondary Store, logger *log.Logger) *Fallback {
	if logger == nil {
		logger = log.Default()
	}
	return &Fallback{Primary: primary, Secondary: secondary, Logger: logger}
}

func (f *Fallback) Save(ctx context.Context, m *Meme) error {
	err := f.Primary.Save(ctx, m)
	if err == nil || !recoverable(err) {
		return err
	}
	f.Logger.Warn("primary store failed; saving to fallback", "id", m.ID, "err", err)
	return f.Secondary.Save(ctx, m)
}

func (f *Fallback) List(ctx context.Context, opts ListOptions) ([]Meme, error) {
	memes, err := f.Primary.List(ctx, opts)
	if err == nil || !recoverable(err) {
		return memes, err
	}
	f.Logger.Warn("primary store failed; listing fallback", "err", err)
	return f.Secondary.List(ctx, opts)
}

func (f *Fallback) Get(ctx context.Context, id string) (*Meme, error) {
	m, err := f.Primary.Get(ctx, id)
	if err == nil || !recoverable(err) && !errors.Is(err, errors.ErrCodeMemeNotFound) {
		return m, err
	}
	return f.Secondary.Get(ctx, id)
}

func (f *Fallback) Vote(ctx context.Context, id string, delta int) (int, error) {
	n, err := f.Primary.Vote(ctx, id, delta)
	if err == nil || !recoverable(err) && !errors.Is(err, errors.ErrCodeMemeNotFound) {
		return n, err
	}
	return f.Secondary.Vote(ctx, id, delta)
}

func (f *Fallback) Count(ctx context.Context) (int, error) {
	n, err := f.Primary.Count(ctx)
	if err == nil {
		return n, nil
	}
	f.Logger.Warn("primary store failed; counting fallback", "err", err)
	return f.Secondary.Count(ctx)
}

func (f *Fallback) Close() error {
	err := f.Primary.Close()
	if serr := f.Secondary.Close(); err == nil {
		err = serr
	}
	return err
}

// recoverable reports whether a failure is the backend's rather than the
// caller's.
func recoverable(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSort, errors.ErrCodeMemeNotFound:
		return false
	}
	return true
}

// Options selects the backends [Open] wires.
type Options struct {
	// MongoURI selects MongoDB as the primary store when set.
	MongoURI      string
	MongoDatabase string

	// SQLitePath selects SQLite as the primary store when MongoURI is empty.
	SQLitePath string

	// FilePath is the JSON fallback file. Empty disables the fallback.
	FilePath string

	Logger *log.Logger
}

// Open builds the store described by opts: the primary backend, wrapped in
// a [Fallback] to the JSON file when FilePath is set. If the primary cannot
// be opened the JSON file is used alone.
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var primary Store
	var err error
	switch {
	case opts.MongoURI != "":
		primary, err = OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	case opts.SQLitePath != "":
		primary, err = OpenSQLite(opts.SQLitePath)
	}

	switch {
	case err != nil && opts.FilePath == "":
		return nil, err
	case err != nil:
		logger.Warn("store unavailable; using JSON file", "err", err, "path", opts.FilePath)
		return NewFileStore(opts.FilePath), nil
	case primary == nil && opts.FilePath == "":
		return nil, errors.New(errors.ErrCodeNotConfigured, "no meme store configured")
	case primary == nil:
		return NewFileStore(opts.FilePath), nil
	case opts.FilePath == "":
		return primary, nil
	}
	return NewFallback(primary, NewFileStore(opts.FilePath), logger), nil
}
