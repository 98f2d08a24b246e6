package imageprobe

import (
	"context"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/charmbracelet/log"

	"github.com/dailymemedigest/memefactory/pkg/cache"
	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/httputil"
	"github.com/dailymemedigest/memefactory/pkg/integrations"
	"github.com/dailymemedigest/memefactory/pkg/masonry"
)

// maxHeaderBytes bounds how much of a remote image is read. Every supported
// format keeps its dimensions well inside the first few kilobytes, but some
// JPEGs carry large EXIF blocks before the frame header.
const maxHeaderBytes = 512 << 10

// DefaultMediaPrefix is the URL prefix under which generated images are
// served.
const DefaultMediaPrefix = "/media/"

// sizeTTL is how long persisted sizes live. Images behind a URL do not
// change size in practice.
const sizeTTL = 7 * 24 * time.Hour

// Prober resolves image sizes. The zero value is not usable; call [New].
//
// All methods are safe for concurrent use by multiple goroutines.
type Prober struct {
	http        *http.Client
	backend     cache.Cache
	keyer       cache.Keyer
	mediaDir    string
	mediaPrefix string
	attempts    int
	delay       time.Duration
	logger      *log.Logger

	mu   sync.RWMutex
	memo map[string]masonry.Size
}

var _ masonry.ImageLoader = (*Prober)(nil)

// Option configures a [Prober].
type Option func(*Prober)

// WithHTTPClient replaces the HTTP client used for remote images.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) {
		if c != nil {
			p.http = c
		}
	}
}

// WithMediaDir resolves sources under prefix to files in dir.
func WithMediaDir(dir, prefix string) Option {
	return func(p *Prober) {
		p.mediaDir = dir
		if prefix != "" {
			p.mediaPrefix = prefix
		}
	}
}

// WithCache persists probed sizes in c.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(p *Prober) {
		p.backend = c
		if k != nil {
			p.keyer = k
		}
	}
}

// WithRetry changes how often a remote fetch is attempted.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(p *Prober) { p.attempts, p.delay = max(attempts, 1), delay }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{
		http:        integrations.NewHTTPClient(),
		backend:     cache.NewNullCache(),
		keyer:       cache.NewDefaultKeyer(),
		mediaPrefix: DefaultMediaPrefix,
		attempts:    2,
		delay:       200 * time.Millisecond,
		logger:      log.Default(),
		memo:        make(map[string]masonry.Size),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cached returns the memoised size of src.
func (p *Prober) Cached(src string) (masonry.Size, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.memo[src]
	return s, ok
}

// Remember records a size learned elsewhere, such as the dimensions stored
// with a generated meme.
func (p *Prober) Remember(src string, s masonry.Size) {
	if src == "" || !s.Valid() {
		return
	}
	p.mu.Lock()
	p.memo[src] = s
	p.mu.Unlock()
}

// Load probes src and returns its natural size.
func (p *Prober) Load(ctx context.Context, src string) (masonry.Size, error) {
	if s, ok := p.Cached(src); ok {
		return s, nil
	}
	key := p.keyer.HTTPKey("imageprobe", src)
	if data, ok, _ := p.backend.Get(ctx, key); ok {
		var s masonry.Size
		if json.Unmarshal(data, &s) == nil && s.Valid() {
			p.Remember(src, s)
			return s, nil
		}
	}

	s, err := p.probe(ctx, src)
	if err != nil {
		p.logger.Debug("image probe failed", "src", src, "err", err)
		return masonry.Size{}, err
	}
	p.Remember(src, s)
	if data, err := json.Marshal(s); err == nil {
		_ = p.backend.Set(ctx, key, data, sizeTTL)
	}
	return s, nil
}

func (p *Prober) probe(ctx context.Context, src string) (masonry.Size, error) {
	switch {
	case src == "":
		return masonry.Size{}, errors.New(errors.ErrCodeInvalidInput, "empty image source")
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return masonry.Size{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid file URL")
		}
		return probeFile(u.Path)
	case p.mediaDir != "" && strings.HasPrefix(src, p.mediaPrefix):
		rel := strings.TrimPrefix(src, p.mediaPrefix)
		if err := errors.ValidatePath(rel); err != nil {
			return masonry.Size{}, err
		}
		return probeFile(filepath.Join(p.mediaDir, filepath.FromSlash(rel)))
	}

	if err := errors.ValidateURL(src); err != nil {
		return masonry.Size{}, err
	}
	var s masonry.Size
	err := httputil.Retry(ctx, p.attempts, p.delay, func() error {
		var err error
		s, err = p.fetch(ctx, src)
		return err
	})
	return s, err
}

func (p *Prober) fetch(ctx context.Context, src string) (masonry.Size, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return masonry.Size{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid image URL")
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return masonry.Size{}, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch image"))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return masonry.Size{}, errors.New(errors.ErrCodeFileNotFound, "image not found: %s", src)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return masonry.Size{}, httputil.Retryable(errors.New(errors.ErrCodeNetwork, "fetch image: status %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		return masonry.Size{}, errors.New(errors.ErrCodeNetwork, "fetch image: status %d", resp.StatusCode)
	}
	return decode(io.LimitReader(resp.Body, maxHeaderBytes))
}

func probeFile(path string) (masonry.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return masonry.Size{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "image not found")
		}
		return masonry.Size{}, errors.Wrap(errors.ErrCodeStorage, err, "open image")
	}
	defer f.Close()
	return decode(f)
}

// decode reads an image header.
func decode(r io.Reader) (masonry.Size, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return masonry.Size{}, errors.Wrap(errors.ErrCodeInvalidImageSize, err, "decode image header")
	}
	s := masonry.Size{Width: cfg.Width, Height: cfg.Height}
	if !s.Valid() {
		return masonry.Size{}, errors.New(errors.ErrCodeInvalidImageSize, "%s image has no area (%dx%d)", format, cfg.Width, cfg.Height)
	}
	return s, nil
}

// Len returns the number of memoised sizes.
func (p *Prober) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.memo)
}
