package memes

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/news"
	"github.com/dailymemedigest/memefactory/pkg/observability"
	"github.com/dailymemedigest/memefactory/pkg/store"
)

// ImageSize is the size requested from the image model.
const ImageSize = "1024x1024"

// Generation limits.
const (
	DefaultCount       = 10
	MaxCount           = 20
	DefaultParallelism = 4
)

const captionSystemPrompt = "You are a hilarious meme generator. Always respond with valid JSON only, no additional text."

// ArticleSource finds articles for keywords. *news.Aggregator implements it.
type ArticleSource interface {
	Fetch(ctx context.Context, keywords []string, daysBack int) ([]news.Article, error)
}

// Captioner answers a prompt with JSON. *openai.Client implements it.
type Captioner interface {
	ChatJSON(ctx context.Context, system, user string, v any) error
}

// Imager renders an image for a prompt. *openai.Client implements it.
type Imager interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]byte, error)
}

// Request asks for one batch of memes.
type Request struct {
	Trends   []string `json:"trends"`
	DaysBack int      `json:"duration"`
	Count    int      `json:"memes"`

	// Progress, when set, is called after each meme finishes with the
	// number finished so far and the batch size.
	Progress func(done, total int) `json:"-"`
}

func (r Request) normalize() (Request, error) {
	trends, err := errors.ValidateTrends(r.Trends)
	if err != nil {
		return r, err
	}
	r.Trends = trends
	r.DaysBack = max(r.DaysBack, 1)
	switch {
	case r.Count <= 0:
		r.Count = DefaultCount
	case r.Count > MaxCount:
		return r, errors.New(errors.ErrCodeInvalidLimit, "at most %d memes per request", MaxCount)
	}
	return r, nil
}

// Result is a finished batch. Memes holds only the successful ones.
type Result struct {
	Memes           []store.Meme `json:"memes"`
	TotalGenerated  int          `json:"total_generated"`
	SuccessfulCount int          `json:"successful_count"`
}

// Generator turns news into stored memes.
type Generator struct {
	articles  ArticleSource
	captioner Captioner
	imager    Imager
	store     store.Store
	media     *MediaStore
	catalog   *Catalog
	renderer  Renderer
	logger    *log.Logger
	parallel  int
	maxWidth  int
	newID     func() string
	now       func() time.Time
}

// Option configures a [Generator].
type Option func(*Generator)

// WithCaptioner sets the caption model. Without one every meme uses its
// template's fallback caption.
func WithCaptioner(c Captioner) Option { return func(g *Generator) { g.captioner = c } }

// WithImager sets the image model. Without one every meme gets a
// placeholder image.
func WithImager(i Imager) Option { return func(g *Generator) { g.imager = i } }

// WithCatalog replaces the built-in templates.
func WithCatalog(c *Catalog) Option {
	return func(g *Generator) {
		if c != nil {
			g.catalog = c
		}
	}
}

// WithRenderer sets the caption renderer.
func WithRenderer(r Renderer) Option { return func(g *Generator) { g.renderer = r } }

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithParallelism bounds how many memes are made at once.
func WithParallelism(n int) Option { return func(g *Generator) { g.parallel = max(n, 1) } }

// WithMaxWidth sets the widest stored image.
func WithMaxWidth(w int) Option { return func(g *Generator) { g.maxWidth = w } }

// WithIDs replaces the id source, for tests.
func WithIDs(fn func() string) Option { return func(g *Generator) { g.newID = fn } }

// WithClock replaces time.Now, for tests.
func WithClock(fn func() time.Time) Option { return func(g *Generator) { g.now = fn } }

// NewGenerator returns a Generator that reads articles from src, writes
// images to media and records memes in st.
func NewGenerator(src ArticleSource, st store.Store, media *MediaStore, opts ...Option) *Generator {
	g := &Generator{
		articles: src,
		store:    st,
		media:    media,
		catalog:  DefaultCatalog(),
		logger:   log.Default(),
		parallel: DefaultParallelism,
		maxWidth: DefaultMaxWidth,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Catalog returns the templates in use.
func (g *Generator) Catalog() *Catalog { return g.catalog }

// Generate fetches articles for the request's trends, picks the most
// relevant ones and makes one meme per article. A meme that fails is left
// out of the result; only a bad request, an empty news search or a
// cancelled ctx fail the batch.
func (g *Generator) Generate(ctx context.Context, req Request) (result *Result, err error) {
	req, err = req.normalize()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	articles, err := g.articles.Fetch(ctx, req.Trends, req.DaysBack)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, errors.New(errors.ErrCodeNoArticles, "no articles found for selected trends")
	}
	top := news.TopK(articles, req.Count, req.Trends)

	hooks := observability.Generation()
	hooks.OnGenerateStart(ctx, req.Trends, len(top))
	defer func() {
		ok := 0
		if result != nil {
			ok = result.SuccessfulCount
		}
		hooks.OnGenerateComplete(ctx, len(top), ok, time.Since(start), err)
	}()
	g.logger.Info("generating memes", "trends", req.Trends, "articles", len(articles), "selected", len(top))

	made := make([]*store.Meme, len(top))
	var (
		mu   sync.Mutex
		done int
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallel)
	for i, a := range top {
		t := g.catalog.Pick(i)
		eg.Go(func() error {
			memeStart := time.Now()
			m, err := g.produce(ectx, a.Article, t, req.Trends)
			hooks.OnMemeComplete(ectx, t.Name, time.Since(memeStart), err)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				g.logger.Warn("meme failed", "template", t.Name, "article", a.Title, "err", err)
			}
			made[i] = m

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if req.Progress != nil {
				req.Progress(n, len(top))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result = &Result{Memes: make([]store.Meme, 0, len(top)), TotalGenerated: len(top)}
	for _, m := range made {
		if m != nil {
			result.Memes = append(result.Memes, *m)
		}
	}
	result.SuccessfulCount = len(result.Memes)
	g.logger.Info("memes generated", "ok", result.SuccessfulCount, "total", result.TotalGenerated, "took", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// produce makes, stores and records one meme.
func (g *Generator) produce(ctx context.Context, a news.Article, t Template, trends []string) (*store.Meme, error) {
	caption := t.FitCaption(g.caption(ctx, a, t))
	prompt := t.ImagePromptFor(a.Title)

	img, err := g.image(ctx, t, prompt)
	if err != nil {
		return nil, err
	}
	img, err = g.renderer.Caption(img, t, caption)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "caption image")
	}
	img = Fit(img, g.maxWidth)

	id := g.newID()
	url, err := g.media.PutPNG(id, img)
	if err != nil {
		return nil, err
	}
	m := &store.Meme{
		ID:         id,
		Prompt:     prompt,
		NewsURL:    a.URL,
		NewsTitle:  a.Title,
		NewsSource: a.SourceName(),
		Template:   t.Name,
		Caption:    caption,
		ImageURL:   url,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Trends:     trends,
		CreatedAt:  g.now().UTC(),
	}
	if err := g.store.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (g *Generator) caption(ctx context.Context, a news.Article, t Template) map[string]string {
	if g.captioner == nil {
		return t.Fallback
	}
	var caption map[string]string
	if err := g.captioner.ChatJSON(ctx, captionSystemPrompt, t.CaptionPrompt(a.Title), &caption); err != nil {
		g.logger.Warn("caption generation failed; using fallback", "template", t.Name, "err", err)
		return t.Fallback
	}
	return caption
}

func (g *Generator) image(ctx context.Context, t Template, prompt string) (image.Image, error) {
	if g.imager != nil {
		data, err := g.imager.GenerateImage(ctx, prompt, ImageSize)
		if err == nil {
			img, _, derr := image.Decode(bytes.NewReader(data))
			if derr == nil {
				return img, nil
			}
			err = derr
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("image generation failed; using placeholder", "template", t.Name, "err", err)
	}
	img, err := g.renderer.Placeholder(t)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "draw placeholder")
	}
	return img, nil
}
