package news

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/integrations/newsapi"
)

// Searcher runs a NewsAPI everything search. *newsapi.Client implements it.
type Searcher interface {
	Everything(ctx context.Context, q newsapi.Query, refresh bool) (*newsapi.Response, error)
}

// DefaultPreviewTrends are the keywords the news preview searches for.
var DefaultPreviewTrends = []string{"AI", "artificial intelligence", "machine learning"}

const pageSize = 20

// Aggregator fetches and cleans articles.
type Aggregator struct {
	search Searcher
	logger *log.Logger
	now    func() time.Time
}

// Option configures an [Aggregator].
type Option func(*Aggregator)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator returns an Aggregator backed by search. A nil search means
// no news API is configured; Fetch then always returns the sample articles.
func NewAggregator(search Searcher, opts ...Option) *Aggregator {
	a := &Aggregator{search: search, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether a news API is available.
func (a *Aggregator) Configured() bool { return a.search != nil }

// Fetch returns the cleaned articles of the last daysBack days (at least
// one) matching any of keywords. Upstream failures are logged and answered
// with [SampleArticles]; only invalid keywords and a cancelled ctx are
// reported as errors.
func (a *Aggregator) Fetch(ctx context.Context, keywords []string, daysBack int) ([]Article, error) {
	keywords, err := errors.ValidateTrends(keywords)
	if err != nil {
		return nil, err
	}
	if a.search == nil {
		a.logger.Warn("news API not configured; using sample articles")
		return SampleArticles(a.now()), nil
	}

	to := a.now()
	q := newsapi.Query{
		Q:        BuildQuery(keywords),
		From:     to.AddDate(0, 0, -max(daysBack, 1)),
		To:       to,
		Language: "en",
		PageSize: pageSize,
	}

	var popular, relevant []newsapi.Article
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := a.run(gctx, q, newsapi.SortPopularity)
		popular = resp
		return err
	})
	g.Go(func() error {
		resp, err := a.run(gctx, q, newsapi.SortRelevancy)
		relevant = resp
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("news fetch failed; using sample articles", "err", err)
		return SampleArticles(a.now()), nil
	}
	a.logger.Debug("news fetched", "popular", len(popular), "relevant", len(relevant))

	merged := Merge(popular, relevant)
	out := make([]Article, 0, len(merged))
	for _, raw := range merged {
		if Valid(raw) {
			out = append(out, Clean(raw))
		}
	}
	a.logger.Info("articles ready", "count", len(out))
	return out, nil
}

func (a *Aggregator) run(ctx context.Context, q newsapi.Query, sortBy string) ([]newsapi.Article, error) {
	q.SortBy = sortBy
	resp, err := a.search.Everything(ctx, q, false)
	if err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// BuildQuery joins keywords with OR, quoting the ones that contain spaces:
// ["openai", "machine learning"] becomes `openai OR "machine learning"`.
func BuildQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if strings.Contains(k, " ") {
			k = `"` + k + `"`
		}
		parts = append(parts, k)
	}
	return strings.Join(parts, " OR ")
}

// SampleArticles returns the canned articles served when no news source is
// reachable. now stamps their publication times.
func SampleArticles(now time.Time) []Article {
	return []Article{
		{
			Source:      Source{ID: "techcrunch", Name: "TechCrunch"},
			Author:      "Sarah Chen",
			Title:       "OpenAI Announces GPT-5 with Revolutionary Reasoning",
			Description: "The latest model demonstrates human-level problem solving.",
			URL:         "https://example.com/gpt5",
			URLToImage:  "https://example.com/gpt5.jpg",
			PublishedAt: now.UTC().Format(time.RFC3339),
			Content:     "OpenAI unveiled GPT-5 today, claiming breakthrough capabilities...",
		},
		{
			Source:      Source{ID: "the-verge", Name: "The Verge"},
			Author:      "Mike Johnson",
			Title:       "Google's Gemini Ultra Beats GPT-4 in Benchmarks",
			Description: "New benchmarks show Gemini outperforming competitors.",
			URL:         "https://example.com/gemini",
			URLToImage:  "https://example.com/gemini.jpg",
			PublishedAt: now.Add(-2 * time.Hour).UTC().Format(time.RFC3339),
			Content:     "Google's Gemini Ultra has achieved state-of-the-art results...",
		},
	}
}
