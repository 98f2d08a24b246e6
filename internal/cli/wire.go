package cli

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/dailymemedigest/memefactory/pkg/cache"
	"github.com/dailymemedigest/memefactory/pkg/config"
	"github.com/dailymemedigest/memefactory/pkg/imageprobe"
	"github.com/dailymemedigest/memefactory/pkg/integrations/newsapi"
	"github.com/dailymemedigest/memefactory/pkg/integrations/openai"
	"github.com/dailymemedigest/memefactory/pkg/memes"
	"github.com/dailymemedigest/memefactory/pkg/news"
	"github.com/dailymemedigest/memefactory/pkg/ratelimit"
	"github.com/dailymemedigest/memefactory/pkg/store"
	"github.com/dailymemedigest/memefactory/pkg/subscribe"
)

// services are the long-lived dependencies built from a config. Every
// integration without credentials runs degraded rather than failing.
type services struct {
	cfg    *config.Config
	logger *log.Logger

	store store.Store
	cache cache.Cache
	keyer cache.Keyer
	redis *redis.Client
	media *memes.MediaStore
	probe *imageprobe.Prober
	news  *news.Aggregator
	gen   *memes.Generator
	sub   *subscribe.Service
}

// openServices builds the services for cfg. Close releases them.
func (c *CLI) openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	s := &services{cfg: cfg, logger: c.Logger}

	s.cache = c.openCache(ctx, cfg)
	// Keys are namespaced so a shared Redis can serve other apps too.
	s.keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":")
	if rc, ok := s.cache.(*cache.RedisCache); ok {
		s.redis = rc.Client()
	}

	st, err := store.Open(ctx, store.Options{
		MongoURI:      cfg.Storage.MongoURI,
		MongoDatabase: cfg.Storage.MongoDatabase,
		SQLitePath:    cfg.Storage.DatabasePath,
		FilePath:      cfg.Storage.FilePath,
		Logger:        c.Logger,
	})
	if err != nil {
		s.cache.Close()
		return nil, err
	}
	s.store = st

	s.media, err = memes.NewMediaStore(cfg.Storage.MediaDir, "")
	if err != nil {
		s.Close()
		return nil, err
	}
	s.probe = imageprobe.New(
		imageprobe.WithMediaDir(s.media.Dir(), s.media.Prefix()),
		imageprobe.WithCache(s.cache, s.keyer),
		imageprobe.WithLogger(c.Logger),
	)

	// A nil *newsapi.Client must not reach the interface.
	var search news.Searcher
	if cfg.News.APIKey != "" {
		search = newsapi.NewClient(cfg.News.APIKey, s.cache, cfg.News.CacheTTL)
	}
	s.news = news.NewAggregator(search, news.WithLogger(c.Logger))

	s.gen, err = c.newGenerator(cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.sub = subscribe.New(subscribe.Settings{
		APIKey:       cfg.Mailchimp.APIKey,
		ServerPrefix: cfg.Mailchimp.ServerPrefix,
		ListID:       cfg.Mailchimp.ListID,
	}, subscribe.WithLogger(c.Logger))

	return s, nil
}

// openCache returns the Redis cache when configured and reachable, the
// per-user file cache otherwise.
func (c *CLI) openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.Storage.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Storage.RedisURL)
		if err == nil {
			c.Logger.Debug("using redis cache")
			return rc
		}
		c.Logger.Warn("redis unavailable; using file cache", "err", err)
	}
	fc, err := newCache(false)
	if err != nil {
		c.Logger.Warn("file cache unavailable; caching disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

func (c *CLI) newGenerator(cfg *config.Config, s *services) (*memes.Generator, error) {
	catalog := memes.DefaultCatalog()
	if path := cfg.Generation.TemplatesPath; path != "" {
		var err error
		if catalog, err = memes.LoadCatalog(path); err != nil {
			return nil, err
		}
	}

	opts := []memes.Option{
		memes.WithCatalog(catalog),
		memes.WithRenderer(memes.Renderer{FontPath: cfg.Generation.FontPath}),
		memes.WithLogger(c.Logger),
		memes.WithParallelism(cfg.Generation.Parallelism),
		memes.WithMaxWidth(cfg.Generation.MaxWidth),
	}
	if cfg.OpenAI.APIKey != "" {
		ai := openai.NewClient(cfg.OpenAI.APIKey).WithModels(cfg.OpenAI.ChatModel, cfg.OpenAI.ImageModel)
		if cfg.OpenAI.BaseURL != "" {
			ai = ai.WithBaseURL(cfg.OpenAI.BaseURL)
		}
		opts = append(opts, memes.WithCaptioner(ai), memes.WithImager(ai))
	}
	return memes.NewGenerator(s.news, s.store, s.media, opts...), nil
}

// limiter returns the request limiter: shared through Redis when there is
// one, per process otherwise.
func (s *services) limiter() ratelimit.Limiter {
	rule := ratelimit.PerMinute(s.cfg.Server.RateLimitPerMinute)
	if s.redis != nil {
		return ratelimit.NewRedis(s.redis, rule, ratelimit.WithKeyer(s.keyer))
	}
	return ratelimit.NewMemory(rule, ratelimit.WithKeyer(s.keyer))
}

// Close releases the store and the cache.
func (s *services) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return stderrors.Join(errs...)
}
