package config

import (
	stderrors "errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/masonry"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "memefactory.toml"

// placeholders are example values from sample .env files; they count as
// unset.
var placeholders = map[string]bool{
	"your-news-api-key-here": true,
	"your-openai-key-here":   true,
}

// Config is the full set of settings.
type Config struct {
	Server     Server     `mapstructure:"server"`
	News       News       `mapstructure:"news"`
	OpenAI     OpenAI     `mapstructure:"openai"`
	Mailchimp  Mailchimp  `mapstructure:"mailchimp"`
	Storage    Storage    `mapstructure:"storage"`
	Generation Generation `mapstructure:"generation"`
	Gallery    Gallery    `mapstructure:"gallery"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Server configures the HTTP listener.
type Server struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

// News configures the NewsAPI integration.
type News struct {
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// OpenAI configures caption and image generation.
type OpenAI struct {
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	ChatModel  string `mapstructure:"chat_model"`
	ImageModel string `mapstructure:"image_model"`
}

// Mailchimp configures the newsletter list.
type Mailchimp struct {
	APIKey       string `mapstructure:"api_key"`
	ServerPrefix string `mapstructure:"server_prefix"`
	ListID       string `mapstructure:"list_id"`
}

// Storage says where memes, images and caches live.
type Storage struct {
	DatabasePath  string `mapstructure:"database_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
	FilePath      string `mapstructure:"file_path"`
	MediaDir      string `mapstructure:"media_dir"`
	RedisURL      string `mapstructure:"redis_url"`
}

// Generation tunes the meme pipeline.
type Generation struct {
	DefaultCount  int           `mapstructure:"default_count"`
	Parallelism   int           `mapstructure:"parallelism"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxWidth      int           `mapstructure:"max_width"`
	TemplatesPath string        `mapstructure:"templates_path"`
	FontPath      string        `mapstructure:"font_path"`
}

// Gallery sets the default masonry geometry of the gallery page.
type Gallery struct {
	Width       float64 `mapstructure:"width"`
	ColumnWidth float64 `mapstructure:"column_width"`
	Gap         float64 `mapstructure:"gap"`
	PageSize    int     `mapstructure:"page_size"`

	// SpanDouble and SpanTriple are the aspect ratios above which a card
	// spans two or three columns.
	SpanDouble float64 `mapstructure:"span_double"`
	SpanTriple float64 `mapstructure:"span_triple"`
}

// Masonry returns the layout engine settings for the gallery.
func (g Gallery) Masonry() masonry.Config {
	return masonry.Config{
		BaseColumnWidth: g.ColumnWidth,
		Gap:             g.Gap,
		Spans:           masonry.SpanThresholds{Double: g.SpanDouble, Triple: g.SpanTriple},
	}
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:               "0.0.0.0",
			Port:               8080,
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 10,
		},
		News:   News{CacheTTL: time.Hour},
		OpenAI: OpenAI{ChatModel: "gpt-3.5-turbo", ImageModel: "gpt-image-1"},
		Storage: Storage{
			DatabasePath:  "memes.db",
			MongoDatabase: "memefactory",
			FilePath:      "memes.json",
			MediaDir:      "media",
		},
		Generation: Generation{
			DefaultCount: 10,
			Parallelism:  4,
			Timeout:      60 * time.Second,
			MaxWidth:     1024,
		},
		Gallery: Gallery{
			Width:       1200,
			ColumnWidth: 280,
			Gap:         16,
			PageSize:    30,
			SpanDouble:  masonry.DefaultSpanThresholds().Double,
			SpanTriple:  masonry.DefaultSpanThresholds().Triple,
		},
	}
}

// env maps config keys to the environment variables that set them.
var env = map[string]string{
	"server.host":                  "HOST",
	"server.port":                  "PORT",
	"server.allowed_origins":       "ALLOWED_ORIGINS",
	"server.rate_limit_per_minute": "RATE_LIMIT_PER_MINUTE",
	"news.api_key":                 "NEWS_API_KEY",
	"news.cache_ttl":               "NEWS_REFRESH_INTERVAL",
	"openai.api_key":               "OPENAI_API_KEY",
	"openai.base_url":              "OPENAI_BASE_URL",
	"openai.chat_model":            "OPENAI_CHAT_MODEL",
	"openai.image_model":           "OPENAI_IMAGE_MODEL",
	"mailchimp.api_key":            "MAILCHIMP_API_KEY",
	"mailchimp.server_prefix":      "MAILCHIMP_SERVER_PREFIX",
	"mailchimp.list_id":            "MAILCHIMP_LIST_ID",
	"storage.database_path":        "DATABASE_PATH",
	"storage.mongo_uri":            "MONGO_URI",
	"storage.mongo_database":       "MONGO_DATABASE",
	"storage.file_path":            "MEMES_FILE",
	"storage.media_dir":            "MEDIA_DIR",
	"storage.redis_url":            "REDIS_URL",
	"generation.default_count":     "MAX_MEMES_PER_USER",
	"generation.parallelism":       "GENERATION_PARALLELISM",
	"generation.timeout":           "MEME_GENERATION_TIMEOUT",
	"generation.templates_path":    "TEMPLATES_PATH",
	"generation.font_path":         "FONT_PATH",
}

// flags maps command-line flag names to config keys.
var flags = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"db":           "storage.database_path",
	"mongo":        "storage.mongo_uri",
	"redis":        "storage.redis_url",
	"media":        "storage.media_dir",
	"templates":    "generation.templates_path",
	"font":         "generation.font_path",
	"parallel":     "generation.parallelism",
	"width":        "gallery.width",
	"column-width": "gallery.column_width",
	"gap":          "gallery.gap",
}

// Load reads the settings. path names the config file; empty means
// memefactory.toml in the working directory, which may be absent. fs may
// be nil; only flags the user set override the other layers.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultFile, ".toml"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path == "" && stderrors.As(err, &notFound):
		case path != "" && stderrors.Is(err, os.ErrNotExist):
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config")
		}
	}

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "bind %s", name)
		}
	}
	// NEWS_REFRESH_INTERVAL and MEME_GENERATION_TIMEOUT are plain seconds.
	for _, key := range []string{"news.cache_ttl", "generation.timeout"} {
		if s, ok := os.LookupEnv(env[key]); ok && isDigits(s) {
			v.Set(key, s+"s")
		}
	}
	if fs != nil {
		for name, key := range flags {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "bind --%s", name)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	cfg.normalize()
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)
	v.SetDefault("news.api_key", "")
	v.SetDefault("news.cache_ttl", d.News.CacheTTL)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.chat_model", d.OpenAI.ChatModel)
	v.SetDefault("openai.image_model", d.OpenAI.ImageModel)
	v.SetDefault("mailchimp.api_key", "")
	v.SetDefault("mailchimp.server_prefix", "")
	v.SetDefault("mailchimp.list_id", "")
	v.SetDefault("storage.database_path", d.Storage.DatabasePath)
	v.SetDefault("storage.mongo_uri", "")
	v.SetDefault("storage.mongo_database", d.Storage.MongoDatabase)
	v.SetDefault("storage.file_path", d.Storage.FilePath)
	v.SetDefault("storage.media_dir", d.Storage.MediaDir)
	v.SetDefault("storage.redis_url", "")
	v.SetDefault("generation.default_count", d.Generation.DefaultCount)
	v.SetDefault("generation.parallelism", d.Generation.Parallelism)
	v.SetDefault("generation.timeout", d.Generation.Timeout)
	v.SetDefault("generation.max_width", d.Generation.MaxWidth)
	v.SetDefault("generation.templates_path", "")
	v.SetDefault("generation.font_path", "")
	v.SetDefault("gallery.width", d.Gallery.Width)
	v.SetDefault("gallery.column_width", d.Gallery.ColumnWidth)
	v.SetDefault("gallery.gap", d.Gallery.Gap)
	v.SetDefault("gallery.page_size", d.Gallery.PageSize)
	v.SetDefault("gallery.span_double", d.Gallery.SpanDouble)
	v.SetDefault("gallery.span_triple", d.Gallery.SpanTriple)
}

func (c *Config) normalize() {
	var origins []string
	for _, o := range c.Server.AllowedOrigins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	c.Server.AllowedOrigins = origins
	for _, key := range []*string{&c.News.APIKey, &c.OpenAI.APIKey} {
		*key = strings.TrimSpace(*key)
		if placeholders[*key] {
			*key = ""
		}
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return errors.New(errors.ErrCodeInvalidInput, "port %d out of range", c.Server.Port)
	case c.Server.RateLimitPerMinute < 0:
		return errors.New(errors.ErrCodeInvalidInput, "rate_limit_per_minute must not be negative")
	case c.Generation.DefaultCount < 1 || c.Generation.DefaultCount > 20:
		return errors.New(errors.ErrCodeInvalidInput, "generation.default_count must be between 1 and 20")
	case c.Generation.Parallelism < 1:
		return errors.New(errors.ErrCodeInvalidInput, "generation.parallelism must be at least 1")
	case c.Generation.Timeout <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "generation.timeout must be positive")
	case c.Gallery.Width <= 0 || c.Gallery.ColumnWidth <= 0 || c.Gallery.Gap < 0:
		return errors.New(errors.ErrCodeInvalidInput, "gallery geometry must be positive")
	case c.Gallery.SpanDouble <= 1 || c.Gallery.SpanTriple < c.Gallery.SpanDouble:
		return errors.New(errors.ErrCodeInvalidInput, "gallery spans must satisfy 1 < span_double <= span_triple")
	case c.Gallery.PageSize < 1 || c.Gallery.PageSize > 100:
		return errors.New(errors.ErrCodeInvalidInput, "gallery.page_size must be between 1 and 100")
	case c.Storage.MediaDir == "":
		return errors.New(errors.ErrCodeInvalidInput, "storage.media_dir is required")
	}
	return nil
}

// Missing lists the environment variables of integrations that will run
// degraded.
func (c *Config) Missing() []string {
	var out []string
	if c.News.APIKey == "" {
		out = append(out, "NEWS_API_KEY")
	}
	if c.OpenAI.APIKey == "" {
		out = append(out, "OPENAI_API_KEY")
	}
	if c.Mailchimp.APIKey == "" {
		out = append(out, "MAILCHIMP_API_KEY")
	}
	if c.Mailchimp.ServerPrefix == "" {
		out = append(out, "MAILCHIMP_SERVER_PREFIX")
	}
	if c.Mailchimp.ListID == "" {
		out = append(out, "MAILCHIMP_LIST_ID")
	}
	return out
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
