package newsapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/dailymemedigest/memefactory/pkg/cache"
	"github.com/dailymemedigest/memefactory/pkg/integrations"
)

// DefaultBaseURL is the public NewsAPI endpoint.
const DefaultBaseURL = "https://newsapi.org/v2"

// DefaultCacheTTL is how long search results are reused.
const DefaultCacheTTL = 30 * time.Minute

// Sort orders accepted by the everything endpoint.
const (
	SortPopularity  = "popularity"
	SortRelevancy   = "relevancy"
	SortPublishedAt = "publishedAt"
)

// Source identifies the outlet that published an article.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is one search hit, as NewsAPI returns it.
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// Query is an everything search. Language defaults to "en" and PageSize
// to 20.
type Query struct {
	Q        string
	From     time.Time
	To       time.Time
	SortBy   string
	Language string
	PageSize int
}

// Response is the decoded search result.
type Response struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// Client provides access to NewsAPI.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a NewsAPI client. backend may be nil to disable caching.
func NewClient(apiKey string, backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"X-Api-Key":  apiKey,
		"User-Agent": "memefactory/1.0",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "newsapi", cacheTTL, headers),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Everything runs a search. If refresh is true the cache is bypassed.
func (c *Client) Everything(ctx context.Context, q Query, refresh bool) (*Response, error) {
	if q.Q == "" {
		return nil, fmt.Errorf("newsapi: empty query")
	}
	u := c.baseURL + "/everything?" + q.values().Encode()

	var resp Response
	err := c.Cached(ctx, u, refresh, &resp, func() error {
		resp = Response{}
		if err := c.Get(ctx, u, &resp); err != nil {
			return err
		}
		if resp.Status == "error" {
			return fmt.Errorf("newsapi: %s: %s", resp.Code, resp.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (q Query) values() url.Values {
	v := url.Values{}
	v.Set("q", q.Q)
	if !q.From.IsZero() {
		v.Set("from", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.Format("2006-01-02"))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	lang := q.Language
	if lang == "" {
		lang = "en"
	}
	v.Set("language", lang)
	size := q.PageSize
	if size <= 0 {
		size = 20
	}
	v.Set("pageSize", strconv.Itoa(size))
	return v
}
