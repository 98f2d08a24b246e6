package store

import (
	"context"
	"time"

	"github.com/dailymemedigest/memefactory/pkg/errors"
)

// Sort orders for [Store.List].
const (
	SortRecent = "recent"
	SortTop    = "top"
)

// MaxList is the largest page [Store.List] returns.
const MaxList = 200

// Meme is a stored meme.
type Meme struct {
	ID         string            `json:"id" bson:"_id"`
	Prompt     string            `json:"prompt" bson:"prompt"`
	NewsURL    string            `json:"url" bson:"news_url"`
	NewsTitle  string            `json:"news_title,omitempty" bson:"news_title,omitempty"`
	NewsSource string            `json:"news_source,omitempty" bson:"news_source,omitempty"`
	Template   string            `json:"template_name" bson:"template"`
	Caption    map[string]string `json:"meme_text,omitempty" bson:"caption,omitempty"`
	ImageURL   string            `json:"image" bson:"image_url"`
	Width      int               `json:"width" bson:"width"`
	Height     int               `json:"height" bson:"height"`
	Trends     []string          `json:"trends,omitempty" bson:"trends,omitempty"`
	Votes      int               `json:"votes" bson:"votes"`
	CreatedAt  time.Time         `json:"generated_at" bson:"created_at"`
}

// ListOptions selects a page of memes.
type ListOptions struct {
	Sort   string
	Limit  int
	Offset int
}

// Normalize applies defaults: recent order, a limit in [1, MaxList], a
// non-negative offset. Unknown sort orders are an error.
func (o ListOptions) Normalize() (ListOptions, error) {
	switch o.Sort {
	case "":
		o.Sort = SortRecent
	case SortRecent, SortTop:
	default:
		return o, errors.New(errors.ErrCodeInvalidSort, "unknown sort order %q (want %q or %q)", o.Sort, SortRecent, SortTop)
	}
	if o.Limit <= 0 || o.Limit > MaxList {
		o.Limit = MaxList
	}
	o.Offset = max(o.Offset, 0)
	return o, nil
}

// Store persists memes. Implementations are safe for concurrent use.
type Store interface {
	// Save inserts m. CreatedAt defaults to now.
	Save(ctx context.Context, m *Meme) error

	// List returns a page of memes.
	List(ctx context.Context, opts ListOptions) ([]Meme, error)

	// Get returns one meme. A missing id is an ErrCodeMemeNotFound error.
	Get(ctx context.Context, id string) (*Meme, error)

	// Vote adds delta to a meme's votes and returns the new total.
	Vote(ctx context.Context, id string, delta int) (int, error)

	// Count returns the number of stored memes.
	Count(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeMemeNotFound, "meme %q not found", id)
}

func prepare(m *Meme) error {
	if m == nil || m.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "meme id is required")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return nil
}
