package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dailymemedigest/memefactory/pkg/cache"
	"github.com/dailymemedigest/memefactory/pkg/errors"
	"github.com/dailymemedigest/memefactory/pkg/masonry"
	"github.com/dailymemedigest/memefactory/pkg/store"
)

const (
	// layoutTTL is how long a computed page layout is reused.
	layoutTTL = 10 * time.Minute

	// probeTimeout bounds the image loads of one layout.
	probeTimeout = 5 * time.Second

	// minColumnWidth is the narrowest column a request may ask for.
	minColumnWidth = 1.0
)

// geometry is the requested gallery geometry.
type geometry struct {
	Width       float64
	ColumnWidth float64
	Gap         float64
}

func (s *Server) geometry(r *http.Request) (geometry, error) {
	width, err := queryFloat(r, "width", s.settings.GalleryWidth)
	if err != nil {
		return geometry{}, err
	}
	col, err := queryFloat(r, "column_width", s.settings.ColumnWidth)
	if err != nil {
		return geometry{}, err
	}
	gap, err := queryFloat(r, "gap", s.settings.Gap)
	if err != nil {
		return geometry{}, err
	}
	if col < minColumnWidth {
		return geometry{}, errors.New(errors.ErrCodeInvalidInput, "column_width must be at least %g", minColumnWidth)
	}
	if n := math.Floor((width + gap) / (col + gap)); n > masonry.MaxColumns {
		return geometry{}, errors.New(errors.ErrCodeInvalidInput,
			"width %g fits %.0f columns of %g; at most %d are allowed", width, n, col, masonry.MaxColumns)
	}
	return geometry{Width: width, ColumnWidth: col, Gap: gap}, nil
}

// pageLayout is a laid-out page of memes.
type pageLayout struct {
	masonry.Layout
	// Cards holds each placement's markup, in input order. Only set when a
	// renderer was given; never cached.
	Cards []masonry.Card `json:"-"`
	// Partial is set when some image sizes could not be resolved in time.
	Partial bool `json:"partial,omitempty"`
}

// layout places page at the given geometry. Images with a stored size are
// placed directly; the rest are probed. A complete layout without markup
// is cached by page content and geometry.
func (s *Server) layout(ctx context.Context, page []store.Meme, geo geometry, render masonry.RenderFunc) (pageLayout, error) {
	key := s.deps.Keyer.LayoutKey(pageHash(page), cache.LayoutKeyOpts{
		Width:       geo.Width,
		ColumnWidth: geo.ColumnWidth,
		Gap:         geo.Gap,
	})
	if render == nil {
		if data, hit, err := s.deps.Cache.Get(ctx, key); err == nil && hit {
			var l masonry.Layout
			if json.Unmarshal(data, &l) == nil {
				return pageLayout{Layout: l}, nil
			}
		}
	}

	container := masonry.NewMemoryContainer(geo.Width)
	cfg := masonry.DefaultConfig()
	cfg.BaseColumnWidth = geo.ColumnWidth
	cfg.Gap = geo.Gap
	cfg.Spans = s.settings.Spans

	loadCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	grid := masonry.Configure(container, cfg,
		masonry.WithLoader(s.deps.Probe),
		masonry.WithContext(loadCtx),
		masonry.WithLogger(s.logger),
	)
	defer grid.Destroy()

	items := make([]masonry.Item, len(page))
	for i, m := range page {
		items[i] = masonry.Item{
			Image: m.ImageURL,
			Size:  masonry.Size{Width: m.Width, Height: m.Height},
			Data:  m,
		}
	}
	grid.SetItems(items, render)

	partial := false
	if err := grid.Wait(loadCtx); err != nil {
		if ctx.Err() != nil {
			return pageLayout{}, ctx.Err()
		}
		s.logger.Warn("layout image loads timed out", "pending", grid.Pending())
		partial = true
	}

	out := pageLayout{Layout: grid.Layout(), Partial: partial}
	if render != nil {
		out.Cards = container.Snapshot()
	} else if !partial {
		if data, err := json.Marshal(out.Layout); err == nil {
			if err := s.deps.Cache.Set(ctx, key, data, layoutTTL); err != nil {
				s.logger.Debug("layout cache write failed", "err", err)
			}
		}
	}
	return out, nil
}

// pageHash identifies the layout-relevant content of a page.
func pageHash(page []store.Meme) string {
	buf := make([]byte, 0, len(page)*64)
	for _, m := range page {
		buf = append(buf, m.ID...)
		buf = append(buf, '|')
		buf = append(buf, m.ImageURL...)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, int64(m.Width), 10)
		buf = append(buf, 'x')
		buf = strconv.AppendInt(buf, int64(m.Height), 10)
		buf = append(buf, '\n')
	}
	return cache.Hash(buf)
}

// layoutCard is one placed meme in the layout response.
type layoutCard struct {
	masonry.Placement
	ID       string `json:"id"`
	ImageURL string `json:"image"`
	Template string `json:"template_name"`
	Votes    int    `json:"votes"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	geo, err := s.geometry(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.deps.Store.List(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.layout(r.Context(), page, geo, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cards := make([]layoutCard, len(l.Placements))
	for i, p := range l.Placements {
		m := page[p.Index]
		cards[i] = layoutCard{Placement: p, ID: m.ID, ImageURL: m.ImageURL, Template: m.Template, Votes: m.Votes}
	}
	ok(w, envelope{
		"container_width": l.ContainerWidth,
		"columns":         l.Columns,
		"column_width":    l.ColumnWidth,
		"gap":             l.Gap,
		"column_heights":  l.Heights,
		"height":          l.Height,
		"cards":           cards,
		"partial":         l.Partial,
		"offset":          opts.Offset,
		"limit":           opts.Limit,
	})
}
