package masonry

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dailymemedigest/memefactory/pkg/observability"
)

// Item is one entry of the caller's list.
type Item struct {
	// Image locates the card's image. Empty means the card has no image.
	Image string

	// Size is the image's natural size when the caller already knows it
	// (stored alongside the record, say). A valid Size skips loading.
	Size Size

	// Data is opaque caller data, handed back to the RenderFunc.
	Data any
}

// RenderFunc turns an item and its index in the source list into markup.
type RenderFunc func(item Item, index int) string

// Option configures a [Grid].
type Option func(*Grid)

// WithLoader sets the loader used to size images. Without one, every image
// is treated as failed and keeps a square footprint.
func WithLoader(l ImageLoader) Option { return func(g *Grid) { g.loader = l } }

// WithViewport subscribes the grid to resize notifications.
func WithViewport(v Viewport) Option { return func(g *Grid) { g.viewport = v } }

// WithDebounce overrides [DefaultDebounce].
func WithDebounce(d time.Duration) Option { return func(g *Grid) { g.debounce = d } }

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(g *Grid) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithContext sets the context image loads run under. Cancelling it aborts
// in-flight loads, which then count as failed.
func WithContext(ctx context.Context) Option { return func(g *Grid) { g.ctx = ctx } }

// WithReflowHook registers fn to be called with the result of every reflow.
// fn runs while the grid is locked and must not call back into the grid.
func WithReflowHook(fn func(Layout)) Option { return func(g *Grid) { g.onReflow = fn } }

type gridItem struct {
	item    Item
	aspect  float64
	pending bool
}

// Grid is a live masonry layout bound to a container.
//
// All methods are safe for concurrent use; they are serialised so that the
// grid behaves as if driven by a single event loop.
type Grid struct {
	mu sync.Mutex

	container Container
	cfg       Config
	loader    ImageLoader
	viewport  Viewport
	logger    *log.Logger
	ctx       context.Context
	onReflow  func(Layout)

	unsubscribe func()
	debounce    time.Duration
	timer       *time.Timer
	resizeSeq   uint64
	destroyed   bool

	items      []*gridItem
	generation uint64
	pending    int
	settled    chan struct{}
	closed     bool
	layout     Layout
}

// Configure binds a grid to container. If container is nil the error is
// logged and every method of the returned grid is a no-op.
//
// When a viewport is configured, each resize schedules a reflow after the
// debounce window; further resizes inside the window push it back.
func Configure(container Container, cfg Config, opts ...Option) *Grid {
	g := &Grid{
		cfg:      cfg.withDefaults(),
		debounce: DefaultDebounce,
		logger:   log.Default(),
		ctx:      context.Background(),
		settled:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.markSettled()

	if container == nil {
		g.logger.Error("masonry container not found; grid disabled")
		return g
	}
	g.container = container

	if g.viewport != nil {
		g.unsubscribe = g.viewport.Subscribe(g.scheduleReflow)
	}
	return g
}

// Config returns the grid's configuration.
func (g *Grid) Config() Config { return g.cfg }

// SetItems replaces the item set.
//
// Each item is rendered and mounted immediately. Items without an image, or
// whose size is known up front or cached by the loader, are sized right away;
// the rest are loaded in the background and each completed load reflows the
// grid. The grid is reflowed once before SetItems returns.
func (g *Grid) SetItems(items []Item, render RenderFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.container == nil {
		return
	}

	g.resetLocked()

	for i, item := range items {
		markup := ""
		if render != nil {
			markup = render(item, i)
		}
		g.container.Mount(i, markup)

		gi := &gridItem{item: item}
		g.items = append(g.items, gi)

		src := strings.TrimSpace(item.Image)
		switch {
		case src == "":
			// No image: square footprint.
		case item.Size.Valid():
			gi.aspect = item.Size.Aspect()
		case g.loader == nil:
			g.logger.Debug("no image loader; keeping default footprint", "index", i, "src", src)
		default:
			if size, ok := g.loader.Cached(src); ok && size.Valid() {
				gi.aspect = size.Aspect()
				continue
			}
			gi.pending = true
			g.pending++
			go g.load(g.ctx, g.generation, i, src)
		}
	}

	if g.pending > 0 {
		g.settled = make(chan struct{})
		g.closed = false
	}
	g.reflowLocked()
}

// Reflow recomputes the layout from the container's current width and
// repositions every card.
func (g *Grid) Reflow() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reflowLocked()
}

// Clear removes every item and empties the container. It is safe to call at
// any time, repeatedly, and before SetItems.
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.container == nil {
		return
	}
	g.resetLocked()
	g.layout = Layout{}
}

// Destroy detaches the grid from its viewport and cancels any pending
// debounced reflow. It is idempotent.
func (g *Grid) Destroy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return
	}
	g.destroyed = true
	g.resizeSeq++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

// Layout returns a copy of the most recent layout.
func (g *Grid) Layout() Layout {
	g.mu.Lock()
	defer g.mu.Unlock()
	l := g.layout
	l.Heights = slices.Clone(l.Heights)
	l.Placements = slices.Clone(l.Placements)
	return l
}

// Pending returns the number of images still loading.
func (g *Grid) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Wait blocks until every image load of the current item set has finished
// and been reflowed, or ctx is done. Replacing the item set releases waiters
// of the previous one.
func (g *Grid) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.settled
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// Internals (callers hold g.mu)
// =============================================================================

func (g *Grid) resetLocked() {
	g.generation++
	g.items = nil
	g.pending = 0
	g.markSettled()
	g.container.Clear()
	g.container.SetHeight(0)
}

func (g *Grid) markSettled() {
	if !g.closed {
		close(g.settled)
		g.closed = true
	}
}

func (g *Grid) reflowLocked() {
	if g.container == nil {
		return
	}
	start := time.Now()

	footprints := make([]Footprint, len(g.items))
	for i, it := range g.items {
		footprints[i] = Footprint{Aspect: it.aspect}
	}

	layout := Compute(g.cfg, g.container.Width(), footprints)
	for _, p := range layout.Placements {
		g.container.Position(p.Index, p.Rect())
	}
	g.container.SetHeight(layout.Height)
	g.layout = layout

	g.logger.Debug("masonry reflow",
		"items", len(footprints),
		"columns", layout.Columns,
		"column_width", layout.ColumnWidth,
		"height", layout.Height)
	observability.Layout().OnReflow(g.ctx, len(footprints), layout.Columns, time.Since(start))

	if g.onReflow != nil {
		g.onReflow(layout)
	}
}

// load runs on its own goroutine and posts the outcome back to the grid.
func (g *Grid) load(ctx context.Context, generation uint64, index int, src string) {
	size, err := g.loader.Load(ctx, src)
	g.deliver(generation, index, src, ImageResult{Size: size, Err: err})
}

func (g *Grid) deliver(generation uint64, index int, src string, res ImageResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	observability.Layout().OnImageLoad(g.ctx, src, res.Err)

	if generation != g.generation || index >= len(g.items) {
		return // item set was replaced
	}
	it := g.items[index]
	if !it.pending {
		return
	}
	it.pending = false
	g.pending--

	if res.OK() {
		it.aspect = res.Size.Aspect()
	} else {
		it.aspect = 0
		g.logger.Warn("image failed to load; using default footprint", "index", index, "src", src, "err", res.Err)
	}

	g.reflowLocked()
	if g.pending == 0 {
		g.markSettled()
	}
}

// scheduleReflow is the viewport callback. Each call supersedes the previous
// one, so a burst of resizes yields one reflow.
func (g *Grid) scheduleReflow() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.container == nil || g.destroyed {
		return
	}

	if g.timer != nil {
		g.timer.Stop()
	}
	g.resizeSeq++
	seq := g.resizeSeq
	g.timer = time.AfterFunc(g.debounce, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.destroyed || seq != g.resizeSeq {
			return
		}
		g.timer = nil
		g.reflowLocked()
	})
}
