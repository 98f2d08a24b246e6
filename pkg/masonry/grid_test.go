package masonry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dailymemedigest/memefactory/pkg/observability"
)

// fakeLoader answers from fixed tables. Sources listed in gates block until
// their gate channel is closed.
type fakeLoader struct {
	mu     sync.Mutex
	sizes  map[string]Size
	cached map[string]Size
	gates  map[string]chan struct{}
	calls  int
}

func (f *fakeLoader) Cached(src string) (Size, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.cached[src]
	return s, ok
}

func (f *fakeLoader) Load(ctx context.Context, src string) (Size, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gates[src]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Size{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sizes[src]; ok {
		return s, nil
	}
	return Size{}, fmt.Errorf("load %s: not found", src)
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func renderIndex(item Item, i int) string {
	return fmt.Sprintf("<figure data-i=%d>%s</figure>", i, item.Image)
}

func waitSettled(t *testing.T, g *Grid) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestConfigureNilContainer(t *testing.T) {
	g := Configure(nil, DefaultConfig(), WithLogger(quietLogger()))

	g.SetItems([]Item{{Image: "a.png"}}, renderIndex)
	g.Reflow()
	g.Clear()
	g.Destroy()

	if l := g.Layout(); len(l.Placements) != 0 {
		t.Errorf("nil-container grid produced %d placements", len(l.Placements))
	}
	waitSettled(t, g)
}

func TestSetItemsWithoutImages(t *testing.T) {
	c := NewMemoryContainer(1000)
	g := Configure(c, DefaultConfig(), WithLogger(quietLogger()))

	g.SetItems([]Item{{}, {}, {}, {}, {}}, renderIndex)
	waitSettled(t, g)

	if c.Len() != 5 {
		t.Fatalf("mounted %d cards, want 5", c.Len())
	}
	want := []int{0, 1, 2, 0, 1}
	for i, p := range g.Layout().Placements {
		if p.Column != want[i] {
			t.Errorf("item %d column = %d, want %d", i, p.Column, want[i])
		}
	}
	if c.Height() != 680 {
		t.Errorf("container height = %v, want 680", c.Height())
	}
	for i, card := range c.Snapshot() {
		if !card.Placed {
			t.Errorf("card %d not positioned", i)
		}
		if card.Markup != renderIndex(Item{}, i) {
			t.Errorf("card %d markup = %q", i, card.Markup)
		}
	}
}

func TestSetItemsLoadsImages(t *testing.T) {
	loader := &fakeLoader{sizes: map[string]Size{
		"wide.png": {Width: 800, Height: 400},
		"tall.png": {Width: 300, Height: 600},
	}}
	c := NewMemoryContainer(1000)
	g := Configure(c, DefaultConfig(), WithLoader(loader), WithLogger(quietLogger()))

	g.SetItems([]Item{{Image: "wide.png"}, {Image: "tall.png"}}, renderIndex)
	waitSettled(t, g)

	l := g.Layout()
	if got := l.Placements[0]; got.Span != 2 || got.Height != 330 {
		t.Errorf("wide card = span %d height %v, want span 2 height 330", got.Span, got.Height)
	}
	if got := l.Placements[1]; got.Column != 2 || got.Height != 640 {
		t.Errorf("tall card = column %d height %v, want column 2 height 640", got.Column, got.Height)
	}
	if g.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", g.Pending())
	}
}

func TestFailedImageKeepsSquareFootprint(t *testing.T) {
	loader := &fakeLoader{sizes: map[string]Size{}}
	c := NewMemoryContainer(1000)
	g := Configure(c, DefaultConfig(), WithLoader(loader), WithLogger(quietLogger()))

	g.SetItems([]Item{{Image: "missing.png"}}, renderIndex)
	waitSettled(t, g)

	p := g.Layout().Placements[0]
	if p.Width != 320 || p.Height != 320 {
		t.Errorf("failed card = %vx%v, want 320x320", p.Width, p.Height)
	}
	if c.Height() != 340 {
		t.Errorf("container height = %v, want 340", c.Height())
	}
}

func TestKnownSizesSkipLoading(t *testing.T) {
	loader := &fakeLoader{cached: map[string]Size{"c.png": {Width: 100, Height: 200}}}
	g := Configure(NewMemoryContainer(1000), DefaultConfig(), WithLoader(loader), WithLogger(quietLogger()))

	g.SetItems([]Item{
		{Image: "known.png", Size: Size{Width: 400, Height: 200}},
		{Image: "c.png"},
	}, renderIndex)

	if g.Pending() != 0 {
		t.Fatalf("Pending = %d, want 0", g.Pending())
	}
	if loader.calls != 0 {
		t.Errorf("loader called %d times, want 0", loader.calls)
	}
	l := g.Layout()
	if l.Placements[0].Span != 2 {
		t.Errorf("known wide card span = %d, want 2", l.Placements[0].Span)
	}
	if l.Placements[1].Height != 640 {
		t.Errorf("cached tall card height = %v, want 640", l.Placements[1].Height)
	}
}

func TestNoLoaderTreatsImagesAsFailed(t *testing.T) {
	g := Configure(NewMemoryContainer(1000), DefaultConfig(), WithLogger(quietLogger()))
	g.SetItems([]Item{{Image: "x.png"}}, nil)

	if g.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", g.Pending())
	}
	if p := g.Layout().Placements[0]; p.Height != p.Width {
		t.Errorf("card = %vx%v, want square", p.Width, p.Height)
	}
}

type loadRecorder struct {
	observability.NoopLayoutHooks
	done chan string
}

func (r *loadRecorder) OnImageLoad(_ context.Context, src string, _ error) { r.done <- src }

func TestStaleLoadIsDropped(t *testing.T) {
	rec := &loadRecorder{done: make(chan string, 4)}
	observability.SetLayoutHooks(rec)
	defer observability.Reset()

	gate := make(chan struct{})
	loader := &fakeLoader{
		sizes: map[string]Size{"slow.png": {Width: 1000, Height: 100}},
		gates: map[string]chan struct{}{"slow.png": gate},
	}
	g := Configure(NewMemoryContainer(1000), DefaultConfig(), WithLoader(loader), WithLogger(quietLogger()))

	g.SetItems([]Item{{Image: "slow.png"}}, renderIndex)
	g.SetItems([]Item{{}, {}}, renderIndex)
	waitSettled(t, g)

	close(gate)
	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("slow load never delivered")
	}

	l := g.Layout()
	if len(l.Placements) != 2 {
		t.Fatalf("placements = %d, want 2", len(l.Placements))
	}
	if l.Placements[0].Span != 1 || l.Placements[0].Height != 320 {
		t.Errorf("stale result leaked into layout: %+v", l.Placements[0])
	}
}

func TestWaitHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	loader := &fakeLoader{gates: map[string]chan struct{}{"slow.png": gate}}
	g := Configure(NewMemoryContainer(1000), DefaultConfig(), WithLoader(loader), WithLogger(quietLogger()))

	g.SetItems([]Item{{Image: "slow.png"}}, renderIndex)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait = %v, want deadline exceeded", err)
	}
	if g.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", g.Pending())
	}
}

func TestReflowIsIdempotent(t *testing.T) {
	g := Configure(NewMemoryContainer(1000), DefaultConfig(), WithLogger(quietLogger()))
	g.SetItems([]Item{
		{Image: "a", Size: Size{Width: 400, Height: 300}},
		{},
		{Image: "b", Size: Size{Width: 900, Height: 300}},
		{Image: "c", Size: Size{Width: 300, Height: 500}},
	}, renderIndex)

	first := g.Layout()
	g.Reflow()
	second := g.Layout()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reflow changed layout:\n%+v\n%+v", first, second)
	}
}

func TestReflowFollowsContainerWidth(t *testing.T) {
	c := NewMemoryContainer(1000)
	g := Configure(c, DefaultConfig(), WithLogger(quietLogger()))
	g.SetItems([]Item{{}, {}, {}, {}}, renderIndex)

	c.SetWidth(520)
	g.Reflow()

	l := g.Layout()
	if l.Columns != 2 || l.ColumnWidth != 250 {
		t.Errorf("after resize: columns %d width %v, want 2 and 250", l.Columns, l.ColumnWidth)
	}
	if c.Height() != 540 {
		t.Errorf("container height = %v, want 540", c.Height())
	}
}

func TestResizeBurstCoalesces(t *testing.T) {
	var reflows atomic.Int32
	c := NewMemoryContainer(1000)
	vp := NewResizeNotifier()
	g := Configure(c, DefaultConfig(),
		WithViewport(vp),
		WithDebounce(40*time.Millisecond),
		WithLogger(quietLogger()),
		WithReflowHook(func(Layout) { reflows.Add(1) }))
	defer g.Destroy()

	g.SetItems([]Item{{}, {}, {}}, renderIndex)
	if got := reflows.Load(); got != 1 {
		t.Fatalf("reflows after SetItems = %d, want 1", got)
	}

	c.SetWidth(700)
	vp.Notify()
	time.Sleep(10 * time.Millisecond)
	c.SetWidth(500)
	vp.Notify()

	time.Sleep(150 * time.Millisecond)
	if got := reflows.Load(); got != 2 {
		t.Errorf("reflows after burst = %d, want 2", got)
	}
	if l := g.Layout(); l.ContainerWidth != 500 {
		t.Errorf("layout width = %v, want 500", l.ContainerWidth)
	}
}

func TestDestroyCancelsPendingReflow(t *testing.T) {
	var reflows atomic.Int32
	vp := NewResizeNotifier()
	g := Configure(NewMemoryContainer(1000), DefaultConfig(),
		WithViewport(vp),
		WithDebounce(30*time.Millisecond),
		WithLogger(quietLogger()),
		WithReflowHook(func(Layout) { reflows.Add(1) }))

	if vp.Len() != 1 {
		t.Fatalf("subscribers = %d, want 1", vp.Len())
	}

	vp.Notify()
	g.Destroy()
	g.Destroy()

	time.Sleep(80 * time.Millisecond)
	if got := reflows.Load(); got != 0 {
		t.Errorf("reflows after Destroy = %d, want 0", got)
	}
	if vp.Len() != 0 {
		t.Errorf("subscribers after Destroy = %d, want 0", vp.Len())
	}

	vp.Notify()
	time.Sleep(60 * time.Millisecond)
	if got := reflows.Load(); got != 0 {
		t.Errorf("destroyed grid reflowed on resize")
	}
}

func TestClear(t *testing.T) {
	c := NewMemoryContainer(1000)
	g := Configure(c, DefaultConfig(), WithLogger(quietLogger()))

	g.Clear()
	g.SetItems([]Item{{}, {}}, renderIndex)
	g.Clear()
	g.Clear()

	if c.Len() != 0 {
		t.Errorf("cards after Clear = %d, want 0", c.Len())
	}
	if c.Height() != 0 {
		t.Errorf("height after Clear = %v, want 0", c.Height())
	}
	if l := g.Layout(); len(l.Placements) != 0 {
		t.Errorf("layout after Clear has %d placements", len(l.Placements))
	}
	waitSettled(t, g)
}

func TestLayoutReturnsCopy(t *testing.T) {
	g := Configure(NewMemoryContainer(1000), DefaultConfig(), WithLogger(quietLogger()))
	g.SetItems([]Item{{}}, renderIndex)

	l := g.Layout()
	l.Placements[0].Y = 999
	l.Heights[0] = 999

	again := g.Layout()
	if again.Placements[0].Y != 0 || again.Heights[0] != 340 {
		t.Errorf("Layout copy aliases grid state: %+v", again)
	}
}
