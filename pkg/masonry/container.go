package masonry

import (
	"slices"
	"sync"
)

// Rect is an absolutely positioned box inside a container.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Container is the surface a grid draws on: the equivalent of a DOM element
// whose children are absolutely positioned.
type Container interface {
	// Width returns the current measured width.
	Width() float64

	// SetHeight sets the container's total height.
	SetHeight(h float64)

	// Mount adds the card for item index with its rendered markup.
	Mount(index int, markup string)

	// Position moves the card for item index.
	Position(index int, r Rect)

	// Clear removes every card.
	Clear()
}

// Card is a mounted item as seen by a [MemoryContainer].
type Card struct {
	Index  int
	Markup string
	Rect   Rect
	Placed bool
}

// MemoryContainer is an in-memory [Container]. The server renders its
// snapshot to HTML and the terminal preview draws it; tests inspect it
// directly. It is safe for concurrent use.
type MemoryContainer struct {
	mu     sync.RWMutex
	width  float64
	height float64
	cards  []Card
}

// NewMemoryContainer creates an empty container of the given width.
func NewMemoryContainer(width float64) *MemoryContainer {
	return &MemoryContainer{width: width}
}

// Width returns the container width.
func (c *MemoryContainer) Width() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width
}

// SetWidth changes the measured width, as a viewport resize would. Callers
// notify the grid's viewport afterwards.
func (c *MemoryContainer) SetWidth(w float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = w
}

// Height returns the height set by the last reflow.
func (c *MemoryContainer) Height() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// SetHeight implements [Container].
func (c *MemoryContainer) SetHeight(h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = h
}

// Mount implements [Container]. Mounting an index twice replaces its markup.
func (c *MemoryContainer) Mount(index int, markup string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.cards) <= index {
		c.cards = append(c.cards, Card{Index: len(c.cards)})
	}
	c.cards[index].Markup = markup
}

// Position implements [Container]. Unknown indexes are ignored.
func (c *MemoryContainer) Position(index int, r Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.cards) {
		return
	}
	c.cards[index].Rect = r
	c.cards[index].Placed = true
}

// Clear implements [Container].
func (c *MemoryContainer) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards = nil
	c.height = 0
}

// Len returns the number of mounted cards.
func (c *MemoryContainer) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}

// Snapshot returns a copy of the mounted cards in index order.
func (c *MemoryContainer) Snapshot() []Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.cards)
}

var _ Container = (*MemoryContainer)(nil)
