package masonry

import "math"

// Footprint is what the placement pass needs to know about a single item.
type Footprint struct {
	// Aspect is natural width divided by natural height. Zero means the size
	// is unknown or the image failed, and the card stays square.
	Aspect float64
}

// Placement is the computed position of one item.
// All coordinates are pixels relative to the container's top-left corner.
type Placement struct {
	Index  int     `json:"index"`
	Column int     `json:"column"`
	Span   int     `json:"span"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the y coordinate of the card's lower edge.
func (p Placement) Bottom() float64 { return p.Y + p.Height }

// Rect returns the placement as a container rectangle.
func (p Placement) Rect() Rect {
	return Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Layout is the result of one reflow.
type Layout struct {
	ContainerWidth float64 `json:"container_width"`
	Columns        int     `json:"columns"`
	ColumnWidth    float64 `json:"column_width"`
	Gap            float64 `json:"gap"`

	// Heights is the cumulative height of every column, trailing gap
	// included.
	Heights []float64 `json:"column_heights"`

	// Height is the container height: the tallest column.
	Height float64 `json:"height"`

	// Placements are in input order.
	Placements []Placement `json:"placements"`
}

// ColumnCount returns how many columns of roughly baseWidth fit in width,
// between one and [MaxColumns]. Non-finite input yields one column.
func ColumnCount(width, baseWidth, gap float64) int {
	if !finite(width) || !finite(baseWidth) || !finite(gap) || baseWidth+gap <= 0 {
		return 1
	}
	n := math.Floor((width + gap) / (baseWidth + gap))
	if n < 1 || math.IsNaN(n) {
		return 1
	}
	return int(min(n, MaxColumns))
}

// ColumnWidth returns the width each of columns must have so that the columns
// and the gaps between them fill width exactly.
func ColumnWidth(width float64, columns int, gap float64) float64 {
	columns = max(columns, 1)
	return max((width-float64(columns-1)*gap)/float64(columns), 0)
}

// Compute places items into a grid for a container of the given width.
//
// Items are visited in order. Each one goes to the run of span adjacent
// columns whose tallest member is lowest, leftmost first on ties, and lands
// at that height. Every spanned column then grows to the card's bottom edge
// plus one gap.
func Compute(cfg Config, width float64, items []Footprint) Layout {
	cfg = cfg.withDefaults()
	if width < 0 || !finite(width) {
		width = 0
	}

	columns := ColumnCount(width, cfg.BaseColumnWidth, cfg.Gap)
	colWidth := ColumnWidth(width, columns, cfg.Gap)
	heights := make([]float64, columns)
	placements := make([]Placement, len(items))

	for i, item := range items {
		span := cfg.Spans.Span(item.Aspect, columns)
		cardWidth := float64(span)*colWidth + float64(span-1)*cfg.Gap
		cardHeight := heightFor(cardWidth, item.Aspect)

		col, y := lowestRun(heights, span)
		placements[i] = Placement{
			Index:  i,
			Column: col,
			Span:   span,
			X:      float64(col) * (colWidth + cfg.Gap),
			Y:      y,
			Width:  cardWidth,
			Height: cardHeight,
		}
		for c := col; c < col+span; c++ {
			heights[c] = y + cardHeight + cfg.Gap
		}
	}

	var total float64
	for _, h := range heights {
		total = max(total, h)
	}

	return Layout{
		ContainerWidth: width,
		Columns:        columns,
		ColumnWidth:    colWidth,
		Gap:            cfg.Gap,
		Heights:        heights,
		Height:         total,
		Placements:     placements,
	}
}

// lowestRun finds the start column of the span-wide run with the smallest
// maximum height and returns that column and height.
func lowestRun(heights []float64, span int) (int, float64) {
	best, bestY := 0, math.Inf(1)
	for start := 0; start+span <= len(heights); start++ {
		var top float64
		for _, h := range heights[start : start+span] {
			top = max(top, h)
		}
		if top < bestY {
			best, bestY = start, top
		}
	}
	return best, bestY
}

// heightFor returns the rendered height of a card of the given width.
func heightFor(width, aspect float64) float64 {
	if !validAspect(aspect) {
		return width
	}
	return width / aspect
}

func validAspect(a float64) bool {
	return a > 0 && finite(a)
}
