package masonry

import (
	"math"
	"time"
)

const (
	// DefaultColumnWidth is the target column width used when a Config leaves
	// BaseColumnWidth unset.
	DefaultColumnWidth = 250.0

	// DefaultGap is the gap between cards used by [DefaultConfig].
	DefaultGap = 20.0

	// MaxColumns caps the column count however narrow the columns are
	// asked to be.
	MaxColumns = 64

	// DefaultDebounce is how long a grid waits after the last viewport resize
	// before reflowing.
	DefaultDebounce = 250 * time.Millisecond
)

// SpanThresholds holds the aspect ratios above which a card spans more than
// one column. The defaults (1.7 and 2.5) are hand-tuned.
type SpanThresholds struct {
	// Double is the aspect ratio above which a card spans two columns.
	Double float64 `toml:"double" json:"double"`

	// Triple is the aspect ratio above which a card spans three columns,
	// provided the grid has at least three.
	Triple float64 `toml:"triple" json:"triple"`
}

// DefaultSpanThresholds returns the stock span thresholds.
func DefaultSpanThresholds() SpanThresholds {
	return SpanThresholds{Double: 1.7, Triple: 2.5}
}

// Span returns how many columns a card with the given aspect ratio occupies
// in a grid of the given column count. The result is always in [1, columns].
func (t SpanThresholds) Span(aspect float64, columns int) int {
	columns = max(columns, 1)
	span := 1
	switch {
	case aspect > t.Triple && columns >= 3:
		span = 3
	case aspect > t.Double:
		span = 2
	}
	return min(span, columns)
}

// Config describes the grid geometry. It is read-only once a grid is
// configured; only the container's measured width changes afterwards.
type Config struct {
	// BaseColumnWidth is the target column width in pixels. The actual column
	// width is stretched so the columns fill the container exactly.
	BaseColumnWidth float64 `toml:"column_width" json:"column_width"`

	// Gap is the horizontal and vertical space between cards.
	Gap float64 `toml:"gap" json:"gap"`

	// Spans controls when wide cards span several columns.
	Spans SpanThresholds `toml:"spans" json:"spans"`
}

// DefaultConfig returns a Config with stock values.
func DefaultConfig() Config {
	return Config{
		BaseColumnWidth: DefaultColumnWidth,
		Gap:             DefaultGap,
		Spans:           DefaultSpanThresholds(),
	}
}

// withDefaults fills zero, negative or non-finite fields. A zero Gap is
// legal and kept.
func (c Config) withDefaults() Config {
	if !finite(c.BaseColumnWidth) || c.BaseColumnWidth <= 0 {
		c.BaseColumnWidth = DefaultColumnWidth
	}
	if !finite(c.Gap) || c.Gap < 0 {
		c.Gap = 0
	}
	if !finite(c.Spans.Double) || c.Spans.Double <= 0 {
		c.Spans.Double = DefaultSpanThresholds().Double
	}
	if !finite(c.Spans.Triple) || c.Spans.Triple <= 0 {
		c.Spans.Triple = DefaultSpanThresholds().Triple
	}
	return c
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
