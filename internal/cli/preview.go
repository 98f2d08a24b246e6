package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dailymemedigest/memefactory/pkg/config"
	"github.com/dailymemedigest/memefactory/pkg/masonry"
	"github.com/dailymemedigest/memefactory/pkg/store"
)

// Terminal cells are drawn at this many pixels across and down.
const (
	pxPerCol = 10.0
	pxPerRow = 20.0
)

// demoAspects are laid out when the store is empty.
var demoAspects = []masonry.Size{
	{Width: 1024, Height: 1024}, {Width: 1024, Height: 512}, {Width: 512, Height: 1024},
	{Width: 1024, Height: 768}, {Width: 1024, Height: 360}, {Width: 768, Height: 1024},
	{Width: 1024, Height: 1024}, {Width: 1024, Height: 576}, {Width: 600, Height: 800},
	{Width: 1024, Height: 1024}, {Width: 1024, Height: 500}, {Width: 800, Height: 600},
}

var (
	previewBorderStyle = lipgloss.NewStyle().Foreground(colorDim)
	previewStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		limit int
		demo  bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the gallery masonry in the terminal",
		Long: `Preview the gallery masonry in the terminal.

Each card is drawn as a box; resizing the terminal reflows the grid after a
short debounce, the way the gallery page reflows when the browser window
changes. Use the arrow keys to scroll and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.runPreview(cmd.Context(), cfg, limit, demo)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 30, "memes to show")
	cmd.Flags().BoolVar(&demo, "demo", false, "show sample cards instead of stored memes")
	cmd.Flags().Float64("column-width", 0, "target column width in pixels (default from config)")
	cmd.Flags().Float64("gap", 0, "gap between cards in pixels (default from config)")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, cfg *config.Config, limit int, demo bool) error {
	var items []masonry.Item
	if !demo {
		svc, err := c.openServices(ctx, cfg)
		if err != nil {
			return err
		}
		list, err := svc.store.List(ctx, store.ListOptions{Limit: limit})
		svc.Close()
		if err != nil {
			return err
		}
		for _, m := range list {
			items = append(items, masonry.Item{Size: masonry.Size{Width: m.Width, Height: m.Height}, Data: m.Template})
		}
	}
	if len(items) == 0 {
		for i, s := range demoAspects {
			items = append(items, masonry.Item{Size: s, Data: fmt.Sprintf("card %d", i+1)})
		}
	}

	mcfg := cfg.Gallery.Masonry()

	m := newPreviewModel(ctx, mcfg, items, c)
	defer m.grid.Destroy()

	// The program owns the terminal; keep log lines out of the way.
	level := c.Logger.GetLevel()
	c.SetLogLevel(LogError)
	defer c.SetLogLevel(level)

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// reflowMsg carries a layout computed by the grid.
type reflowMsg masonry.Layout

// previewModel shows a grid whose container is as wide as the terminal.
// Window size messages set the container width and notify the viewport;
// the grid's debounced reflow comes back as a reflowMsg.
type previewModel struct {
	grid      *masonry.Grid
	container *masonry.MemoryContainer
	viewport  *masonry.ResizeNotifier
	reflows   chan masonry.Layout

	layout masonry.Layout
	cards  []masonry.Card
	width  int
	height int
	scroll int
}

func newPreviewModel(ctx context.Context, cfg masonry.Config, items []masonry.Item, c *CLI) *previewModel {
	m := &previewModel{
		container: masonry.NewMemoryContainer(0),
		viewport:  masonry.NewResizeNotifier(),
		reflows:   make(chan masonry.Layout, 1),
	}
	m.grid = masonry.Configure(m.container, cfg,
		masonry.WithViewport(m.viewport),
		masonry.WithContext(ctx),
		masonry.WithLogger(c.Logger),
		masonry.WithReflowHook(m.onReflow),
	)
	m.grid.SetItems(items, func(item masonry.Item, _ int) string {
		if s, ok := item.Data.(string); ok {
			return s
		}
		return ""
	})
	m.layout = m.grid.Layout()
	m.cards = m.container.Snapshot()
	return m
}

// onReflow runs inside the grid's lock. It keeps only the newest layout.
func (m *previewModel) onReflow(l masonry.Layout) {
	for {
		select {
		case m.reflows <- l:
			return
		default:
		}
		select {
		case <-m.reflows:
		default:
		}
	}
}

func (m *previewModel) waitReflow() tea.Msg {
	return reflowMsg(<-m.reflows)
}

func (m *previewModel) Init() tea.Cmd {
	return m.waitReflow
}

func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.scroll = max(m.scroll-1, 0)
		case "down", "j":
			m.scroll = min(m.scroll+1, m.maxScroll())
		case "pgup":
			m.scroll = max(m.scroll-m.bodyHeight(), 0)
		case "pgdown", " ":
			m.scroll = min(m.scroll+m.bodyHeight(), m.maxScroll())
		case "r":
			m.grid.Reflow()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.container.SetWidth(float64(msg.Width) * pxPerCol)
		m.viewport.Notify()
	case reflowMsg:
		m.layout = masonry.Layout(msg)
		m.cards = m.container.Snapshot()
		m.scroll = min(m.scroll, m.maxScroll())
		return m, m.waitReflow
	}
	return m, nil
}

func (m *previewModel) bodyHeight() int {
	return max(m.height-1, 1)
}

func (m *previewModel) maxScroll() int {
	rows := int(math.Ceil(m.layout.Height / pxPerRow))
	return max(rows-m.bodyHeight(), 0)
}

func (m *previewModel) View() string {
	if m.width == 0 {
		return "loading..."
	}
	canvas := drawCards(m.cards, m.width, int(math.Ceil(m.layout.Height/pxPerRow)))
	end := min(m.scroll+m.bodyHeight(), len(canvas))
	start := min(m.scroll, end)

	var b strings.Builder
	for _, line := range canvas[start:end] {
		b.WriteString(previewBorderStyle.Render(line))
		b.WriteByte('\n')
	}
	for range m.bodyHeight() - (end - start) {
		b.WriteByte('\n')
	}
	status := fmt.Sprintf("%d cards · %d columns of %.0fpx · %.0fpx tall · ↑/↓ scroll  r reflow  q quit",
		len(m.cards), m.layout.Columns, m.layout.ColumnWidth, m.layout.Height)
	b.WriteString(previewStatusStyle.Render(status))
	return b.String()
}

// drawCards rasterizes placed cards onto a width×rows character grid. Each
// card becomes a box with its markup as the label on the first inner line.
func drawCards(cards []masonry.Card, width, rows int) []string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	set := func(x, y int, r rune) {
		if y >= 0 && y < rows && x >= 0 && x < width {
			grid[y][x] = r
		}
	}

	for _, card := range cards {
		if !card.Placed {
			continue
		}
		x0 := int(math.Round(card.Rect.X / pxPerCol))
		y0 := int(math.Round(card.Rect.Y / pxPerRow))
		x1 := int(math.Round((card.Rect.X+card.Rect.Width)/pxPerCol)) - 1
		y1 := int(math.Round((card.Rect.Y+card.Rect.Height)/pxPerRow)) - 1
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		for x := x0 + 1; x < x1; x++ {
			set(x, y0, '─')
			set(x, y1, '─')
		}
		for y := y0 + 1; y < y1; y++ {
			set(x0, y, '│')
			set(x1, y, '│')
		}
		set(x0, y0, '╭')
		set(x1, y0, '╮')
		set(x0, y1, '╰')
		set(x1, y1, '╯')

		label := []rune(card.Markup)
		if room := x1 - x0 - 1; len(label) > room {
			label = label[:max(room, 0)]
		}
		for i, r := range label {
			set(x0+1+i, y0+1, r)
		}
	}

	out := make([]string, rows)
	for i, line := range grid {
		out[i] = strings.TrimRight(string(line), " ")
	}
	return out
}
