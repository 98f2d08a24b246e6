package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dailymemedigest/memefactory/pkg/config"
	"github.com/dailymemedigest/memefactory/pkg/masonry"
	"github.com/dailymemedigest/memefactory/pkg/store"
)

// probeTimeout bounds the image loads of one layout.
const probeTimeout = 10 * time.Second

type layoutOptions struct {
	sort   string
	limit  int
	offset int
	json   bool
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var opts layoutOptions

	cmd := &cobra.Command{
		Use:   "layout [aspects.json]",
		Short: "Compute the masonry layout of stored memes or a list of aspect ratios",
		Long: `Compute the masonry layout of stored memes or a list of aspect ratios.

Without an argument the layout covers a page of stored memes; images without
a stored size are probed. With an argument the file must hold a JSON array of
aspect ratios (width divided by height, 0 for unknown).`,
		Example: `  memefactory layout --width 1200 --column-width 280
  echo '[1, 2, 0.5, 1.5]' > aspects.json && memefactory layout aspects.json --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), cfg, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sort, "sort", store.SortRecent, "meme order: recent, top")
	cmd.Flags().IntVar(&opts.limit, "limit", 30, "memes to lay out")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "memes to skip")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the layout as JSON")
	geometryFlags(cmd.Flags())

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, out io.Writer, cfg *config.Config, args []string, opts layoutOptions) error {
	mcfg := cfg.Gallery.Masonry()

	var (
		l      masonry.Layout
		labels []string
		err    error
	)
	if len(args) == 1 {
		l, labels, err = layoutFile(args[0], mcfg, cfg.Gallery.Width)
	} else {
		l, labels, err = c.layoutStored(ctx, cfg, mcfg, opts)
	}
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	}
	fmt.Fprintln(out, layoutTable(l, labels))
	printLayoutStats(l)
	return nil
}

// layoutFile lays out the aspect ratios in path.
func layoutFile(path string, cfg masonry.Config, width float64) (masonry.Layout, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return masonry.Layout{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	var aspects []float64
	if err := json.Unmarshal(data, &aspects); err != nil {
		return masonry.Layout{}, nil, fmt.Errorf("parse %s: want a JSON array of numbers: %w", path, err)
	}

	items := make([]masonry.Footprint, len(aspects))
	labels := make([]string, len(aspects))
	for i, a := range aspects {
		items[i] = masonry.Footprint{Aspect: a}
		labels[i] = strconv.FormatFloat(a, 'g', 4, 64)
	}
	return masonry.Compute(cfg, width, items), labels, nil
}

// layoutStored lays out a page of stored memes, probing sizes the store
// does not know.
func (c *CLI) layoutStored(ctx context.Context, cfg *config.Config, mcfg masonry.Config, opts layoutOptions) (masonry.Layout, []string, error) {
	svc, err := c.openServices(ctx, cfg)
	if err != nil {
		return masonry.Layout{}, nil, err
	}
	defer svc.Close()

	page, err := store.ListOptions{Sort: opts.sort, Limit: opts.limit, Offset: opts.offset}.Normalize()
	if err != nil {
		return masonry.Layout{}, nil, err
	}
	list, err := svc.store.List(ctx, page)
	if err != nil {
		return masonry.Layout{}, nil, err
	}

	loadCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	grid := masonry.Configure(masonry.NewMemoryContainer(cfg.Gallery.Width), mcfg,
		masonry.WithLoader(svc.probe),
		masonry.WithContext(loadCtx),
		masonry.WithLogger(c.Logger),
	)
	defer grid.Destroy()

	labels := make([]string, len(list))
	items := make([]masonry.Item, len(list))
	for i, m := range list {
		labels[i] = m.Template
		items[i] = masonry.Item{Image: m.ImageURL, Size: masonry.Size{Width: m.Width, Height: m.Height}}
	}
	grid.SetItems(items, nil)

	if n := grid.Pending(); n > 0 {
		spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Probing %d images...", n))
		spinner.Start()
		err := grid.Wait(loadCtx)
		spinner.Stop()
		if err != nil {
			if ctx.Err() != nil {
				return masonry.Layout{}, nil, ctx.Err()
			}
			printWarning("%d images did not load in time; they are laid out square", grid.Pending())
		}
	}
	return grid.Layout(), labels, nil
}

// layoutTable renders the placements as a table.
func layoutTable(l masonry.Layout, labels []string) string {
	rows := make([][]string, len(l.Placements))
	for i, p := range l.Placements {
		label := ""
		if p.Index < len(labels) {
			label = labels[p.Index]
		}
		rows[i] = []string{
			strconv.Itoa(p.Index),
			label,
			strconv.Itoa(p.Column),
			strconv.Itoa(p.Span),
			pixels(p.X),
			pixels(p.Y),
			pixels(p.Width),
			pixels(p.Height),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Item", "Col", "Span", "X", "Y", "W", "H").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case col == 3 && row < len(l.Placements) && l.Placements[row].Span > 1:
				return cellStyle.Foreground(colorCyan)
			case col >= 4:
				return cellStyle.Foreground(colorGray).Align(lipgloss.Right)
			}
			return cellStyle
		}).
		Render()
}

func pixels(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
