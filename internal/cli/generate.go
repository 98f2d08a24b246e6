package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dailymemedigest/memefactory/pkg/config"
	"github.com/dailymemedigest/memefactory/pkg/memes"
)

type generateOptions struct {
	trends []string
	days   int
	count  int
	json   bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of memes from the latest news",
		Long: `Generate a batch of memes from the latest news.

Articles matching the trends are ranked, each one is paired with a template,
captioned and drawn, and the results are stored like memes made through the
API. Use 'memefactory serve' to browse them.`,
		Example: `  memefactory generate -t "AI agents" -t robotics -n 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.trends, "trend", "t", []string{"artificial intelligence"}, "trend keyword (repeatable)")
	cmd.Flags().IntVarP(&opts.days, "days", "d", 1, "how many days of news to search")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "memes to generate (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().String("templates", "", "meme template catalog (TOML)")
	cmd.Flags().String("font", "", "TrueType font for captions")
	cmd.Flags().Int("parallel", 0, "memes generated concurrently")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, cfg *config.Config, opts generateOptions) error {
	svc, err := c.openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	count := opts.count
	if count <= 0 {
		count = cfg.Generation.DefaultCount
	}

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Generating memes"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	ctx, cancel := context.WithTimeout(ctx, cfg.Generation.Timeout)
	defer cancel()

	prog := newProgress(c.Logger)
	res, err := svc.gen.Generate(ctx, memes.Request{
		Trends:   opts.trends,
		DaysBack: opts.days,
		Count:    count,
		Progress: func(done, total int) {
			if err := bar.Add(1); err != nil {
				c.Logger.Debug("progress bar", "err", err)
			}
		},
	})
	if err := bar.Finish(); err != nil {
		c.Logger.Debug("progress bar", "err", err)
	}
	if err != nil {
		return err
	}
	prog.done("Generation finished")

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printSuccess("Generated %d of %d memes", res.SuccessfulCount, res.TotalGenerated)
	for _, m := range res.Memes {
		printFile(m.ImageURL)
		printDetail("%s · %s", m.Template, m.NewsTitle)
	}
	if failed := res.TotalGenerated - res.SuccessfulCount; failed > 0 {
		printWarning("%d memes failed; see the log for details", failed)
	}
	printNewline()
	printNextStep("Browse", appName+" serve")
	return nil
}
