package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dailymemedigest/memefactory/internal/server"
	"github.com/dailymemedigest/memefactory/pkg/buildinfo"
	"github.com/dailymemedigest/memefactory/pkg/config"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API and the meme gallery",
		Long: `Serve the JSON API, the masonry gallery page and the generated images.

Integrations without credentials run degraded: sample news instead of
NewsAPI, placeholder images and stock captions instead of OpenAI, and
simulated newsletter signups instead of Mailchimp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("host", "", "listen host (default from config)")
	cmd.Flags().Int("port", 0, "listen port (default from config)")
	cmd.Flags().String("templates", "", "meme template catalog (TOML)")
	cmd.Flags().String("font", "", "TrueType font for captions")
	cmd.Flags().Int("parallel", 0, "memes generated concurrently")
	geometryFlags(cmd.Flags())

	return cmd
}

// runServe wires the services into the HTTP server and runs it until ctx
// is cancelled.
func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	for _, name := range cfg.Missing() {
		c.Logger.Warn("integration not configured; running degraded", "env", name)
	}

	svc, err := c.openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.New(server.Deps{
		Store:     svc.store,
		Generator: svc.gen,
		News:      svc.news,
		Subscribe: svc.sub,
		Media:     svc.media,
		Probe:     svc.probe,
		Cache:     svc.cache,
		Keyer:     svc.keyer,
		Limiter:   svc.limiter(),
		Logger:    c.Logger,
	}, server.Settings{
		Addr:            cfg.Addr(),
		Version:         buildinfo.Get().Version,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		GalleryWidth:    cfg.Gallery.Width,
		ColumnWidth:     cfg.Gallery.ColumnWidth,
		Gap:             cfg.Gallery.Gap,
		PageSize:        cfg.Gallery.PageSize,
		Spans:           cfg.Gallery.Masonry().Spans,
		GenerateTimeout: cfg.Generation.Timeout,
	})

	printSuccess("Serving %s", StyleLink.Render("http://"+cfg.Addr()+"/"))
	printKeyValue("Media", svc.media.Dir())
	printKeyValue("Rate limit", rateLabel(cfg.Server.RateLimitPerMinute))
	return srv.Run(ctx)
}
