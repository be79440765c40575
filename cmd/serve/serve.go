// Package serve runs the JSON API over the map and community pages.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/afcommunity/fieldmap/internal/api"
	"github.com/afcommunity/fieldmap/internal/app"
	"github.com/afcommunity/fieldmap/internal/conf"
	"github.com/afcommunity/fieldmap/internal/logger"
)

// Command creates the serve command.
func Command(settings *conf.Settings, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map and community pages over HTTP",
		Long: "Load both pages from the collaborator API and serve them as a JSON API. " +
			"Record events are forwarded to MQTT when enabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings, version)
		},
	}

	cmd.Flags().StringVar(&settings.Server.Listen, "listen", settings.Server.Listen, "Listen address (host:port)")
	cmd.Flags().BoolVar(&settings.Server.Metrics, "metrics", settings.Server.Metrics, "Expose Prometheus metrics on /metrics")

	return cmd
}

func run(ctx context.Context, settings *conf.Settings, version string) error {
	log := logger.Global().Module("main")

	a, err := app.New(settings)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	// A page that fails to load now can be retried through POST /:page/load.
	for name, load := range map[string]func(context.Context) error{
		"map":       a.MapPage.Load,
		"community": a.CommunityPage.Load,
	} {
		if err := load(ctx); err != nil {
			log.Warn("initial page load failed",
				logger.String("page", name),
				logger.Error(err))
		}
	}

	server, err := api.New(api.ConfigFromSettings(settings), a.MapPage, a.CommunityPage,
		api.WithMetrics(a.Metrics),
		api.WithRenderer(a.Renderer),
		api.WithVersion(version))
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	return server.Shutdown(context.Background())
}
