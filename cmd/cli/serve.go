package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fika/fika-prep/internal/controllers"
	"github.com/fika/fika-prep/internal/metrics"
	"github.com/fika/fika-prep/internal/server"
	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated artifacts over HTTP",
		Long:  `Start a read-only HTTP API over the output directory: /themes, /themes/:theme, /buckets, /labels/:label and /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(a)
		},
	}

	return cmd
}

func runServe(a *app) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	writer := artifacts.NewWriter(a.config.OutputDir)
	recorder := metrics.NewRecorder()

	snapshot, err := writer.Read()
	switch {
	case errors.Is(err, artifacts.ErrNotGenerated):
		log.Warn().Str("dir", writer.Dir()).Msg("No artifacts generated yet, endpoints return 503 until they are")
	case err != nil:
		return err
	default:
		items := make(map[string]int, len(snapshot.Planner))
		for theme, entries := range snapshot.Planner {
			items[theme] = len(entries)
		}
		recorder.ObserveThemes(items)
	}

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		ThemeController: controllers.NewThemeController(controllers.ThemeControllerDependencies{
			Source: writer,
		}),
		Metrics: recorder.Registry(),
	})

	log.Info().Str("address", a.config.HTTPAddress).Str("dir", writer.Dir()).Msg("Serving artifacts")

	if err := app.Listen(a.config.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
