package cli

import (
	"context"
	"fmt"

	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/fika/fika-prep/pkg/publish"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewPublishCommand(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upsert the generated theme lists into PostgreSQL",
		Long: `Read planner/planner_index.json and upsert one row per theme into the themes table
(key, display_name, category_whitelist). Existing category_weights are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), a, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the rows without connecting to the database")

	return cmd
}

func runPublish(ctx context.Context, a *app, dryRun bool) error {
	snapshot, err := artifacts.NewWriter(a.config.OutputDir).Read()
	if err != nil {
		return err
	}

	rows := publish.Rows(snapshot.Planner)
	if dryRun {
		for _, row := range rows {
			fmt.Printf("%-12s %-22s %d labels\n", row.Key, row.DisplayName, len(row.CategoryWhitelist))
		}
		return nil
	}

	if err := a.config.RequirePublish(); err != nil {
		return err
	}

	conn, err := publish.Connect(ctx, a.config.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	publisher := publish.NewPublisher(publish.PublisherDependencies{
		Conn:  conn,
		Table: a.config.ThemesTable,
	})

	if err := publisher.EnsureTable(ctx); err != nil {
		return err
	}
	if err := publisher.Publish(ctx, rows); err != nil {
		return err
	}

	log.Info().Int("themes", len(rows)).Str("table", a.config.ThemesTable).Msg("Published themes")
	return nil
}
