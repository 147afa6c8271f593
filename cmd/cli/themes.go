package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func NewThemesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Rebuild artifacts from the checkpoint without classifying",
		Long: `Rebuild the bucket lists and theme lists from the existing checkpoint. Use this after editing
planner/policy.yaml, planner/whitelist.txt or planner/blacklist.txt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runThemes(cmd.Context(), a)
		},
	}

	return cmd
}

func runThemes(ctx context.Context, a *app) error {
	deps, err := BuildPipelineDependencies(ctx, PipelineDependencyConfig{Config: a.config})
	if err != nil {
		return err
	}
	defer deps.Close()

	summary, err := deps.Runner.Rebuild(ctx)
	if err != nil {
		return err
	}

	deps.Recorder.ObserveSummary(summary)
	writeMetrics(a, deps)
	printSummary(summary)
	return nil
}
