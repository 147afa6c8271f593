package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fika/fika-prep/pkg/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewClassifyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify new labels and rebuild every artifact",
		Long: `Classify every vocabulary label that is not in the checkpoint yet, append the results,
then rebuild the bucket lists, indices and theme lists from the whole checkpoint.
Interrupting the command keeps every batch that was already appended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(a)
		},
	}

	return cmd
}

func runClassify(a *app) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := BuildPipelineDependencies(ctx, PipelineDependencyConfig{
		Config:         a.config,
		WithClassifier: true,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	summary, err := deps.Runner.Run(ctx)
	deps.Recorder.ObserveSummary(summary)
	writeMetrics(a, deps)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func writeMetrics(a *app, deps *PipelineDependencies) {
	if a.config.MetricsFile == "" {
		return
	}
	if err := deps.Recorder.WriteTextfile(a.config.MetricsFile); err != nil {
		log.Warn().Err(err).Msg("Failed to write metrics")
	}
}

func printSummary(summary pipeline.Summary) {
	fmt.Printf("Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	fmt.Printf("   Vocabulary: %d labels (%d already classified)\n", summary.Vocabulary, summary.AlreadyClassified)
	if summary.Batches > 0 {
		fmt.Printf("   Classified: %d labels in %d batches\n", summary.Classified, summary.Batches)
	}
	if len(summary.Abandoned) > 0 {
		fmt.Printf("   Abandoned batches (%d), rerun to retry:\n", len(summary.Abandoned))
		for _, batch := range summary.Abandoned {
			fmt.Printf("     - %s: starting %q (%d labels)\n", batch.ID, batch.First, batch.Labels)
		}
	}
	fmt.Printf("   exclude_final: %d, unique: %d\n", summary.ExcludeFinal, summary.Unique)
	for _, theme := range summary.Themes {
		fmt.Printf("   %-12s %d\n", theme.Theme, theme.Items)
	}
}
