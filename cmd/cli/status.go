package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/spf13/cobra"
)

func NewStatusCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show classification progress",
		Long:  `Display how much of the vocabulary is classified and the bucket counts of the last generated artifacts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), a)
		},
	}

	return cmd
}

func runStatus(ctx context.Context, a *app) error {
	deps, err := BuildPipelineDependencies(ctx, PipelineDependencyConfig{Config: a.config})
	if err != nil {
		return err
	}
	defer deps.Close()

	summary, err := deps.Runner.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Checkpoint backend: %s\n", a.config.CheckpointBackend)
	fmt.Printf("   Vocabulary: %d labels\n", summary.Vocabulary)
	fmt.Printf("   Classified: %d\n", summary.AlreadyClassified)
	fmt.Printf("   Remaining: %d (%d batches of %d)\n", summary.Remaining, (summary.Remaining+a.config.BatchSize-1)/a.config.BatchSize, a.config.BatchSize)

	snapshot, err := deps.Writer.Read()
	if errors.Is(err, artifacts.ErrNotGenerated) {
		fmt.Println("No artifacts generated yet. Run 'classify' or 'themes'.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Artifacts in %s\n", deps.Writer.Dir())
	for _, key := range taxonomy.Default().PositiveKeys() {
		fmt.Printf("   %-30s %d\n", key, len(snapshot.BucketIndex[key]))
	}
	fmt.Printf("   %-30s %d\n", "exclude_final", len(snapshot.ExcludeFinal))
	fmt.Printf("   %-30s %d\n", "unique", len(snapshot.Unique))

	return nil
}
