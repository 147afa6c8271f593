package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/fika/fika-prep/pkg/buckets"
	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/classifier"
	"github.com/fika/fika-prep/pkg/policy"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// Classifier classifies one batch of labels, retrying internally.
type Classifier interface {
	BatchSize() int
	ClassifyWithRetry(ctx context.Context, labels []taxonomy.Label) ([]checkpoint.Record, error)
}

type RunnerDependencies struct {
	Taxonomy   taxonomy.Taxonomy
	Classifier Classifier
	Store      checkpoint.Store
	Writer     *artifacts.Writer

	// InputPath is the newline-delimited label vocabulary.
	InputPath string

	// Workbook also writes planner/themes.xlsx.
	Workbook bool
}

// Runner drives one classify, aggregate and publish-to-disk pass.
type Runner struct {
	taxonomy   taxonomy.Taxonomy
	classifier Classifier
	store      checkpoint.Store
	writer     *artifacts.Writer
	inputPath  string
	workbook   bool
}

func NewRunner(deps RunnerDependencies) *Runner {
	return &Runner{
		taxonomy:   deps.Taxonomy,
		classifier: deps.Classifier,
		store:      deps.Store,
		writer:     deps.Writer,
		inputPath:  deps.InputPath,
		workbook:   deps.Workbook,
	}
}

// AbandonedBatch is a batch that failed every attempt. Its labels stay unclassified.
type AbandonedBatch struct {
	ID     string
	First  taxonomy.Label
	Labels int
	Err    string
}

type ThemeCount struct {
	Theme string
	Items int
}

// Summary describes one run.
type Summary struct {
	RunID             string
	Vocabulary        int
	AlreadyClassified int
	Remaining         int
	Batches           int
	Classified        int
	Abandoned         []AbandonedBatch
	ExcludeFinal      int
	Unique            int
	Themes            []ThemeCount
	Duration          time.Duration
}

// Run classifies every vocabulary label missing from the checkpoint, then rebuilds
// all artifacts from the full checkpoint state.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.New().String()}

	vocabulary, state, err := r.load(ctx)
	if err != nil {
		return summary, err
	}
	summary.Vocabulary = len(vocabulary)

	remaining := checkpoint.Remaining(state, vocabulary)
	summary.AlreadyClassified = len(vocabulary) - len(remaining)
	summary.Remaining = len(remaining)

	log.Info().
		Str("run_id", summary.RunID).
		Int("vocabulary", summary.Vocabulary).
		Int("already_classified", summary.AlreadyClassified).
		Int("remaining", summary.Remaining).
		Msg("Starting classification run")

	if err := r.classify(ctx, remaining, state, &summary); err != nil {
		summary.Duration = time.Since(started)
		return summary, err
	}

	if err := r.finalize(vocabulary, state, &summary); err != nil {
		summary.Duration = time.Since(started)
		return summary, err
	}

	summary.Duration = time.Since(started)
	log.Info().
		Str("run_id", summary.RunID).
		Int("classified", summary.Classified).
		Int("abandoned_batches", len(summary.Abandoned)).
		Dur("duration", summary.Duration).
		Msg("Run completed")

	return summary, nil
}

// Rebuild regenerates every artifact from the checkpoint without classifying.
// Use it after editing the policy or the override lists.
func (r *Runner) Rebuild(ctx context.Context) (Summary, error) {
	started := time.Now()
	summary := Summary{RunID: uuid.New().String()}

	vocabulary, state, err := r.load(ctx)
	if err != nil {
		return summary, err
	}
	summary.Vocabulary = len(vocabulary)
	summary.Remaining = len(checkpoint.Remaining(state, vocabulary))
	summary.AlreadyClassified = summary.Vocabulary - summary.Remaining

	err = r.finalize(vocabulary, state, &summary)
	summary.Duration = time.Since(started)
	return summary, err
}

// Status reports classification progress without writing anything.
func (r *Runner) Status(ctx context.Context) (Summary, error) {
	summary := Summary{}

	vocabulary, state, err := r.load(ctx)
	if err != nil {
		return summary, err
	}
	summary.Vocabulary = len(vocabulary)
	summary.Remaining = len(checkpoint.Remaining(state, vocabulary))
	summary.AlreadyClassified = summary.Vocabulary - summary.Remaining
	if r.classifier != nil {
		summary.Batches = len(classifier.Batches(checkpoint.Remaining(state, vocabulary), r.classifier.BatchSize()))
	}
	return summary, nil
}

func (r *Runner) load(ctx context.Context) ([]taxonomy.Label, checkpoint.State, error) {
	vocabulary, err := ReadVocabulary(r.inputPath)
	if err != nil {
		return nil, nil, err
	}

	state, err := r.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return vocabulary, state, nil
}

// classify runs the remaining batches strictly one after another. A batch is
// appended to the checkpoint only after it succeeds.
func (r *Runner) classify(ctx context.Context, remaining []taxonomy.Label, state checkpoint.State, summary *Summary) error {
	if len(remaining) == 0 {
		return nil
	}
	if r.classifier == nil {
		return errors.New("no classifier configured")
	}

	batches := classifier.Batches(remaining, r.classifier.BatchSize())
	summary.Batches = len(batches)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchID := xid.New().String()
		records, err := r.classifier.ClassifyWithRetry(ctx, batch)
		if classifier.IsAbandoned(err) {
			summary.Abandoned = append(summary.Abandoned, AbandonedBatch{
				ID:     batchID,
				First:  batch[0],
				Labels: len(batch),
				Err:    err.Error(),
			})
			continue
		}
		if err != nil {
			return err
		}

		if err := r.store.Append(ctx, records); err != nil {
			return fmt.Errorf("failed to append batch %s to checkpoint: %w", batchID, err)
		}
		state.Apply(records...)
		summary.Classified += len(records)

		log.Info().
			Str("run_id", summary.RunID).
			Str("batch_id", batchID).
			Int("batch", i+1).
			Int("batches", len(batches)).
			Int("labels", len(records)).
			Msg("Batch classified")
	}

	return nil
}

func (r *Runner) finalize(vocabulary []taxonomy.Label, state checkpoint.State, summary *Summary) error {
	partition := buckets.Aggregate(r.taxonomy, vocabulary, state)
	if err := r.writer.WritePartition(partition); err != nil {
		return err
	}
	summary.ExcludeFinal = len(partition.ExcludeFinal)
	summary.Unique = len(partition.Unique)

	cfg, err := policy.EnsurePolicy(r.writer.PolicyPath(), r.taxonomy)
	if err != nil {
		return err
	}
	overrides, err := policy.LoadOverrides(r.writer.PlannerDir())
	if err != nil {
		return err
	}

	engine := policy.NewEngine(policy.EngineDependencies{
		Config:       cfg,
		LabelIndex:   partition.LabelIndex,
		ExcludeFinal: partition.ExcludeFinal,
		Unique:       partition.Unique,
		Overrides:    overrides,
	})
	results, err := engine.BuildAll()
	if err != nil {
		return err
	}

	if err := r.writer.WriteThemes(results); err != nil {
		return err
	}
	if r.workbook {
		if err := r.writer.WriteWorkbook(results); err != nil {
			return err
		}
	}

	summary.Themes = make([]ThemeCount, len(results))
	for i, result := range results {
		summary.Themes[i] = ThemeCount{Theme: result.Theme, Items: len(result.Items)}
	}
	return nil
}
