package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fika/fika-prep/internal/config"
	"github.com/fika/fika-prep/internal/metrics"
	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/provider/anthropic"
	"github.com/fika/fika-prep/pkg/ai-sdk/provider/gemini"
	"github.com/fika/fika-prep/pkg/ai-sdk/provider/openai"
	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/checkpoint/boltdb"
	"github.com/fika/fika-prep/pkg/checkpoint/filestorage"
	"github.com/fika/fika-prep/pkg/checkpoint/inmemory"
	"github.com/fika/fika-prep/pkg/checkpoint/mongodb"
	"github.com/fika/fika-prep/pkg/checkpoint/redis"
	"github.com/fika/fika-prep/pkg/classifier"
	"github.com/fika/fika-prep/pkg/pipeline"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

// PipelineDependencies is everything a pipeline command needs, plus the
// resources to release afterwards.
type PipelineDependencies struct {
	Runner   *pipeline.Runner
	Store    checkpoint.Store
	Writer   *artifacts.Writer
	Recorder *metrics.Recorder

	closers []io.Closer
}

func (d *PipelineDependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

type PipelineDependencyConfig struct {
	Config *config.Config

	// WithClassifier builds the language model and classifier client.
	WithClassifier bool
}

// BuildPipelineDependencies wires the checkpoint store, artifacts writer and,
// when asked, the classifier into a pipeline runner.
func BuildPipelineDependencies(ctx context.Context, opts PipelineDependencyConfig) (*PipelineDependencies, error) {
	cfg := opts.Config
	tax := taxonomy.Default()
	deps := &PipelineDependencies{
		Writer:   artifacts.NewWriter(cfg.OutputDir),
		Recorder: metrics.NewRecorder(),
	}

	if err := cfg.RequireCheckpoint(); err != nil {
		return nil, err
	}
	store, err := openCheckpointStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.Store = store
	deps.closers = append(deps.closers, store)

	var client *classifier.Client
	if opts.WithClassifier {
		if err := cfg.RequireClassifier(); err != nil {
			deps.Close()
			return nil, err
		}

		model, err := newLanguageModel(ctx, cfg)
		if err != nil {
			deps.Close()
			return nil, err
		}

		errorLog, err := openErrorLog(cfg.ErrorLogPath())
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, errorLog)

		options := classifier.DefaultOptions()
		options.BatchSize = cfg.BatchSize
		options.MaxOutputTokens = cfg.MaxOutputTokens
		options.Retry.MaxAttempts = cfg.MaxAttempts
		options.Retry.BackoffBase = cfg.RetryBackoff

		client = classifier.NewClient(classifier.ClientDependencies{
			Model:    model,
			Taxonomy: tax,
			Options:  options,
			ErrorLog: errorLog,
			Observer: deps.Recorder,
		})

		log.Info().Str("model", model.ID()).Int("batch_size", options.BatchSize).Msg("Classifier ready")
	}

	runnerDeps := pipeline.RunnerDependencies{
		Taxonomy:  tax,
		Store:     store,
		Writer:    deps.Writer,
		InputPath: cfg.InputFile,
		Workbook:  cfg.Workbook,
	}
	if client != nil {
		runnerDeps.Classifier = client
	}
	deps.Runner = pipeline.NewRunner(runnerDeps)

	return deps, nil
}

func openCheckpointStore(ctx context.Context, cfg *config.Config) (checkpoint.Store, error) {
	switch cfg.CheckpointBackend {
	case config.BackendFile:
		path := cfg.CheckpointPath
		if path == "" {
			path = filepath.Join(cfg.OutputDir, filestorage.DefaultFileName)
		}
		return filestorage.New(path)
	case config.BackendBolt:
		path := cfg.CheckpointPath
		if path == "" {
			path = filepath.Join(cfg.OutputDir, boltdb.DefaultFileName)
		}
		return boltdb.New(path)
	case config.BackendRedis:
		return redis.NewFromURL(ctx, cfg.RedisURL, cfg.RedisKey)
	case config.BackendMongoDB:
		return mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendMemory:
		log.Warn().Msg("In-memory checkpoint: classifications will not survive this process")
		return inmemory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", checkpoint.ErrUnknownBackend, cfg.CheckpointBackend)
	}
}

func newLanguageModel(ctx context.Context, cfg *config.Config) (provider.LanguageModel, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(ctx, cfg.GoogleAIStudioKey, cfg.Model)
	case config.ProviderOpenAI:
		return openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.Model})
	case config.ProviderAnthropic:
		return anthropic.New(anthropic.Config{APIKey: cfg.AnthropicAPIKey, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}

func openErrorLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create error log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open error log %s: %w", path, err)
	}
	return file, nil
}
