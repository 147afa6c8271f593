package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/types"
	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBatchSize       = 10
	DefaultMaxAttempts     = 3
	DefaultMaxOutputTokens = 1024
)

// Options tunes a Client. Zero values fall back to the defaults above.
type Options struct {
	BatchSize       int
	MaxOutputTokens int
	Temperature     float32
	Retry           RetryConfig
}

// RetryConfig holds the per-batch retry policy.
type RetryConfig struct {
	// MaxAttempts is the number of attempts per batch, including the first.
	MaxAttempts int

	// BackoffBase is the delay before the second attempt. Zero disables backoff.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the delay on each further attempt.
	BackoffMultiplier float64

	// MaxBackoff caps the delay.
	MaxBackoff time.Duration
}

// DefaultOptions returns the production settings: batches of 10, 3 attempts,
// no backoff, zero temperature.
func DefaultOptions() Options {
	return Options{
		BatchSize:       DefaultBatchSize,
		MaxOutputTokens: DefaultMaxOutputTokens,
		Temperature:     0,
		Retry: RetryConfig{
			MaxAttempts:       DefaultMaxAttempts,
			BackoffMultiplier: 2.0,
			MaxBackoff:        30 * time.Second,
		},
	}
}

// Observer receives attempt outcomes, e.g. for metrics.
type Observer interface {
	AttemptFailed(kind ErrorKind)
	BatchClassified(labels int)
	BatchAbandoned()
}

type NoOpObserver struct{}

func (NoOpObserver) AttemptFailed(ErrorKind) {}
func (NoOpObserver) BatchClassified(int)     {}
func (NoOpObserver) BatchAbandoned()         {}

// Client classifies batches of labels through a LanguageModel.
type Client struct {
	model    provider.LanguageModel
	taxonomy taxonomy.Taxonomy
	options  Options
	errorLog io.Writer
	observer Observer
}

type ClientDependencies struct {
	Model    provider.LanguageModel
	Taxonomy taxonomy.Taxonomy
	Options  Options

	// ErrorLog receives one line per failed attempt and per abandoned batch.
	ErrorLog io.Writer
	Observer Observer
}

func NewClient(deps ClientDependencies) *Client {
	opts := deps.Options
	defaults := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if opts.Retry.BackoffMultiplier <= 0 {
		opts.Retry.BackoffMultiplier = defaults.Retry.BackoffMultiplier
	}

	errorLog := deps.ErrorLog
	if errorLog == nil {
		errorLog = io.Discard
	}

	var observer Observer = NoOpObserver{}
	if deps.Observer != nil {
		observer = deps.Observer
	}

	return &Client{
		model:    deps.Model,
		taxonomy: deps.Taxonomy,
		options:  opts,
		errorLog: errorLog,
		observer: observer,
	}
}

// BatchSize returns the configured batch size.
func (c *Client) BatchSize() int {
	return c.options.BatchSize
}

// Batches splits labels into consecutive batches of at most size labels.
func Batches(labels []taxonomy.Label, size int) [][]taxonomy.Label {
	if size <= 0 {
		size = DefaultBatchSize
	}

	batches := make([][]taxonomy.Label, 0, (len(labels)+size-1)/size)
	for start := 0; start < len(labels); start += size {
		end := min(start+size, len(labels))
		batches = append(batches, labels[start:end])
	}
	return batches
}

// ClassifyWithRetry classifies one batch, retrying any attempt failure up to
// MaxAttempts times. When every attempt fails it returns ErrBatchAbandoned
// wrapping the last failure; the caller is expected to move on to the next batch.
func (c *Client) ClassifyWithRetry(ctx context.Context, labels []taxonomy.Label) ([]checkpoint.Record, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyBatch
	}

	maxAttempts := c.options.Retry.MaxAttempts
	first := labels[0]

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, err := c.ClassifyBatch(ctx, labels)
		if err == nil {
			c.observer.BatchClassified(len(records))
			return records, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !IsRetryable(err) {
			return nil, err
		}

		lastErr = err
		c.observer.AttemptFailed(KindOf(err))
		fmt.Fprintf(c.errorLog, "Attempt %d/%d failed for batch starting '%s': %v\n", attempt, maxAttempts, first, err)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Str("first_label", first).
			Str("kind", string(KindOf(err))).
			Msg("Classification attempt failed")

		if attempt < maxAttempts {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	c.observer.BatchAbandoned()
	fmt.Fprintf(c.errorLog, "[ERROR] Giving up on batch starting '%s'\n", first)
	log.Error().Err(lastErr).Str("first_label", first).Int("labels", len(labels)).Msg("Giving up on batch")

	return nil, fmt.Errorf("%w: batch starting %q: %w", ErrBatchAbandoned, first, lastErr)
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	delay := c.backoff(attempt)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	retry := c.options.Retry
	if retry.BackoffBase <= 0 {
		return 0
	}

	delay := float64(retry.BackoffBase)
	for i := 1; i < attempt; i++ {
		delay *= retry.BackoffMultiplier
	}

	if retry.MaxBackoff > 0 && time.Duration(delay) > retry.MaxBackoff {
		return retry.MaxBackoff
	}
	return time.Duration(delay)
}

// ClassifyBatch performs a single attempt for one batch. It returns exactly one
// record per input label, in input order; labels the service left out get an
// empty bucket list.
func (c *Client) ClassifyBatch(ctx context.Context, labels []taxonomy.Label) ([]checkpoint.Record, error) {
	if len(labels) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(labels) > c.options.BatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(labels), c.options.BatchSize)
	}

	text, err := c.generate(ctx, labels)
	if err != nil {
		return nil, err
	}

	results, err := parseResults(text)
	if err != nil {
		return nil, err
	}

	return c.complete(labels, c.normalize(results)), nil
}

func (c *Client) generate(ctx context.Context, labels []taxonomy.Label) (string, error) {
	if c.model == nil {
		return "", newError(KindTransport, types.ErrProviderNotSet)
	}

	resp, err := c.model.Generate(ctx, provider.GenerateRequest{
		Messages:    []types.Message{types.UserMessage(BuildPrompt(c.taxonomy, labels))},
		Temperature: provider.Float32(c.options.Temperature),
		MaxTokens:   c.options.MaxOutputTokens,
		JSONOutput:  true,
	})
	if err != nil {
		if types.IsShapeError(err) {
			return "", newError(KindShape, err)
		}
		return "", newError(KindTransport, err)
	}

	if resp == nil || resp.Content == "" {
		return "", newError(KindShape, types.ErrEmptyResponse)
	}

	return resp.Content, nil
}

// parseResults recovers the results list from free text.
func parseResults(text string) ([]any, error) {
	span, ok := ExtractJSONObject(text)
	if !ok {
		return nil, newErrorf(KindParse, "could not find JSON object in response: %q", snippet(StripCodeFence(text)))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, newErrorf(KindParse, "json parse error: %v; snippet=%q", err, snippet(span))
	}

	results, ok := parsed["results"].([]any)
	if !ok {
		return nil, newErrorf(KindValidation, "'results' missing or not a list: %q", snippet(span))
	}

	return results, nil
}

// normalize turns raw result items into label -> allowed buckets. Items that
// are not objects or carry no string label are dropped; unknown bucket names
// are dropped; a non-list buckets field counts as empty.
func (c *Client) normalize(results []any) map[taxonomy.Label][]taxonomy.BucketKey {
	out := make(map[taxonomy.Label][]taxonomy.BucketKey, len(results))

	for _, raw := range results {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		label, _ := item["label"].(string)
		label = taxonomy.Normalize(label)
		if label == "" {
			continue
		}

		var names []string
		if rawBuckets, ok := item["buckets"].([]any); ok {
			for _, b := range rawBuckets {
				if name, ok := b.(string); ok {
					names = append(names, name)
				}
			}
		}

		out[label] = c.taxonomy.Filter(names)
	}

	return out
}

// complete maps normalized results back onto the batch. Results for labels
// outside the batch are discarded.
func (c *Client) complete(labels []taxonomy.Label, results map[taxonomy.Label][]taxonomy.BucketKey) []checkpoint.Record {
	records := make([]checkpoint.Record, len(labels))
	for i, label := range labels {
		buckets, ok := results[taxonomy.Normalize(label)]
		if !ok {
			buckets = []taxonomy.BucketKey{}
		}
		records[i] = checkpoint.Record{Label: label, Buckets: buckets}
	}
	return records
}

// IsAbandoned reports whether err marks a batch that exhausted its retries.
func IsAbandoned(err error) bool {
	return errors.Is(err, ErrBatchAbandoned)
}
