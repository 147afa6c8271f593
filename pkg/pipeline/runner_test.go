package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/types"
	"github.com/fika/fika-prep/pkg/artifacts"
	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/fika/fika-prep/pkg/checkpoint/filestorage"
	"github.com/fika/fika-prep/pkg/checkpoint/inmemory"
	"github.com/fika/fika-prep/pkg/classifier"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var numberedLine = regexp.MustCompile(`(?m)^\d+\. (.+)$`)

// answeringModel answers every prompt from a fixed label -> buckets table.
// Labels missing from the table are left out of the reply.
type answeringModel struct {
	mu      sync.Mutex
	answers map[string][]string
	raw     string
	prompts []string
}

func (m *answeringModel) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prompt := req.Messages[0].Content
	m.prompts = append(m.prompts, prompt)
	if m.raw != "" {
		return &types.GenerateResponse{Content: m.raw}, nil
	}

	section := prompt[strings.Index(prompt, "LABELS TO CLASSIFY:"):]
	results := []map[string]interface{}{}
	for _, match := range numberedLine.FindAllStringSubmatch(section, -1) {
		label := match[1]
		if buckets, ok := m.answers[label]; ok {
			results = append(results, map[string]interface{}{"label": label, "buckets": buckets})
		}
	}

	content, err := json.Marshal(map[string]interface{}{"results": results})
	if err != nil {
		return nil, err
	}
	return &types.GenerateResponse{Content: "```json\n" + string(content) + "\n```"}, nil
}

func (m *answeringModel) ID() string { return "fake:answering" }

func (m *answeringModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type fixture struct {
	dir      string
	input    string
	model    *answeringModel
	errorLog *bytes.Buffer
	writer   *artifacts.Writer
}

func newFixture(t *testing.T, labels ...string) *fixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "categories.txt")
	require.NoError(t, os.WriteFile(input, []byte(strings.Join(labels, "\n")+"\n"), 0o644))

	return &fixture{
		dir:   dir,
		input: input,
		model: &answeringModel{answers: map[string][]string{
			"pub":          {"meal", "attractions/nightlife"},
			"banquet hall": {"exclude"},
			"dessert shop": {"attractions/food_culinary"},
		}},
		errorLog: &bytes.Buffer{},
		writer:   artifacts.NewWriter(filepath.Join(dir, "out")),
	}
}

func (f *fixture) runner(store checkpoint.Store) *Runner {
	client := classifier.NewClient(classifier.ClientDependencies{
		Model:    f.model,
		Taxonomy: taxonomy.Default(),
		Options:  classifier.DefaultOptions(),
		ErrorLog: f.errorLog,
	})

	return NewRunner(RunnerDependencies{
		Taxonomy:   taxonomy.Default(),
		Classifier: client,
		Store:      store,
		Writer:     f.writer,
		InputPath:  f.input,
		Workbook:   true,
	})
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(f.writer.Dir(), rel))
	require.NoError(t, err)
	return string(content)
}

func TestRunner_Run_ClassifiesAndWritesArtifacts(t *testing.T) {
	f := newFixture(t, "Pub", "banquet hall", "", "dessert  shop", "pub")
	store, err := filestorage.New(filepath.Join(f.writer.Dir(), filestorage.DefaultFileName))
	require.NoError(t, err)

	summary, err := f.runner(store).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Vocabulary)
	assert.Equal(t, 3, summary.Remaining)
	assert.Equal(t, 1, summary.Batches)
	assert.Equal(t, 3, summary.Classified)
	assert.Empty(t, summary.Abandoned)
	assert.Equal(t, 1, summary.ExcludeFinal)
	assert.Equal(t, 0, summary.Unique)
	assert.Equal(t, 1, f.model.calls())

	assert.Equal(t, "pub", f.read(t, "meal.txt"))
	assert.Equal(t, "pub", f.read(t, "attractions/nightlife.txt"))
	assert.Equal(t, "dessert shop", f.read(t, "attractions/food_culinary.txt"))
	assert.Equal(t, "banquet hall", f.read(t, "exclude_final.txt"))
	assert.Equal(t, "", f.read(t, "unique.txt"))

	assert.Equal(t, "dessert shop\npub", f.read(t, "planner/food_tour.txt"))
	assert.Equal(t, "pub", f.read(t, "planner/nightlife.txt"))
	assert.FileExists(t, f.writer.PolicyPath())
	assert.FileExists(t, filepath.Join(f.writer.PlannerDir(), "whitelist.txt"))
	assert.FileExists(t, f.writer.WorkbookPath())

	require.Len(t, summary.Themes, 9)
	assert.Equal(t, ThemeCount{Theme: "food_tour", Items: 2}, summary.Themes[1])

	lines := strings.Split(strings.TrimSpace(f.read(t, filestorage.DefaultFileName)), "\n")
	assert.Len(t, lines, 3)
	assert.Empty(t, f.errorLog.String())
}

func TestRunner_Run_IsIdempotent(t *testing.T) {
	f := newFixture(t, "pub", "banquet hall", "dessert shop", "bookstore")
	store := inmemory.New()
	runner := f.runner(store)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	first, err := store.Load(context.Background())
	require.NoError(t, err)
	entries := store.Len()

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	second, err := store.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, entries, store.Len())
	assert.Equal(t, 1, f.model.calls())
	assert.Zero(t, summary.Remaining)
	assert.Zero(t, summary.Batches)

	assert.Equal(t, []taxonomy.BucketKey{}, second["bookstore"])
	assert.Equal(t, "bookstore", f.read(t, "unique.txt"))
}

func TestRunner_Run_ResumesOnlyNewLabels(t *testing.T) {
	f := newFixture(t, "pub")
	store := inmemory.New()

	_, err := f.runner(store).Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.input, []byte("pub\ndessert shop\n"), 0o644))
	summary, err := f.runner(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AlreadyClassified)
	assert.Equal(t, 1, summary.Classified)
	require.Equal(t, 2, f.model.calls())
	assert.NotContains(t, f.model.prompts[1], "1. pub\n")
	assert.Contains(t, f.model.prompts[1], "1. dessert shop\n")
}

func TestRunner_Run_AbandonedBatchWritesNothing(t *testing.T) {
	f := newFixture(t, "pub", "temple")
	f.model.raw = `{"results":[{"label":"pub","buckets":["meal"]`
	store := inmemory.New()

	summary, err := f.runner(store).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Abandoned, 1)
	assert.Equal(t, "pub", summary.Abandoned[0].First)
	assert.Equal(t, 2, summary.Abandoned[0].Labels)
	assert.NotEmpty(t, summary.Abandoned[0].ID)
	assert.Zero(t, summary.Classified)
	assert.Zero(t, store.Len())
	assert.Equal(t, 3, f.model.calls())

	lines := strings.Split(strings.TrimRight(f.errorLog.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "[ERROR] Giving up on batch starting 'pub'", lines[3])

	assert.Equal(t, "pub\ntemple", f.read(t, "unique.txt"))
}

func TestRunner_Run_ContinuesAfterAbandonedBatch(t *testing.T) {
	labels := make([]string, 0, 12)
	for i := 0; i < 11; i++ {
		labels = append(labels, fmt.Sprintf("label %02d", i))
	}
	labels = append(labels, "pub")
	f := newFixture(t, labels...)

	failing := &flakyClassifier{fail: map[string]bool{"label 00": true}}
	store := inmemory.New()
	runner := NewRunner(RunnerDependencies{
		Taxonomy:   taxonomy.Default(),
		Classifier: failing,
		Store:      store,
		Writer:     f.writer,
		InputPath:  f.input,
	})

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Batches)
	assert.Len(t, summary.Abandoned, 1)
	assert.Equal(t, 2, summary.Classified)
	assert.Equal(t, 2, store.Len())
}

func TestRunner_Run_LaterClassificationWins(t *testing.T) {
	f := newFixture(t, "pub", "banquet hall", "dessert shop")
	store := inmemory.New()
	ctx := context.Background()

	_, err := f.runner(store).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "banquet hall", f.read(t, "exclude_final.txt"))

	require.NoError(t, store.Append(ctx, []checkpoint.Record{
		{Label: "banquet hall", Buckets: []taxonomy.BucketKey{taxonomy.GroupExclude, taxonomy.BucketMeal}},
	}))

	summary, err := f.runner(store).Rebuild(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.ExcludeFinal)
	assert.Equal(t, "banquet hall\npub", f.read(t, "meal.txt"))
	assert.Equal(t, "", f.read(t, "exclude_final.txt"))
	assert.Equal(t, 1, f.model.calls())
}

func TestRunner_Run_MissingVocabulary(t *testing.T) {
	f := newFixture(t, "pub")
	f.input = filepath.Join(f.dir, "missing.txt")

	_, err := f.runner(inmemory.New()).Run(context.Background())
	assert.ErrorIs(t, err, ErrVocabularyNotFound)
	assert.Zero(t, f.model.calls())
}

func TestRunner_Run_StopsWhenCancelled(t *testing.T) {
	f := newFixture(t, "pub", "dessert shop")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := inmemory.New()
	_, err := f.runner(store).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Len())
	assert.NoFileExists(t, filepath.Join(f.writer.Dir(), "meal.txt"))
}

func TestRunner_Status(t *testing.T) {
	f := newFixture(t, "pub", "banquet hall", "dessert shop")
	store := inmemory.New()
	require.NoError(t, store.Append(context.Background(), []checkpoint.Record{{Label: "pub", Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal}}}))

	summary, err := f.runner(store).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Vocabulary)
	assert.Equal(t, 1, summary.AlreadyClassified)
	assert.Equal(t, 2, summary.Remaining)
	assert.Equal(t, 1, summary.Batches)
	assert.NoDirExists(t, f.writer.Dir())
}

func TestParseVocabulary(t *testing.T) {
	labels, err := parseVocabulary(strings.NewReader("  Pub \n\nbanquet   hall\r\nPUB\n\t\nDessert Shop"))
	require.NoError(t, err)
	assert.Equal(t, []taxonomy.Label{"pub", "banquet hall", "dessert shop"}, labels)
}

// flakyClassifier abandons batches whose first label is in fail and classifies
// every other label as meal.
type flakyClassifier struct {
	fail map[string]bool
}

func (c *flakyClassifier) BatchSize() int { return classifier.DefaultBatchSize }

func (c *flakyClassifier) ClassifyWithRetry(ctx context.Context, labels []taxonomy.Label) ([]checkpoint.Record, error) {
	if c.fail[labels[0]] {
		return nil, fmt.Errorf("%w: batch starting %q", classifier.ErrBatchAbandoned, labels[0])
	}

	records := make([]checkpoint.Record, len(labels))
	for i, label := range labels {
		records[i] = checkpoint.Record{Label: label, Buckets: []taxonomy.BucketKey{taxonomy.BucketMeal}}
	}
	return records, nil
}
