package summarize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/ranking"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	replies []reply
}

type reply struct {
	text string
	err  error
}

func (f *fakeClient) Complete(_ context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	r := f.replies[min(f.calls, len(f.replies)-1)]
	f.calls++
	return r.text, r.err
}

func newTestSummarizer(fake *fakeClient, env map[string]string, opts Options) *Summarizer {
	opts.Getenv = func(k string) string { return env[k] }
	opts.NewClient = func(_ context.Context, _ Provider, apiKey, _ string, _ int) (Client, error) {
		if apiKey == "" {
			return nil, ErrAPIKeyNotSet
		}
		return fake, nil
	}
	s := New(opts)
	s.backoff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return s
}

func sampleIR() *model.RepoIR {
	ir := model.NewRepoIR("shop")
	ir.DirectoryTree = "shop/\n└── app/"
	ir.Dependencies = []model.Dependency{
		{Name: "flask", DepType: model.DepRuntime},
		{Name: "pytest", DepType: model.DepDev},
		{Name: "sqlalchemy", DepType: model.DepRuntime},
	}
	ir.APIRoutes = []model.APIRoute{{Path: "/users", Method: "GET", HandlerFile: "app/views.py"}}
	ir.DataModels = []model.DataModel{{Name: "User", ORM: "sqlalchemy", FilePath: "app/models.py"}}
	ir.KeyDirectories = map[string]string{"source": "app"}
	ir.InternalImports = []model.InternalImport{
		{FromFile: "app/views.py", ToFile: "app/models", ImportedNames: []string{"User"}},
	}
	return ir
}

func TestSummarizeSkipped(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(&fakeClient{}, nil, Options{Provider: None})
	got, err := s.Summarize(context.Background(), sampleIR())
	require.NoError(t, err)
	assert.Equal(t, Skipped, got)
}

func TestSummarizeMissingKey(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{}
	s := newTestSummarizer(fake, nil, Options{Provider: OpenAI})
	got, err := s.Summarize(context.Background(), sampleIR())
	require.NoError(t, err)
	assert.Equal(t, "(LLM summary unavailable - OPENAI_API_KEY not set)", got)
	assert.Zero(t, fake.calls)
}

func TestSummarizeRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{replies: []reply{
		{err: errors.New("connection reset")},
		{text: "A layered Flask monolith."},
	}}
	s := newTestSummarizer(fake, map[string]string{"ANTHROPIC_API_KEY": "k"}, Options{Provider: Anthropic})

	got, err := s.Summarize(context.Background(), sampleIR())
	require.NoError(t, err)
	assert.Equal(t, "A layered Flask monolith.", got)
	assert.Equal(t, 2, fake.calls)
}

func TestSummarizePermanentErrorStops(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{replies: []reply{{err: classify(401, errors.New("unauthorized"))}}}
	s := newTestSummarizer(fake, map[string]string{"GEMINI_API_KEY": "k"}, Options{Provider: Gemini, MaxTries: 5})

	got, err := s.Summarize(context.Background(), sampleIR())
	require.Error(t, err)
	assert.Equal(t, "(LLM summary failed: unauthorized)", got)
	assert.Equal(t, 1, fake.calls)
}

func TestSummarizeGivesUpAfterMaxTries(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{replies: []reply{{err: classify(503, errors.New("overloaded"))}}}
	s := newTestSummarizer(fake, map[string]string{"ANTHROPIC_API_KEY": "k"}, Options{MaxTries: 2})

	got, err := s.Summarize(context.Background(), sampleIR())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(got, "(LLM summary failed: "))
	assert.Equal(t, 2, fake.calls)
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt, err := BuildPrompt(sampleIR(), ranking.DefaultBudget)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "## Directory Tree\n```\nshop/\n└── app/\n```"))
	assert.Contains(t, prompt, "## External Dependencies (runtime)\nflask, sqlalchemy")
	assert.NotContains(t, prompt, "pytest")
	assert.Contains(t, prompt, "## API Routes (1 total)\n  GET /users -> app/views.py")
	assert.Contains(t, prompt, "## Data Models (1 total)\n  User (sqlalchemy) in app/models.py")
	assert.Contains(t, prompt, "## Infrastructure\n{")
	assert.Contains(t, prompt, `"ci_cd": null`)
	assert.Contains(t, prompt, "## Key Directories\n{\n  \"source\": \"app\"\n}")
	assert.Contains(t, prompt, "## Central Internal Modules\n  app/models (rank ")
}

func TestBuildPromptEmptyIR(t *testing.T) {
	t.Parallel()

	prompt, err := BuildPrompt(model.NewRepoIR("empty"), ranking.DefaultBudget)
	require.NoError(t, err)
	assert.Contains(t, prompt, "```\nN/A\n```")
	assert.NotContains(t, prompt, "## API Routes")
	assert.NotContains(t, prompt, "## Key Directories")
	assert.NotContains(t, prompt, "## Central Internal Modules")
}

func TestNewClientWithoutKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), Anthropic, "", "", 10)
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}
