package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/store"
)

func TestLoadRepoList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "repo_list.json", `[
  {"name": "shop", "full_name": "acme/shop", "url": "https://github.com/acme/shop",
   "clone_url": "https://github.com/acme/shop.git", "star_count": 700,
   "num_contributors": 4, "topics": ["web"], "license": null}
]`)

	entries, err := LoadRepoList(filepath.Join(dir, "repo_list.json"))
	require.NoError(t, err)
	assert.Equal(t, []Entry{{
		Name:            "shop",
		FullName:        "acme/shop",
		URL:             "https://github.com/acme/shop",
		CloneURL:        "https://github.com/acme/shop.git",
		StarCount:       700,
		NumContributors: 4,
	}}, entries)

	writeFile(t, dir, "bad.json", `{"name": "shop"}`)
	_, err = LoadRepoList(filepath.Join(dir, "bad.json"))
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reposDir := t.TempDir()
	flaskRepo(t, filepath.Join(reposDir, "shop"))
	writeFile(t, reposDir, "done/README.md", "# done\n")
	writeFile(t, reposDir, "blog/main.go", "package main\n")

	s := store.NewMemoryStore()
	require.NoError(t, store.Save(ctx, s, model.NewRepoIR("done")))

	entries := []Entry{
		{Name: "shop", URL: "https://github.com/acme/shop", StarCount: 10},
		{Name: "missing"},
		{Name: "done"},
		{Name: "blog"},
	}

	summary, err := Batch(ctx, entries, BatchOptions{
		ReposDir: reposDir,
		Limit:    3,
		Workers:  2,
		Store:    s,
		Extract:  Options{Now: fixedNow},
	})
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "missing", summary.Errors[0].Name)
	assert.Contains(t, summary.Errors[0].Error, "repo not found")

	ir, err := store.Load(ctx, s, "shop")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/shop", ir.RepoMetadata.URL)
	assert.Len(t, ir.APIRoutes, 1)

	ok, err := store.Exists(ctx, s, "blog")
	require.NoError(t, err)
	assert.False(t, ok, "entries past the limit are not processed")
}

func TestBatchForce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reposDir := t.TempDir()
	writeFile(t, reposDir, "done/app.py", "print('hi')\n")

	s := store.NewMemoryStore()
	require.NoError(t, store.Save(ctx, s, model.NewRepoIR("done")))

	summary, err := Batch(ctx, []Entry{{Name: "done", CloneURL: "git@github.com:acme/done.git"}}, BatchOptions{
		ReposDir: reposDir,
		Force:    true,
		Store:    s,
		Extract:  Options{Extractors: emptyExtractors()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Success)
	assert.Zero(t, summary.Skipped)

	ir, err := store.Load(ctx, s, "done")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/done", ir.RepoMetadata.URL)
}

func TestBatchRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := Batch(context.Background(), nil, BatchOptions{})
	assert.Error(t, err)
}

func TestBatchCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Batch(ctx, []Entry{{Name: "a"}, {Name: "b"}}, BatchOptions{
		ReposDir: t.TempDir(),
		Store:    store.NewMemoryStore(),
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Success)
	assert.Equal(t, 2, summary.Total)
}
