package grounding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/repoir/internal/model"
)

func planWith(paths ...string) *model.ImplementationPlan {
	return &model.ImplementationPlan{
		Tickets: []model.Ticket{{ID: "T-1", FilesToModify: paths}},
	}
}

func TestScoreEmptyPlan(t *testing.T) {
	t.Parallel()

	got := Score(&model.ImplementationPlan{}, t.TempDir())
	want := Report{Score: 1.0, InvalidPaths: []string{}, ValidPathList: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreStripsSourcePrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "")
	writeFile(t, dir, "app/__init__.py", "")

	got := Score(planWith("pyproject.toml", "src/app/__init__.py", "ghost/file.py"), dir)

	assert.Equal(t, 3, got.TotalPaths)
	assert.Equal(t, 2, got.ValidPaths)
	assert.Equal(t, 2.0/3.0, got.Score)
	assert.Equal(t, []string{"ghost/file.py"}, got.InvalidPaths)
	assert.Equal(t, []string{"pyproject.toml", "src/app/__init__.py"}, got.ValidPathList)
}

func TestScorePrependsSourcePrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/pkg/core.py", "")

	got := Score(planWith("/pkg/core.py", "pkg"), dir)
	assert.Equal(t, 2, got.ValidPaths)
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, []string{"/pkg/core.py", "pkg"}, got.ValidPathList)
}

func TestScoreRejectsEscapingAndEmpty(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	repo := filepath.Join(parent, "repo")
	writeFile(t, parent, "secret.txt", "")
	writeFile(t, repo, "README.md", "")

	got := Score(planWith("../secret.txt", "  ", "README.md"), repo)
	assert.Equal(t, 3, got.TotalPaths)
	assert.Equal(t, []string{"README.md"}, got.ValidPathList)
	assert.Equal(t, []string{"  ", "../secret.txt"}, got.InvalidPaths)
}

func TestScoreRootReferencesAreInvalid(t *testing.T) {
	t.Parallel()

	repo := t.TempDir()
	writeFile(t, repo, "app.py", "")

	got := Score(planWith("/", "//", "src/", "app.py"), repo)
	assert.Equal(t, 4, got.TotalPaths)
	assert.Equal(t, 1, got.ValidPaths)
	assert.Equal(t, []string{"app.py"}, got.ValidPathList)
	assert.Equal(t, []string{"/", "//", "src/"}, got.InvalidPaths)
	assert.Equal(t, 0.25, got.Score)
}

func TestScoreCollectsAllPlanSections(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "")
	plan := &model.ImplementationPlan{
		ArchitectureDecisions: []model.ArchitectureDecision{{Dimension: "api", FilesAffected: []string{"a.py", "b.py"}}},
		Tickets: []model.Ticket{
			{ID: "T-1", FilesToModify: []string{"a.py"}, FilesToCreate: []string{"c.py"}},
		},
	}

	got := Score(plan, dir)
	assert.Equal(t, 3, got.TotalPaths)
	assert.Equal(t, 1, got.ValidPaths)
	assert.Equal(t, []string{"b.py", "c.py"}, got.InvalidPaths)
}

func TestScoreBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "")

	s := NewScorer(16)
	b := s.ScoreBatch([]Pair{
		{Plan: planWith("a.py", "missing.py"), Repo: dir},
		{Plan: planWith("a.py"), Repo: dir},
		{Plan: &model.ImplementationPlan{}, Repo: dir},
	})

	assert.Equal(t, 3, b.NumPlans)
	assert.InDelta(t, (0.5+1+1)/3, b.MeanRGS, 1e-12)
	assert.Equal(t, 0.5, b.MinRGS)
	assert.Equal(t, 1.0, b.MaxRGS)
	assert.Equal(t, 3, b.TotalPathsChecked)
	assert.Equal(t, 2, b.TotalValidPaths)
	require.Len(t, b.Results, 3)
	assert.Equal(t, 0, b.Results[2].TotalPaths)
}

func TestScoreBatchEmpty(t *testing.T) {
	t.Parallel()

	b := ScoreBatch(nil)
	assert.Equal(t, 0, b.NumPlans)
	assert.Zero(t, b.MeanRGS)
	assert.Zero(t, b.MinRGS)
	assert.Zero(t, b.MaxRGS)
	assert.NotNil(t, b.Results)
}

func TestScorerCachesExistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "")

	s := NewScorer(16)
	assert.Equal(t, 1, s.Score(planWith("a.py"), dir).ValidPaths)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.py")))
	assert.Equal(t, 1, s.Score(planWith("a.py"), dir).ValidPaths)
	assert.Equal(t, 0, NewScorer(16).Score(planWith("a.py"), dir).ValidPaths)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
