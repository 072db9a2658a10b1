package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencedPathsSortedAndDeduplicated(t *testing.T) {
	t.Parallel()

	p := ImplementationPlan{
		ArchitectureDecisions: []ArchitectureDecision{
			{Dimension: "caching", FilesAffected: []string{"b.py", "a.py"}},
		},
		Tickets: []Ticket{
			{ID: "T1", FilesToModify: []string{"a.py"}, FilesToCreate: []string{"c/new.py"}},
			{ID: "T2", FilesToCreate: []string{"b.py"}},
		},
	}

	assert.Equal(t, []string{"a.py", "b.py", "c/new.py"}, p.ReferencedPaths())
}

func TestReferencedPathsEmptyPlan(t *testing.T) {
	t.Parallel()

	var p ImplementationPlan
	assert.Empty(t, p.ReferencedPaths())
}

func TestPlanValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		plan    ImplementationPlan
		wantErr bool
	}{
		{"minimal", ImplementationPlan{SpecID: "s", RepoID: "r"}, false},
		{"good effort", ImplementationPlan{Tickets: []Ticket{{ID: "T1", EstimatedEffort: "large"}}}, false},
		{"bad effort", ImplementationPlan{Tickets: []Ticket{{ID: "T1", EstimatedEffort: "huge"}}}, true},
		{"missing ticket id", ImplementationPlan{Tickets: []Ticket{{Title: "x"}}}, true},
		{"bad tier", ImplementationPlan{ScaleTier: "galactic"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.plan.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadPlan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	doc := `{"spec_id":"s1","repo_id":"r1","scale_tier":"growth",
	"tickets":[{"id":"T1","title":"t","description":"d","files_to_modify":["app/main.py"]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, TierGrowth, p.ScaleTier)
	assert.Equal(t, []string{"app/main.py"}, p.ReferencedPaths())
}

func TestScaleTierRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, TierHobby.Rank(), TierStartup.Rank())
	assert.Less(t, TierStartup.Rank(), TierGrowth.Rank())
	assert.Less(t, TierGrowth.Rank(), TierEnterprise.Rank())
	assert.False(t, ScaleTier("x").Valid())
}

func TestNewRepoIRSerializesEmptyLists(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(NewRepoIR("demo"))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{}, raw["dependencies"])
	assert.Equal(t, []any{}, raw["extraction_warnings"])
	infra := raw["infrastructure"].(map[string]any)
	assert.Nil(t, infra["containerization"])
	assert.NotContains(t, infra, "base_images")
	meta := raw["repo_metadata"].(map[string]any)
	assert.Equal(t, "unknown", meta["primary_language"])
	assert.NotContains(t, meta, "scale_tier")
}
