package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/repoir/internal/model"
)

func TestModuleOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"app/models.py", "app/models"},
		{"app/__init__.py", "app"},
		{"app/models", "app/models"},
		{"app", "app"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModuleOf(tt.in), tt.in)
	}
}

func TestBuildDropsSelfEdges(t *testing.T) {
	t.Parallel()

	g := Build([]model.InternalImport{
		{FromFile: "app/__init__.py", ToFile: "app", ImportedNames: []string{"x"}},
		{FromFile: "app/views.py", ToFile: "app/models", ImportedNames: []string{"User", "Order"}},
	})
	require.Equal(t, 3, g.Len())
	assert.Empty(t, g.out[g.index["app"]])
	assert.Len(t, g.out[g.index["app/views"]], 2)
}

func TestRankSumsToOne(t *testing.T) {
	t.Parallel()

	ranked := Build([]model.InternalImport{
		{FromFile: "a/x.py", ToFile: "a/core", ImportedNames: []string{"f"}},
		{FromFile: "a/y.py", ToFile: "a/core", ImportedNames: []string{"g"}},
		{FromFile: "a/core.py", ToFile: "a/util", ImportedNames: []string{"h"}},
	}).Rank()

	require.Len(t, ranked, 4)
	var sum float64
	for _, n := range ranked {
		sum += n.Rank
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Equal(t, "a/util", ranked[0].Module)
	assert.Equal(t, "a/core", ranked[1].Module)
}

func TestRankUniformWithoutEdges(t *testing.T) {
	t.Parallel()

	ranked := Build([]model.InternalImport{
		{FromFile: "a/__init__.py", ToFile: "a", ImportedNames: []string{"x"}},
		{FromFile: "b/__init__.py", ToFile: "b", ImportedNames: []string{"y"}},
	}).Rank()

	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Module)
	assert.True(t, math.Abs(ranked[0].Rank-0.5) < 1e-9)
	assert.True(t, math.Abs(ranked[1].Rank-0.5) < 1e-9)
}

func TestCentral(t *testing.T) {
	t.Parallel()

	imports := []model.InternalImport{
		{FromFile: "a/x.py", ToFile: "a/core", ImportedNames: []string{"f"}},
		{FromFile: "a/y.py", ToFile: "a/core", ImportedNames: []string{"g"}},
	}
	top := Central(imports, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "a/core", top[0].Module)

	assert.Len(t, Central(imports, 0), 3)
	assert.Empty(t, Central(nil, 10))
}
