package ranking

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/repoir/internal/model"
)

func TestSelectAppliesBudget(t *testing.T) {
	t.Parallel()

	ir := model.NewRepoIR("demo")
	for i := range 5 {
		ir.Dependencies = append(ir.Dependencies, model.Dependency{Name: fmt.Sprintf("rt%d", i), DepType: model.DepRuntime})
		ir.Dependencies = append(ir.Dependencies, model.Dependency{Name: fmt.Sprintf("dev%d", i), DepType: model.DepDev})
		ir.APIRoutes = append(ir.APIRoutes, model.APIRoute{Path: fmt.Sprintf("/r%d", i), Method: "GET"})
		ir.DataModels = append(ir.DataModels, model.DataModel{Name: fmt.Sprintf("M%d", i)})
	}
	ir.InternalImports = []model.InternalImport{
		{FromFile: "app/a.py", ToFile: "app/core", ImportedNames: []string{"x"}},
		{FromFile: "app/b.py", ToFile: "app/core", ImportedNames: []string{"y"}},
	}

	d := Select(ir, Budget{Dependencies: 2, Routes: 3, Models: 1, Modules: 1})

	assert.Equal(t, []string{"rt0", "rt1"}, d.Dependencies)
	require.Len(t, d.Routes, 3)
	assert.Equal(t, "/r2", d.Routes[2].Path)
	assert.Equal(t, 5, d.TotalRoutes)
	require.Len(t, d.Models, 1)
	assert.Equal(t, 5, d.TotalModels)
	require.Len(t, d.Modules, 1)
	assert.Equal(t, "app/core", d.Modules[0].Module)
}

func TestSelectUnbounded(t *testing.T) {
	t.Parallel()

	ir := model.NewRepoIR("demo")
	ir.APIRoutes = []model.APIRoute{{Path: "/a"}, {Path: "/b"}}

	d := Select(ir, Budget{})
	assert.Len(t, d.Routes, 2)
	assert.Empty(t, d.Dependencies)
	assert.Empty(t, d.Modules)
}
