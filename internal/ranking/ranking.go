// Package ranking selects a budgeted subset of a Repo IR's facts for
// size-limited consumers such as the summary prompt.
package ranking

import (
	"github.com/phobologic/repoir/internal/graph"
	"github.com/phobologic/repoir/internal/model"
)

// Budget caps how many items of each kind are kept. A non-positive cap keeps
// everything.
type Budget struct {
	Dependencies int
	Routes       int
	Models       int
	Modules      int
}

// DefaultBudget is sized for a single summary prompt.
var DefaultBudget = Budget{Dependencies: 30, Routes: 20, Models: 15, Modules: 10}

// Digest is the selected subset. The Total fields count the full lists so
// consumers can say how much was cut.
type Digest struct {
	Dependencies []string
	Routes       []model.APIRoute
	TotalRoutes  int
	Models       []model.DataModel
	TotalModels  int
	Modules      []graph.Node
}

// Select keeps runtime dependency names, routes and models in extraction
// order, and the most central internal modules by PageRank.
func Select(ir *model.RepoIR, b Budget) Digest {
	var runtime []string
	for _, d := range ir.Dependencies {
		if d.DepType == model.DepRuntime {
			runtime = append(runtime, d.Name)
		}
	}
	return Digest{
		Dependencies: head(runtime, b.Dependencies),
		Routes:       head(ir.APIRoutes, b.Routes),
		TotalRoutes:  len(ir.APIRoutes),
		Models:       head(ir.DataModels, b.Models),
		TotalModels:  len(ir.DataModels),
		Modules:      graph.Central(ir.InternalImports, b.Modules),
	}
}

func head[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
