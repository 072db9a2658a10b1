// Package graph builds a module-level graph from internal import edges and
// ranks modules by PageRank.
package graph

import (
	"math"
	"sort"
	"strings"

	"github.com/phobologic/repoir/internal/model"
)

// Node is a ranked module. Module is a slash-separated path without the
// source extension, so "app/models.py" and an import of "app.models" meet
// at the same node.
type Node struct {
	Module string
	Rank   float64
}

// Graph is a directed multigraph: an edge from a to b is repeated once per
// imported name.
type Graph struct {
	nodes []string
	index map[string]int
	out   [][]int
}

// ModuleOf normalizes a source file path to its module path.
func ModuleOf(file string) string {
	m := strings.TrimSuffix(file, ".py")
	m = strings.TrimSuffix(m, "/__init__")
	return m
}

// Build creates the graph from import edges. Self-edges are dropped.
func Build(imports []model.InternalImport) *Graph {
	g := &Graph{index: make(map[string]int)}

	names := make(map[string]struct{})
	for _, imp := range imports {
		names[ModuleOf(imp.FromFile)] = struct{}{}
		names[ModuleOf(imp.ToFile)] = struct{}{}
	}
	for name := range names {
		g.nodes = append(g.nodes, name)
	}
	sort.Strings(g.nodes)
	for i, name := range g.nodes {
		g.index[name] = i
	}
	g.out = make([][]int, len(g.nodes))

	for _, imp := range imports {
		src := g.index[ModuleOf(imp.FromFile)]
		tgt := g.index[ModuleOf(imp.ToFile)]
		if src == tgt {
			continue
		}
		weight := len(imp.ImportedNames)
		if weight == 0 {
			weight = 1
		}
		for range weight {
			g.out[src] = append(g.out[src], tgt)
		}
	}
	return g
}

// Len returns the number of modules in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Rank applies PageRank and returns every module sorted by rank descending,
// ties broken by module path.
func (g *Graph) Rank() []Node {
	ranks := pageRank(g.out, 0.85, 100, 1e-6)
	nodes := make([]Node, len(g.nodes))
	for i, name := range g.nodes {
		nodes[i] = Node{Module: name, Rank: ranks[i]}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Rank != nodes[j].Rank {
			return nodes[i].Rank > nodes[j].Rank
		}
		return nodes[i].Module < nodes[j].Module
	})
	return nodes
}

// Central returns the n highest-ranked modules reachable through imports.
// n <= 0 returns all of them.
func Central(imports []model.InternalImport, n int) []Node {
	ranked := Build(imports).Rank()
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func pageRank(out [][]int, alpha float64, maxIter int, tol float64) []float64 {
	n := len(out)
	if n == 0 {
		return nil
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	teleport := (1.0 - alpha) / float64(n)

	for range maxIter {
		// Dangling nodes spread their rank uniformly.
		var dangling float64
		for i, targets := range out {
			if len(targets) == 0 {
				dangling += rank[i]
			}
		}
		base := teleport + alpha*dangling/float64(n)

		next := make([]float64, n)
		for i := range next {
			next[i] = base
		}
		for src, targets := range out {
			if len(targets) == 0 {
				continue
			}
			share := alpha * rank[src] / float64(len(targets))
			for _, tgt := range targets {
				next[tgt] += share
			}
		}

		var diff float64
		for i := range next {
			diff += math.Abs(next[i] - rank[i])
		}
		rank = next
		if diff < tol {
			break
		}
	}
	return rank
}
