// Package grounding scores how many of a plan's referenced file paths exist
// in a repository.
package grounding

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phobologic/repoir/internal/model"
)

// SourcePrefix is the conventional source directory tried in both directions
// when a referenced path does not exist as written.
const SourcePrefix = "src/"

// DefaultCacheSize bounds the existence cache shared across a batch.
const DefaultCacheSize = 8192

// Report is the grounding result for one (plan, repo) pair. Field names are
// consumed by downstream evaluation and must stay stable. A reference that is
// blank, or becomes empty once leading slashes or the src/ prefix are
// removed, never resolves to the repository root and counts as invalid.
type Report struct {
	Score         float64  `json:"score"`
	TotalPaths    int      `json:"total_paths"`
	ValidPaths    int      `json:"valid_paths"`
	InvalidPaths  []string `json:"invalid_paths"`
	ValidPathList []string `json:"valid_path_list"`
}

// Pair is one plan to score against one repository root.
type Pair struct {
	Plan *model.ImplementationPlan
	Repo string
}

// BatchReport aggregates many Reports.
type BatchReport struct {
	MeanRGS           float64  `json:"mean_rgs"`
	MinRGS            float64  `json:"min_rgs"`
	MaxRGS            float64  `json:"max_rgs"`
	NumPlans          int      `json:"num_plans"`
	TotalPathsChecked int      `json:"total_paths_checked"`
	TotalValidPaths   int      `json:"total_valid_paths"`
	Results           []Report `json:"results"`
}

// Scorer checks path existence through an LRU cache keyed by absolute path.
// Batches that share a repository stat each candidate once.
type Scorer struct {
	exists *lru.Cache[string, bool]
}

// NewScorer returns a Scorer whose cache holds up to size entries.
func NewScorer(size int) *Scorer {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &Scorer{exists: cache}
}

// Score computes the report for one plan. A plan with no referenced paths is
// vacuously grounded.
func Score(plan *model.ImplementationPlan, repo string) Report {
	return NewScorer(DefaultCacheSize).Score(plan, repo)
}

// ScoreBatch scores every pair and aggregates the results.
func ScoreBatch(pairs []Pair) BatchReport {
	return NewScorer(DefaultCacheSize).ScoreBatch(pairs)
}

// Score computes the report for one plan.
func (s *Scorer) Score(plan *model.ImplementationPlan, repo string) Report {
	refs := plan.ReferencedPaths()
	r := Report{
		Score:         1.0,
		InvalidPaths:  []string{},
		ValidPathList: []string{},
	}
	if len(refs) == 0 {
		return r
	}

	for _, ref := range refs {
		if s.resolve(repo, ref) {
			r.ValidPathList = append(r.ValidPathList, ref)
		} else {
			r.InvalidPaths = append(r.InvalidPaths, ref)
		}
	}
	r.TotalPaths = len(refs)
	r.ValidPaths = len(r.ValidPathList)
	r.Score = float64(r.ValidPaths) / float64(r.TotalPaths)
	return r
}

// resolve tries the reference as written, then with the source prefix
// stripped when present, or prepended when absent.
func (s *Scorer) resolve(repo, ref string) bool {
	norm := strings.TrimLeft(strings.TrimSpace(ref), "/")
	if norm == "" {
		return false
	}
	if s.check(repo, norm) {
		return true
	}
	if rest, ok := strings.CutPrefix(norm, SourcePrefix); ok {
		return s.check(repo, rest)
	}
	return s.check(repo, SourcePrefix+norm)
}

// check reports whether rel exists under repo. Empty paths and paths that
// escape the root never count.
func (s *Scorer) check(repo, rel string) bool {
	if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return false
	}
	full := filepath.Join(repo, filepath.FromSlash(rel))
	if abs, err := filepath.Abs(full); err == nil {
		full = abs
	}
	if ok, hit := s.exists.Get(full); hit {
		return ok
	}
	_, err := os.Stat(full)
	ok := err == nil
	s.exists.Add(full, ok)
	return ok
}

// ScoreBatch scores every pair and aggregates the results. An empty batch
// yields zero statistics.
func (s *Scorer) ScoreBatch(pairs []Pair) BatchReport {
	b := BatchReport{Results: make([]Report, 0, len(pairs))}
	if len(pairs) == 0 {
		return b
	}

	var sum float64
	b.MinRGS = 1.0
	for i, p := range pairs {
		r := s.Score(p.Plan, p.Repo)
		b.Results = append(b.Results, r)
		sum += r.Score
		if i == 0 || r.Score < b.MinRGS {
			b.MinRGS = r.Score
		}
		if i == 0 || r.Score > b.MaxRGS {
			b.MaxRGS = r.Score
		}
		b.TotalPathsChecked += r.TotalPaths
		b.TotalValidPaths += r.ValidPaths
	}
	b.NumPlans = len(b.Results)
	b.MeanRGS = sum / float64(b.NumPlans)
	return b
}
