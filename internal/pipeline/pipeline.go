// Package pipeline runs the five extractors against one repository and
// assembles their results into a Repo IR. No extractor failure aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/phobologic/repoir/internal/deps"
	"github.com/phobologic/repoir/internal/infra"
	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/orm"
	"github.com/phobologic/repoir/internal/profile"
	"github.com/phobologic/repoir/internal/routes"
	"github.com/phobologic/repoir/internal/scan"
	"github.com/phobologic/repoir/internal/summarize"
)

// Metadata is supplied by the discovery collaborator.
type Metadata struct {
	URL          string
	Stars        int
	Contributors int
}

// Summarizer produces the architectural summary. A nil Summarizer skips it.
type Summarizer interface {
	Summarize(ctx context.Context, ir *model.RepoIR) (string, error)
}

// Extractors are the stage functions. Tests replace them to force failures.
type Extractors struct {
	Directory    func(ctx context.Context, root string, opts profile.Options) (profile.Result, error)
	Dependencies func(ctx context.Context, root string, opts deps.Options) (deps.Result, error)
	Routes       func(ctx context.Context, root string, opts scan.Options) (routes.Result, error)
	Models       func(ctx context.Context, root string, opts scan.Options) (orm.Result, error)
	Infra        func(ctx context.Context, root string) (infra.Result, error)
}

// DefaultExtractors returns the production stage functions.
func DefaultExtractors() Extractors {
	return Extractors{
		Directory:    profile.Profile,
		Dependencies: deps.Extract,
		Routes:       routes.Extract,
		Models:       orm.Extract,
		Infra:        infra.Extract,
	}
}

// Options bound one extraction.
type Options struct {
	TreeDepth        int
	TreeEntries      int
	MaxFiles         int
	MaxFileSize      int64
	RespectGitignore bool

	// Timeout is the whole-repository deadline. Zero means none.
	Timeout time.Duration

	Summarizer Summarizer
	Extractors Extractors
	Logger     *slog.Logger
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	d := DefaultExtractors()
	if o.Extractors.Directory == nil {
		o.Extractors.Directory = d.Directory
	}
	if o.Extractors.Dependencies == nil {
		o.Extractors.Dependencies = d.Dependencies
	}
	if o.Extractors.Routes == nil {
		o.Extractors.Routes = d.Routes
	}
	if o.Extractors.Models == nil {
		o.Extractors.Models = d.Models
	}
	if o.Extractors.Infra == nil {
		o.Extractors.Infra = d.Infra
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// stage is one extractor bound to its options. run returns a function that
// merges the result into the IR; merging happens only on the caller's goroutine.
type stage struct {
	label string
	run   func(ctx context.Context) (func(*model.RepoIR), []string, error)
}

type stageResult struct {
	index    int
	apply    func(*model.RepoIR)
	warnings []string
	err      error
}

func (o Options) stages(root string) []stage {
	scanOpts := scan.Options{
		MaxFiles:         o.MaxFiles,
		MaxFileSize:      o.MaxFileSize,
		RespectGitignore: o.RespectGitignore,
	}
	ex := o.Extractors

	return []stage{
		{"Directory analysis", func(ctx context.Context) (func(*model.RepoIR), []string, error) {
			res, err := ex.Directory(ctx, root, profile.Options{
				TreeDepth:        o.TreeDepth,
				TreeEntries:      o.TreeEntries,
				MaxFiles:         o.MaxFiles,
				MaxFileSize:      o.MaxFileSize,
				RespectGitignore: o.RespectGitignore,
			})
			if err != nil {
				return nil, nil, err
			}
			return func(ir *model.RepoIR) {
				ir.DirectoryTree = res.Tree
				ir.RepoMetadata.TotalLOC = res.TotalLOC
				if res.LanguageBreakdown != nil {
					ir.RepoMetadata.LanguageBreakdown = res.LanguageBreakdown
				}
				if res.PrimaryLanguage != "" {
					ir.RepoMetadata.PrimaryLanguage = res.PrimaryLanguage
				}
				if res.KeyDirectories != nil {
					ir.KeyDirectories = res.KeyDirectories
				}
			}, res.Warnings, nil
		}},
		{"Dependency extraction", func(ctx context.Context) (func(*model.RepoIR), []string, error) {
			res, err := ex.Dependencies(ctx, root, deps.Options(scanOpts))
			if err != nil {
				return nil, nil, err
			}
			return func(ir *model.RepoIR) {
				ir.Dependencies = nonNil(res.Dependencies)
				ir.InternalImports = nonNil(res.InternalImports)
			}, res.Warnings, nil
		}},
		{"API route extraction", func(ctx context.Context) (func(*model.RepoIR), []string, error) {
			res, err := ex.Routes(ctx, root, scanOpts)
			if err != nil {
				return nil, nil, err
			}
			return func(ir *model.RepoIR) { ir.APIRoutes = nonNil(res.Routes) }, res.Warnings, nil
		}},
		{"ORM model extraction", func(ctx context.Context) (func(*model.RepoIR), []string, error) {
			res, err := ex.Models(ctx, root, scanOpts)
			if err != nil {
				return nil, nil, err
			}
			return func(ir *model.RepoIR) { ir.DataModels = nonNil(res.Models) }, res.Warnings, nil
		}},
		{"Infrastructure extraction", func(ctx context.Context) (func(*model.RepoIR), []string, error) {
			res, err := ex.Infra(ctx, root)
			if err != nil {
				return nil, nil, err
			}
			return func(ir *model.RepoIR) { ir.Infrastructure = normalizeInfra(res.Infra) }, res.Warnings, nil
		}},
	}
}

// Extract builds the Repo IR for the repository at root. It always returns an
// IR; extractor failures, panics and the deadline become warnings. The only
// error is an unusable root path.
func Extract(ctx context.Context, root string, meta Metadata, opts Options) (*model.RepoIR, error) {
	opts = opts.withDefaults()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	ir := model.NewRepoIR(filepath.Base(root))
	log := opts.Logger.With("repo", ir.RepoMetadata.Name)
	log.Info("extracting repo IR", "path", root)

	stageCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	stages := opts.stages(root)
	results := runStages(stageCtx, stages, log)

	// Merge in stage order so warnings are deterministic.
	for i, st := range stages {
		r, ok := results[i]
		switch {
		case !ok:
			ir.ExtractionWarnings = append(ir.ExtractionWarnings, st.label+" did not finish before deadline")
		case r.err != nil:
			ir.ExtractionWarnings = append(ir.ExtractionWarnings, fmt.Sprintf("%s failed: %v", st.label, r.err))
		default:
			r.apply(ir)
			ir.ExtractionWarnings = append(ir.ExtractionWarnings, r.warnings...)
		}
	}

	ir.RepoMetadata.URL = NormalizeURL(meta.URL)
	ir.RepoMetadata.StarCount = meta.Stars
	ir.RepoMetadata.NumContributors = meta.Contributors
	ir.RepoMetadata.ScaleTier = ClassifyScale(meta.Stars, meta.Contributors, ir.Infrastructure)

	if opts.Summarizer == nil {
		ir.ArchitecturalSummary = summarize.Skipped
	} else {
		summary, err := summarizeWithin(stageCtx, opts.Summarizer, ir)
		if err != nil {
			ir.ExtractionWarnings = append(ir.ExtractionWarnings, fmt.Sprintf("LLM summary failed: %v", err))
			if summary == "" {
				summary = summarize.Failed(err)
			}
		}
		ir.ArchitecturalSummary = summary
	}

	ir.ExtractionTimestamp = opts.Now().UTC().Format(time.RFC3339)
	log.Info("extracted repo IR",
		"loc", ir.RepoMetadata.TotalLOC,
		"dependencies", len(ir.Dependencies),
		"routes", len(ir.APIRoutes),
		"models", len(ir.DataModels),
		"warnings", len(ir.ExtractionWarnings),
	)
	return ir, nil
}

// summarizeWithin calls s under ctx and stops waiting once ctx is done, so a
// summarizer that ignores cancellation cannot hold the extraction past its
// deadline.
func summarizeWithin(ctx context.Context, s Summarizer, ir *model.RepoIR) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	type result struct {
		text string
		err  error
	}
	// The summarizer may outlive this call; it reads a copy.
	snapshot := *ir
	ch := make(chan result, 1)
	go func() {
		var r result
		defer func() {
			if v := recover(); v != nil {
				r = result{err: fmt.Errorf("panic: %v", v)}
			}
			ch <- r
		}()
		r.text, r.err = s.Summarize(ctx, &snapshot)
	}()
	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runStages runs every stage concurrently and collects results until all
// have reported or ctx is done. Stages still running at the deadline are
// absent from the returned map; their late results are discarded.
func runStages(ctx context.Context, stages []stage, log *slog.Logger) map[int]stageResult {
	ch := make(chan stageResult, len(stages))
	for i, st := range stages {
		go func() {
			r := stageResult{index: i}
			defer func() {
				if v := recover(); v != nil {
					r.apply, r.warnings = nil, nil
					r.err = fmt.Errorf("panic: %v", v)
				}
				ch <- r
			}()
			r.apply, r.warnings, r.err = st.run(ctx)
		}()
	}

	results := make(map[int]stageResult, len(stages))
	for len(results) < len(stages) {
		select {
		case r := <-ch:
			collect(results, r, stages, log)
		case <-ctx.Done():
			for drained := false; !drained; {
				select {
				case r := <-ch:
					collect(results, r, stages, log)
				default:
					drained = true
				}
			}
			if len(results) < len(stages) {
				log.Warn("extraction deadline reached", "finished", len(results), "stages", len(stages))
			}
			return results
		}
	}
	return results
}

func collect(results map[int]stageResult, r stageResult, stages []stage, log *slog.Logger) {
	if r.err != nil {
		log.Warn("stage failed", "stage", stages[r.index].label, "error", r.err)
	}
	results[r.index] = r
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func normalizeInfra(c model.InfraConfig) model.InfraConfig {
	c.Databases = nonNil(c.Databases)
	c.Caching = nonNil(c.Caching)
	c.MessageQueues = nonNil(c.MessageQueues)
	c.DeploymentFiles = nonNil(c.DeploymentFiles)
	return c
}
