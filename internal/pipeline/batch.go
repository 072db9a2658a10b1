package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/repoir/internal/store"
)

// Entry is one repository in a discovery repo list. Unknown fields are ignored.
type Entry struct {
	Name            string `json:"name"`
	FullName        string `json:"full_name"`
	URL             string `json:"url"`
	CloneURL        string `json:"clone_url"`
	StarCount       int    `json:"star_count"`
	NumContributors int    `json:"num_contributors"`
}

// LoadRepoList reads a JSON array of entries.
func LoadRepoList(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading repo list: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing repo list %s: %w", path, err)
	}
	return entries, nil
}

// BatchOptions configure a batch run.
type BatchOptions struct {
	// ReposDir holds one checkout per entry at ReposDir/<name>.
	ReposDir string
	// Limit caps the number of entries processed; zero means all.
	Limit int
	// Workers bounds concurrent extractions; GOMAXPROCS when zero.
	Workers int
	// Force re-extracts repositories already present in Store.
	Force   bool
	Store   store.Store
	Extract Options
	Logger  *slog.Logger
}

// RepoError records why one repository was not extracted.
type RepoError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BatchSummary is the outcome of a batch run.
type BatchSummary struct {
	RunID   string      `json:"run_id"`
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Skipped int         `json:"skipped"`
	Total   int         `json:"total"`
	Errors  []RepoError `json:"errors"`
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailed
	outcomeSkipped
)

// Batch extracts every entry with one worker per repository and saves each
// Repo IR to the store. A repository failure is counted and logged; only
// cancellation of ctx stops the run early.
func Batch(ctx context.Context, entries []Entry, opts BatchOptions) (BatchSummary, error) {
	if opts.Store == nil {
		return BatchSummary{}, errors.New("batch: no store configured")
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := opts.Logger
	if log == nil {
		log = opts.Extract.withDefaults().Logger
	}

	summary := BatchSummary{
		RunID:  uuid.NewString(),
		Total:  len(entries),
		Errors: []RepoError{},
	}
	log = log.With("run_id", summary.RunID)
	log.Info("batch extraction started", "repos", len(entries), "workers", workers)

	var mu sync.Mutex
	record := func(name string, o outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeSuccess:
			summary.Success++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
			summary.Errors = append(summary.Errors, RepoError{Name: name, Error: err.Error()})
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, entry := range entries {
		eg.Go(func() error {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			o, err := extractOne(egCtx, entry, opts)
			elog := log.With("repo", entry.Name, "index", i+1, "total", len(entries))
			switch o {
			case outcomeSkipped:
				elog.Info("already extracted, skipping")
			case outcomeFailed:
				elog.Error("extraction failed", "error", err)
			default:
				elog.Info("extraction saved")
			}
			record(entry.Name, o, err)
			return nil
		})
	}
	err := eg.Wait()

	sort.Slice(summary.Errors, func(i, j int) bool { return summary.Errors[i].Name < summary.Errors[j].Name })
	log.Info("batch extraction complete",
		"success", summary.Success,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"total", summary.Total,
	)
	return summary, err
}

func extractOne(ctx context.Context, entry Entry, opts BatchOptions) (outcome, error) {
	if entry.Name == "" {
		return outcomeFailed, errors.New("entry has no name")
	}
	if !opts.Force {
		ok, err := store.Exists(ctx, opts.Store, entry.Name)
		if err != nil {
			return outcomeFailed, err
		}
		if ok {
			return outcomeSkipped, nil
		}
	}

	dir := filepath.Join(opts.ReposDir, entry.Name)
	info, err := os.Stat(dir)
	if err != nil {
		return outcomeFailed, fmt.Errorf("repo not found at %s", dir)
	}
	if !info.IsDir() {
		return outcomeFailed, fmt.Errorf("%s: not a directory", dir)
	}

	url := entry.URL
	if url == "" {
		url = entry.CloneURL
	}
	ir, err := Extract(ctx, dir, Metadata{
		URL:          url,
		Stars:        entry.StarCount,
		Contributors: entry.NumContributors,
	}, opts.Extract)
	if err != nil {
		return outcomeFailed, err
	}
	if err := store.Save(ctx, opts.Store, ir); err != nil {
		return outcomeFailed, err
	}
	return outcomeSuccess, nil
}
