package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/phobologic/repoir/internal/discover"
)

// Files parses paths (relative to root) with a pool of workers, one parser per
// worker. Results keep the input order. Files that cannot be read or parsed
// are left out and reported as warnings.
func Files(ctx context.Context, root, language string, paths []string, maxSize int64) ([]*SourceFile, []string) {
	type result struct {
		index int
		file  *SourceFile
		err   error
	}

	if len(paths) == 0 {
		return nil, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan int, len(paths))
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p, err := New(language)
			if err != nil {
				for idx := range work {
					results <- result{index: idx, err: err}
				}
				return
			}
			defer p.Close()

			for idx := range work {
				if ctx.Err() != nil {
					results <- result{index: idx, err: ctx.Err()}
					continue
				}
				rel := paths[idx]
				source, err := discover.ReadSource(filepath.Join(root, filepath.FromSlash(rel)), maxSize)
				if err != nil {
					results <- result{index: idx, err: err}
					continue
				}
				sf, err := p.Parse(ctx, rel, source)
				results <- result{index: idx, file: sf, err: err}
			}
		}()
	}

	for i := range paths {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]*SourceFile, len(paths))
	errs := make([]error, len(paths))
	for r := range results {
		indexed[r.index] = r.file
		errs[r.index] = r.err
	}

	var files []*SourceFile
	var warnings []string
	for i, sf := range indexed {
		if errs[i] != nil {
			if ctx.Err() == nil {
				warnings = append(warnings, fmt.Sprintf("skipped %s: %v", paths[i], errs[i]))
			}
			continue
		}
		files = append(files, sf)
	}
	return files, warnings
}
