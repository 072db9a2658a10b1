// Package scan drives per-file detector variants over a repository: it walks
// the candidate files once, parses the ones a syntax-based variant needs, and
// hands each file to every matching variant in registry order.
package scan

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/phobologic/repoir/internal/discover"
	"github.com/phobologic/repoir/internal/lang"
	"github.com/phobologic/repoir/internal/parse"
)

// File is one candidate file.
type File struct {
	Path string // relative to the repo root, slash separated
	Name string
	// Source is set for variants that work on raw text.
	Source []byte
	// Parsed is set for variants that work on the syntax tree.
	Parsed *parse.SourceFile
}

// Variant selects files and declares how it reads them.
type Variant interface {
	// Match selects candidate files by base name.
	Match(name string) bool
	// Syntax reports whether the variant reads File.Parsed instead of
	// File.Source.
	Syntax() bool
}

// Options bound the walk.
type Options struct {
	MaxFiles         int
	MaxFileSize      int64
	RespectGitignore bool
}

// Run visits every file under root matched by at least one variant, calling
// visit once per (file, matching variant) in walk order and then registry
// order. Hidden files and directories are not visited. Files that cannot be
// read or parsed are skipped with a warning.
func Run[V Variant](ctx context.Context, root string, variants []V, opts Options, visit func(V, *File)) ([]string, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	walk, err := discover.Walk(ctx, root, discover.Options{
		MaxEntries:       opts.MaxFiles,
		SkipHidden:       true,
		RespectGitignore: opts.RespectGitignore,
		Match: func(_, name string) bool {
			for _, v := range variants {
				if v.Match(name) {
					return true
				}
			}
			return false
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	var warnings []string
	if walk.Truncated {
		warnings = append(warnings, fmt.Sprintf("walk truncated at %d entries", walk.Visited))
	}

	syntaxPaths := map[string][]string{}
	for _, f := range walk.Files {
		l := lang.ForFile(f.Name)
		if l == nil {
			continue
		}
		for _, v := range variants {
			if v.Syntax() && v.Match(f.Name) {
				syntaxPaths[l.Name] = append(syntaxPaths[l.Name], f.Path)
				break
			}
		}
	}
	parsed := map[string]*parse.SourceFile{}
	for _, name := range slices.Sorted(maps.Keys(syntaxPaths)) {
		files, parseWarnings := parse.Files(ctx, root, name, syntaxPaths[name], opts.MaxFileSize)
		warnings = append(warnings, parseWarnings...)
		for _, sf := range files {
			parsed[sf.Path] = sf
		}
	}

	for _, wf := range walk.Files {
		if err := ctx.Err(); err != nil {
			return warnings, err
		}
		f := &File{Path: wf.Path, Name: wf.Name, Parsed: parsed[wf.Path]}
		for _, v := range variants {
			if !v.Match(f.Name) {
				continue
			}
			if v.Syntax() {
				if f.Parsed == nil {
					continue
				}
			} else if f.Source == nil {
				source, err := discover.ReadSource(filepath.Join(root, filepath.FromSlash(f.Path)), opts.MaxFileSize)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("skipped %s: %v", f.Path, err))
					break
				}
				f.Source = source
			}
			visit(v, f)
		}
	}
	return warnings, nil
}
