package deps

import (
	"context"
	"fmt"
	"strings"

	"github.com/phobologic/repoir/internal/discover"
	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/parse"
)

// Options bound the source walk.
type Options struct {
	MaxFiles         int
	MaxFileSize      int64
	RespectGitignore bool
}

// Result is the dependency resolver's contribution to the Repo IR.
type Result struct {
	Dependencies    []model.Dependency
	InternalImports []model.InternalImport
	Warnings        []string
}

// Extract resolves external dependencies and internal import edges.
func Extract(ctx context.Context, root string, opts Options) (Result, error) {
	dependencies, warnings := External(root)
	imports, importWarnings, err := Internal(ctx, root, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Dependencies:    dependencies,
		InternalImports: imports,
		Warnings:        append(warnings, importWarnings...),
	}, nil
}

// Internal walks every Python file and keeps the import edges whose top-level
// module is a package of this repository. A package is any top-level
// directory that contains an __init__.py at some depth. Relative imports are
// not recorded and module paths are not resolved to files.
func Internal(ctx context.Context, root string, opts Options) ([]model.InternalImport, []string, error) {
	res, err := discover.Walk(ctx, root, discover.Options{
		MaxEntries:       opts.MaxFiles,
		SkipHidden:       true,
		RespectGitignore: opts.RespectGitignore,
		Match: func(_, name string) bool {
			return strings.HasSuffix(name, ".py")
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}

	packages := make(map[string]struct{})
	paths := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		paths = append(paths, f.Path)
		if f.Name == "__init__.py" {
			if top, _, nested := strings.Cut(f.Path, "/"); nested {
				packages[top] = struct{}{}
			}
		}
	}

	var warnings []string
	if res.Truncated {
		warnings = append(warnings, fmt.Sprintf("walk truncated at %d entries", res.Visited))
	}
	if len(packages) == 0 {
		return []model.InternalImport{}, warnings, nil
	}

	files, parseWarnings := parse.Files(ctx, root, "python", paths, opts.MaxFileSize)
	warnings = append(warnings, parseWarnings...)

	edges := []model.InternalImport{}
	for _, sf := range files {
		edges = append(edges, ImportEdges(sf, packages)...)
	}
	return edges, warnings, ctx.Err()
}

// ImportEdges converts the absolute imports of one file into edges toward
// the given internal packages.
func ImportEdges(sf *parse.SourceFile, packages map[string]struct{}) []model.InternalImport {
	var out []model.InternalImport
	for _, imp := range sf.Imports {
		if imp.Module == "" || imp.Level > 0 {
			continue
		}
		top, _, _ := strings.Cut(imp.Module, ".")
		if _, ok := packages[top]; !ok {
			continue
		}

		var names []string
		switch {
		case imp.From:
			names = append([]string{}, imp.Names...)
		case imp.Alias != "":
			names = []string{imp.Alias}
		default:
			names = []string{imp.Module[strings.LastIndex(imp.Module, ".")+1:]}
		}
		out = append(out, model.InternalImport{
			FromFile:      sf.Path,
			ToFile:        strings.ReplaceAll(imp.Module, ".", "/"),
			ImportedNames: names,
		})
	}
	return out
}
