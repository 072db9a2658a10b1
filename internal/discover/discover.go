// Package discover walks a repository snapshot within fixed bounds.
package discover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	ignore "github.com/sabhiram/go-gitignore"
)

// Default bounds for a single walk.
const (
	DefaultMaxDepth    = 32
	DefaultMaxEntries  = 50_000
	DefaultMaxFileSize = 1_000_000 // 1 MB
)

var (
	// ErrBinary is returned by ReadSource for content that is not text.
	ErrBinary = errors.New("binary content")
	// ErrTooLarge is returned by ReadSource for files over the size limit.
	ErrTooLarge = errors.New("file too large")
)

var skipDirs = map[string]struct{}{
	".git":          {},
	"node_modules":  {},
	"__pycache__":   {},
	".venv":         {},
	"venv":          {},
	"env":           {},
	".env":          {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
	"dist":          {},
	"build":         {},
	".next":         {},
	".nuxt":         {},
	"vendor":        {},
	"target":        {},
	".idea":         {},
	".vscode":       {},
}

// IsSkipDir reports whether a directory name belongs to the fixed skip set
// (version control, dependency caches, build output, virtual environments).
func IsSkipDir(name string) bool {
	_, ok := skipDirs[name]
	return ok
}

// File is a regular file found by Walk.
type File struct {
	Path string // relative to root, slash separated
	Name string
	Size int64
}

// Options bound a walk. Zero values select the package defaults.
type Options struct {
	MaxDepth         int
	MaxEntries       int
	SkipHidden       bool
	RespectGitignore bool
	// Match filters files by relative path; nil keeps every file.
	Match func(rel, name string) bool
}

// Result is the outcome of a bounded walk.
type Result struct {
	Files     []File
	Truncated bool
	Visited   int
}

// Walk lists regular files under root in lexical order. Directories in the
// skip set are pruned, symlinks are never followed, and the walk stops once
// MaxEntries files have been visited.
func Walk(ctx context.Context, root string, opts Options) (Result, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}

	var gi *ignore.GitIgnore
	if opts.RespectGitignore {
		gi = loadGitignore(root)
	}

	var res Result
	errLimit := errors.New("limit")

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // skip unreadable entries
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == root {
			return nil
		}

		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			if IsSkipDir(name) || (opts.SkipHidden && strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			if strings.Count(rel, "/")+1 > opts.MaxDepth {
				res.Truncated = true
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if opts.SkipHidden && strings.HasPrefix(name, ".") {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if res.Visited >= opts.MaxEntries {
			res.Truncated = true
			return errLimit
		}
		res.Visited++

		if opts.Match != nil && !opts.Match(rel, name) {
			return nil
		}
		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}
		res.Files = append(res.Files, File{Path: rel, Name: name, Size: size})
		return nil
	})
	if err != nil && !errors.Is(err, errLimit) {
		return res, err
	}
	return res, nil
}

// ReadSource reads a file for parsing, rejecting oversized or binary content.
func ReadSource(path string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%s: %w (>%d bytes)", path, ErrTooLarge, maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && !isText(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrBinary)
	}
	return data, nil
}

func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Exists reports whether rel names an existing entry under root.
func Exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// Glob matches a slash-separated pattern relative to root. A "**" segment
// matches zero or more directories and is resolved with Walk under opts, so
// the skip set, the depth and entry bounds and ctx all apply. Paths are
// relative to root, slash separated and in lexical order.
func Glob(ctx context.Context, root, pattern string, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !strings.Contains(pattern, "**") {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return Result{}, fmt.Errorf("glob %q: %w", pattern, err)
		}
		var res Result
		for _, m := range matches {
			if rel, err := filepath.Rel(root, m); err == nil {
				rel = filepath.ToSlash(rel)
				res.Files = append(res.Files, File{Path: rel, Name: path.Base(rel)})
			}
		}
		res.Visited = len(res.Files)
		return res, nil
	}

	base, rest, _ := strings.Cut(pattern, "**")
	base = strings.TrimSuffix(base, "/")
	rest = strings.TrimPrefix(rest, "/")
	start := root
	if base != "" {
		start = filepath.Join(root, filepath.FromSlash(base))
	}
	if info, err := os.Stat(start); err != nil || !info.IsDir() {
		return Result{}, nil
	}

	opts.Match = func(rel, _ string) bool { return matchTail(rest, rel) }
	res, err := Walk(ctx, start, opts)
	if err != nil {
		return res, err
	}
	if base != "" {
		for i := range res.Files {
			res.Files[i].Path = base + "/" + res.Files[i].Path
		}
	}
	return res, nil
}

// matchTail reports whether some suffix of rel (at a segment boundary)
// matches pattern.
func matchTail(pattern, rel string) bool {
	for {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		_, after, found := strings.Cut(rel, "/")
		if !found {
			return false
		}
		rel = after
	}
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
