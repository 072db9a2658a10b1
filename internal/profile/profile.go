// Package profile computes the directory-level facts of a repository: the
// tree rendering, per-language line counts, and key directory roles.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/phobologic/repoir/internal/discover"
	"github.com/phobologic/repoir/internal/lang"
	"github.com/phobologic/repoir/internal/model"
)

// keyDirRoles is checked in order; the first top-level directory matching a
// role claims it.
var keyDirRoles = []struct {
	role  string
	names []string
}{
	{"source", []string{"src", "lib", "app", "pkg", "internal", "cmd"}},
	{"tests", []string{"tests", "test", "spec", "__tests__", "testing"}},
	{"docs", []string{"docs", "doc", "documentation"}},
	{"config", []string{"config", "conf", "settings", "cfg"}},
	{"api", []string{"api", "routes", "endpoints", "controllers", "views"}},
	{"models", []string{"models", "schemas", "entities"}},
	{"migrations", []string{"migrations", "migrate", "alembic"}},
	{"static", []string{"static", "public", "assets", "media"}},
	{"templates", []string{"templates", "views", "pages"}},
	{"infrastructure", []string{"infra", "deploy", "k8s", "terraform", "helm", "docker"}},
	{"scripts", []string{"scripts", "bin", "tools"}},
}

// Options bound a profile run.
type Options struct {
	TreeDepth        int
	TreeEntries      int
	MaxFiles         int
	MaxFileSize      int64
	RespectGitignore bool
}

// Result is the directory profile of one repository.
type Result struct {
	Tree              string
	LOC               map[string]int
	TotalLOC          int
	LanguageBreakdown map[string]float64
	PrimaryLanguage   string
	KeyDirectories    map[string]string
	Warnings          []string
}

// Profile walks root and computes its directory profile.
func Profile(ctx context.Context, root string, opts Options) (Result, error) {
	loc, total, warnings, err := CountLOC(ctx, root, opts)
	if err != nil {
		return Result{}, err
	}
	keyDirs, err := KeyDirectories(root)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Tree:              RenderTree(root, opts.TreeDepth, opts.TreeEntries),
		LOC:               loc,
		TotalLOC:          total,
		LanguageBreakdown: Breakdown(loc, total),
		PrimaryLanguage:   PrimaryLanguage(loc),
		KeyDirectories:    keyDirs,
		Warnings:          warnings,
	}, nil
}

// CountLOC counts lines per language for every file whose extension is in the
// language table. Generated files are not counted.
func CountLOC(ctx context.Context, root string, opts Options) (map[string]int, int, []string, error) {
	res, err := discover.Walk(ctx, root, discover.Options{
		MaxEntries:       opts.MaxFiles,
		RespectGitignore: opts.RespectGitignore,
		Match: func(_, name string) bool {
			return lang.NameForFile(name) != ""
		},
	})
	if err != nil {
		return nil, 0, nil, fmt.Errorf("walking %s: %w", root, err)
	}

	var warnings []string
	if res.Truncated {
		warnings = append(warnings, fmt.Sprintf("walk truncated at %d entries", res.Visited))
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = discover.DefaultMaxFileSize
	}
	loc := make(map[string]int)
	total := 0
	for _, f := range res.Files {
		if f.Size > maxFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			continue
		}
		if enry.IsGenerated(f.Path, data) {
			continue
		}
		n := CountLines(data)
		loc[lang.NameForFile(f.Name)] += n
		total += n
	}
	return loc, total, warnings, nil
}

// CountLines returns the number of newline-terminated lines plus a final
// unterminated line, if any.
func CountLines(data []byte) int {
	n := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// Breakdown converts line counts to fractions of total, rounded to four
// decimals. It is empty when total is zero.
func Breakdown(loc map[string]int, total int) map[string]float64 {
	out := make(map[string]float64)
	if total == 0 {
		return out
	}
	for name, n := range loc {
		out[name] = math.Round(float64(n)/float64(total)*10000) / 10000
	}
	return out
}

// PrimaryLanguage returns the language with the most lines. Ties go to the
// alphabetically first name.
func PrimaryLanguage(loc map[string]int) string {
	best, bestN := model.UnknownLanguage, -1
	names := make([]string, 0, len(loc))
	for name := range loc {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if loc[name] > bestN {
			best, bestN = name, loc[name]
		}
	}
	return best
}

// KeyDirectories maps roles to top-level directories by name.
func KeyDirectories(root string) (map[string]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	found := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || discover.IsSkipDir(name) || enry.IsVendor(name+"/") {
			continue
		}
		lower := strings.ToLower(name)
		for _, r := range keyDirRoles {
			if _, taken := found[r.role]; taken {
				continue
			}
			for _, candidate := range r.names {
				if lower == candidate {
					found[r.role] = name
					break
				}
			}
		}
	}
	return found, nil
}
