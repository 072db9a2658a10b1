package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phobologic/repoir/internal/discover"
)

// Tree rendering bounds.
const (
	DefaultTreeDepth   = 4
	DefaultTreeEntries = 200
)

const truncatedMarker = "... (truncated)"

type treeRenderer struct {
	maxDepth   int
	maxEntries int
	count      int
	truncated  bool
	lines      []string
}

// RenderTree draws the directory tree under root. Directories come before
// files, each group sorted case-insensitively. Hidden entries and skip-set
// directories are omitted and symlinked directories are not descended into.
// Once maxEntries entries have been drawn a single truncation marker is
// emitted and rendering stops.
func RenderTree(root string, maxDepth, maxEntries int) string {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	if maxEntries <= 0 {
		maxEntries = DefaultTreeEntries
	}
	r := &treeRenderer{maxDepth: maxDepth, maxEntries: maxEntries}
	r.lines = append(r.lines, filepath.Base(filepath.Clean(root))+"/")
	r.walk(root, "", 1)
	return strings.Join(r.lines, "\n")
}

func (r *treeRenderer) walk(dir, prefix string, depth int) {
	if depth > r.maxDepth || r.truncated {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var dirs, files []os.DirEntry
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case e.IsDir():
			if !discover.IsSkipDir(name) {
				dirs = append(dirs, e)
			}
		case e.Type()&os.ModeSymlink != 0:
			// Symlinks are listed but never followed.
			files = append(files, e)
		case e.Type().IsRegular():
			files = append(files, e)
		}
	}
	byName := func(list []os.DirEntry) {
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name()) < strings.ToLower(list[j].Name())
		})
	}
	byName(dirs)
	byName(files)
	items := append(dirs, files...)

	for i, e := range items {
		if r.count >= r.maxEntries {
			r.lines = append(r.lines, prefix+truncatedMarker)
			r.truncated = true
			return
		}
		last := i == len(items)-1
		connector, extension := "├── ", "│   "
		if last {
			connector, extension = "└── ", "    "
		}
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		r.lines = append(r.lines, prefix+connector+name)
		r.count++
		if e.IsDir() {
			r.walk(filepath.Join(dir, e.Name()), prefix+extension, depth+1)
			if r.truncated {
				return
			}
		}
	}
}
