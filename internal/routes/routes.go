// Package routes detects HTTP endpoint declarations. Each supported web
// framework is a Framework variant; only the variants whose presence is
// detected in the repository's manifests are run.
package routes

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/repoir/internal/discover"
	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/scan"
)

// Facts are the manifest signals used for framework detection.
type Facts struct {
	// PythonManifests is the lowercased text of requirements.txt,
	// pyproject.toml and setup.py.
	PythonManifests string
	// PackageJSON is the lowercased text of package.json.
	PackageJSON string
	HasManagePy bool
}

// LoadFacts reads the detection manifests under root. Missing files are
// treated as empty.
func LoadFacts(root string) Facts {
	var f Facts
	var py strings.Builder
	for _, name := range []string{"requirements.txt", "pyproject.toml", "setup.py"} {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			py.WriteString(strings.ToLower(string(data)))
			py.WriteByte('\n')
		}
	}
	f.PythonManifests = py.String()
	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		f.PackageJSON = strings.ToLower(string(data))
	}
	f.HasManagePy = discover.Exists(root, "manage.py")
	return f
}

// Framework is one route declaration convention.
type Framework interface {
	scan.Variant
	Name() string
	Detect(Facts) bool
	Extract(f *scan.File) []model.APIRoute
}

// Frameworks is the variant registry, in per-file evaluation order.
var Frameworks = []Framework{flask{}, fastAPI{}, django{}, express{}}

// Result is the route detector's contribution to the Repo IR.
type Result struct {
	Routes   []model.APIRoute
	Warnings []string
}

// Active returns the registered frameworks detected by facts.
func Active(facts Facts) []Framework {
	var out []Framework
	for _, fw := range Frameworks {
		if fw.Detect(facts) {
			out = append(out, fw)
		}
	}
	return out
}

// Extract detects frameworks under root and runs their extractors over every
// candidate file.
func Extract(ctx context.Context, root string, opts scan.Options) (Result, error) {
	var all []model.APIRoute
	warnings, err := scan.Run(ctx, root, Active(LoadFacts(root)), opts, func(fw Framework, f *scan.File) {
		all = append(all, fw.Extract(f)...)
	})
	if err != nil {
		return Result{Routes: []model.APIRoute{}, Warnings: warnings}, err
	}
	return Result{Routes: Dedup(all), Warnings: warnings}, nil
}

// Dedup keeps the first route for each (path, method, handler file).
func Dedup(all []model.APIRoute) []model.APIRoute {
	type key struct{ path, method, file string }
	seen := make(map[key]struct{}, len(all))
	out := make([]model.APIRoute, 0, len(all))
	for _, r := range all {
		k := key{r.Path, r.Method, r.HandlerFile}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func route(path, method, file, handler, framework string) model.APIRoute {
	return model.APIRoute{
		Path:            path,
		Method:          method,
		HandlerFile:     file,
		HandlerFunction: model.StrPtr(handler),
		Framework:       framework,
	}
}
