// Package deps resolves external dependencies from manifest files and
// approximates the internal import graph of Python sources.
package deps

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"

	"github.com/phobologic/repoir/internal/model"
)

var (
	requirementRe  = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)\s*([><=!~]+\s*[\d.]+)?`)
	packageNameRe  = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)`)
	installReqRe   = regexp.MustCompile(`(?s)install_requires\s*=\s*\[(.*?)\]`)
	quotedStringRe = regexp.MustCompile(`['"]([^'"]+)['"]`)
)

// Manifest is one dependency file parser.
type Manifest struct {
	Path  string // relative to the repo root
	Parse func(data []byte) ([]model.Dependency, error)
}

// Manifests is the scan order. Earlier entries win on duplicate names.
var Manifests = []Manifest{
	{"requirements.txt", ParseRequirements},
	{"requirements/base.txt", ParseRequirements},
	{"requirements/prod.txt", ParseRequirements},
	{"pyproject.toml", ParsePyproject},
	{"setup.py", ParseSetupPy},
	{"package.json", ParsePackageJSON},
	{"go.mod", ParseGoMod},
}

// External parses every manifest present under root and merges the results,
// keeping the first entry seen for each name. A manifest that fails to parse
// contributes nothing and yields a warning.
func External(root string) ([]model.Dependency, []string) {
	var all []model.Dependency
	var warnings []string
	for _, m := range Manifests {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(m.Path)))
		if err != nil {
			if !os.IsNotExist(err) {
				warnings = append(warnings, fmt.Sprintf("skipped %s: %v", m.Path, err))
			}
			continue
		}
		found, err := m.Parse(data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", m.Path, err))
			continue
		}
		all = append(all, found...)
	}
	return Dedup(all), warnings
}

// Dedup keeps the first dependency for each name, preserving order.
func Dedup(all []model.Dependency) []model.Dependency {
	seen := make(map[string]struct{}, len(all))
	out := make([]model.Dependency, 0, len(all))
	for _, d := range all {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d)
	}
	return out
}

func dep(name string, version *string, kind string) model.Dependency {
	return model.Dependency{Name: name, Version: version, DepType: kind}
}

// parseRequirement splits a PEP 508 style requirement into name and version
// specifier. Extras and environment markers are ignored.
func parseRequirement(line string) (string, *string, bool) {
	m := requirementRe.FindStringSubmatch(line)
	if m == nil {
		return "", nil, false
	}
	if m[2] == "" {
		return m[1], nil, true
	}
	v := strings.TrimSpace(m[2])
	return m[1], &v, true
}

// ParseRequirements parses a pip requirements file.
func ParseRequirements(data []byte) ([]model.Dependency, error) {
	var out []model.Dependency
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		if name, version, ok := parseRequirement(line); ok {
			out = append(out, dep(name, version, model.DepRuntime))
		}
	}
	return out, nil
}

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ParsePyproject reads PEP 621 and Poetry dependency tables. Table entries
// are visited in document order.
func ParsePyproject(data []byte) ([]model.Dependency, error) {
	var doc pyproject
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, err
	}

	var out []model.Dependency
	for _, s := range doc.Project.Dependencies {
		if name, version, ok := parseRequirement(s); ok {
			out = append(out, dep(name, version, model.DepRuntime))
		}
	}
	for _, group := range childKeys(md, "project", "optional-dependencies") {
		kind := model.DepOptional
		switch group {
		case "dev", "test", "testing":
			kind = model.DepDev
		}
		for _, s := range doc.Project.OptionalDependencies[group] {
			if name, version, ok := parseRequirement(s); ok {
				out = append(out, dep(name, version, kind))
			}
		}
	}

	poetry := doc.Tool.Poetry
	out = append(out, poetryDeps(md, poetry.Dependencies, model.DepRuntime, "tool", "poetry", "dependencies")...)
	out = append(out, poetryDeps(md, poetry.DevDependencies, model.DepDev, "tool", "poetry", "dev-dependencies")...)
	for _, group := range childKeys(md, "tool", "poetry", "group") {
		out = append(out, poetryDeps(md, poetry.Group[group].Dependencies, model.DepDev, "tool", "poetry", "group", group, "dependencies")...)
	}
	return out, nil
}

func poetryDeps(md toml.MetaData, table map[string]any, kind string, prefix ...string) []model.Dependency {
	var out []model.Dependency
	for _, name := range childKeys(md, prefix...) {
		if name == "python" {
			continue
		}
		var version *string
		switch spec := table[name].(type) {
		case string:
			version = &spec
		case map[string]any:
			if v, ok := spec["version"].(string); ok {
				version = &v
			}
		}
		out = append(out, dep(name, version, kind))
	}
	return out
}

// childKeys returns the direct children of the table at prefix, in the order
// they first appear in the document. Implicit tables count through their
// deeper keys.
func childKeys(md toml.MetaData, prefix ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, key := range md.Keys() {
		if len(key) <= len(prefix) {
			continue
		}
		match := true
		for i, p := range prefix {
			if key[i] != p {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		child := key[len(prefix)]
		if _, ok := seen[child]; ok {
			continue
		}
		seen[child] = struct{}{}
		out = append(out, child)
	}
	return out
}

// ParseSetupPy extracts install_requires string items from a setup script.
func ParseSetupPy(data []byte) ([]model.Dependency, error) {
	m := installReqRe.FindSubmatch(data)
	if m == nil {
		return nil, nil
	}
	var out []model.Dependency
	for _, q := range quotedStringRe.FindAllSubmatch(m[1], -1) {
		if name := packageNameRe.FindString(string(q[1])); name != "" {
			out = append(out, dep(name, nil, model.DepRuntime))
		}
	}
	return out, nil
}

// ParsePackageJSON reads npm runtime and dev dependencies. Each section is
// returned in name order.
func ParsePackageJSON(data []byte) ([]model.Dependency, error) {
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var out []model.Dependency
	for _, section := range []struct {
		deps map[string]string
		kind string
	}{{doc.Dependencies, model.DepRuntime}, {doc.DevDependencies, model.DepDev}} {
		names := make([]string, 0, len(section.deps))
		for name := range section.deps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := section.deps[name]
			out = append(out, dep(name, &v, section.kind))
		}
	}
	return out, nil
}

// ParseGoMod reads the require directives of a go.mod file. Indirect
// requirements are reported as runtime dependencies.
func ParseGoMod(data []byte) ([]model.Dependency, error) {
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.Dependency, 0, len(f.Require))
	for _, r := range f.Require {
		v := r.Mod.Version
		out = append(out, dep(r.Mod.Path, &v, model.DepRuntime))
	}
	return out, nil
}
