// Package infra profiles a repository's infrastructure: containerization,
// datastores, CI, cloud provider and deployment artifacts. Every signal
// source is unioned into one InfraConfig.
package infra

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/repoir/internal/discover"
	"github.com/phobologic/repoir/internal/model"
)

// Result is the infra profiler's contribution to the Repo IR.
type Result struct {
	Infra    model.InfraConfig
	Warnings []string
}

// engines accumulates detected engine names per category.
type engines struct {
	databases map[string]struct{}
	caching   map[string]struct{}
	queues    map[string]struct{}
}

func newEngines() *engines {
	return &engines{
		databases: map[string]struct{}{},
		caching:   map[string]struct{}{},
		queues:    map[string]struct{}{},
	}
}

func (e *engines) add(c category, name string) {
	switch c {
	case database:
		e.databases[name] = struct{}{}
	case cache:
		e.caching[name] = struct{}{}
	case queue:
		e.queues[name] = struct{}{}
	}
}

func (e *engines) matchKeywords(text string) {
	for _, table := range []struct {
		c        category
		keywords []keyword
	}{{database, databaseKeywords}, {cache, cacheKeywords}, {queue, queueKeywords}} {
		for _, kw := range table.keywords {
			if strings.Contains(text, kw.pattern) {
				e.add(table.c, kw.name)
			}
		}
	}
}

// globBounds limit every recursive pattern the profiler expands.
var globBounds = discover.Options{
	MaxDepth:   discover.DefaultMaxDepth,
	MaxEntries: discover.DefaultMaxEntries,
}

// finder expands patterns under one root and remembers whether any
// recursive walk stopped at its bounds.
type finder struct {
	ctx       context.Context
	root      string
	truncated bool
}

func (f *finder) glob(pattern string) ([]string, error) {
	res, err := discover.Glob(f.ctx, f.root, pattern, globBounds)
	if err != nil {
		return nil, err
	}
	f.truncated = f.truncated || res.Truncated
	out := make([]string, 0, len(res.Files))
	for _, file := range res.Files {
		out = append(out, file.Path)
	}
	return out, nil
}

// Extract profiles root.
func Extract(ctx context.Context, root string) (Result, error) {
	var warnings []string
	found := newEngines()
	f := &finder{ctx: ctx, root: root}
	empty := Result{Infra: model.EmptyInfra()}

	compose, err := f.composeFiles()
	if err != nil {
		return empty, err
	}
	for _, rel := range compose {
		if err := ctx.Err(); err != nil {
			return empty, err
		}
		if err := parseCompose(filepath.Join(root, filepath.FromSlash(rel)), found); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped %s: %v", rel, err))
		}
	}
	scanManifests(root, found)

	container, err := f.containerization()
	if err != nil {
		return empty, err
	}
	cloud, err := f.detectCloud()
	if err != nil {
		return empty, err
	}
	deployment, err := f.deploymentFiles()
	if err != nil {
		return empty, err
	}

	cfg := model.EmptyInfra()
	cfg.Containerization = model.StrPtr(container)
	cfg.Databases = sortedKeys(found.databases)
	cfg.Caching = sortedKeys(found.caching)
	cfg.MessageQueues = sortedKeys(found.queues)
	cfg.CICD = model.StrPtr(DetectCI(root))
	cfg.CloudProvider = model.StrPtr(cloud)
	cfg.DeploymentFiles = deployment

	if data, err := os.ReadFile(filepath.Join(root, "Dockerfile")); err == nil {
		cfg.BaseImages, cfg.ExposedPorts = ParseDockerfile(data)
	}

	if f.truncated {
		warnings = append(warnings, fmt.Sprintf("infra glob truncated at %d entries", globBounds.MaxEntries))
	}
	return Result{Infra: cfg, Warnings: warnings}, nil
}

func (f *finder) composeFiles() ([]string, error) {
	var out []string
	for _, p := range composePatterns {
		m, err := f.glob(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m...)
	}
	return out, nil
}

// parseCompose matches each service's image and name against the engine
// keyword tables.
func parseCompose(path string, found *engines) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	top, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	services, ok := top["services"].(map[string]any)
	if !ok {
		return nil
	}
	for name, raw := range services {
		svc, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		image := ""
		if v, ok := svc["image"]; ok && v != nil {
			image = strings.ToLower(fmt.Sprint(v))
		}
		found.matchKeywords(image + " " + strings.ToLower(name))
	}
	return nil
}

// ParseDockerfile returns the FROM images and EXPOSE ports of a Dockerfile,
// in order of appearance and without repeats.
func ParseDockerfile(data []byte) (images, ports []string) {
	seenImage := map[string]bool{}
	seenPort := map[string]bool{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "FROM":
			if !seenImage[fields[1]] {
				seenImage[fields[1]] = true
				images = append(images, fields[1])
			}
		case "EXPOSE":
			for _, p := range fields[1:] {
				if !seenPort[p] {
					seenPort[p] = true
					ports = append(ports, p)
				}
			}
		}
	}
	return images, ports
}

// scanManifests looks for client library names in dependency manifests.
func scanManifests(root string, found *engines) {
	for _, name := range pythonManifests {
		if data, err := os.ReadFile(filepath.Join(root, name)); err == nil {
			applySignals(strings.ToLower(string(data)), pythonSignals, found)
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "package.json")); err == nil {
		applySignals(strings.ToLower(string(data)), nodeSignals, found)
	}
}

func applySignals(text string, signals []codeSignal, found *engines) {
	for _, s := range signals {
		for _, p := range s.patterns {
			if strings.Contains(text, p) {
				found.add(s.category, s.name)
				break
			}
		}
	}
}

// Containerization returns the most capable container tooling present:
// kubernetes, then docker-compose, then docker.
func Containerization(ctx context.Context, root string) (string, error) {
	return (&finder{ctx: ctx, root: root}).containerization()
}

func (f *finder) containerization() (string, error) {
	if discover.Exists(f.root, "k8s") || discover.Exists(f.root, "kubernetes") {
		return model.ContainerOrchestrated, nil
	}
	manifests, err := f.glob("**/k8s*.yml")
	if err != nil {
		return "", err
	}
	if len(manifests) > 0 {
		return model.ContainerOrchestrated, nil
	}
	compose, err := f.composeFiles()
	if err != nil {
		return "", err
	}
	switch {
	case len(compose) > 0:
		return model.ContainerCompose, nil
	case discover.Exists(f.root, "Dockerfile"):
		return model.ContainerSingle, nil
	}
	return model.ContainerNone, nil
}

// DetectCI returns the first CI system whose sentinel exists, or "".
func DetectCI(root string) string {
	for _, s := range ciSentinels {
		if discover.Exists(root, s.pattern) {
			return s.name
		}
	}
	return ""
}

// DetectCloud checks provider sentinel files, then scans *.tf files in
// terraform/ (or infra/ when terraform/ is absent) for provider keywords.
func DetectCloud(ctx context.Context, root string) (string, error) {
	return (&finder{ctx: ctx, root: root}).detectCloud()
}

func (f *finder) detectCloud() (string, error) {
	for _, s := range cloudSentinels {
		if discover.Exists(f.root, s.pattern) {
			return s.name, nil
		}
	}

	dir := "terraform"
	if !discover.Exists(f.root, dir) {
		dir = "infra"
	}
	files, err := f.glob(dir + "/*.tf")
	if err != nil {
		return "", err
	}
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		text := strings.ToLower(string(data))
		for _, kw := range cloudKeywords {
			if strings.Contains(text, kw.pattern) {
				return kw.name, nil
			}
		}
	}
	return "", nil
}

// DeploymentFiles lists deployment-related files, sorted and deduplicated.
func DeploymentFiles(ctx context.Context, root string) ([]string, error) {
	return (&finder{ctx: ctx, root: root}).deploymentFiles()
}

func (f *finder) deploymentFiles() ([]string, error) {
	seen := make(map[string]struct{})
	for _, p := range deploymentPatterns {
		matches, err := f.glob(p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
