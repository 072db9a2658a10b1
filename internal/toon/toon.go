// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// Repo IRs and grounding reports.
package toon

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/phobologic/repoir/internal/grounding"
	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/ranking"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Repo IR into TOON. Routes, models and central modules are
// capped by b; a zero Budget keeps every route and model.
func Encode(ir *model.RepoIR, b ranking.Budget) string {
	meta := &ir.RepoMetadata
	d := ranking.Select(ir, b)

	parts := []string{
		field("repo", encodeValue(meta.Name)),
		field("url", encodeValue(meta.URL)),
		field("primary_language", encodeValue(meta.PrimaryLanguage)),
		field("total_loc", strconv.Itoa(meta.TotalLOC)),
		field("stars", strconv.Itoa(meta.StarCount)),
		field("contributors", strconv.Itoa(meta.NumContributors)),
		field("scale_tier", encodeValue(string(meta.ScaleTier))),
	}

	langs := make([]string, 0, len(meta.LanguageBreakdown))
	for l := range meta.LanguageBreakdown {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		fi, fj := meta.LanguageBreakdown[langs[i]], meta.LanguageBreakdown[langs[j]]
		if fi != fj {
			return fi > fj
		}
		return langs[i] < langs[j]
	})
	var langRows [][]string
	for _, l := range langs {
		langRows = append(langRows, []string{l, fmt.Sprintf("%.4f", meta.LanguageBreakdown[l])})
	}
	parts = append(parts, formatTabular("languages", []string{"language", "fraction"}, langRows))

	var depRows [][]string
	for i := range ir.Dependencies {
		dep := &ir.Dependencies[i]
		version := ""
		if dep.Version != nil {
			version = *dep.Version
		}
		depRows = append(depRows, []string{dep.Name, version, dep.DepType})
	}
	parts = append(parts, formatTabular("dependencies", []string{"name", "version", "type"}, depRows))

	var moduleRows [][]string
	for _, n := range d.Modules {
		moduleRows = append(moduleRows, []string{n.Module, fmt.Sprintf("%.4f", n.Rank)})
	}
	parts = append(parts, formatTabular("modules", []string{"module", "rank"}, moduleRows))

	var routeRows [][]string
	for i := range d.Routes {
		r := &d.Routes[i]
		handler := ""
		if r.HandlerFunction != nil {
			handler = *r.HandlerFunction
		}
		routeRows = append(routeRows, []string{r.Method, r.Path, r.HandlerFile, handler, r.Framework})
	}
	parts = append(parts, formatTabular("routes", []string{"method", "path", "file", "handler", "framework"}, routeRows))

	var modelRows [][]string
	for i := range d.Models {
		m := &d.Models[i]
		modelRows = append(modelRows, []string{
			m.Name,
			m.ORM,
			m.FilePath,
			strconv.Itoa(len(m.Fields)),
			strings.Join(m.Relationships, "; "),
		})
	}
	parts = append(parts, formatTabular("models", []string{"name", "orm", "file", "fields", "relationships"}, modelRows))

	inf := &ir.Infrastructure
	parts = append(parts,
		field("containerization", encodeOptional(inf.Containerization)),
		field("ci_cd", encodeOptional(inf.CICD)),
		field("cloud_provider", encodeOptional(inf.CloudProvider)),
		formatList("databases", inf.Databases),
		formatList("caching", inf.Caching),
		formatList("message_queues", inf.MessageQueues),
		formatList("deployment_files", inf.DeploymentFiles),
	)
	if len(inf.BaseImages) > 0 {
		parts = append(parts, formatList("base_images", inf.BaseImages))
	}
	if len(inf.ExposedPorts) > 0 {
		parts = append(parts, formatList("exposed_ports", inf.ExposedPorts))
	}

	dirs := make([]string, 0, len(ir.KeyDirectories))
	for dir := range ir.KeyDirectories {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	var dirRows [][]string
	for _, dir := range dirs {
		dirRows = append(dirRows, []string{dir, ir.KeyDirectories[dir]})
	}
	parts = append(parts, formatTabular("key_directories", []string{"path", "role"}, dirRows))

	if len(ir.ExtractionWarnings) > 0 {
		parts = append(parts, formatList("warnings", ir.ExtractionWarnings))
	}
	if ir.ArchitecturalSummary != "" {
		parts = append(parts, field("summary", encodeValue(ir.ArchitecturalSummary)))
	}

	return strings.Join(parts, "\n")
}

// EncodeReport converts one grounding report into TOON.
func EncodeReport(r grounding.Report) string {
	return strings.Join([]string{
		field("score", formatScore(r.Score)),
		field("total_paths", strconv.Itoa(r.TotalPaths)),
		field("valid_paths", strconv.Itoa(r.ValidPaths)),
		formatList("valid", r.ValidPathList),
		formatList("invalid", r.InvalidPaths),
	}, "\n")
}

// EncodeBatch converts a batch grounding report into TOON, one row per plan.
func EncodeBatch(b grounding.BatchReport) string {
	var rows [][]string
	for i, r := range b.Results {
		rows = append(rows, []string{
			strconv.Itoa(i),
			formatScore(r.Score),
			strconv.Itoa(r.TotalPaths),
			strconv.Itoa(r.ValidPaths),
			strings.Join(r.InvalidPaths, " "),
		})
	}
	return strings.Join([]string{
		field("mean_rgs", formatScore(b.MeanRGS)),
		field("min_rgs", formatScore(b.MinRGS)),
		field("max_rgs", formatScore(b.MaxRGS)),
		field("num_plans", strconv.Itoa(b.NumPlans)),
		field("total_paths_checked", strconv.Itoa(b.TotalPathsChecked)),
		field("total_valid_paths", strconv.Itoa(b.TotalValidPaths)),
		formatTabular("results", []string{"index", "score", "total", "valid", "invalid"}, rows),
	}, "\n")
}

func field(key, encoded string) string {
	return key + ": " + encoded
}

func formatScore(f float64) string {
	return fmt.Sprintf("%.4f", f)
}

func encodeOptional(s *string) string {
	if s == nil {
		return "null"
	}
	return encodeValue(*s)
}

func formatList(name string, values []string) string {
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = encodeValue(v)
	}
	if len(encoded) == 0 {
		return fmt.Sprintf("%s[0]:", name)
	}
	return fmt.Sprintf("%s[%d]: %s", name, len(values), strings.Join(encoded, ","))
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
