package routes

import (
	"regexp"
	"strings"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/parse"
	"github.com/phobologic/repoir/internal/scan"
)

var (
	djangoPathRe   = regexp.MustCompile(`(?:path|re_path)\(\s*['"]([^'"]+)['"]`)
	expressRouteRe = regexp.MustCompile(`(?:app|router)\.(get|post|put|delete|patch|all)\(\s*['"]([^'"]+)['"]`)
)

func isPython(name string) bool { return strings.HasSuffix(name, ".py") }

// stringArg returns the first positional argument of a decorator call when it
// is a string literal.
func stringArg(dec parse.Expr) (string, bool) {
	if len(dec.Args) == 0 || dec.Args[0].Kind != parse.ExprString {
		return "", false
	}
	return dec.Args[0].Value, true
}

// verbDecorator returns the attribute name of a `<obj>.<verb>(...)` decorator.
func verbDecorator(dec parse.Expr) (string, bool) {
	if dec.Kind != parse.ExprCall || dec.Func == nil || dec.Func.Kind != parse.ExprAttribute {
		return "", false
	}
	return dec.Func.Name, true
}

// flask matches @x.route(path, methods=[...]) and per-verb shorthands on
// synchronous functions.
type flask struct{}

func (flask) Name() string           { return "flask" }
func (flask) Detect(f Facts) bool    { return strings.Contains(f.PythonManifests, "flask") }
func (flask) Match(name string) bool { return isPython(name) }
func (flask) Syntax() bool           { return true }

var flaskVerbs = map[string]bool{"get": true, "post": true, "put": true, "delete": true, "patch": true}

func (fl flask) Extract(f *scan.File) []model.APIRoute {
	var out []model.APIRoute
	for _, fn := range f.Parsed.Functions {
		if fn.Async {
			continue
		}
		for _, dec := range fn.Decorators {
			attr, ok := verbDecorator(dec)
			if !ok {
				continue
			}
			path, ok := stringArg(dec)
			if !ok {
				continue
			}
			switch {
			case attr == "route":
				for _, method := range flaskMethods(dec) {
					out = append(out, route(path, method, f.Path, fn.Name, fl.Name()))
				}
			case flaskVerbs[attr] && path != "":
				out = append(out, route(path, strings.ToUpper(attr), f.Path, fn.Name, fl.Name()))
			}
		}
	}
	return out
}

// flaskMethods reads methods=[...] string items, defaulting to GET.
func flaskMethods(dec parse.Expr) []string {
	methods, ok := dec.Kwarg("methods")
	if !ok || methods.Kind != parse.ExprList {
		return []string{"GET"}
	}
	var out []string
	for _, el := range methods.Elems {
		if el.Kind == parse.ExprString && el.Value != "" {
			out = append(out, strings.ToUpper(el.Value))
		}
	}
	return out
}

// fastAPI matches per-verb decorators on sync and async functions.
type fastAPI struct{}

func (fastAPI) Name() string           { return "fastapi" }
func (fastAPI) Detect(f Facts) bool    { return strings.Contains(f.PythonManifests, "fastapi") }
func (fastAPI) Match(name string) bool { return isPython(name) }
func (fastAPI) Syntax() bool           { return true }

var fastAPIVerbs = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "options": true, "head": true,
}

func (fa fastAPI) Extract(f *scan.File) []model.APIRoute {
	var out []model.APIRoute
	for _, fn := range f.Parsed.Functions {
		for _, dec := range fn.Decorators {
			attr, ok := verbDecorator(dec)
			if !ok || !fastAPIVerbs[attr] {
				continue
			}
			if path, ok := stringArg(dec); ok && path != "" {
				out = append(out, route(path, strings.ToUpper(attr), f.Path, fn.Name, fa.Name()))
			}
		}
	}
	return out
}

// django scans URL configuration modules for path()/re_path() registrations.
// The verb is not declared there, so routes are recorded as ANY.
type django struct{}

func (django) Name() string { return "django" }
func (django) Detect(f Facts) bool {
	return f.HasManagePy || strings.Contains(f.PythonManifests, "django")
}
func (django) Match(name string) bool {
	return isPython(name) && (strings.Contains(name, "urls.py") || strings.Contains(name, "routes"))
}
func (django) Syntax() bool { return false }

func (dj django) Extract(f *scan.File) []model.APIRoute {
	var out []model.APIRoute
	for _, m := range djangoPathRe.FindAllSubmatch(f.Source, -1) {
		path := "/" + strings.TrimLeft(string(m[1]), "/")
		out = append(out, route(path, model.MethodAny, f.Path, "", dj.Name()))
	}
	return out
}

// express scans JavaScript and TypeScript for app.<verb>(path) and
// router.<verb>(path) calls.
type express struct{}

func (express) Name() string        { return "express" }
func (express) Detect(f Facts) bool { return strings.Contains(f.PackageJSON, "express") }
func (express) Match(name string) bool {
	return strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".ts")
}
func (express) Syntax() bool { return false }

func (ex express) Extract(f *scan.File) []model.APIRoute {
	var out []model.APIRoute
	for _, m := range expressRouteRe.FindAllSubmatch(f.Source, -1) {
		out = append(out, route(string(m[2]), strings.ToUpper(string(m[1])), f.Path, "", ex.Name()))
	}
	return out
}
