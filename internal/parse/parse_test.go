package parse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func parsePython(t *testing.T, source string) *SourceFile {
	t.Helper()
	p, err := New("python")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()
	sf, err := p.Parse(context.Background(), "test.py", []byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return sf
}

func TestNewUnsupported(t *testing.T) {
	t.Parallel()
	if _, err := New("cobol"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestPythonImports(t *testing.T) {
	t.Parallel()

	sf := parsePython(t, `import os
import numpy as np, json
from app.models import User, Order as O
from . import views
from ..core.db import *
`)

	want := []Import{
		{Module: "os", Line: 1},
		{Module: "numpy", Alias: "np", Line: 2},
		{Module: "json", Line: 2},
		{Module: "app.models", Names: []string{"User", "Order"}, From: true, Line: 3},
		{Module: "", Names: []string{"views"}, From: true, Level: 1, Line: 4},
		{Module: "core.db", Names: []string{"*"}, From: true, Level: 2, Line: 5},
	}
	if !reflect.DeepEqual(sf.Imports, want) {
		t.Errorf("imports =\n%+v\nwant\n%+v", sf.Imports, want)
	}
}

func TestPythonClass(t *testing.T) {
	t.Parallel()

	sf := parsePython(t, `class User(models.Model, Mixin, metaclass=Meta):
    name = models.CharField(max_length=100, unique=True)
    email: str = "x"
    a.b = 1
    count = 3
`)

	if len(sf.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(sf.Classes))
	}
	c := sf.Classes[0]
	if c.Name != "User" {
		t.Errorf("name = %q, want User", c.Name)
	}
	if len(c.Bases) != 2 {
		t.Fatalf("bases = %+v, want 2", c.Bases)
	}
	if got := c.Bases[0].Dotted(); got != "models.Model" {
		t.Errorf("base[0] = %q", got)
	}
	if got := c.Bases[1].Dotted(); got != "Mixin" {
		t.Errorf("base[1] = %q", got)
	}

	if len(c.Body) != 3 {
		t.Fatalf("body = %+v, want 3 assignments", c.Body)
	}
	name := c.Body[0]
	if name.Target != "name" || name.Annotated {
		t.Errorf("body[0] = %+v", name)
	}
	if name.Value.Kind != ExprCall || name.Value.LastSegment() != "CharField" {
		t.Errorf("body[0] value = %+v", name.Value)
	}
	if ml, ok := name.Value.Kwarg("max_length"); !ok || ml.Kind != ExprNumber || ml.Value != "100" {
		t.Errorf("max_length = %+v, %v", ml, ok)
	}
	if u, ok := name.Value.Kwarg("unique"); !ok || u.Kind != ExprTrue {
		t.Errorf("unique = %+v, %v", u, ok)
	}
	if !c.Body[1].Annotated || c.Body[1].Target != "email" {
		t.Errorf("body[1] = %+v", c.Body[1])
	}
	if c.Body[2].Target != "count" || c.Body[2].Line != 5 {
		t.Errorf("body[2] = %+v", c.Body[2])
	}
}

func TestPythonDecoratedFunctions(t *testing.T) {
	t.Parallel()

	sf := parsePython(t, `@app.route("/users", methods=["GET", "POST"])
def users():
    pass

@router.get("/items/{id}")
async def item(id: int):
    pass

class View:
    @staticmethod
    def helper():
        pass
`)

	if len(sf.Functions) != 3 {
		t.Fatalf("expected 3 functions, got %+v", sf.Functions)
	}

	users := sf.Functions[0]
	if users.Name != "users" || users.Async || users.Line != 2 {
		t.Errorf("users = %+v", users)
	}
	if len(users.Decorators) != 1 {
		t.Fatalf("users decorators = %+v", users.Decorators)
	}
	dec := users.Decorators[0]
	if dec.Kind != ExprCall || dec.Dotted() != "app.route" {
		t.Errorf("decorator = %+v", dec)
	}
	if len(dec.Args) != 1 || dec.Args[0].Kind != ExprString || dec.Args[0].Value != "/users" {
		t.Errorf("decorator args = %+v", dec.Args)
	}
	methods, ok := dec.Kwarg("methods")
	if !ok || methods.Kind != ExprList || len(methods.Elems) != 2 || methods.Elems[1].Value != "POST" {
		t.Errorf("methods = %+v", methods)
	}

	item := sf.Functions[1]
	if item.Name != "item" || !item.Async {
		t.Errorf("item = %+v", item)
	}
	if item.Decorators[0].Func == nil || item.Decorators[0].Func.Name != "get" {
		t.Errorf("item decorator = %+v", item.Decorators[0])
	}

	helper := sf.Functions[2]
	if helper.Class != "View" {
		t.Errorf("helper class = %q, want View", helper.Class)
	}
	if len(helper.Decorators) != 1 || helper.Decorators[0].Kind != ExprName {
		t.Errorf("helper decorators = %+v", helper.Decorators)
	}
}

func TestPythonPartial(t *testing.T) {
	t.Parallel()

	sf := parsePython(t, "import os\ndef broken(:\n")
	if !sf.Partial {
		t.Error("expected Partial for invalid syntax")
	}
	if len(sf.Imports) == 0 || sf.Imports[0].Module != "os" {
		t.Errorf("imports = %+v", sf.Imports)
	}
}

func TestPythonEmpty(t *testing.T) {
	t.Parallel()

	sf := parsePython(t, "")
	if sf.Partial || len(sf.Imports) != 0 || len(sf.Classes) != 0 {
		t.Errorf("unexpected content: %+v", sf)
	}
}

func TestExprDotted(t *testing.T) {
	t.Parallel()

	name := func(s string) *Expr { return &Expr{Kind: ExprName, Name: s} }
	cases := []struct {
		expr Expr
		want string
	}{
		{Expr{Kind: ExprName, Name: "Column"}, "Column"},
		{Expr{Kind: ExprAttribute, Name: "Column", Object: name("sa")}, "sa.Column"},
		{Expr{Kind: ExprAttribute, Name: "x", Object: &Expr{Kind: ExprOther}}, "x"},
		{Expr{Kind: ExprCall, Func: &Expr{Kind: ExprAttribute, Name: "get", Object: name("router")}}, "router.get"},
		{Expr{Kind: ExprString, Value: "s"}, ""},
	}
	for _, tc := range cases {
		if got := tc.expr.Dotted(); got != tc.want {
			t.Errorf("Dotted(%+v) = %q, want %q", tc.expr, got, tc.want)
		}
	}
}

func TestFilesKeepsOrderAndSkips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.py", "import os\n")
	writeFile(t, dir, "b.py", "import sys\n")
	writeFile(t, dir, "big.py", "import json\n"+strings.Repeat("#", 200))

	paths := []string{"b.py", "missing.py", "a.py", "big.py"}
	files, warnings := Files(context.Background(), dir, "python", paths, 100)

	if len(files) != 2 || files[0].Path != "b.py" || files[1].Path != "a.py" {
		t.Fatalf("files = %+v", files)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if !strings.HasPrefix(warnings[0], "skipped missing.py") || !strings.HasPrefix(warnings[1], "skipped big.py") {
		t.Errorf("warnings = %v", warnings)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
