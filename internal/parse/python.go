package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/repoir/internal/lang"
)

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// pythonImports handles `import a.b, c as d`.
func pythonImports(node *sitter.Node, source []byte) []Import {
	var out []Import
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			out = append(out, Import{Module: lang.NodeText(child, source), Line: line(node)})
		case "aliased_import":
			imp := Import{Line: line(node)}
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Module = lang.NodeText(name, source)
			}
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Alias = lang.NodeText(alias, source)
			}
			out = append(out, imp)
		}
	}
	return out
}

// pythonFromImport handles `from .pkg.mod import a, b as c`.
func pythonFromImport(node *sitter.Node, source []byte) (Import, bool) {
	mod := node.ChildByFieldName("module_name")
	if mod == nil {
		return Import{}, false
	}
	imp := Import{From: true, Line: line(node)}

	switch mod.Type() {
	case "dotted_name":
		imp.Module = lang.NodeText(mod, source)
	case "relative_import":
		for i := 0; i < int(mod.NamedChildCount()); i++ {
			part := mod.NamedChild(i)
			switch part.Type() {
			case "import_prefix":
				imp.Level = strings.Count(lang.NodeText(part, source), ".")
			case "dotted_name":
				imp.Module = lang.NodeText(part, source)
			}
		}
	default:
		return Import{}, false
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.StartByte() == mod.StartByte() && child.EndByte() == mod.EndByte() {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, lang.NodeText(child, source))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				imp.Names = append(imp.Names, lang.NodeText(name, source))
			}
		case "wildcard_import":
			imp.Names = append(imp.Names, "*")
		}
	}
	return imp, true
}

func pythonClass(node *sitter.Node, source []byte) Class {
	cls := Class{Name: lang.PythonDefName(node, source), Line: line(node)}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			arg := supers.NamedChild(i)
			switch arg.Type() {
			case "keyword_argument", "list_splat", "dictionary_splat", "comment":
				continue
			}
			cls.Bases = append(cls.Bases, pythonExpr(arg, source))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}
		a := Assignment{
			Target:    lang.NodeText(left, source),
			Annotated: assign.ChildByFieldName("type") != nil,
			Line:      line(stmt),
		}
		if right := assign.ChildByFieldName("right"); right != nil {
			a.Value = pythonExpr(right, source)
		}
		cls.Body = append(cls.Body, a)
	}
	return cls
}

func pythonFunction(node *sitter.Node, source []byte) Function {
	fn := Function{
		Name:  lang.PythonDefName(node, source),
		Async: lang.PythonIsAsync(node),
		Line:  line(node),
	}
	if cls := lang.PythonEnclosingClass(node); cls != nil {
		fn.Class = lang.PythonDefName(cls, source)
	}
	for _, dec := range lang.PythonDecorators(node) {
		fn.Decorators = append(fn.Decorators, pythonExpr(dec, source))
	}
	return fn
}

func pythonExpr(node *sitter.Node, source []byte) Expr {
	switch node.Type() {
	case "identifier":
		return Expr{Kind: ExprName, Name: lang.NodeText(node, source)}

	case "attribute":
		e := Expr{Kind: ExprAttribute}
		if obj := node.ChildByFieldName("object"); obj != nil {
			o := pythonExpr(obj, source)
			e.Object = &o
		}
		if attr := node.ChildByFieldName("attribute"); attr != nil {
			e.Name = lang.NodeText(attr, source)
		}
		return e

	case "call":
		e := Expr{Kind: ExprCall}
		if fn := node.ChildByFieldName("function"); fn != nil {
			f := pythonExpr(fn, source)
			e.Func = &f
		}
		args := node.ChildByFieldName("arguments")
		if args == nil || args.Type() != "argument_list" {
			return e
		}
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			switch arg.Type() {
			case "keyword_argument":
				name := arg.ChildByFieldName("name")
				value := arg.ChildByFieldName("value")
				if name == nil || value == nil {
					continue
				}
				e.Kwargs = append(e.Kwargs, Keyword{
					Name:  lang.NodeText(name, source),
					Value: pythonExpr(value, source),
				})
			case "list_splat", "dictionary_splat", "comment":
			default:
				e.Args = append(e.Args, pythonExpr(arg, source))
			}
		}
		return e

	case "string", "concatenated_string":
		if s, ok := lang.PythonStringValue(node, source); ok {
			return Expr{Kind: ExprString, Value: s}
		}

	case "list":
		e := Expr{Kind: ExprList}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			el := node.NamedChild(i)
			if el.Type() == "comment" {
				continue
			}
			e.Elems = append(e.Elems, pythonExpr(el, source))
		}
		return e

	case "true":
		return Expr{Kind: ExprTrue, Value: "True"}
	case "false":
		return Expr{Kind: ExprFalse, Value: "False"}
	case "none":
		return Expr{Kind: ExprNone, Value: "None"}
	case "integer", "float":
		return Expr{Kind: ExprNumber, Value: lang.NodeText(node, source)}

	case "parenthesized_expression":
		if node.NamedChildCount() == 1 {
			return pythonExpr(node.NamedChild(0), source)
		}
	}
	return Expr{Kind: ExprOther, Value: lang.NodeText(node, source)}
}
