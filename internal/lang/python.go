package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

func init() {
	register(&Language{
		Name:       "python",
		Extensions: []string{".py", ".pyi"},
		grammar:    python.GetLanguage(),
	})
}

// PythonDefName returns the identifier of a class_definition or
// function_definition node.
func PythonDefName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	return ""
}

// PythonEnclosingClass returns the class_definition whose body directly
// contains funcNode, looking through one decorated_definition wrapper.
func PythonEnclosingClass(funcNode *sitter.Node) *sitter.Node {
	parent := funcNode.Parent()
	if parent == nil {
		return nil
	}

	// Direct: func -> block -> class_definition
	if parent.Type() == "block" && parent.Parent() != nil && parent.Parent().Type() == "class_definition" {
		return parent.Parent()
	}

	// Decorated: func -> decorated_definition -> block -> class_definition
	if parent.Type() == "decorated_definition" {
		gp := parent.Parent()
		if gp != nil && gp.Type() == "block" && gp.Parent() != nil && gp.Parent().Type() == "class_definition" {
			return gp.Parent()
		}
	}

	return nil
}

// PythonDecorators returns the decorator expressions attached to a
// function_definition or class_definition, in source order.
func PythonDecorators(defNode *sitter.Node) []*sitter.Node {
	parent := defNode.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			expr := child.NamedChild(j)
			if expr.Type() != "comment" {
				out = append(out, expr)
				break
			}
		}
	}
	return out
}

// PythonIsAsync reports whether a function_definition carries the async keyword.
func PythonIsAsync(funcNode *sitter.Node) bool {
	return funcNode.ChildCount() > 0 && funcNode.Child(0).Type() == "async"
}

// PythonStringValue decodes a plain string literal. Byte strings, f-strings
// and literals with interpolation are rejected.
func PythonStringValue(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "string":
		return decodeStringLiteral(NodeText(node, source))
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(node.NamedChildCount()); i++ {
			part := node.NamedChild(i)
			if part.Type() != "string" {
				continue
			}
			s, ok := decodeStringLiteral(NodeText(part, source))
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		return b.String(), true
	}
	return "", false
}

func decodeStringLiteral(text string) (string, bool) {
	i := strings.IndexAny(text, `'"`)
	if i < 0 {
		return "", false
	}
	prefix := strings.ToLower(text[:i])
	if strings.ContainsAny(prefix, "bf") {
		return "", false
	}
	body := text[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(body) >= 2*len(q) && strings.HasPrefix(body, q) && strings.HasSuffix(body, q) {
			return body[len(q) : len(body)-len(q)], true
		}
	}
	return "", false
}
