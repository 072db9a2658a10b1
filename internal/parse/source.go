package parse

import "strings"

// ExprKind classifies a parsed expression.
type ExprKind int

const (
	ExprOther ExprKind = iota
	ExprName
	ExprAttribute
	ExprCall
	ExprString
	ExprList
	ExprTrue
	ExprFalse
	ExprNumber
	ExprNone
)

// Expr is the subset of an expression tree needed by the detectors.
type Expr struct {
	Kind   ExprKind
	Name   string // identifier, or the attribute segment of an attribute
	Value  string // decoded string literal, or raw text for other literals
	Object *Expr  // attribute receiver
	Func   *Expr  // call target
	Args   []Expr
	Kwargs []Keyword
	Elems  []Expr
}

// Keyword is a name=value call argument.
type Keyword struct {
	Name  string
	Value Expr
}

// Dotted returns the dotted name of a name or attribute chain, or of a
// call's target. It returns "" when no name can be resolved.
func (e *Expr) Dotted() string {
	switch e.Kind {
	case ExprName:
		return e.Name
	case ExprAttribute:
		if e.Object != nil {
			if parent := e.Object.Dotted(); parent != "" {
				return parent + "." + e.Name
			}
		}
		return e.Name
	case ExprCall:
		if e.Func != nil {
			return e.Func.Dotted()
		}
	}
	return ""
}

// LastSegment returns the final component of Dotted.
func (e *Expr) LastSegment() string {
	d := e.Dotted()
	if i := strings.LastIndex(d, "."); i >= 0 {
		return d[i+1:]
	}
	return d
}

// Kwarg returns the keyword argument with the given name.
func (e *Expr) Kwarg(name string) (Expr, bool) {
	for _, kw := range e.Kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return Expr{}, false
}

// Import is one import statement target.
type Import struct {
	Module string   // dotted module path; "" for a bare relative import
	Names  []string // names listed by a from-import
	Alias  string   // "as" name of a plain import
	From   bool
	Level  int // leading dots of a relative from-import
	Line   int
}

// Assignment is a single-target assignment in a class body.
type Assignment struct {
	Target    string
	Value     Expr
	Annotated bool
	Line      int
}

// Class is a class definition and its direct body assignments.
type Class struct {
	Name  string
	Bases []Expr
	Body  []Assignment
	Line  int
}

// Function is a function or method definition.
type Function struct {
	Name       string
	Class      string // enclosing class for methods
	Async      bool
	Decorators []Expr
	Line       int
}

// SourceFile holds the syntactic facts of one source file.
type SourceFile struct {
	Path      string
	Language  string
	Imports   []Import
	Classes   []Class
	Functions []Function
	// Partial is set when the parser recovered from syntax errors.
	Partial bool
}
