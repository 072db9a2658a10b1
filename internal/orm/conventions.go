package orm

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/phobologic/repoir/internal/model"
	"github.com/phobologic/repoir/internal/parse"
	"github.com/phobologic/repoir/internal/scan"
)

// djangoORM reads classes deriving from models.Model (or a known abstract
// user base) in files whose name contains "model".
type djangoORM struct{}

func (djangoORM) Name() string { return "django" }
func (djangoORM) Match(name string) bool {
	return strings.HasSuffix(name, ".py") && strings.Contains(name, "model")
}
func (djangoORM) Syntax() bool { return true }

var (
	djangoBaseNames     = map[string]bool{"Model": true, "AbstractUser": true, "AbstractBaseUser": true}
	djangoRelationKinds = map[string]bool{"ForeignKey": true, "OneToOneField": true, "ManyToManyField": true}
	djangoFlags         = map[string]bool{"unique": true, "null": true, "blank": true, "primary_key": true, "db_index": true}
)

// nonModelBases are validated-config bases that share naming with ORM bases.
// Any of them in a base list rules the class out for every convention.
var nonModelBases = map[string]bool{"BaseModel": true, "BaseSettings": true, "BaseConfig": true}

func deniedBase(cls parse.Class) bool {
	for i := range cls.Bases {
		if nonModelBases[cls.Bases[i].LastSegment()] {
			return true
		}
	}
	return false
}

func isDjangoModel(cls parse.Class) bool {
	if deniedBase(cls) {
		return false
	}
	for _, base := range cls.Bases {
		switch base.Kind {
		case parse.ExprAttribute:
			if base.Name == "Model" {
				return true
			}
		case parse.ExprName:
			if djangoBaseNames[base.Name] {
				return true
			}
		}
	}
	return false
}

func (d djangoORM) Extract(f *scan.File) []model.DataModel {
	var out []model.DataModel
	for _, cls := range f.Parsed.Classes {
		if !isDjangoModel(cls) {
			continue
		}
		m := newModel(cls.Name, f.Path, d.Name())
		for _, a := range plainAssignments(cls) {
			if a.Value.Kind != parse.ExprCall || a.Value.Func == nil {
				continue
			}
			callName := a.Value.Func.Dotted()
			if callName == "" {
				continue
			}
			kind := lastSegment(callName)
			if djangoRelationKinds[kind] && len(a.Value.Args) > 0 {
				if target, ok := strOrName(a.Value.Args[0]); ok {
					m.Relationships = append(m.Relationships, kind+" -> "+target)
				}
			}
			m.Fields = append(m.Fields, model.Field{
				Name:        a.Target,
				FieldType:   kind,
				Constraints: djangoConstraints(a.Value),
			})
		}
		out = append(out, m)
	}
	return out
}

func djangoConstraints(call parse.Expr) []string {
	out := []string{}
	for _, kw := range call.Kwargs {
		switch {
		case djangoFlags[kw.Name]:
			if kw.Value.Kind == parse.ExprTrue {
				out = append(out, kw.Name)
			}
		case kw.Name == "max_length":
			if v, ok := literal(kw.Value); ok {
				out = append(out, fmt.Sprintf("max_length=%s", v))
			}
		}
	}
	return out
}

// sqlAlchemy reads declarative classes from any Python file. A denylisted
// base anywhere in the base list rules the class out.
type sqlAlchemy struct{}

func (sqlAlchemy) Name() string           { return "sqlalchemy" }
func (sqlAlchemy) Match(name string) bool { return strings.HasSuffix(name, ".py") }
func (sqlAlchemy) Syntax() bool           { return true }

var sqlAlchemyBases = map[string]bool{"Base": true, "DeclarativeBase": true, "db.Model": true, "SQLModel": true}

func isSQLAlchemyModel(cls parse.Class) bool {
	if deniedBase(cls) {
		return false
	}
	for i := range cls.Bases {
		if sqlAlchemyBases[cls.Bases[i].Dotted()] {
			return true
		}
	}
	return false
}

func (s sqlAlchemy) Extract(f *scan.File) []model.DataModel {
	var out []model.DataModel
	for _, cls := range f.Parsed.Classes {
		if !isSQLAlchemyModel(cls) {
			continue
		}
		m := newModel(cls.Name, f.Path, s.Name())
		for _, a := range plainAssignments(cls) {
			if a.Target == "__tablename__" || a.Value.Kind != parse.ExprCall {
				continue
			}
			callName := a.Value.Dotted()
			switch {
			case strings.Contains(callName, "Column"):
				colType := "unknown"
				if len(a.Value.Args) > 0 {
					if name := a.Value.Args[0].Dotted(); name != "" {
						colType = name
					}
				}
				m.Fields = append(m.Fields, model.Field{
					Name:        a.Target,
					FieldType:   lastSegment(colType),
					Constraints: []string{},
				})
			case strings.Contains(callName, "relationship"):
				if len(a.Value.Args) > 0 {
					if target, ok := strOrName(a.Value.Args[0]); ok {
						m.Relationships = append(m.Relationships, "relationship -> "+target)
					}
				}
			}
		}
		out = append(out, m)
	}
	return out
}

// prisma reads model blocks from schema.prisma. Block parsing is line based
// and does not handle nested braces.
type prisma struct{}

func (prisma) Name() string           { return "prisma" }
func (prisma) Match(name string) bool { return name == "schema.prisma" }
func (prisma) Syntax() bool           { return false }

var (
	prismaModelRe = regexp.MustCompile(`model\s+(\w+)\s*\{([^}]+)\}`)
	prismaScalars = map[string]bool{
		"String": true, "Int": true, "Float": true, "Boolean": true, "DateTime": true,
		"Json": true, "Bytes": true, "Decimal": true, "BigInt": true,
	}
)

func (p prisma) Extract(f *scan.File) []model.DataModel {
	var out []model.DataModel
	for _, match := range prismaModelRe.FindAllSubmatch(f.Source, -1) {
		m := newModel(string(match[1]), f.Path, p.Name())
		for _, line := range strings.Split(strings.TrimSpace(string(match[2])), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "@@") {
				continue
			}
			parts := strings.Fields(line)
			if len(parts) < 2 {
				continue
			}
			fieldType := parts[1]
			baseType := strings.TrimRight(fieldType, "?[]")
			if startsUpper(baseType) && !prismaScalars[baseType] {
				m.Relationships = append(m.Relationships, "relation -> "+baseType)
			}
			constraints := []string{}
			for _, tok := range parts[2:] {
				if strings.HasPrefix(tok, "@") {
					constraints = append(constraints, tok)
				}
			}
			m.Fields = append(m.Fields, model.Field{
				Name:        parts[0],
				FieldType:   fieldType,
				Constraints: constraints,
			})
		}
		out = append(out, m)
	}
	return out
}

// plainAssignments drops annotated class-body assignments.
func plainAssignments(cls parse.Class) []parse.Assignment {
	var out []parse.Assignment
	for _, a := range cls.Body {
		if !a.Annotated {
			out = append(out, a)
		}
	}
	return out
}

// strOrName returns a string literal's value or a bare identifier.
func strOrName(e parse.Expr) (string, bool) {
	switch e.Kind {
	case parse.ExprString:
		return e.Value, true
	case parse.ExprName:
		return e.Name, true
	}
	return "", false
}

// literal renders a constant the way Python prints it.
func literal(e parse.Expr) (string, bool) {
	switch e.Kind {
	case parse.ExprString, parse.ExprNumber, parse.ExprTrue, parse.ExprFalse, parse.ExprNone:
		return e.Value, true
	}
	return "", false
}

func lastSegment(dotted string) string {
	return dotted[strings.LastIndex(dotted, ".")+1:]
}

func startsUpper(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsUpper(r)
}
