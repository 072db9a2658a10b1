// Package parse turns source files into syntactic facts (imports, classes,
// decorated functions) using the tree-sitter grammars registered in lang.
package parse

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/repoir/internal/lang"
)

// ErrUnsupported is returned for languages without a native grammar.
var ErrUnsupported = errors.New("no source parser for language")

// SourceParser extracts syntactic facts from a single file. Implementations
// are not safe for concurrent use.
type SourceParser interface {
	Parse(ctx context.Context, path string, source []byte) (*SourceFile, error)
}

// Parser is the tree-sitter backed SourceParser.
type Parser struct {
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

// New returns a parser for a registered language.
func New(language string) (*Parser, error) {
	l, ok := lang.Lookup(language)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupported, language)
	}
	q, err := l.Query()
	if err != nil {
		return nil, err
	}
	return &Parser{lang: l, parser: l.NewParser(), query: q}, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse builds a SourceFile from source. Syntax errors do not fail the parse;
// the recovered tree is used and Partial is set.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*SourceFile, error) {
	sf := &SourceFile{Path: path, Language: p.lang.Name}
	if len(source) == 0 {
		return sf, nil
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	sf.Partial = root.HasError()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(p.query, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		for _, c := range match.Captures {
			node := c.Node
			switch p.query.CaptureNameForId(c.Index) {
			case "import":
				sf.Imports = append(sf.Imports, pythonImports(node, source)...)
			case "import.from":
				if imp, ok := pythonFromImport(node, source); ok {
					sf.Imports = append(sf.Imports, imp)
				}
			case "definition.class":
				sf.Classes = append(sf.Classes, pythonClass(node, source))
			case "definition.function":
				sf.Functions = append(sf.Functions, pythonFunction(node, source))
			}
		}
	}

	return sf, nil
}
