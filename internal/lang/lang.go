// Package lang maps file extensions to language names and holds the
// tree-sitter grammars for the languages that are parsed natively.
package lang

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

//go:embed queries/*.scm
var queryFS embed.FS

// extensionNames is the fixed table used for line counting. Only a subset of
// these languages has a registered grammar.
var extensionNames = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".go":    "go",
	".rs":    "rust",
	".java":  "java",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".cpp":   "cpp",
	".c":     "c",
	".h":     "c",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".ex":    "elixir",
	".exs":   "elixir",
}

// NameForFile returns the language counted for a file name, or "" when the
// extension is not in the table. Extensions are compared case-insensitively.
func NameForFile(name string) string {
	return extensionNames[strings.ToLower(filepath.Ext(name))]
}

// Language is a natively parsed language: its grammar and the construct
// query embedded under queries/<name>.scm.
type Language struct {
	Name       string
	Extensions []string

	grammar *sitter.Language

	once     sync.Once
	query    *sitter.Query
	queryErr error
}

// Grammar returns the tree-sitter grammar.
func (l *Language) Grammar() *sitter.Language {
	return l.grammar
}

// NewParser returns a parser bound to the grammar. Parsers are not safe for
// concurrent use; callers keep one per goroutine.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.grammar)
	return p
}

// Query compiles the construct query on first use. The compiled query is
// shared by all parsers of the language.
func (l *Language) Query() (*sitter.Query, error) {
	l.once.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading %s query: %w", l.Name, err)
			return
		}
		l.query, l.queryErr = sitter.NewQuery(data, l.grammar)
		if l.queryErr != nil {
			l.queryErr = fmt.Errorf("compiling %s query: %w", l.Name, l.queryErr)
		}
	})
	return l.query, l.queryErr
}

var (
	registry    = map[string]*Language{}
	byExtension = map[string]*Language{}
)

// register is called from the init functions of the per-language files.
func register(l *Language) {
	registry[l.Name] = l
	for _, ext := range l.Extensions {
		byExtension[ext] = l
	}
}

// Lookup returns the registered language called name.
func Lookup(name string) (*Language, bool) {
	l, ok := registry[name]
	return l, ok
}

// ForFile returns the registered language parsing a file name, or nil.
func ForFile(name string) *Language {
	return byExtension[strings.ToLower(filepath.Ext(name))]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
