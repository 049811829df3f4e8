// Package extract turns raw source text into named declarations keyed by
// location, using tree-sitter grammars. It feeds the semantic comparator; the
// output mapping is ordered and its elements are immutable values.
package extract

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// Language identifies a programming language for parsing.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

// extToLanguage maps file extensions to languages. JavaScript parses under
// the TSX grammar, which accepts both JSX and plain scripts.
var extToLanguage = map[string]Language{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".tsx": LangTSX,
	".js":  LangTSX,
	".jsx": LangTSX,
	".py":  LangPython,
	".rs":  LangRust,
}

// FileElements is the extractor output: declarations keyed by location, plus
// the key order as they appear in the source.
type FileElements struct {
	Elements map[string]semantic.ExtractedElement
	Order    []string
}

// Extractor is the structural element extractor contract.
type Extractor interface {
	Extract(source []byte, ext string) (*FileElements, error)
}

// elementWalker extracts declarations from a parsed tree-sitter AST.
type elementWalker interface {
	Walk(root *tree_sitter.Node, source []byte) []semantic.ExtractedElement
}

// Compile-time check.
var _ Extractor = (*TreeSitterExtractor)(nil)

// TreeSitterExtractor implements Extractor with Go, TypeScript(+TSX),
// Python, and Rust grammars. A new tree-sitter parser is created per Extract
// call, so this type is safe for sequential use but individual Extract calls
// are not thread-safe.
type TreeSitterExtractor struct {
	languages map[Language]*tree_sitter.Language
	walkers   map[Language]elementWalker
}

// NewTreeSitterExtractor creates a TreeSitterExtractor with all supported
// grammars registered.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		LangTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
	}

	tsWalk := &tsWalker{}
	walkers := map[Language]elementWalker{
		LangGo:         &goWalker{},
		LangTypeScript: tsWalk,
		LangTSX:        tsWalk,
		LangPython:     &pyWalker{},
		LangRust:       &rsWalker{},
	}

	return &TreeSitterExtractor{
		languages: langs,
		walkers:   walkers,
	}
}

// Extract parses source and returns its declarations keyed by location.
func (e *TreeSitterExtractor) Extract(source []byte, ext string) (*FileElements, error) {
	lang, ok := extToLanguage[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("extract: unsupported file extension %q", ext)
	}

	tsLang := e.languages[lang]
	walker := e.walkers[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("extract: set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("extract: tree-sitter returned nil tree")
	}
	defer tree.Close()

	elements := walker.Walk(tree.RootNode(), source)

	fe := &FileElements{
		Elements: make(map[string]semantic.ExtractedElement, len(elements)),
	}
	for _, el := range elements {
		key := el.Key()
		if _, dup := fe.Elements[key]; !dup {
			fe.Order = append(fe.Order, key)
		}
		fe.Elements[key] = el
	}
	return fe, nil
}

// languageExtensions maps configuration language names to the extensions they
// cover. TypeScript covers TSX; JavaScript covers JSX.
var languageExtensions = map[string][]string{
	"go":         {".go"},
	"typescript": {".ts", ".tsx"},
	"tsx":        {".tsx"},
	"javascript": {".js", ".jsx"},
	"python":     {".py"},
	"rust":       {".rs"},
}

// ExtensionsFor returns the set of file extensions covered by the named
// languages. An empty name list selects every supported extension; unknown
// names are ignored.
func ExtensionsFor(names []string) map[string]bool {
	set := make(map[string]bool)
	if len(names) == 0 {
		for ext := range extToLanguage {
			set[ext] = true
		}
		return set
	}
	for _, name := range names {
		for _, ext := range languageExtensions[strings.ToLower(name)] {
			set[ext] = true
		}
	}
	return set
}

// SupportedExtensions returns the file extensions this extractor can handle.
func (e *TreeSitterExtractor) SupportedExtensions() []string {
	exts := make([]string, 0, len(extToLanguage))
	for ext := range extToLanguage {
		exts = append(exts, ext)
	}
	return exts
}

// newElement builds an ExtractedElement from a tree-sitter node.
func newElement(et semantic.ElementType, name, parent string, node *tree_sitter.Node, source []byte) semantic.ExtractedElement {
	return semantic.ExtractedElement{
		Type:      et,
		Name:      name,
		Parent:    parent,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Content:   node.Utf8Text(source),
	}
}
