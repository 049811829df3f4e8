package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// tsWalker extracts declarations from TypeScript and TSX source files.
type tsWalker struct{}

func (w *tsWalker) Walk(root *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	var elements []semantic.ExtractedElement

	cursor := root.Walk()
	defer cursor.Close()

	w.walk(cursor, source, &elements)
	return elements
}

func (w *tsWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, elements *[]semantic.ExtractedElement) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if el := w.extractNamed(node, source, semantic.ElementFunction); el != nil {
			*elements = append(*elements, *el)
		}

	case "class_declaration":
		if el := w.extractNamed(node, source, semantic.ElementClass); el != nil {
			*elements = append(*elements, *el)
		}

	case "interface_declaration":
		if el := w.extractNamed(node, source, semantic.ElementInterface); el != nil {
			*elements = append(*elements, *el)
		}

	case "type_alias_declaration", "enum_declaration":
		if el := w.extractNamed(node, source, semantic.ElementTypeDecl); el != nil {
			*elements = append(*elements, *el)
		}

	case "method_definition":
		if el := w.extractMethod(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "import_statement":
		if el := w.extractImport(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "lexical_declaration", "variable_declaration":
		*elements = append(*elements, w.extractModuleVariables(node, source)...)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, source, elements)
		for cursor.GotoNextSibling() {
			w.walk(cursor, source, elements)
		}
		cursor.GotoParent()
	}
}

func (w *tsWalker) extractNamed(node *tree_sitter.Node, source []byte, et semantic.ElementType) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	el := newElement(et, nameNode.Utf8Text(source), "", node, source)
	return &el
}

func (w *tsWalker) extractMethod(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	parent := enclosingClassName(node, source)
	if parent == "" {
		return nil
	}
	el := newElement(semantic.ElementMethod, nameNode.Utf8Text(source), parent, node, source)
	return &el
}

func (w *tsWalker) extractImport(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	module := strings.Trim(sourceNode.Utf8Text(source), "\"'`")
	if module == "" {
		return nil
	}
	el := newElement(semantic.ElementImport, module, "", node, source)
	return &el
}

// extractModuleVariables extracts module-level const/let/var declarators,
// including arrow-function components.
func (w *tsWalker) extractModuleVariables(node *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	if !isTSModuleLevel(node) {
		return nil
	}

	var result []semantic.ExtractedElement
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		elementType := semantic.ElementVariable
		if valueNode := child.ChildByFieldName("value"); valueNode != nil &&
			(valueNode.Kind() == "arrow_function" || valueNode.Kind() == "function_expression") {
			elementType = semantic.ElementFunction
		}

		el := newElement(elementType, nameNode.Utf8Text(source), "", child, source)
		el.Content = node.Utf8Text(source)
		el.StartLine = int(node.StartPosition().Row) + 1
		el.EndLine = int(node.EndPosition().Row) + 1
		result = append(result, el)
	}
	return result
}

// isTSModuleLevel reports whether a declaration sits at the top of the
// module, directly or under an export_statement.
func isTSModuleLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "program" {
		return true
	}
	if parent.Kind() == "export_statement" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "program"
	}
	return false
}

// enclosingClassName walks up to the class declaration containing a node.
func enclosingClassName(node *tree_sitter.Node, source []byte) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "class_declaration" {
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				return nameNode.Utf8Text(source)
			}
			return ""
		}
	}
	return ""
}
