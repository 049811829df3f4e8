package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// goWalker extracts declarations from Go source files.
type goWalker struct{}

func (w *goWalker) Walk(root *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	var elements []semantic.ExtractedElement

	cursor := root.Walk()
	defer cursor.Close()

	w.walk(cursor, source, &elements)
	return elements
}

func (w *goWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, elements *[]semantic.ExtractedElement) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if el := w.extractFunction(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "method_declaration":
		if el := w.extractMethod(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "type_declaration":
		*elements = append(*elements, w.extractTypeDeclaration(node, source)...)

	case "import_spec":
		if el := w.extractImport(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "var_declaration", "const_declaration":
		*elements = append(*elements, w.extractVariables(node, source)...)
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, source, elements)
		for cursor.GotoNextSibling() {
			w.walk(cursor, source, elements)
		}
		cursor.GotoParent()
	}
}

func (w *goWalker) extractFunction(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	el := newElement(semantic.ElementFunction, nameNode.Utf8Text(source), "", node, source)
	return &el
}

func (w *goWalker) extractMethod(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	parent := receiverTypeName(node, source)
	el := newElement(semantic.ElementMethod, nameNode.Utf8Text(source), parent, node, source)
	return &el
}

func (w *goWalker) extractTypeDeclaration(node *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	var result []semantic.ExtractedElement

	var specs []*tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "type_spec" {
			specs = append(specs, child)
		}
	}

	for _, spec := range specs {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		elementType := semantic.ElementTypeDecl
		if typeNode := spec.ChildByFieldName("type"); typeNode != nil && typeNode.Kind() == "interface_type" {
			elementType = semantic.ElementInterface
		}

		el := newElement(elementType, nameNode.Utf8Text(source), "", spec, source)
		if len(specs) == 1 {
			// Single-spec declaration: carry the whole "type X ..." text so
			// the content can be re-inserted verbatim.
			el.Content = node.Utf8Text(source)
			el.StartLine = int(node.StartPosition().Row) + 1
			el.EndLine = int(node.EndPosition().Row) + 1
		} else {
			el.Content = "type " + el.Content
		}
		result = append(result, el)
	}
	return result
}

func (w *goWalker) extractImport(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	importPath := strings.Trim(pathNode.Utf8Text(source), "\"")
	if importPath == "" {
		return nil
	}

	el := newElement(semantic.ElementImport, importPath, "", node, source)
	// A standalone import statement stays valid wherever it is re-inserted.
	el.Content = "import " + node.Utf8Text(source)
	return &el
}

func (w *goWalker) extractVariables(node *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	// Only module-level declarations are merge units.
	if parent := node.Parent(); parent == nil || parent.Kind() != "source_file" {
		return nil
	}

	keyword := "var"
	if node.Kind() == "const_declaration" {
		keyword = "const"
	}

	var specs []*tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && (child.Kind() == "var_spec" || child.Kind() == "const_spec") {
			specs = append(specs, child)
		}
	}

	var result []semantic.ExtractedElement
	for _, spec := range specs {
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		el := newElement(semantic.ElementVariable, nameNode.Utf8Text(source), "", spec, source)
		if len(specs) == 1 {
			el.Content = node.Utf8Text(source)
			el.StartLine = int(node.StartPosition().Row) + 1
			el.EndLine = int(node.EndPosition().Row) + 1
		} else {
			el.Content = keyword + " " + el.Content
		}
		result = append(result, el)
	}
	return result
}

// receiverTypeName extracts the receiver type from a method declaration,
// stripping pointers and type parameters.
func receiverTypeName(node *tree_sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	text := strings.Trim(recv.Utf8Text(source), "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typeName := fields[len(fields)-1]
	typeName = strings.TrimPrefix(typeName, "*")
	if i := strings.IndexByte(typeName, '['); i > 0 {
		typeName = typeName[:i]
	}
	return typeName
}
