package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// rsWalker extracts declarations from Rust source files.
type rsWalker struct{}

func (w *rsWalker) Walk(root *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	var elements []semantic.ExtractedElement

	cursor := root.Walk()
	defer cursor.Close()

	w.walk(cursor, source, &elements)
	return elements
}

func (w *rsWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, elements *[]semantic.ExtractedElement) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_item":
		if el := w.extractFunction(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "struct_item", "enum_item", "type_item":
		if el := w.extractNamed(node, source, semantic.ElementTypeDecl); el != nil {
			*elements = append(*elements, *el)
		}

	case "trait_item":
		if el := w.extractNamed(node, source, semantic.ElementInterface); el != nil {
			*elements = append(*elements, *el)
		}

	case "const_item", "static_item":
		if el := w.extractNamed(node, source, semantic.ElementVariable); el != nil {
			*elements = append(*elements, *el)
		}

	case "use_declaration":
		if el := w.extractUse(node, source); el != nil {
			*elements = append(*elements, *el)
		}
	}

	if cursor.GotoFirstChild() {
		w.walk(cursor, source, elements)
		for cursor.GotoNextSibling() {
			w.walk(cursor, source, elements)
		}
		cursor.GotoParent()
	}
}

func (w *rsWalker) extractFunction(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	if impl := enclosingImplType(node, source); impl != "" {
		el := newElement(semantic.ElementMethod, name, impl, node, source)
		return &el
	}
	el := newElement(semantic.ElementFunction, name, "", node, source)
	return &el
}

func (w *rsWalker) extractNamed(node *tree_sitter.Node, source []byte, et semantic.ElementType) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	el := newElement(et, nameNode.Utf8Text(source), "", node, source)
	return &el
}

func (w *rsWalker) extractUse(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	argNode := node.ChildByFieldName("argument")
	if argNode == nil {
		return nil
	}
	path := argNode.Utf8Text(source)
	if path == "" {
		return nil
	}
	el := newElement(semantic.ElementImport, path, "", node, source)
	return &el
}

// enclosingImplType returns the type an impl block targets when the node
// sits inside one.
func enclosingImplType(node *tree_sitter.Node, source []byte) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "impl_item" {
			if typeNode := p.ChildByFieldName("type"); typeNode != nil {
				return typeNode.Utf8Text(source)
			}
			return ""
		}
	}
	return ""
}
