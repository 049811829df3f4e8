package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// pyWalker extracts declarations from Python source files.
type pyWalker struct{}

func (w *pyWalker) Walk(root *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	var elements []semantic.ExtractedElement

	cursor := root.Walk()
	defer cursor.Close()

	w.walk(cursor, source, &elements)
	return elements
}

func (w *pyWalker) walk(cursor *tree_sitter.TreeCursor, source []byte, elements *[]semantic.ExtractedElement) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_definition":
		if el := w.extractFunction(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "class_definition":
		if isPyTopLevel(node) {
			if el := w.extractNamed(node, source, semantic.ElementClass); el != nil {
				*elements = append(*elements, *el)
			}
		}

	case "import_statement":
		*elements = append(*elements, w.extractImports(node, source)...)

	case "import_from_statement":
		if el := w.extractFromImport(node, source); el != nil {
			*elements = append(*elements, *el)
		}

	case "expression_statement":
		if el := w.extractModuleAssignment(node, source); el != nil {
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

func (w *pyWalker) extractFunction(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	if class := enclosingPyClassName(node, source); class != "" {
		el := newElement(semantic.ElementMethod, name, class, node, source)
		return &el
	}
	if !isPyTopLevel(node) {
		// Nested helper functions are not merge units.
		return nil
	}
	el := newElement(semantic.ElementFunction, name, "", node, source)
	return &el
}

func (w *pyWalker) extractNamed(node *tree_sitter.Node, source []byte, et semantic.ElementType) *semantic.ExtractedElement {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	el := newElement(et, nameNode.Utf8Text(source), "", node, source)
	return &el
}

func (w *pyWalker) extractImports(node *tree_sitter.Node, source []byte) []semantic.ExtractedElement {
	var result []semantic.ExtractedElement
	// import_statement children: "import" keyword then dotted_name(s).
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "dotted_name" {
			continue
		}
		module := child.Utf8Text(source)
		if module == "" {
			continue
		}
		el := newElement(semantic.ElementImport, module, "", node, source)
		result = append(result, el)
	}
	return result
}

func (w *pyWalker) extractFromImport(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "dotted_name" {
				moduleNode = child
				break
			}
		}
	}
	if moduleNode == nil {
		return nil
	}
	module := moduleNode.Utf8Text(source)
	if module == "" {
		return nil
	}
	el := newElement(semantic.ElementImport, module, "", node, source)
	return &el
}

// extractModuleAssignment treats a module-level "NAME = value" statement as
// a variable declaration.
func (w *pyWalker) extractModuleAssignment(node *tree_sitter.Node, source []byte) *semantic.ExtractedElement {
	if parent := node.Parent(); parent == nil || parent.Kind() != "module" {
		return nil
	}
	assign := node.Child(0)
	if assign == nil || assign.Kind() != "assignment" {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return nil
	}
	el := newElement(semantic.ElementVariable, left.Utf8Text(source), "", node, source)
	return &el
}

// isPyTopLevel returns true if the node is at the module top level.
// A top-level node has a parent that is "module", or a parent that is
// "decorated_definition" whose own parent is "module".
func isPyTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() == "decorated_definition" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "module"
	}
	return false
}

// enclosingPyClassName walks up to the class definition containing a node,
// if any.
func enclosingPyClassName(node *tree_sitter.Node, source []byte) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "class_definition":
			if nameNode := p.ChildByFieldName("name"); nameNode != nil {
				return nameNode.Utf8Text(source)
			}
			return ""
		case "function_definition":
			// A function nested inside another function is not a method.
			return ""
		}
	}
	return ""
}
