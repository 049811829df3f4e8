package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func elem(et ElementType, name, content string) ExtractedElement {
	return ExtractedElement{
		Type:      et,
		Name:      name,
		StartLine: 1,
		EndLine:   3,
		Content:   content,
	}
}

func elemsByKey(elems ...ExtractedElement) map[string]ExtractedElement {
	m := make(map[string]ExtractedElement, len(elems))
	for _, e := range elems {
		m[e.Key()] = e
	}
	return m
}

func changeByLocation(changes []SemanticChange, location string) *SemanticChange {
	for i := range changes {
		if changes[i].Location == location {
			return &changes[i]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key construction
// ---------------------------------------------------------------------------

func TestKey_TopLevel(t *testing.T) {
	e := elem(ElementFunction, "fetchData", "func body")
	assert.Equal(t, "function:fetchData", e.Key())
}

func TestKey_WithParent(t *testing.T) {
	e := elem(ElementMethod, "render", "method body")
	e.Parent = "Widget"
	assert.Equal(t, "method:Widget.render", e.Key())
}

// ---------------------------------------------------------------------------
// Compare
// ---------------------------------------------------------------------------

func TestCompare_IdenticalInputs_NoChanges(t *testing.T) {
	c := NewComparator()
	elements := elemsByKey(
		elem(ElementFunction, "a", "func a() {}"),
		elem(ElementImport, "os", "import os"),
		elem(ElementClass, "Widget", "class Widget {}"),
	)

	changes := c.Compare(elements, elements, ".ts")
	assert.Empty(t, changes, "comparing a mapping with itself must produce no changes")
}

func TestCompare_Addition(t *testing.T) {
	c := NewComparator()
	before := elemsByKey(elem(ElementFunction, "a", "func a() {}"))
	after := elemsByKey(
		elem(ElementFunction, "a", "func a() {}"),
		elem(ElementFunction, "b", "func b() {}"),
	)

	changes := c.Compare(before, after, ".ts")
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeAddFunction, changes[0].Type)
	assert.Equal(t, "b", changes[0].Target)
	assert.Equal(t, "function:b", changes[0].Location)
	assert.Equal(t, "func b() {}", changes[0].After)
	assert.Empty(t, changes[0].Before)
}

func TestCompare_Removal(t *testing.T) {
	c := NewComparator()
	before := elemsByKey(
		elem(ElementImport, "os", "import os"),
		elem(ElementVariable, "MAX", "MAX = 10"),
	)
	after := elemsByKey(elem(ElementImport, "os", "import os"))

	changes := c.Compare(before, after, ".py")
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeRemoveVariable, changes[0].Type)
	assert.Equal(t, "variable:MAX", changes[0].Location)
	assert.Equal(t, "MAX = 10", changes[0].Before)
	assert.Empty(t, changes[0].After)
}

func TestCompare_AntiSymmetric(t *testing.T) {
	c := NewComparator()
	left := elemsByKey(
		elem(ElementFunction, "shared", "func shared() { v1 }"),
		elem(ElementFunction, "onlyLeft", "func onlyLeft() {}"),
	)
	right := elemsByKey(
		elem(ElementFunction, "shared", "func shared() { v2 }"),
		elem(ElementFunction, "onlyRight", "func onlyRight() {}"),
	)

	forward := c.Compare(left, right, ".ts")
	backward := c.Compare(right, left, ".ts")

	// Forward: onlyRight added, onlyLeft removed, shared modified.
	require.Len(t, forward, 3)
	assert.Equal(t, ChangeAddFunction, changeByLocation(forward, "function:onlyRight").Type)
	assert.Equal(t, ChangeRemoveFunction, changeByLocation(forward, "function:onlyLeft").Type)
	assert.True(t, changeByLocation(forward, "function:shared").Type.IsModification())

	// Backward mirrors it exactly.
	require.Len(t, backward, 3)
	assert.Equal(t, ChangeAddFunction, changeByLocation(backward, "function:onlyLeft").Type)
	assert.Equal(t, ChangeRemoveFunction, changeByLocation(backward, "function:onlyRight").Type)
	assert.True(t, changeByLocation(backward, "function:shared").Type.IsModification())
}

func TestCompare_ModificationDispatch(t *testing.T) {
	tests := []struct {
		name string
		et   ElementType
		want ChangeType
	}{
		{"import", ElementImport, ChangeModifyImport},
		{"class", ElementClass, ChangeModifyClass},
		{"interface", ElementInterface, ChangeModifyInterface},
		{"type", ElementTypeDecl, ChangeModifyType},
		{"variable", ElementVariable, ChangeModifyVariable},
	}

	c := NewComparator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := elemsByKey(elem(tt.et, "x", "old"))
			after := elemsByKey(elem(tt.et, "x", "new"))

			changes := c.Compare(before, after, ".ts")
			require.Len(t, changes, 1)
			assert.Equal(t, tt.want, changes[0].Type)
			assert.Equal(t, "old", changes[0].Before)
			assert.Equal(t, "new", changes[0].After)
		})
	}
}

func TestCompare_UnknownElementType(t *testing.T) {
	c := NewComparator()
	before := map[string]ExtractedElement{}
	after := elemsByKey(elem(ElementType("macro"), "m", "macro body"))

	changes := c.Compare(before, after, ".rs")
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeUnknown, changes[0].Type)
}

func TestCompare_MethodModification_FallsBackToModifyMethod(t *testing.T) {
	c := NewComparator()
	m := elem(ElementMethod, "save", "save() { return 1 }")
	m.Parent = "Repo"
	m2 := m
	m2.Content = "save() { return 2 }"

	changes := c.Compare(elemsByKey(m), elemsByKey(m2), ".ts")
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeModifyMethod, changes[0].Type,
		"a generic method body change should classify as modify_method, not modify_function")
}

func TestCompare_DeterministicOrder(t *testing.T) {
	c := NewComparator()
	before := elemsByKey(
		elem(ElementFunction, "b", "func b() {}"),
		elem(ElementFunction, "d", "func d() { v1 }"),
	)
	after := elemsByKey(
		elem(ElementFunction, "a", "func a() {}"),
		elem(ElementFunction, "c", "func c() {}"),
		elem(ElementFunction, "d", "func d() { v2 }"),
	)

	first := c.Compare(before, after, ".ts")
	second := c.Compare(before, after, ".ts")
	assert.Equal(t, first, second, "two identical comparisons must agree")

	// Additions sorted by key, then removals, then modifications.
	require.Len(t, first, 4)
	assert.Equal(t, "function:a", first[0].Location)
	assert.Equal(t, "function:c", first[1].Location)
	assert.Equal(t, "function:b", first[2].Location)
	assert.Equal(t, "function:d", first[3].Location)
}
