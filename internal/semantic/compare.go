package semantic

import "sort"

// Table-driven classification of additions and removals per element type.
// Element types outside these tables map to ChangeUnknown.
var (
	addChangeTypes = map[ElementType]ChangeType{
		ElementFunction:  ChangeAddFunction,
		ElementClass:     ChangeAddClass,
		ElementMethod:    ChangeAddMethod,
		ElementImport:    ChangeAddImport,
		ElementVariable:  ChangeAddVariable,
		ElementInterface: ChangeAddInterface,
		ElementTypeDecl:  ChangeAddType,
	}

	removeChangeTypes = map[ElementType]ChangeType{
		ElementFunction:  ChangeRemoveFunction,
		ElementClass:     ChangeRemoveClass,
		ElementMethod:    ChangeRemoveMethod,
		ElementImport:    ChangeRemoveImport,
		ElementVariable:  ChangeRemoveVariable,
		ElementInterface: ChangeRemoveInterface,
		ElementTypeDecl:  ChangeRemoveType,
	}

	modifyChangeTypes = map[ElementType]ChangeType{
		ElementImport:    ChangeModifyImport,
		ElementClass:     ChangeModifyClass,
		ElementInterface: ChangeModifyInterface,
		ElementTypeDecl:  ChangeModifyType,
		ElementVariable:  ChangeModifyVariable,
	}
)

// Comparator diffs two element mappings into classified semantic changes.
// Function and method body modifications are refined by the configured
// FunctionClassifier.
type Comparator struct {
	functions FunctionClassifier
}

// NewComparator creates a Comparator with the React-aware function classifier.
func NewComparator() *Comparator {
	return NewComparatorWithClassifier(ReactClassifier{})
}

// NewComparatorWithClassifier creates a Comparator with a custom function
// classifier, allowing other languages or frameworks to supply alternates.
func NewComparatorWithClassifier(fc FunctionClassifier) *Comparator {
	return &Comparator{functions: fc}
}

// Compare diffs two element mappings. Keys only in after yield add_* changes,
// keys only in before yield remove_* changes, keys in both with differing
// content yield a classified modification. Identical elements produce no
// change, so Compare(a, a, ext) is always empty.
//
// The result order is deterministic: additions, removals, then modifications,
// each sorted by location key.
func (c *Comparator) Compare(before, after map[string]ExtractedElement, ext string) []SemanticChange {
	var changes []SemanticChange

	for _, key := range sortedKeys(after) {
		if _, ok := before[key]; ok {
			continue
		}
		el := after[key]
		changes = append(changes, SemanticChange{
			Type:      changeTypeFor(addChangeTypes, el.Type),
			Target:    el.Name,
			Location:  key,
			LineStart: el.StartLine,
			LineEnd:   el.EndLine,
			After:     el.Content,
		})
	}

	for _, key := range sortedKeys(before) {
		if _, ok := after[key]; ok {
			continue
		}
		el := before[key]
		changes = append(changes, SemanticChange{
			Type:      changeTypeFor(removeChangeTypes, el.Type),
			Target:    el.Name,
			Location:  key,
			LineStart: el.StartLine,
			LineEnd:   el.EndLine,
			Before:    el.Content,
		})
	}

	for _, key := range sortedKeys(before) {
		b := before[key]
		a, ok := after[key]
		if !ok || b.Content == a.Content {
			continue
		}
		changes = append(changes, SemanticChange{
			Type:      c.classifyModification(b, a, ext),
			Target:    a.Name,
			Location:  key,
			LineStart: a.StartLine,
			LineEnd:   a.EndLine,
			Before:    b.Content,
			After:     a.Content,
		})
	}

	return changes
}

// classifyModification dispatches on element type. Function and method bodies
// go through the pluggable function classifier; everything else maps through
// the modification table.
func (c *Comparator) classifyModification(before, after ExtractedElement, ext string) ChangeType {
	switch before.Type {
	case ElementFunction:
		return c.functions.Classify(before.Content, after.Content, ext)
	case ElementMethod:
		ct := c.functions.Classify(before.Content, after.Content, ext)
		if ct == ChangeModifyFunction {
			return ChangeModifyMethod
		}
		return ct
	default:
		return changeTypeFor(modifyChangeTypes, before.Type)
	}
}

func changeTypeFor(table map[ElementType]ChangeType, et ElementType) ChangeType {
	if ct, ok := table[et]; ok {
		return ct
	}
	return ChangeUnknown
}

func sortedKeys(m map[string]ExtractedElement) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
