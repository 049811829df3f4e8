// Package semantic models structural source-code changes and compares two
// extracted views of a file into a classified change list.
package semantic

import (
	"fmt"
	"time"
)

// --- Enums ---

// ElementType classifies a named declaration within a source file.
type ElementType string

const (
	ElementFunction  ElementType = "function"
	ElementClass     ElementType = "class"
	ElementMethod    ElementType = "method"
	ElementImport    ElementType = "import"
	ElementVariable  ElementType = "variable"
	ElementInterface ElementType = "interface"
	ElementTypeDecl  ElementType = "type"
)

// ChangeType classifies one semantic change between two file versions.
// The set is closed: every add/remove/modify pair per element kind, the
// framework-specific refinements of a function modification, and unknown.
type ChangeType string

const (
	ChangeAddFunction  ChangeType = "add_function"
	ChangeAddClass     ChangeType = "add_class"
	ChangeAddMethod    ChangeType = "add_method"
	ChangeAddImport    ChangeType = "add_import"
	ChangeAddVariable  ChangeType = "add_variable"
	ChangeAddInterface ChangeType = "add_interface"
	ChangeAddType      ChangeType = "add_type"

	ChangeRemoveFunction  ChangeType = "remove_function"
	ChangeRemoveClass     ChangeType = "remove_class"
	ChangeRemoveMethod    ChangeType = "remove_method"
	ChangeRemoveImport    ChangeType = "remove_import"
	ChangeRemoveVariable  ChangeType = "remove_variable"
	ChangeRemoveInterface ChangeType = "remove_interface"
	ChangeRemoveType      ChangeType = "remove_type"

	ChangeModifyFunction  ChangeType = "modify_function"
	ChangeModifyClass     ChangeType = "modify_class"
	ChangeModifyMethod    ChangeType = "modify_method"
	ChangeModifyImport    ChangeType = "modify_import"
	ChangeModifyVariable  ChangeType = "modify_variable"
	ChangeModifyInterface ChangeType = "modify_interface"
	ChangeModifyType      ChangeType = "modify_type"

	// Refinements of a function modification for React-style code.
	ChangeAddHookCall    ChangeType = "add_hook_call"
	ChangeRemoveHookCall ChangeType = "remove_hook_call"
	ChangeWrapJSX        ChangeType = "wrap_jsx"
	ChangeUnwrapJSX      ChangeType = "unwrap_jsx"
	ChangeModifyJSXProps ChangeType = "modify_jsx_props"

	ChangeUnknown ChangeType = "unknown"
)

// IsAddition returns true for add_* change types.
func (c ChangeType) IsAddition() bool {
	switch c {
	case ChangeAddFunction, ChangeAddClass, ChangeAddMethod, ChangeAddImport,
		ChangeAddVariable, ChangeAddInterface, ChangeAddType:
		return true
	}
	return false
}

// IsRemoval returns true for remove_* change types.
func (c ChangeType) IsRemoval() bool {
	switch c {
	case ChangeRemoveFunction, ChangeRemoveClass, ChangeRemoveMethod,
		ChangeRemoveImport, ChangeRemoveVariable, ChangeRemoveInterface,
		ChangeRemoveType:
		return true
	}
	return false
}

// IsModification returns true for modify_* change types and their
// framework-specific refinements.
func (c ChangeType) IsModification() bool {
	switch c {
	case ChangeModifyFunction, ChangeModifyClass, ChangeModifyMethod,
		ChangeModifyImport, ChangeModifyVariable, ChangeModifyInterface,
		ChangeModifyType, ChangeAddHookCall, ChangeRemoveHookCall,
		ChangeWrapJSX, ChangeUnwrapJSX, ChangeModifyJSXProps:
		return true
	}
	return false
}

// Severity estimates the risk that changes in a region are semantically
// incompatible. Values are ordered: None < Low < Medium < High < Critical.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// --- Models ---

// ExtractedElement is one named declaration extracted from a source file.
// Values are immutable once produced by an extractor.
type ExtractedElement struct {
	Type      ElementType `json:"type"`
	Name      string      `json:"name"`
	StartLine int         `json:"startLine"`
	EndLine   int         `json:"endLine"`
	Content   string      `json:"content"`
	Parent    string      `json:"parent,omitempty"`
}

// Key returns the location key for this element: "{type}:{name}", or
// "{type}:{parent}.{name}" for elements scoped under a parent declaration.
func (e ExtractedElement) Key() string {
	if e.Parent != "" {
		return fmt.Sprintf("%s:%s.%s", e.Type, e.Parent, e.Name)
	}
	return fmt.Sprintf("%s:%s", e.Type, e.Name)
}

// SemanticChange describes one classified difference between two versions of
// a file.
type SemanticChange struct {
	Type      ChangeType `json:"type"`
	Target    string     `json:"target"`
	Location  string     `json:"location"`
	LineStart int        `json:"lineStart"`
	LineEnd   int        `json:"lineEnd"`
	Before    string     `json:"before,omitempty"`
	After     string     `json:"after,omitempty"`
}

// TaskSnapshot captures the semantic changes one agent made to a file in one
// session. Snapshots are produced upstream and are read-only inputs here.
type TaskSnapshot struct {
	TaskID    string           `json:"taskId"`
	Intent    string           `json:"intent,omitempty"`
	StartedAt time.Time        `json:"startedAt"`
	Changes   []SemanticChange `json:"changes"`
}
