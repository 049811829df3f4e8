package semantic

import (
	"regexp"
	"strings"
)

// FunctionClassifier refines a function body modification into a more
// specific change type. Implementations are heuristic and framework-specific;
// the comparator falls back to ChangeModifyFunction for anything an
// implementation cannot refine.
type FunctionClassifier interface {
	Classify(before, after, ext string) ChangeType
}

// Compile-time check.
var _ FunctionClassifier = ReactClassifier{}

// ReactClassifier detects React-flavored function changes: hook-call count
// shifts, JSX wrapping and unwrapping, and prop-only edits. Checks are
// ordered and the first match wins; hook detection always outranks the JSX
// heuristics.
type ReactClassifier struct{}

// hookCallRe matches a React hook invocation: an identifier of the form
// useXxx immediately followed by a call.
var hookCallRe = regexp.MustCompile(`\buse[A-Z]\w*\s*\(`)

// jsxTagRe matches a JSX opening tag, capturing the tag name and the raw
// attribute text.
var jsxTagRe = regexp.MustCompile(`<([A-Za-z][\w.]*)((?:[^<>])*?)/?>`)

// Classify applies the ordered heuristics from most to least specific.
// Empty or whitespace-only input short-circuits to the generic fallback.
func (ReactClassifier) Classify(before, after, _ string) ChangeType {
	if strings.TrimSpace(before) == "" || strings.TrimSpace(after) == "" {
		return ChangeModifyFunction
	}

	beforeHooks := len(hookCallRe.FindAllString(before, -1))
	afterHooks := len(hookCallRe.FindAllString(after, -1))
	switch {
	case afterHooks > beforeHooks:
		return ChangeAddHookCall
	case afterHooks < beforeHooks:
		return ChangeRemoveHookCall
	}

	beforeTags := parseJSXTags(before)
	afterTags := parseJSXTags(after)
	if len(beforeTags) == 0 && len(afterTags) == 0 {
		return ChangeModifyFunction
	}

	switch {
	case wrapsRoot(afterTags, beforeTags):
		return ChangeWrapJSX
	case wrapsRoot(beforeTags, afterTags):
		return ChangeUnwrapJSX
	case sameTagStructure(beforeTags, afterTags) && attrsDiffer(beforeTags, afterTags):
		return ChangeModifyJSXProps
	}

	return ChangeModifyFunction
}

// jsxTag is one opening tag in returned markup.
type jsxTag struct {
	name  string
	attrs string
}

func parseJSXTags(body string) []jsxTag {
	matches := jsxTagRe.FindAllStringSubmatch(body, -1)
	tags := make([]jsxTag, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, jsxTag{
			name:  m[1],
			attrs: strings.TrimSpace(m[2]),
		})
	}
	return tags
}

// wrapsRoot reports whether outer is inner with exactly one additional
// enclosing element at the front, i.e. the markup root gained one wrapper.
func wrapsRoot(outer, inner []jsxTag) bool {
	if len(outer) != len(inner)+1 || len(inner) == 0 {
		return false
	}
	for i, tag := range inner {
		if outer[i+1].name != tag.name {
			return false
		}
	}
	return true
}

// sameTagStructure reports whether both tag sequences have identical names
// in identical order.
func sameTagStructure(a, b []jsxTag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].name != b[i].name {
			return false
		}
	}
	return true
}

// attrsDiffer reports whether any positionally matching tag pair carries
// different attribute text.
func attrsDiffer(a, b []jsxTag) bool {
	for i := range a {
		if a[i].attrs != b[i].attrs {
			return true
		}
	}
	return false
}
