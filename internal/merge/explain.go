package merge

import (
	"fmt"
	"strings"
)

// maxExplainEntries caps how many regions each explanation section lists.
const maxExplainEntries = 5

// BuildExplanation renders a human-readable resolution report: one section
// for resolved regions (location plus strategy) and one for remaining
// regions (location plus reason), each capped at maxExplainEntries with a
// trailing overflow line.
func BuildExplanation(resolved, remaining []ConflictRegion) string {
	if len(resolved) == 0 && len(remaining) == 0 {
		return "No conflicts"
	}

	var sections []string

	if len(resolved) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Resolved %d conflict(s):", len(resolved))
		for i, region := range resolved {
			if i == maxExplainEntries {
				fmt.Fprintf(&b, "\n  ...and %d more", len(resolved)-maxExplainEntries)
				break
			}
			fmt.Fprintf(&b, "\n  - %s (%s)", region.Location, region.Strategy)
		}
		sections = append(sections, b.String())
	}

	if len(remaining) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Unresolved %d conflict(s), human review required:", len(remaining))
		for i, region := range remaining {
			if i == maxExplainEntries {
				fmt.Fprintf(&b, "\n  ...and %d more", len(remaining)-maxExplainEntries)
				break
			}
			fmt.Fprintf(&b, "\n  - %s: %s", region.Location, region.Reason)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n")
}
