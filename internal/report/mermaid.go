package report

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/reconcile/internal/merge"
)

// GenerateMermaid produces a Mermaid graph TD diagram of a merge result.
// Each conflict region becomes a node routed from the baseline to its
// outcome; resolved regions carry their strategy on the edge, remaining
// regions point at a human-review sink.
func GenerateMermaid(result *merge.MergeResult) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("  B[\"%s\"]\n", escapeLabel(result.FilePath)))

	merged := false
	needsHuman := false

	nextID := 0
	regionNode := func(region merge.ConflictRegion) string {
		id := fmt.Sprintf("R%d", nextID)
		nextID++
		sb.WriteString(fmt.Sprintf("  %s[\"%s (%s)\"]\n",
			id, escapeLabel(region.Location), region.Severity))
		sb.WriteString(fmt.Sprintf("  B --> %s\n", id))
		return id
	}

	for _, region := range result.ConflictsResolved {
		id := regionNode(region)
		merged = true
		if region.Strategy != "" {
			sb.WriteString(fmt.Sprintf("  %s -->|%s| M\n", id, region.Strategy))
		} else {
			sb.WriteString(fmt.Sprintf("  %s --> M\n", id))
		}
	}
	for _, region := range result.ConflictsRemaining {
		id := regionNode(region)
		needsHuman = true
		sb.WriteString(fmt.Sprintf("  %s --> H\n", id))
	}

	if merged {
		sb.WriteString("  M[\"merged\"]\n")
	}
	if needsHuman {
		sb.WriteString("  H[\"human review\"]\n")
	}

	return sb.String()
}

// escapeLabel strips characters Mermaid treats as markup.
func escapeLabel(s string) string {
	replacer := strings.NewReplacer("\"", "'", "[", "(", "]", ")")
	return replacer.Replace(s)
}
