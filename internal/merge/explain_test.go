package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func explainRegions(n int, strategy Strategy, reason string) []ConflictRegion {
	regions := make([]ConflictRegion, 0, n)
	for i := 0; i < n; i++ {
		regions = append(regions, ConflictRegion{
			Location: fmt.Sprintf("function:f%d", i),
			Strategy: strategy,
			Reason:   reason,
		})
	}
	return regions
}

func TestBuildExplanation_Empty(t *testing.T) {
	assert.Equal(t, "No conflicts", BuildExplanation(nil, nil))
}

func TestBuildExplanation_ResolvedOnly(t *testing.T) {
	got := BuildExplanation(explainRegions(2, StrategyAppendFunctions, ""), nil)

	want := "Resolved 2 conflict(s):\n" +
		"  - function:f0 (append_functions)\n" +
		"  - function:f1 (append_functions)"
	assert.Equal(t, want, got)
}

func TestBuildExplanation_RemainingOnly(t *testing.T) {
	got := BuildExplanation(nil, explainRegions(1, "", "tasks disagree"))

	want := "Unresolved 1 conflict(s), human review required:\n" +
		"  - function:f0: tasks disagree"
	assert.Equal(t, want, got)
}

func TestBuildExplanation_BothSections(t *testing.T) {
	got := BuildExplanation(
		explainRegions(1, StrategyTakeSingle, ""),
		explainRegions(1, "", "divergent edits"),
	)

	assert.Contains(t, got, "Resolved 1 conflict(s):")
	assert.Contains(t, got, "  - function:f0 (take_single)")
	assert.Contains(t, got, "Unresolved 1 conflict(s), human review required:")
	assert.Contains(t, got, "  - function:f0: divergent edits")
}

func TestBuildExplanation_OverflowCap(t *testing.T) {
	got := BuildExplanation(explainRegions(10, StrategyAppendFunctions, ""), nil)

	assert.Contains(t, got, "Resolved 10 conflict(s):")
	assert.Equal(t, 5, strings.Count(got, "  - function:f"), "only five entries are listed")
	assert.True(t, strings.HasSuffix(got, "...and 5 more"))
	assert.NotContains(t, got, "function:f5")
}

func TestBuildExplanation_ExactlyAtCap_NoOverflowLine(t *testing.T) {
	got := BuildExplanation(explainRegions(5, StrategyAppendFunctions, ""), nil)

	assert.Equal(t, 5, strings.Count(got, "  - function:f"))
	assert.NotContains(t, got, "more")
}
