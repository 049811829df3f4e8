package merge

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// AutoMerger applies a region's deterministic merge strategy to the working
// baseline. Expected failure modes (missing strategy, unlocatable anchor,
// non-auto-mergeable region) come back as a failed MergeResult with an
// explanatory error; Merge never panics for them.
type AutoMerger struct{}

// NewAutoMerger creates an AutoMerger.
func NewAutoMerger() *AutoMerger {
	return &AutoMerger{}
}

// Merge applies region.Strategy to baseline and returns an auto_merged result
// with the merged content, or a failed result describing why the strategy
// could not be applied.
func (m *AutoMerger) Merge(filePath, baseline string, snapshots []semantic.TaskSnapshot, region ConflictRegion) *MergeResult {
	if !region.CanAutoMerge {
		return failedResult(filePath, fmt.Sprintf("region %s is not auto-mergeable: %s", region.Location, region.Reason))
	}
	if region.Strategy == "" {
		return failedResult(filePath, fmt.Sprintf("region %s has no merge strategy set", region.Location))
	}

	var (
		merged string
		err    error
	)
	switch region.Strategy {
	case StrategyCombineImports:
		merged = m.combineImports(baseline, snapshots, region)
	case StrategyAppendFunctions, StrategyAppendElements:
		merged = m.appendDeclarations(baseline, snapshots, region)
	case StrategyTakeSingle:
		merged, err = m.takeSingle(baseline, snapshots, region)
	default:
		return failedResult(filePath, fmt.Sprintf("unknown merge strategy %q for region %s", region.Strategy, region.Location))
	}
	if err != nil {
		return failedResult(filePath, err.Error())
	}

	return &MergeResult{
		Decision:          DecisionAutoMerged,
		FilePath:          filePath,
		MergedContent:     merged,
		ConflictsResolved: []ConflictRegion{region},
	}
}

// combineImports unions the region's import statements into the baseline,
// de-duplicated, preserving first-seen order across tasks. New statements go
// after the last existing import, or at the top of the file when there is
// none.
func (m *AutoMerger) combineImports(baseline string, snapshots []semantic.TaskSnapshot, region ConflictRegion) string {
	lines := strings.Split(baseline, "\n")

	existing := make(map[string]bool, len(lines))
	for _, line := range lines {
		existing[strings.TrimSpace(line)] = true
	}

	var additions []string
	for _, taskID := range region.TasksInvolved {
		ch := findChange(snapshots, taskID, region.Location)
		if ch == nil {
			continue
		}
		stmt := strings.TrimSpace(ch.After)
		if stmt == "" || existing[stmt] {
			continue
		}
		existing[stmt] = true
		additions = append(additions, stmt)
	}
	if len(additions) == 0 {
		return baseline
	}

	at := lastImportLine(lines) + 1
	out := make([]string, 0, len(lines)+len(additions))
	out = append(out, lines[:at]...)
	out = append(out, additions...)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n")
}

// appendDeclarations inserts each added declaration once, in tasks-involved
// order, after the existing content. Declarations already present in the
// baseline are skipped.
func (m *AutoMerger) appendDeclarations(baseline string, snapshots []semantic.TaskSnapshot, region ConflictRegion) string {
	merged := baseline
	for _, taskID := range region.TasksInvolved {
		ch := findChange(snapshots, taskID, region.Location)
		if ch == nil {
			continue
		}
		content := strings.Trim(ch.After, "\n")
		if content == "" || containsDeclaration(merged, content) {
			continue
		}
		merged = strings.TrimRight(merged, "\n") + "\n\n" + content + "\n"
	}
	return merged
}

// takeSingle applies the one modification or removal every involved task
// agreed on, using the first task's change as the canonical copy. The
// original content is the textual anchor; when it cannot be located in the
// baseline the merge fails.
func (m *AutoMerger) takeSingle(baseline string, snapshots []semantic.TaskSnapshot, region ConflictRegion) (string, error) {
	ch := findChange(snapshots, region.TasksInvolved[0], region.Location)
	if ch == nil {
		return "", fmt.Errorf("no change found for region %s in task %s", region.Location, region.TasksInvolved[0])
	}
	if ch.Before == "" {
		return "", fmt.Errorf("region %s has no original content to anchor on", region.Location)
	}
	if !strings.Contains(baseline, ch.Before) {
		return "", fmt.Errorf("cannot locate original content of %s in baseline", region.Location)
	}

	if ch.Type.IsRemoval() {
		merged := strings.Replace(baseline, ch.Before, "", 1)
		return collapseBlankRuns(merged), nil
	}
	return strings.Replace(baseline, ch.Before, ch.After, 1), nil
}

// containsDeclaration reports whether content already appears in merged
// anchored on whole-line boundaries. A declaration that is merely a
// substring of a longer line does not count as present.
func containsDeclaration(merged, content string) bool {
	for start := 0; ; {
		i := strings.Index(merged[start:], content)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(content)
		startsLine := i == 0 || merged[i-1] == '\n'
		endsLine := end == len(merged) || merged[end] == '\n'
		if startsLine && endsLine {
			return true
		}
		start = i + 1
	}
}

// findChange returns the change a task made at a location, or nil.
func findChange(snapshots []semantic.TaskSnapshot, taskID, location string) *semantic.SemanticChange {
	for _, snap := range snapshots {
		if snap.TaskID != taskID {
			continue
		}
		for i := range snap.Changes {
			if snap.Changes[i].Location == location {
				return &snap.Changes[i]
			}
		}
	}
	return nil
}

// lastImportLine returns the index of the last import-like line, or -1.
// Parenthesized Go import blocks count through their closing paren.
func lastImportLine(lines []string) int {
	last := -1
	inBlock := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case inBlock:
			last = i
			if t == ")" {
				inBlock = false
			}
		case t == "import (":
			inBlock = true
			last = i
		case strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "from ") || strings.HasPrefix(t, "use "):
			last = i
		}
	}
	return last
}

// collapseBlankRuns squeezes runs of three or more newlines left behind by a
// removal down to a single blank line.
func collapseBlankRuns(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

func failedResult(filePath, msg string) *MergeResult {
	return &MergeResult{
		Decision: DecisionFailed,
		FilePath: filePath,
		Error:    msg,
	}
}
