package merge

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// Aggregator groups per-task semantic changes by location into conflict
// regions, assigning each region a severity and auto-merge eligibility.
//
// The decision table is deliberately conservative: any combination of
// change types it does not recognize defaults to high severity and manual
// review.
type Aggregator struct{}

// NewAggregator creates an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// taskChange pairs one semantic change with the task that produced it.
type taskChange struct {
	taskID string
	change semantic.SemanticChange
}

// Aggregate produces one ConflictRegion per distinct location touched by at
// least one task. Region order follows first appearance across the snapshots
// in snapshot order, so output is deterministic for a given input.
func (a *Aggregator) Aggregate(filePath, _ string, snapshots []semantic.TaskSnapshot) []ConflictRegion {
	var order []string
	byLocation := make(map[string][]taskChange)

	for _, snap := range snapshots {
		for _, ch := range snap.Changes {
			if _, seen := byLocation[ch.Location]; !seen {
				order = append(order, ch.Location)
			}
			byLocation[ch.Location] = append(byLocation[ch.Location], taskChange{
				taskID: snap.TaskID,
				change: ch,
			})
		}
	}

	regions := make([]ConflictRegion, 0, len(order))
	for _, loc := range order {
		regions = append(regions, a.classify(filePath, loc, byLocation[loc]))
	}
	return regions
}

// classify applies the severity / auto-merge decision table to one location.
func (a *Aggregator) classify(filePath, location string, entries []taskChange) ConflictRegion {
	region := ConflictRegion{
		FilePath:      filePath,
		Location:      location,
		TasksInvolved: involvedTasks(entries),
		ChangeTypes:   involvedChangeTypes(entries),
	}
	target := entries[0].change.Target

	switch {
	case hasChangeType(entries, semantic.ChangeUnknown):
		region.Severity = semantic.SeverityHigh
		region.Reason = fmt.Sprintf("unclassified change to %s cannot be merged automatically", target)

	case len(region.TasksInvolved) == 1:
		// A single task touched this location; applying its change verbatim
		// is always safe.
		region.Severity = semantic.SeverityNone
		region.CanAutoMerge = true
		region.Strategy = strategyFor(entries[0].change.Type)

	case allAdditions(entries):
		if identicalResults(entries) {
			region.Severity = semantic.SeverityNone
			region.CanAutoMerge = true
			region.Strategy = strategyFor(entries[0].change.Type)
		} else {
			region.Severity = semantic.SeverityHigh
			region.Reason = fmt.Sprintf("tasks %s added %s with different content",
				strings.Join(region.TasksInvolved, ", "), target)
		}

	case hasRemoval(entries) && hasModification(entries):
		// Delete-versus-modify is the riskiest combination: one agent
		// considered the declaration dead while another built on it.
		region.Severity = semantic.SeverityCritical
		region.Reason = fmt.Sprintf("%s was removed by one task and modified by another", target)

	case allRemovals(entries):
		region.Severity = semantic.SeverityNone
		region.CanAutoMerge = true
		region.Strategy = StrategyTakeSingle

	case allModifications(entries):
		switch {
		case identicalResults(entries):
			region.Severity = semantic.SeverityNone
			region.CanAutoMerge = true
			region.Strategy = StrategyTakeSingle
		case allOfType(entries, semantic.ChangeAddHookCall):
			region.Severity = semantic.SeverityMedium
			region.Reason = fmt.Sprintf("multiple tasks added hook calls to %s; the additions look compatible but need semantic reconciliation", target)
		case allOfType(entries, semantic.ChangeModifyJSXProps):
			region.Severity = semantic.SeverityMedium
			region.Reason = fmt.Sprintf("multiple tasks changed props on %s; the markup structure is unchanged but attribute edits overlap", target)
		default:
			region.Severity = semantic.SeverityHigh
			region.Reason = fmt.Sprintf("%d tasks modified %s concurrently with incompatible changes",
				len(region.TasksInvolved), target)
		}

	default:
		region.Severity = semantic.SeverityHigh
		region.Reason = fmt.Sprintf("mixed change types for %s cannot be combined automatically", target)
	}

	return region
}

// strategyFor picks the combining strategy for a safely mergeable change.
func strategyFor(ct semantic.ChangeType) Strategy {
	switch {
	case ct == semantic.ChangeAddImport:
		return StrategyCombineImports
	case ct == semantic.ChangeAddFunction || ct == semantic.ChangeAddMethod:
		return StrategyAppendFunctions
	case ct.IsAddition():
		return StrategyAppendElements
	default:
		return StrategyTakeSingle
	}
}

// --- Predicates over a region's entries ---

func involvedTasks(entries []taskChange) []string {
	seen := make(map[string]bool, len(entries))
	var tasks []string
	for _, e := range entries {
		if !seen[e.taskID] {
			seen[e.taskID] = true
			tasks = append(tasks, e.taskID)
		}
	}
	return tasks
}

func involvedChangeTypes(entries []taskChange) []semantic.ChangeType {
	seen := make(map[semantic.ChangeType]bool, len(entries))
	var types []semantic.ChangeType
	for _, e := range entries {
		if !seen[e.change.Type] {
			seen[e.change.Type] = true
			types = append(types, e.change.Type)
		}
	}
	return types
}

func hasChangeType(entries []taskChange, ct semantic.ChangeType) bool {
	for _, e := range entries {
		if e.change.Type == ct {
			return true
		}
	}
	return false
}

func allOfType(entries []taskChange, ct semantic.ChangeType) bool {
	for _, e := range entries {
		if e.change.Type != ct {
			return false
		}
	}
	return true
}

func allAdditions(entries []taskChange) bool {
	for _, e := range entries {
		if !e.change.Type.IsAddition() {
			return false
		}
	}
	return true
}

func allRemovals(entries []taskChange) bool {
	for _, e := range entries {
		if !e.change.Type.IsRemoval() {
			return false
		}
	}
	return true
}

func allModifications(entries []taskChange) bool {
	for _, e := range entries {
		if !e.change.Type.IsModification() {
			return false
		}
	}
	return true
}

func hasRemoval(entries []taskChange) bool {
	for _, e := range entries {
		if e.change.Type.IsRemoval() {
			return true
		}
	}
	return false
}

func hasModification(entries []taskChange) bool {
	for _, e := range entries {
		if e.change.Type.IsModification() {
			return true
		}
	}
	return false
}

// identicalResults reports whether every task produced byte-identical
// resulting content, in which case applying any one of them is safe.
func identicalResults(entries []taskChange) bool {
	first := entries[0].change.After
	for _, e := range entries[1:] {
		if e.change.After != first {
			return false
		}
	}
	return true
}
