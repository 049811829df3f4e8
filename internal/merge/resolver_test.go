package merge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// ---------------------------------------------------------------------------
// Stub AI resolvers
// ---------------------------------------------------------------------------

// stubAI records the regions it was asked to resolve and answers from a
// canned response.
type stubAI struct {
	result *MergeResult
	err    error
	panics bool

	calls     int
	locations []string
	baselines []string
}

var _ AIResolver = (*stubAI)(nil)

func (s *stubAI) ResolveConflict(_ context.Context, filePath, baseline string, _ []semantic.TaskSnapshot, region ConflictRegion) (*MergeResult, error) {
	s.calls++
	s.locations = append(s.locations, region.Location)
	s.baselines = append(s.baselines, baseline)
	if s.panics {
		panic("stub ai blew up")
	}
	if s.err != nil {
		return s.result, s.err
	}
	if s.result != nil {
		res := *s.result
		res.FilePath = filePath
		return &res, nil
	}
	return nil, errors.New("no canned response")
}

func aiMerged(content string) *MergeResult {
	return &MergeResult{
		Decision:      DecisionAIMerged,
		MergedContent: content,
		AICalls:       1,
		TokensUsed:    100,
	}
}

func manualRegion(location string, sev semantic.Severity) ConflictRegion {
	return ConflictRegion{
		FilePath: "app.py",
		Location: location,
		Severity: sev,
		Reason:   fmt.Sprintf("tasks disagree about %s", location),
	}
}

// ---------------------------------------------------------------------------
// ResolveConflicts
// ---------------------------------------------------------------------------

func TestResolve_NoConflicts_ReturnsBaseline(t *testing.T) {
	r := NewResolver(NewAutoMerger())
	res := r.ResolveConflicts(context.Background(), "app.py", "baseline content", nil, nil, nil)

	assert.Equal(t, DecisionAutoMerged, res.Decision)
	assert.Equal(t, "baseline content", res.MergedContent)
	assert.Equal(t, "No conflicts", res.Explanation)
	assert.Zero(t, res.AICalls)
	assert.Zero(t, res.TokensUsed)
}

func TestResolve_AllAutoMergeable(t *testing.T) {
	baseline := "import os\n\ndef existing():\n    pass\n"
	snapshots := []semantic.TaskSnapshot{
		snapshot("t1", change(semantic.ChangeAddFunction, "function:alpha", "alpha", "", "def alpha():\n    return 1")),
		snapshot("t2", change(semantic.ChangeAddFunction, "function:beta", "beta", "", "def beta():\n    return 2")),
	}
	conflicts := []ConflictRegion{
		autoRegion("function:alpha", StrategyAppendFunctions, "t1"),
		autoRegion("function:beta", StrategyAppendFunctions, "t2"),
	}

	r := NewResolver(NewAutoMerger())
	res := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)

	assert.Equal(t, DecisionAutoMerged, res.Decision)
	assert.Contains(t, res.MergedContent, "def existing():")
	assert.Contains(t, res.MergedContent, "def alpha():")
	assert.Contains(t, res.MergedContent, "def beta():")
	assert.Len(t, res.ConflictsResolved, 2)
	assert.Empty(t, res.ConflictsRemaining)
	assert.Zero(t, res.AICalls)
}

func TestResolve_SequentialBaselineThreading(t *testing.T) {
	// The second region must merge against the output of the first, not the
	// original baseline.
	baseline := "def existing():\n    pass\n"
	snapshots := []semantic.TaskSnapshot{
		snapshot("t1", change(semantic.ChangeAddFunction, "function:alpha", "alpha", "", "def alpha():\n    return 1")),
	}
	conflicts := []ConflictRegion{
		autoRegion("function:alpha", StrategyAppendFunctions, "t1"),
		manualRegion("function:tricky", semantic.SeverityHigh),
	}

	ai := &stubAI{result: aiMerged("resolved content")}
	r := NewResolver(NewAutoMerger(), WithAIResolver(ai))
	res := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)

	require.Equal(t, 1, ai.calls)
	assert.Contains(t, ai.baselines[0], "def alpha():",
		"AI must see the working baseline produced by the earlier region")
	assert.Equal(t, DecisionAIMerged, res.Decision)
	assert.Equal(t, "resolved content", res.MergedContent)
}

func TestResolve_AIEscalation_Succeeds(t *testing.T) {
	ai := &stubAI{result: aiMerged("merged by agent")}
	r := NewResolver(NewAutoMerger(), WithAIResolver(ai))

	conflicts := []ConflictRegion{manualRegion("function:f", semantic.SeverityMedium)}
	res := r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)

	assert.Equal(t, DecisionAIMerged, res.Decision)
	assert.Equal(t, "merged by agent", res.MergedContent)
	assert.Equal(t, 1, res.AICalls)
	assert.Equal(t, 100, res.TokensUsed)
	assert.Len(t, res.ConflictsResolved, 1)
	assert.Empty(t, res.ConflictsRemaining)
}

func TestResolve_AIFailure_FallsBackToHumanReview(t *testing.T) {
	ai := &stubAI{
		result: &MergeResult{Decision: DecisionFailed, AICalls: 1, TokensUsed: 40, Error: "agent timeout"},
		err:    errors.New("agent timeout"),
	}
	r := NewResolver(NewAutoMerger(), WithAIResolver(ai))

	conflicts := []ConflictRegion{manualRegion("function:f", semantic.SeverityHigh)}
	res := r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)

	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	assert.Equal(t, "base", res.MergedContent, "failed AI resolution must not alter the working baseline")
	require.Len(t, res.ConflictsRemaining, 1)
	assert.Equal(t, "function:f", res.ConflictsRemaining[0].Location)
	assert.Equal(t, 1, res.AICalls, "calls are accounted even when resolution fails")
	assert.Equal(t, 40, res.TokensUsed)
}

func TestResolve_AutoFailureReasonSurfaced(t *testing.T) {
	// A region marked auto-mergeable whose strategy cannot be applied has
	// no reason of its own; the merger's error must survive into the
	// remaining region and the explanation.
	baseline := "def f():\n    return 99\n"
	snapshots := []semantic.TaskSnapshot{
		snapshot("t1", change(semantic.ChangeModifyFunction, "function:f", "f",
			"def f():\n    return 1", "def f():\n    return 10")),
	}
	conflicts := []ConflictRegion{autoRegion("function:f", StrategyTakeSingle, "t1")}

	r := NewResolver(NewAutoMerger())
	res := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)

	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	require.Len(t, res.ConflictsRemaining, 1)
	assert.Contains(t, res.ConflictsRemaining[0].Reason, "cannot locate original content of function:f in baseline")
	assert.Contains(t, res.Explanation, "function:f: cannot locate original content of function:f in baseline")
}

func TestResolve_UnknownStrategyReasonSurfaced(t *testing.T) {
	conflicts := []ConflictRegion{autoRegion("function:f", Strategy("bogus"), "t1")}

	r := NewResolver(NewAutoMerger())
	res := r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)

	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	require.Len(t, res.ConflictsRemaining, 1)
	assert.Contains(t, res.ConflictsRemaining[0].Reason, `unknown merge strategy "bogus"`)
}

func TestResolve_AIPanic_Contained(t *testing.T) {
	ai := &stubAI{panics: true}
	r := NewResolver(NewAutoMerger(), WithAIResolver(ai))

	conflicts := []ConflictRegion{manualRegion("function:f", semantic.SeverityHigh)}

	var res *MergeResult
	require.NotPanics(t, func() {
		res = r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)
	})
	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	require.Len(t, res.ConflictsRemaining, 1)
}

func TestResolve_CriticalNeverRoutedToAI(t *testing.T) {
	ai := &stubAI{result: aiMerged("should never be used")}
	r := NewResolver(NewAutoMerger(), WithAIResolver(ai))

	conflicts := []ConflictRegion{manualRegion("function:f", semantic.SeverityCritical)}
	res := r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)

	assert.Zero(t, ai.calls, "critical regions go straight to human review")
	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	require.Len(t, res.ConflictsRemaining, 1)
	assert.Equal(t, semantic.SeverityCritical, res.ConflictsRemaining[0].Severity)
}

func TestResolve_AIDisabled(t *testing.T) {
	ai := &stubAI{result: aiMerged("should never be used")}
	r := NewResolver(NewAutoMerger(), WithAIResolver(ai), WithAIDisabled())

	conflicts := []ConflictRegion{manualRegion("function:f", semantic.SeverityHigh)}
	res := r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)

	assert.Zero(t, ai.calls)
	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	assert.Zero(t, res.AICalls)
}

func TestResolve_NoAIConfigured(t *testing.T) {
	r := NewResolver(NewAutoMerger())

	conflicts := []ConflictRegion{manualRegion("function:f", semantic.SeverityHigh)}
	res := r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, nil)

	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	assert.Equal(t, "base", res.MergedContent)
}

func TestResolve_MixedOutcome(t *testing.T) {
	// One auto-mergeable region, one AI-resolvable region, one that stays
	// unresolved: the file lands in human review but keeps the partial merge.
	baseline := "def existing():\n    pass\n"
	snapshots := []semantic.TaskSnapshot{
		snapshot("t1", change(semantic.ChangeAddFunction, "function:alpha", "alpha", "", "def alpha():\n    return 1")),
	}
	ai := &stubAI{result: aiMerged("partially merged")}
	conflicts := []ConflictRegion{
		autoRegion("function:alpha", StrategyAppendFunctions, "t1"),
		manualRegion("function:beta", semantic.SeverityHigh),
		manualRegion("function:gamma", semantic.SeverityCritical),
	}

	r := NewResolver(NewAutoMerger(), WithAIResolver(ai))
	res := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)

	assert.Equal(t, DecisionNeedsHumanReview, res.Decision)
	assert.Equal(t, "partially merged", res.MergedContent)
	assert.Len(t, res.ConflictsResolved, 2)
	require.Len(t, res.ConflictsRemaining, 1)
	assert.Equal(t, "function:gamma", res.ConflictsRemaining[0].Location)
	assert.Equal(t, []string{"function:beta"}, ai.locations)
	assert.Equal(t, 1, res.AICalls)
	assert.Equal(t, 100, res.TokensUsed)
}

func TestResolve_Deterministic(t *testing.T) {
	baseline := "def f():\n    return 1\n"
	snapshots := []semantic.TaskSnapshot{
		snapshot("t1", change(semantic.ChangeModifyFunction, "function:f", "f",
			"def f():\n    return 1", "def f():\n    return 2")),
	}
	conflicts := []ConflictRegion{autoRegion("function:f", StrategyTakeSingle, "t1")}

	r := NewResolver(NewAutoMerger())
	first := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)
	second := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)

	assert.Equal(t, first, second, "identical inputs must produce identical results")
}

func TestResolve_ProgressEvents(t *testing.T) {
	var events []ProgressEvent
	conflicts := []ConflictRegion{
		manualRegion("function:a", semantic.SeverityCritical),
		manualRegion("function:b", semantic.SeverityCritical),
	}

	r := NewResolver(NewAutoMerger())
	r.ResolveConflicts(context.Background(), "app.py", "base", nil, conflicts, func(ev ProgressEvent) {
		events = append(events, ev)
	})

	require.Len(t, events, 2)
	assert.Equal(t, StageResolving, events[0].Stage)
	assert.Equal(t, 0, events[0].Region)
	assert.Equal(t, 2, events[0].Total)
	assert.Equal(t, "function:a", events[0].Location)
	assert.Equal(t, 1, events[1].Region)
	assert.Equal(t, "function:b", events[1].Location)
}

func TestResolve_ExplanationNamesRegions(t *testing.T) {
	baseline := "def f():\n    return 1\n"
	snapshots := []semantic.TaskSnapshot{
		snapshot("t1", change(semantic.ChangeModifyFunction, "function:f", "f",
			"def f():\n    return 1", "def f():\n    return 2")),
	}
	conflicts := []ConflictRegion{
		autoRegion("function:f", StrategyTakeSingle, "t1"),
		manualRegion("function:g", semantic.SeverityHigh),
	}

	r := NewResolver(NewAutoMerger())
	res := r.ResolveConflicts(context.Background(), "app.py", baseline, snapshots, conflicts, nil)

	assert.True(t, strings.Contains(res.Explanation, "Resolved 1 conflict(s):"))
	assert.True(t, strings.Contains(res.Explanation, "function:f (take_single)"))
	assert.True(t, strings.Contains(res.Explanation, "Unresolved 1 conflict(s), human review required:"))
	assert.True(t, strings.Contains(res.Explanation, "function:g: tasks disagree about function:g"))
}
