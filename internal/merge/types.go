// Package merge reconciles semantic changes produced concurrently by
// multiple coding agents against the same file: it aggregates changes into
// conflict regions, auto-merges the compatible ones, and escalates the rest
// to an AI resolver or to a human.
package merge

import (
	"github.com/dusk-indust/reconcile/internal/semantic"
)

// --- Enums ---

// Strategy names a deterministic procedure for combining compatible changes.
type Strategy string

const (
	// StrategyCombineImports unions import statements, de-duplicated,
	// preserving first-seen order.
	StrategyCombineImports Strategy = "combine_imports"

	// StrategyAppendFunctions inserts added functions after existing content,
	// once each, in tasks-involved order.
	StrategyAppendFunctions Strategy = "append_functions"

	// StrategyAppendElements is the structural-union equivalent for added
	// classes, interfaces, types, and variables.
	StrategyAppendElements Strategy = "append_elements"

	// StrategyTakeSingle applies the single agreed-upon modification or
	// removal for a region.
	StrategyTakeSingle Strategy = "take_single"
)

// Decision reports how a file-level merge concluded. The escalation order is
// auto_merged < ai_merged < needs_human_review; failed marks a structural
// failure, not an escalation step.
type Decision string

const (
	DecisionAutoMerged       Decision = "auto_merged"
	DecisionAIMerged         Decision = "ai_merged"
	DecisionNeedsHumanReview Decision = "needs_human_review"
	DecisionFailed           Decision = "failed"
)

// --- Models ---

// ConflictRegion is a location-scoped bundle of changes from one or more
// tasks requiring joint reconciliation. Regions are created fresh per
// resolution call and have no cross-call identity.
type ConflictRegion struct {
	FilePath      string                `json:"filePath"`
	Location      string                `json:"location"`
	TasksInvolved []string              `json:"tasksInvolved"`
	ChangeTypes   []semantic.ChangeType `json:"changeTypes"`
	Severity      semantic.Severity     `json:"severity"`
	CanAutoMerge  bool                  `json:"canAutoMerge"`
	Strategy      Strategy              `json:"strategy,omitempty"`

	// Reason explains why the region cannot be auto-merged. Non-empty
	// whenever CanAutoMerge is false.
	Reason string `json:"reason,omitempty"`
}

// MergeResult is the outcome of resolving one file (or one region, when
// returned by the auto merger or the AI resolver).
type MergeResult struct {
	Decision           Decision         `json:"decision"`
	FilePath           string           `json:"filePath"`
	MergedContent      string           `json:"mergedContent,omitempty"`
	ConflictsResolved  []ConflictRegion `json:"conflictsResolved,omitempty"`
	ConflictsRemaining []ConflictRegion `json:"conflictsRemaining,omitempty"`
	Explanation        string           `json:"explanation,omitempty"`
	AICalls            int              `json:"aiCallsMade"`
	TokensUsed         int              `json:"tokensUsed"`
	Error              string           `json:"error,omitempty"`
}

// --- Progress ---

// ProgressStage identifies the phase a progress event belongs to.
type ProgressStage string

const (
	// StageResolving is emitted once per region boundary during resolution.
	StageResolving ProgressStage = "resolving"
)

// ProgressEvent is delivered synchronously to the caller's callback while a
// file is being resolved. It is purely informational.
type ProgressEvent struct {
	Stage    ProgressStage `json:"stage"`
	Region   int           `json:"region"`
	Total    int           `json:"total"`
	Location string        `json:"location"`
}

// ProgressFunc receives progress events. It is invoked synchronously; it may
// be nil.
type ProgressFunc func(ProgressEvent)
