package merge

import (
	"context"
	"fmt"
	"log"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// AIResolver resolves a single conflict region the deterministic merger
// cannot. Implementations may block on network I/O with unbounded latency;
// they must honor ctx and report AICalls and TokensUsed even on failure.
type AIResolver interface {
	ResolveConflict(ctx context.Context, filePath, baseline string, snapshots []semantic.TaskSnapshot, region ConflictRegion) (*MergeResult, error)
}

// Resolver orchestrates per-region resolution: auto merge first, AI second,
// human review last. One ResolveConflicts call is strictly sequential
// internally because regions merge against the evolving baseline produced by
// earlier ones; distinct calls are independent and share no state.
type Resolver struct {
	auto     *AutoMerger
	ai       AIResolver
	enableAI bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithAIResolver injects the AI resolver used for regions the auto merger
// cannot handle.
func WithAIResolver(ai AIResolver) ResolverOption {
	return func(r *Resolver) {
		r.ai = ai
	}
}

// WithAIDisabled turns off AI escalation; failed regions go straight to
// human review.
func WithAIDisabled() ResolverOption {
	return func(r *Resolver) {
		r.enableAI = false
	}
}

// NewResolver creates a Resolver. AI escalation is enabled by default but
// inert until an AI resolver is injected.
func NewResolver(auto *AutoMerger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		auto:     auto,
		enableAI: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveConflicts resolves every conflict region for one file, in input
// order, and assembles the file-level result. The decision is derived purely
// from the resolved and remaining sets: no remaining regions means
// auto_merged (or ai_merged when any region needed AI); any remaining region
// means needs_human_review.
func (r *Resolver) ResolveConflicts(
	ctx context.Context,
	filePath, baseline string,
	snapshots []semantic.TaskSnapshot,
	conflicts []ConflictRegion,
	onProgress ProgressFunc,
) *MergeResult {
	if len(conflicts) == 0 {
		return &MergeResult{
			Decision:      DecisionAutoMerged,
			FilePath:      filePath,
			MergedContent: baseline,
			Explanation:   BuildExplanation(nil, nil),
		}
	}

	var (
		working   = baseline
		resolved  []ConflictRegion
		remaining []ConflictRegion
		aiCalls   int
		tokens    int
		aiUsed    bool
	)

	for i, region := range conflicts {
		if onProgress != nil {
			onProgress(ProgressEvent{
				Stage:    StageResolving,
				Region:   i,
				Total:    len(conflicts),
				Location: region.Location,
			})
		}

		autoRes := r.auto.Merge(filePath, working, snapshots, region)
		if autoRes.Decision == DecisionAutoMerged {
			working = autoRes.MergedContent
			resolved = append(resolved, region)
			continue
		}
		if region.Reason == "" && autoRes.Error != "" {
			// Regions that were marked auto-mergeable carry no reason of
			// their own; keep the merger's error so the reviewer sees why
			// the strategy could not be applied.
			region.Reason = autoRes.Error
		}

		if !r.aiEligible(region) {
			remaining = append(remaining, region)
			continue
		}

		aiRes, err := r.resolveWithAI(ctx, filePath, working, snapshots, region)
		if aiRes != nil {
			aiCalls += aiRes.AICalls
			tokens += aiRes.TokensUsed
		}
		if err != nil || aiRes == nil || aiRes.Decision != DecisionAIMerged || aiRes.MergedContent == "" {
			if err != nil {
				log.Printf("resolver: AI resolution for %s failed: %v", region.Location, err)
			}
			remaining = append(remaining, region)
			continue
		}

		working = aiRes.MergedContent
		resolved = append(resolved, region)
		aiUsed = true
	}

	decision := DecisionAutoMerged
	switch {
	case len(remaining) > 0:
		decision = DecisionNeedsHumanReview
	case aiUsed:
		decision = DecisionAIMerged
	}

	return &MergeResult{
		Decision:           decision,
		FilePath:           filePath,
		MergedContent:      working,
		ConflictsResolved:  resolved,
		ConflictsRemaining: remaining,
		Explanation:        BuildExplanation(resolved, remaining),
		AICalls:            aiCalls,
		TokensUsed:         tokens,
	}
}

// aiEligible reports whether a region may be routed to the AI resolver.
// Critical regions never go to AI; a human must look at delete-versus-modify
// class conflicts.
func (r *Resolver) aiEligible(region ConflictRegion) bool {
	if !r.enableAI || r.ai == nil {
		return false
	}
	return region.Severity >= semantic.SeverityLow && region.Severity <= semantic.SeverityHigh
}

// resolveWithAI invokes the AI resolver, containing panics so that a
// misbehaving collaborator only fails its own region.
func (r *Resolver) resolveWithAI(
	ctx context.Context,
	filePath, baseline string,
	snapshots []semantic.TaskSnapshot,
	region ConflictRegion,
) (res *MergeResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			res = nil
			err = fmt.Errorf("ai resolver panicked: %v", rec)
		}
	}()
	return r.ai.ResolveConflict(ctx, filePath, baseline, snapshots, region)
}
