// Package pipeline composes the extractor, comparator, aggregator, and
// resolver into a single engine that reconciles full task file versions
// against a shared baseline.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dusk-indust/reconcile/internal/extract"
	"github.com/dusk-indust/reconcile/internal/merge"
	"github.com/dusk-indust/reconcile/internal/semantic"
)

// TaskVersion is one agent's complete version of a file, as produced by its
// isolated worktree.
type TaskVersion struct {
	TaskID    string    `json:"taskId"`
	Intent    string    `json:"intent,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	Content   string    `json:"content"`
}

// Engine wires extraction, comparison, aggregation, and resolution.
type Engine struct {
	extractor  extract.Extractor
	comparator *semantic.Comparator
	aggregator *merge.Aggregator
	resolver   *merge.Resolver
}

// NewEngine creates an Engine from its collaborators.
func NewEngine(extractor extract.Extractor, comparator *semantic.Comparator, aggregator *merge.Aggregator, resolver *merge.Resolver) *Engine {
	return &Engine{
		extractor:  extractor,
		comparator: comparator,
		aggregator: aggregator,
		resolver:   resolver,
	}
}

// Snapshot diffs one task version against the baseline elements into a task
// snapshot.
func (e *Engine) Snapshot(baseline *extract.FileElements, version TaskVersion, ext string) (semantic.TaskSnapshot, error) {
	after, err := e.extractor.Extract([]byte(version.Content), ext)
	if err != nil {
		return semantic.TaskSnapshot{}, fmt.Errorf("pipeline: extract task %s: %w", version.TaskID, err)
	}
	return semantic.TaskSnapshot{
		TaskID:    version.TaskID,
		Intent:    version.Intent,
		StartedAt: version.StartedAt,
		Changes:   e.comparator.Compare(baseline.Elements, after.Elements, ext),
	}, nil
}

// Compare diffs two complete versions of a file into classified semantic
// changes.
func (e *Engine) Compare(path, before, after string) ([]semantic.SemanticChange, error) {
	ext := filepath.Ext(path)

	beforeElements, err := e.extractor.Extract([]byte(before), ext)
	if err != nil {
		return nil, fmt.Errorf("pipeline: extract before of %s: %w", path, err)
	}
	afterElements, err := e.extractor.Extract([]byte(after), ext)
	if err != nil {
		return nil, fmt.Errorf("pipeline: extract after of %s: %w", path, err)
	}

	return e.comparator.Compare(beforeElements.Elements, afterElements.Elements, ext), nil
}

// prepare extracts and diffs one file's task versions into a resolvable job:
// snapshots plus aggregated conflict regions.
func (e *Engine) prepare(path, baseline string, versions []TaskVersion) (merge.FileJob, error) {
	ext := filepath.Ext(path)

	baseElements, err := e.extractor.Extract([]byte(baseline), ext)
	if err != nil {
		return merge.FileJob{}, fmt.Errorf("pipeline: extract baseline of %s: %w", path, err)
	}

	snapshots := make([]semantic.TaskSnapshot, 0, len(versions))
	for _, version := range versions {
		snap, err := e.Snapshot(baseElements, version, ext)
		if err != nil {
			return merge.FileJob{}, err
		}
		snapshots = append(snapshots, snap)
	}

	return merge.FileJob{
		Path:      path,
		Baseline:  baseline,
		Snapshots: snapshots,
		Conflicts: e.aggregator.Aggregate(path, baseline, snapshots),
	}, nil
}

// ResolveFile reconciles every task version of one file. Extraction or
// comparison failures abort the call; resolution failures never do, they
// surface inside the MergeResult.
func (e *Engine) ResolveFile(ctx context.Context, path, baseline string, versions []TaskVersion, onProgress merge.ProgressFunc) (*merge.MergeResult, error) {
	job, err := e.prepare(path, baseline, versions)
	if err != nil {
		return nil, err
	}
	return e.resolver.ResolveConflicts(ctx, job.Path, job.Baseline, job.Snapshots, job.Conflicts, onProgress), nil
}

// FileRequest is one file in a batch: its path, baseline content, and the
// task versions that touched it.
type FileRequest struct {
	Path     string
	Baseline string
	Versions []TaskVersion
}

// ResolveMany reconciles independent files, up to limit at a time (values
// below 1 mean unbounded). Extraction runs up front and aborts the whole
// batch on failure; resolution outcomes land in the per-file MergeResults,
// positionally aligned with reqs.
func (e *Engine) ResolveMany(ctx context.Context, reqs []FileRequest, limit int, onProgress merge.ProgressFunc) ([]*merge.MergeResult, error) {
	jobs := make([]merge.FileJob, 0, len(reqs))
	for _, req := range reqs {
		job, err := e.prepare(req.Path, req.Baseline, req.Versions)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return merge.ResolveFiles(ctx, e.resolver, jobs, limit, onProgress)
}
