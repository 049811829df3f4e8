package merge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/reconcile/internal/semantic"
)

// FileJob is one file to resolve: its baseline, the task snapshots touching
// it, and the pre-aggregated conflict regions.
type FileJob struct {
	Path      string
	Baseline  string
	Snapshots []semantic.TaskSnapshot
	Conflicts []ConflictRegion
}

// ResolveFiles resolves independent files concurrently. Each file is still
// resolved strictly sequentially inside its own ResolveConflicts call; only
// cross-file work runs in parallel, which is safe because calls share no
// state. limit caps concurrency; values below 1 mean unbounded.
//
// Results are positionally aligned with jobs. The returned error is ctx
// cancellation, the only way a job can fail to produce a result.
func ResolveFiles(ctx context.Context, r *Resolver, jobs []FileJob, limit int, onProgress ProgressFunc) ([]*MergeResult, error) {
	results := make([]*MergeResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.ResolveConflicts(gctx, job.Path, job.Baseline, job.Snapshots, job.Conflicts, onProgress)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
