package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dusk-indust/reconcile/internal/airesolver"
	"github.com/dusk-indust/reconcile/internal/config"
	"github.com/dusk-indust/reconcile/internal/extract"
	"github.com/dusk-indust/reconcile/internal/mcptools"
	"github.com/dusk-indust/reconcile/internal/merge"
	"github.com/dusk-indust/reconcile/internal/pipeline"
	"github.com/dusk-indust/reconcile/internal/report"
	"github.com/dusk-indust/reconcile/internal/semantic"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Baseline  string
	Tasks     taskList
	Dir       bool
	Agent     string
	DisableAI bool
	Output    string
	Report    string
	Diagram   string
	ServeMCP  string
	Verbose   bool
	Version   bool
}

// taskList collects repeated -task flags of the form "taskID=path".
type taskList []taskArg

type taskArg struct {
	id   string
	path string
}

func (t *taskList) String() string {
	parts := make([]string, 0, len(*t))
	for _, task := range *t {
		parts = append(parts, task.id+"="+task.path)
	}
	return strings.Join(parts, ",")
}

func (t *taskList) Set(value string) error {
	id, path, ok := strings.Cut(value, "=")
	if !ok || id == "" || path == "" {
		return fmt.Errorf("expected taskID=path, got %q", value)
	}
	*t = append(*t, taskArg{id: id, path: path})
	return nil
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.StringVar(&flags.Baseline, "baseline", "", "path to the shared baseline file")
	fs.Var(&flags.Tasks, "task", "task version as taskID=path (repeatable)")
	fs.BoolVar(&flags.Dir, "dir", false, "treat -baseline and -task paths as directories and merge every changed file")
	fs.StringVar(&flags.Agent, "agent", "", "resolver agent endpoint URL")
	fs.BoolVar(&flags.DisableAI, "disable-ai", false, "never escalate conflicts to the resolver agent")
	fs.StringVar(&flags.Output, "o", "", "write merged content to this path (default: stdout)")
	fs.StringVar(&flags.Report, "report", "", "write a JSON resolution report to this path")
	fs.StringVar(&flags.Diagram, "diagram", "", "write a Mermaid diagram of the resolution to this path")
	fs.StringVar(&flags.ServeMCP, "serve-mcp", "", "serve the merge MCP tools on this address instead of merging")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print per-region progress")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.Agent == "" {
		flags.Agent = cfg.AgentEndpoint
	}
	flags.DisableAI = flags.DisableAI || cfg.DisableAI
	flags.Verbose = flags.Verbose || cfg.Verbose

	engine := buildEngine(flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flags.ServeMCP != "" {
		svc := mcptools.NewMergeService(engine)
		return mcptools.RunMCPServer(ctx, svc, flags.ServeMCP)
	}

	if flags.Dir {
		return resolveDir(ctx, engine, flags, cfg)
	}
	return resolveOnce(ctx, engine, flags)
}

// startProgress wires a drained ProgressReporter to stderr. The returned
// flush closes the reporter and waits for the drain goroutine to finish, so
// buffered events are printed before the caller moves on.
func startProgress(verbose bool) (merge.ProgressFunc, func()) {
	if !verbose {
		return nil, func() {}
	}

	reporter := merge.NewProgressReporter()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range reporter.Subscribe() {
			fmt.Fprintln(os.Stderr, merge.FormatProgress(ev))
		}
	}()

	return reporter.Emit, func() {
		reporter.Close()
		<-drained
	}
}

// buildEngine wires the extractor, comparator, aggregator, and resolver.
func buildEngine(flags cliFlags) *pipeline.Engine {
	var opts []merge.ResolverOption
	if flags.Agent != "" {
		opts = append(opts, merge.WithAIResolver(airesolver.NewClient(flags.Agent)))
	}
	if flags.DisableAI {
		opts = append(opts, merge.WithAIDisabled())
	}

	return pipeline.NewEngine(
		extract.NewTreeSitterExtractor(),
		semantic.NewComparator(),
		merge.NewAggregator(),
		merge.NewResolver(merge.NewAutoMerger(), opts...),
	)
}

// resolveOnce merges one file from the CLI inputs and reports the outcome.
func resolveOnce(ctx context.Context, engine *pipeline.Engine, flags cliFlags) error {
	if flags.Baseline == "" {
		return fmt.Errorf("-baseline is required")
	}
	if len(flags.Tasks) == 0 {
		return fmt.Errorf("at least one -task taskID=path is required")
	}

	baseline, err := os.ReadFile(flags.Baseline)
	if err != nil {
		return fmt.Errorf("read baseline: %w", err)
	}

	versions := make([]pipeline.TaskVersion, 0, len(flags.Tasks))
	for _, task := range flags.Tasks {
		content, err := os.ReadFile(task.path)
		if err != nil {
			return fmt.Errorf("read task %s: %w", task.id, err)
		}
		versions = append(versions, pipeline.TaskVersion{
			TaskID:    task.id,
			StartedAt: time.Now().UTC(),
			Content:   string(content),
		})
	}

	onProgress, flush := startProgress(flags.Verbose)
	result, err := engine.ResolveFile(ctx, flags.Baseline, string(baseline), versions, onProgress)
	flush()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, result.Explanation)

	if flags.Report != "" {
		if err := report.WriteJSON(result, flags.Report); err != nil {
			return err
		}
	}
	if flags.Diagram != "" {
		if err := os.WriteFile(flags.Diagram, []byte(report.GenerateMermaid(result)), 0o644); err != nil {
			return fmt.Errorf("write diagram: %w", err)
		}
	}

	if result.MergedContent != "" {
		if flags.Output != "" {
			if err := os.WriteFile(flags.Output, []byte(result.MergedContent), 0o644); err != nil {
				return fmt.Errorf("write merged content: %w", err)
			}
		} else {
			fmt.Print(result.MergedContent)
		}
	}

	switch result.Decision {
	case merge.DecisionAutoMerged, merge.DecisionAIMerged:
		return nil
	case merge.DecisionNeedsHumanReview:
		return fmt.Errorf("%d conflict(s) need human review", len(result.ConflictsRemaining))
	default:
		return fmt.Errorf("merge failed: %s", result.Error)
	}
}

// resolveDir merges every supported file under the baseline directory that at
// least one task directory also contains. Files are resolved concurrently up
// to the configured limit; merged content goes under the -o directory.
func resolveDir(ctx context.Context, engine *pipeline.Engine, flags cliFlags, cfg *config.ProjectConfig) error {
	if flags.Baseline == "" {
		return fmt.Errorf("-baseline is required")
	}
	if len(flags.Tasks) == 0 {
		return fmt.Errorf("at least one -task taskID=path is required")
	}

	paths, err := collectFiles(flags.Baseline, extract.ExtensionsFor(cfg.Languages))
	if err != nil {
		return fmt.Errorf("scan baseline dir: %w", err)
	}

	var reqs []pipeline.FileRequest
	for _, rel := range paths {
		baseline, err := os.ReadFile(filepath.Join(flags.Baseline, rel))
		if err != nil {
			return fmt.Errorf("read baseline %s: %w", rel, err)
		}

		var versions []pipeline.TaskVersion
		for _, task := range flags.Tasks {
			content, err := os.ReadFile(filepath.Join(task.path, rel))
			if errors.Is(err, os.ErrNotExist) {
				// Task did not touch this file.
				continue
			}
			if err != nil {
				return fmt.Errorf("read task %s version of %s: %w", task.id, rel, err)
			}
			versions = append(versions, pipeline.TaskVersion{
				TaskID:    task.id,
				StartedAt: time.Now().UTC(),
				Content:   string(content),
			})
		}
		if len(versions) == 0 {
			continue
		}
		reqs = append(reqs, pipeline.FileRequest{
			Path:     rel,
			Baseline: string(baseline),
			Versions: versions,
		})
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no files under %s were modified by any task", flags.Baseline)
	}

	onProgress, flush := startProgress(flags.Verbose)
	results, err := engine.ResolveMany(ctx, reqs, cfg.Concurrency, onProgress)
	flush()
	if err != nil {
		return err
	}

	var unresolved int
	for i, result := range results {
		fmt.Fprintf(os.Stderr, "%s: %s\n", reqs[i].Path, result.Decision)

		if result.Decision == merge.DecisionNeedsHumanReview || result.Decision == merge.DecisionFailed {
			fmt.Fprintln(os.Stderr, result.Explanation)
			unresolved++
			continue
		}
		if flags.Output != "" && result.MergedContent != "" {
			out := filepath.Join(flags.Output, reqs[i].Path)
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			if err := os.WriteFile(out, []byte(result.MergedContent), 0o644); err != nil {
				return fmt.Errorf("write merged content: %w", err)
			}
		}
	}

	if unresolved > 0 {
		return fmt.Errorf("%d file(s) need human review", unresolved)
	}
	return nil
}

// collectFiles lists files under root with one of the given extensions, as
// sorted root-relative paths.
func collectFiles(root string, exts map[string]bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	return paths, err
}
