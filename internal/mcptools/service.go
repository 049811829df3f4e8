// Package mcptools exposes the merge engine as MCP tools so coding-agent
// frontends can compare and reconcile file versions over the Model Context
// Protocol.
package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/reconcile/internal/merge"
	"github.com/dusk-indust/reconcile/internal/pipeline"
	"github.com/dusk-indust/reconcile/internal/semantic"
)

// MergeService holds the engine used by MCP tool handlers.
type MergeService struct {
	engine *pipeline.Engine
}

// NewMergeService creates a MergeService backed by the given engine.
func NewMergeService(engine *pipeline.Engine) *MergeService {
	return &MergeService{engine: engine}
}

// --- MCP Tool Input/Output Types ---
// These structs define the JSON schema for each MCP tool.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// TaskVersionInput is one agent's version of the file.
type TaskVersionInput struct {
	TaskID  string `json:"taskId" jsonschema:"identifier of the agent task that produced this version"`
	Intent  string `json:"intent,omitempty" jsonschema:"short description of what the task set out to do"`
	Content string `json:"content" jsonschema:"the complete file content produced by the task"`
}

// CompareChangesInput is the input for the compare_changes MCP tool.
type CompareChangesInput struct {
	Path   string `json:"path" jsonschema:"file path; the extension selects the language grammar"`
	Before string `json:"before" jsonschema:"baseline file content"`
	After  string `json:"after" jsonschema:"modified file content"`
}

// CompareChangesOutput is the result of the compare_changes MCP tool.
type CompareChangesOutput struct {
	Changes []semantic.SemanticChange `json:"changes"`
	Total   int                       `json:"total"`
}

// ResolveConflictsInput is the input for the resolve_conflicts MCP tool.
type ResolveConflictsInput struct {
	Path     string             `json:"path" jsonschema:"file path; the extension selects the language grammar"`
	Baseline string             `json:"baseline" jsonschema:"the shared baseline content all tasks started from"`
	Tasks    []TaskVersionInput `json:"tasks" jsonschema:"the concurrent task versions to reconcile"`
}

// ResolveConflictsOutput is the result of the resolve_conflicts MCP tool.
type ResolveConflictsOutput struct {
	Result merge.MergeResult `json:"result"`
}

// CompareChanges diffs two versions of a file into classified semantic
// changes.
func (s *MergeService) CompareChanges(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareChangesInput,
) (*mcp.CallToolResult, CompareChangesOutput, error) {
	if input.Path == "" {
		return nil, CompareChangesOutput{}, fmt.Errorf("path is required")
	}

	changes, err := s.engine.Compare(input.Path, input.Before, input.After)
	if err != nil {
		return nil, CompareChangesOutput{}, err
	}

	return nil, CompareChangesOutput{
		Changes: changes,
		Total:   len(changes),
	}, nil
}

// ResolveConflicts reconciles concurrent task versions of one file and
// returns the merge result, including the explanation and any regions left
// for human review.
func (s *MergeService) ResolveConflicts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveConflictsInput,
) (*mcp.CallToolResult, ResolveConflictsOutput, error) {
	if input.Path == "" {
		return nil, ResolveConflictsOutput{}, fmt.Errorf("path is required")
	}
	if len(input.Tasks) == 0 {
		return nil, ResolveConflictsOutput{}, fmt.Errorf("at least one task version is required")
	}

	versions := make([]pipeline.TaskVersion, 0, len(input.Tasks))
	for _, task := range input.Tasks {
		if task.TaskID == "" {
			return nil, ResolveConflictsOutput{}, fmt.Errorf("every task needs a taskId")
		}
		versions = append(versions, pipeline.TaskVersion{
			TaskID:    task.TaskID,
			Intent:    task.Intent,
			StartedAt: time.Now().UTC(),
			Content:   task.Content,
		})
	}

	result, err := s.engine.ResolveFile(ctx, input.Path, input.Baseline, versions, nil)
	if err != nil {
		return nil, ResolveConflictsOutput{}, err
	}
	return nil, ResolveConflictsOutput{Result: *result}, nil
}
