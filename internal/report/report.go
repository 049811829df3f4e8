// Package report renders merge results for humans and downstream tooling:
// a JSON document for programmatic consumers and a Mermaid diagram showing
// how each conflict region was routed.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dusk-indust/reconcile/internal/merge"
)

// MergeReport is the top-level JSON export structure.
type MergeReport struct {
	FilePath    string         `json:"filePath"`
	GeneratedAt string         `json:"generatedAt"`
	Decision    merge.Decision `json:"decision"`
	Regions     []RegionReport `json:"regions,omitempty"`
	AICalls     int            `json:"aiCallsMade"`
	TokensUsed  int            `json:"tokensUsed"`
	Explanation string         `json:"explanation,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// RegionReport describes the outcome of one conflict region.
type RegionReport struct {
	Location      string         `json:"location"`
	TasksInvolved []string       `json:"tasksInvolved"`
	Severity      string         `json:"severity"`
	Status        string         `json:"status"`
	Strategy      merge.Strategy `json:"strategy,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// Region statuses in a report.
const (
	StatusResolved   = "resolved"
	StatusNeedsHuman = "needs_human_review"
)

// Build assembles a MergeReport from a merge result.
func Build(result *merge.MergeResult) *MergeReport {
	report := &MergeReport{
		FilePath:    result.FilePath,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Decision:    result.Decision,
		AICalls:     result.AICalls,
		TokensUsed:  result.TokensUsed,
		Explanation: result.Explanation,
		Error:       result.Error,
	}

	for _, region := range result.ConflictsResolved {
		report.Regions = append(report.Regions, RegionReport{
			Location:      region.Location,
			TasksInvolved: region.TasksInvolved,
			Severity:      region.Severity.String(),
			Status:        StatusResolved,
			Strategy:      region.Strategy,
		})
	}
	for _, region := range result.ConflictsRemaining {
		report.Regions = append(report.Regions, RegionReport{
			Location:      region.Location,
			TasksInvolved: region.TasksInvolved,
			Severity:      region.Severity.String(),
			Status:        StatusNeedsHuman,
			Reason:        region.Reason,
		})
	}

	return report
}

// WriteJSON builds the report and writes it to path as indented JSON.
func WriteJSON(result *merge.MergeResult, path string) error {
	report := Build(result)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
