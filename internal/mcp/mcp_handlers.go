package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/devhealth/core/algo"
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	mgr contract.StoreManager
}

// runStore returns the configured run store, or an error result when run
// tracking is off.
func (h *toolHandler) runStore() (contract.RunStore, *mcp.CallToolResult) {
	if h.mgr == nil || h.mgr.GetRunStore() == nil {
		return nil, mcp.NewToolResultError("run store is not configured")
	}
	return h.mgr.GetRunStore(), nil
}

type runView struct {
	RunID          int64  `json:"runId"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime,omitempty"`
	DurationMs     int32  `json:"durationMs,omitempty"`
	ProjectsTotal  int32  `json:"projectsTotal"`
	ProjectsFailed int32  `json:"projectsFailed"`
}

func (h *toolHandler) handleGetRunHistory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, errRes := h.runStore()
	if errRes != nil {
		return errRes, nil
	}
	runs, err := store.GetAllRuns()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read runs: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 && len(runs) > l {
		runs = runs[:l]
	}

	views := make([]runView, len(runs))
	for i, r := range runs {
		v := runView{
			RunID:          r.RunID,
			StartTime:      r.StartTime.Format(contract.DateTimeFormat),
			ProjectsTotal:  r.ProjectsTotal,
			ProjectsFailed: r.ProjectsFailed,
		}
		if r.EndTime != nil {
			v.EndTime = r.EndTime.Format(contract.DateTimeFormat)
		}
		if r.RunDurationMs != nil {
			v.DurationMs = *r.RunDurationMs
		}
		views[i] = v
	}
	return jsonResult(views)
}

func (h *toolHandler) handleGetRepoRatings(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, errRes := h.runStore()
	if errRes != nil {
		return errRes, nil
	}

	runID := int64(request.GetInt("run_id", 0))
	if runID <= 0 {
		latest, err := store.LatestRunID()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to find the latest run: %v", err)), nil
		}
		if latest == 0 {
			return mcp.NewToolResultError("no runs stored yet"), nil
		}
		runID = latest
	}

	records, err := store.GetRepoRatings(runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read ratings of run %d: %v", runID, err)), nil
	}

	project := request.GetString("project", "")
	type ratedRow struct {
		schema.RollupRow
		Label string `json:"label"`
	}
	var rows []schema.RollupRow
	for _, r := range records {
		if matchesProject(project, r.Collection, r.Project) {
			rows = append(rows, r.RollupRow())
		}
	}
	rows = algo.RankRepos(rows, 0)

	out := struct {
		RunID int64      `json:"runId"`
		Repos []ratedRow `json:"repos"`
	}{RunID: runID, Repos: make([]ratedRow, len(rows))}
	for i, r := range rows {
		out.Repos[i] = ratedRow{RollupRow: r, Label: contract.GetPlainLabel(r.Rating)}
	}
	return jsonResult(out)
}

// matchesProject accepts "project" or "collection/project". An empty filter matches all.
func matchesProject(filter, collection, project string) bool {
	if filter == "" {
		return true
	}
	if c, p, ok := strings.Cut(filter, "/"); ok {
		return c == collection && p == project
	}
	return filter == project
}

func (h *toolHandler) handleRateValue(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("formula")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	baseline, err := request.RequireFloat("baseline")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if baseline == 0 && name != rating.NameDeviation && name != rating.NameRemainingFrom {
		return mcp.NewToolResultError("baseline must not be 0 for " + name), nil
	}

	f, err := rating.ByName(name, baseline, request.GetFloat("factor", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r := f(value)
	return jsonResult(map[string]any{
		"formula":  name,
		"baseline": baseline,
		"value":    value,
		"rating":   r,
		"label":    contract.GetPlainLabel(r),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
