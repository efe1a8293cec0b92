package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mresendiz/tempo/internal/insight"
	"github.com/mresendiz/tempo/internal/store"
)

// ─── AnalyzeTool ─────────────────────────────────────────────────────────────

// AnalyzeTool handles the analyze_patterns MCP tool.
type AnalyzeTool struct {
	analyzer    *insight.Analyzer
	defaultUser string
	now         func() time.Time
}

// NewAnalyzeTool creates an AnalyzeTool over the given store.
func NewAnalyzeTool(st *store.Store, defaultUser string, now func() time.Time) *AnalyzeTool {
	if now == nil {
		now = time.Now
	}
	return &AnalyzeTool{analyzer: insight.NewAnalyzer(st), defaultUser: defaultUser, now: now}
}

// Definition returns the MCP tool definition for analyze_patterns.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_patterns",
		mcp.WithDescription(
			"Analyze the last 30 days of task and journal history, store the detected patterns, and report insights.",
		),
		mcp.WithString("user",
			mcp.Description("User to analyze (defaults to the configured user)"),
		),
	)
}

// Handle processes the analyze_patterns tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysis, err := t.analyzer.Analyze(req.GetString("user", t.defaultUser), t.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	if len(analysis.Insights) == 0 {
		return mcp.NewToolResultText("Not enough data yet — keep completing tasks and journaling, then analyze again."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Insights (%d)\n\n", len(analysis.Insights))
	for _, ins := range analysis.Insights {
		fmt.Fprintf(&sb, "- %s\n", ins)
	}
	if len(analysis.Skipped) > 0 {
		sb.WriteString("\nSkipped detections:\n")
		for _, sk := range analysis.Skipped {
			fmt.Fprintf(&sb, "- %s: %s\n", sk.Detection, sk.Reason)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── InsightsTool ────────────────────────────────────────────────────────────

// InsightsTool handles the insights MCP tool — it reads the stored
// patterns without recomputing them.
type InsightsTool struct {
	store       *store.Store
	defaultUser string
}

// NewInsightsTool creates an InsightsTool.
func NewInsightsTool(st *store.Store, defaultUser string) *InsightsTool {
	return &InsightsTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for insights.
func (t *InsightsTool) Definition() mcp.Tool {
	return mcp.NewTool("insights",
		mcp.WithDescription("Show stored productivity patterns, strongest first. Run analyze_patterns to refresh them."),
		mcp.WithString("user",
			mcp.Description("User to report on (defaults to the configured user)"),
		),
	)
}

// Handle processes the insights tool call.
func (t *InsightsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user", t.defaultUser)

	// A failing pattern read degrades to an empty list — the tool then
	// reports "not enough data" instead of an opaque error.
	patterns, err := t.store.Patterns(userID)
	if err != nil {
		patterns = nil
	}
	journalPatterns, err := t.store.JournalPatterns(userID)
	if err != nil {
		journalPatterns = nil
	}

	if len(patterns) == 0 && len(journalPatterns) == 0 {
		return mcp.NewToolResultText("Not enough data yet — run analyze_patterns after some task and journal activity."), nil
	}

	var sb strings.Builder
	if len(patterns) > 0 {
		sb.WriteString("## Task Patterns\n\n")
		for _, p := range patterns {
			fmt.Fprintf(&sb, "- %s (confidence %.2f): %s\n", p.PatternType, p.Confidence, p.PatternData)
		}
	}
	if len(journalPatterns) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## Journal Patterns\n\n")
		for _, p := range journalPatterns {
			fmt.Fprintf(&sb, "- %s (confidence %.2f): %s\n", p.PatternType, p.Confidence, p.PatternData)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── NudgeTool ───────────────────────────────────────────────────────────────

// NudgeTool handles the nudges MCP tool.
type NudgeTool struct {
	store       *store.Store
	defaultUser string
	now         func() time.Time
}

// NewNudgeTool creates a NudgeTool.
func NewNudgeTool(st *store.Store, defaultUser string, now func() time.Time) *NudgeTool {
	if now == nil {
		now = time.Now
	}
	return &NudgeTool{store: st, defaultUser: defaultUser, now: now}
}

// Definition returns the MCP tool definition for nudges.
func (t *NudgeTool) Definition() mcp.Tool {
	return mcp.NewTool("nudges",
		mcp.WithDescription("Get situational nudges from stored patterns, open tasks, and the current day/time."),
		mcp.WithString("user",
			mcp.Description("User to nudge (defaults to the configured user)"),
		),
	)
}

// Handle processes the nudges tool call.
func (t *NudgeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user", t.defaultUser)
	now := t.now()

	// Pattern reads degrade to empty lists so the generator always gets
	// well-formed input.
	patterns, err := t.store.Patterns(userID)
	if err != nil {
		patterns = nil
	}
	journalPatterns, err := t.store.JournalPatterns(userID)
	if err != nil {
		journalPatterns = nil
	}

	openTasks, err := t.store.OpenTasks(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load open tasks: %v", err)), nil
	}

	journaledToday, err := t.store.HasEntryOn(userID, store.DateOf(now))
	if err != nil {
		journaledToday = false
	}

	nudges := insight.EnhancedNudges(patterns, journalPatterns, openTasks, journaledToday, now)
	if len(nudges) == 0 {
		return mcp.NewToolResultText("No nudges right now."), nil
	}

	var sb strings.Builder
	sb.WriteString("## Nudges\n\n")
	for _, n := range nudges {
		fmt.Fprintf(&sb, "- %s\n", n)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── StatsTool ───────────────────────────────────────────────────────────────

// StatsTool handles the stats MCP tool.
type StatsTool struct {
	store       *store.Store
	defaultUser string
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(st *store.Store, defaultUser string) *StatsTool {
	return &StatsTool{store: st, defaultUser: defaultUser}
}

// Definition returns the MCP tool definition for stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("stats",
		mcp.WithDescription("Show row counts — tasks, events, journal entries, and stored patterns."),
		mcp.WithString("user",
			mcp.Description("User to report on (defaults to the configured user)"),
		),
	)
}

// Handle processes the stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	totals := t.store.Stats(req.GetString("user", t.defaultUser))

	var sb strings.Builder
	sb.WriteString("## Tempo Statistics\n\n")
	fmt.Fprintf(&sb, "- **Open tasks**: %d\n", totals.OpenTasks)
	fmt.Fprintf(&sb, "- **Completed tasks**: %d\n", totals.CompletedTasks)
	fmt.Fprintf(&sb, "- **Events**: %d\n", totals.Events)
	fmt.Fprintf(&sb, "- **Journal entries**: %d\n", totals.JournalEntries)
	fmt.Fprintf(&sb, "- **Patterns**: %d task, %d journal\n", totals.Patterns, totals.JournalPatterns)

	return mcp.NewToolResultText(sb.String()), nil
}
