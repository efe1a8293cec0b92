// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the store and injects it into
// the tools that depend on it. No business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mresendiz/tempo/internal/config"
	"github.com/mresendiz/tempo/internal/store"
	"github.com/mresendiz/tempo/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the store's database connection and
// must be called on shutdown (typically via defer). It is always non-nil
// and safe to call.
func New() (*server.MCPServer, func(), error) {
	cfg := config.Load()

	st, err := store.New(store.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() { _ = st.Close() }

	s := server.NewMCPServer(
		"tempo",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	user := cfg.DefaultUser

	// --- Task tools ---

	taskAdd := tools.NewTaskAddTool(st, user)
	s.AddTool(taskAdd.Definition(), taskAdd.Handle)

	taskComplete := tools.NewTaskCompleteTool(st, user)
	s.AddTool(taskComplete.Definition(), taskComplete.Handle)

	taskSnooze := tools.NewTaskSnoozeTool(st, user)
	s.AddTool(taskSnooze.Definition(), taskSnooze.Handle)

	taskUpdate := tools.NewTaskUpdateTool(st, user)
	s.AddTool(taskUpdate.Definition(), taskUpdate.Handle)

	taskList := tools.NewTaskListTool(st, user)
	s.AddTool(taskList.Definition(), taskList.Handle)

	taskDelete := tools.NewTaskDeleteTool(st, user)
	s.AddTool(taskDelete.Definition(), taskDelete.Handle)

	// --- Journal tools ---

	journalAdd := tools.NewJournalAddTool(st, user, nil)
	s.AddTool(journalAdd.Definition(), journalAdd.Handle)

	journalStreak := tools.NewJournalStreakTool(st, user, nil)
	s.AddTool(journalStreak.Definition(), journalStreak.Handle)

	// --- Insight tools ---

	analyze := tools.NewAnalyzeTool(st, user, nil)
	s.AddTool(analyze.Definition(), analyze.Handle)

	insights := tools.NewInsightsTool(st, user)
	s.AddTool(insights.Definition(), insights.Handle)

	nudges := tools.NewNudgeTool(st, user, nil)
	s.AddTool(nudges.Definition(), nudges.Handle)

	stats := tools.NewStatsTool(st, user)
	s.AddTool(stats.Definition(), stats.Handle)

	return s, cleanup, nil
}

func serverInstructions() string {
	return `Tempo is a personal productivity assistant backed by a local database.

Workflow:
- Track work with task_add / task_complete / task_snooze / task_update /
  task_list / task_delete.
  Every mutation is logged to an event history with the day and time bucket
  it happened in.
- Journal with journal_add — include mood, energy_level (1-10), and any
  people or projects mentioned. journal_streak shows consecutive days and
  the Monday/Wednesday/Friday weekly goal.
- Run analyze_patterns periodically (or after a batch of activity): it scans
  the last 30 days, stores productivity patterns (peak time/day, completion
  rate by focus level, avoidance, mood correlations), and reports insights.
- Call nudges at the start of a session for situational prompts based on
  stored patterns, open tasks, and the current day/time.
- insights lists the stored patterns; stats shows raw counts.

Patterns are heuristic and advisory. If a tool reports "not enough data
yet", keep logging activity and analyze again later.`
}
