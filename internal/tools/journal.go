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

// ─── JournalAddTool ──────────────────────────────────────────────────────────

// JournalAddTool handles the journal_add MCP tool.
type JournalAddTool struct {
	store       *store.Store
	defaultUser string
	now         func() time.Time
}

// NewJournalAddTool creates a JournalAddTool.
func NewJournalAddTool(st *store.Store, defaultUser string, now func() time.Time) *JournalAddTool {
	if now == nil {
		now = time.Now
	}
	return &JournalAddTool{store: st, defaultUser: defaultUser, now: now}
}

// Definition returns the MCP tool definition for journal_add.
func (t *JournalAddTool) Definition() mcp.Tool {
	return mcp.NewTool("journal_add",
		mcp.WithDescription(
			"Write a journal entry. Mood, energy level, and mentioned people/projects feed the pattern analyzer.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The entry text"),
		),
		mcp.WithString("mood",
			mcp.Description("One of: calm, excited, grateful, hopeful, content, focused, anxious, frustrated, sad, angry, overwhelmed, scattered"),
		),
		mcp.WithNumber("energy_level",
			mcp.Description("Energy level 1-10"),
		),
		mcp.WithString("entry_date",
			mcp.Description("Calendar day the entry is about, YYYY-MM-DD (default today)"),
		),
		mcp.WithString("entry_type",
			mcp.Description("Entry kind, e.g. freeform, gratitude, review (default freeform)"),
		),
		mcp.WithString("entities",
			mcp.Description("Comma-separated mentions as type:value:sentiment, e.g. 'person:ana:positive, project:launch:negative'"),
		),
		mcp.WithString("user",
			mcp.Description("User the entry belongs to (defaults to the configured user)"),
		),
	)
}

// Handle processes the journal_add tool call.
func (t *JournalAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	userID := req.GetString("user", t.defaultUser)
	entry, err := t.store.AddEntry(store.AddEntryParams{
		UserID:      userID,
		EntryDate:   req.GetString("entry_date", ""),
		EntryType:   req.GetString("entry_type", ""),
		Content:     content,
		Mood:        req.GetString("mood", ""),
		EnergyLevel: intArg(req, "energy_level", 0),
		Entities:    parseEntities(req.GetString("entities", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add entry: %v", err)), nil
	}

	response := fmt.Sprintf("Journal entry saved for %s (ID: %s)", entry.EntryDate, entry.ID)
	if len(entry.Entities) > 0 {
		response += fmt.Sprintf("\nEntities recorded: %d", len(entry.Entities))
	}

	// Streak decoration is best-effort — the entry is already saved.
	if status, err := insight.JournalStreak(t.store, userID, t.now()); err == nil {
		response += fmt.Sprintf("\nStreak: %d day(s), %d entry day(s) this week", status.Streak, status.ThisWeek)
	}

	return mcp.NewToolResultText(response), nil
}

// parseEntities splits "type:value:sentiment, ..." into entity rows.
// Sentiment is optional and defaults to neutral.
func parseEntities(raw string) []store.Entity {
	var entities []store.Entity
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 3)
		if len(fields) < 2 {
			continue
		}
		e := store.Entity{
			Type:  strings.TrimSpace(fields[0]),
			Value: strings.TrimSpace(fields[1]),
		}
		if len(fields) == 3 {
			e.Sentiment = strings.TrimSpace(fields[2])
		}
		entities = append(entities, e)
	}
	return entities
}

// ─── JournalStreakTool ───────────────────────────────────────────────────────

// JournalStreakTool handles the journal_streak MCP tool.
type JournalStreakTool struct {
	store       *store.Store
	defaultUser string
	now         func() time.Time
}

// NewJournalStreakTool creates a JournalStreakTool.
func NewJournalStreakTool(st *store.Store, defaultUser string, now func() time.Time) *JournalStreakTool {
	if now == nil {
		now = time.Now
	}
	return &JournalStreakTool{store: st, defaultUser: defaultUser, now: now}
}

// Definition returns the MCP tool definition for journal_streak.
func (t *JournalStreakTool) Definition() mcp.Tool {
	return mcp.NewTool("journal_streak",
		mcp.WithDescription("Show the journaling streak and this week's Monday/Wednesday/Friday goal."),
		mcp.WithString("user",
			mcp.Description("User to report on (defaults to the configured user)"),
		),
	)
}

// Handle processes the journal_streak tool call.
func (t *JournalStreakTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := insight.JournalStreak(t.store, req.GetString("user", t.defaultUser), t.now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute streak: %v", err)), nil
	}

	mark := func(done bool) string {
		if done {
			return "done"
		}
		return "pending"
	}

	var sb strings.Builder
	sb.WriteString("## Journaling Streak\n\n")
	fmt.Fprintf(&sb, "- **Streak**: %d consecutive day(s)\n", status.Streak)
	fmt.Fprintf(&sb, "- **This week**: %d day(s) with entries\n", status.ThisWeek)
	fmt.Fprintf(&sb, "- Monday: %s | Wednesday: %s | Friday: %s\n",
		mark(status.Monday), mark(status.Wednesday), mark(status.Friday))

	return mcp.NewToolResultText(sb.String()), nil
}
