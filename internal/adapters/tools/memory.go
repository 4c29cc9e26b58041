package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/google/uuid"
)

const (
	memoryCategoryManual = "manual"
	defaultRecallLimit   = 5
)

// memoryTool saves a note when given content, otherwise searches the agent's notes.
type memoryTool struct {
	store   ports.MemoryStore
	session domain.Session
	agent   domain.Agent
	clock   ports.Clock
}

func (t *memoryTool) Name() string { return domain.ToolMemory }

func (t *memoryTool) Description() string {
	return "Long-term memory. Pass content (and optional title) to save a note, or query to search saved notes."
}

func (t *memoryTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	action := strings.ToLower(strings.TrimSpace(args["action"]))
	content := strings.TrimSpace(firstArg(args, "content", "note", "text"))
	if action == "save" || (action == "" && content != "") {
		return t.save(ctx, args, content)
	}
	return t.search(ctx, args)
}

func (t *memoryTool) save(ctx context.Context, args map[string]string, content string) (string, error) {
	if content == "" {
		return "", errors.New("memory save needs content")
	}

	title := strings.TrimSpace(args["title"])
	if title == "" {
		title = strings.SplitN(content, "\n", 2)[0]
	}
	category := strings.TrimSpace(args["category"])
	if category == "" {
		category = memoryCategoryManual
	}

	entry := domain.MemoryEntry{
		ID:        uuid.NewString(),
		SessionID: t.session.ID,
		AgentID:   t.agentID(),
		Category:  category,
		Title:     title,
		Content:   content,
		CreatedAt: t.clock.Now(),
	}
	if err := t.store.Add(ctx, entry); err != nil {
		return "", fmt.Errorf("save memory: %w", err)
	}
	return "Saved note " + strconv.Quote(title) + ".", nil
}

func (t *memoryTool) search(ctx context.Context, args map[string]string) (string, error) {
	query := strings.TrimSpace(firstArg(args, "query", "task", "q"))
	limit := defaultRecallLimit
	if raw := args["limit"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := t.store.Search(ctx, t.agentID(), query, limit)
	if err != nil {
		return "", fmt.Errorf("search memory: %w", err)
	}
	if len(entries) == 0 {
		return "No matching notes.", nil
	}

	var out strings.Builder
	for i, entry := range entries {
		if i > 0 {
			out.WriteString("\n\n")
		}
		fmt.Fprintf(&out, "## %s (%s)\n%s", entry.Title, entry.CreatedAt.Format("2006-01-02"), entry.Content)
	}
	return out.String(), nil
}

func (t *memoryTool) agentID() domain.AgentID {
	if t.agent.ID != "" {
		return t.agent.ID
	}
	return t.session.AgentID
}

func firstArg(args map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := args[key]; strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
