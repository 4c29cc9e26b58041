package domain

import "strings"

const (
	ToolShell            = "shell"
	ToolProcess          = "process"
	ToolFiles            = "files"
	ToolEditFile         = "edit_file"
	ToolBrowser          = "browser"
	ToolWebSearch        = "web_search"
	ToolWebFetch         = "web_fetch"
	ToolMemory           = "memory"
	ToolConnectorSend    = "connector_message_send"
	ToolManageSchedules  = "manage_schedules"
	ToolManageTasks      = "manage_tasks"
	ToolDelegateClaude   = "delegate_to_claude_code"
	ToolDelegateCodex    = "delegate_to_codex_cli"
	ToolDelegateOpenCode = "delegate_to_opencode_cli"
)

type ToolCategory string

const (
	CategoryExecution  ToolCategory = "execution"
	CategoryFilesystem ToolCategory = "filesystem"
	CategoryBrowser    ToolCategory = "browser"
	CategoryWeb        ToolCategory = "web"
	CategoryMemory     ToolCategory = "memory"
	CategoryOutbound   ToolCategory = "outbound"
	CategoryPlatform   ToolCategory = "platform"
	CategoryDelegation ToolCategory = "delegation"
)

var toolCategories = map[string]ToolCategory{
	ToolShell:            CategoryExecution,
	ToolProcess:          CategoryExecution,
	ToolFiles:            CategoryFilesystem,
	ToolEditFile:         CategoryFilesystem,
	ToolBrowser:          CategoryBrowser,
	ToolWebSearch:        CategoryWeb,
	ToolWebFetch:         CategoryWeb,
	ToolMemory:           CategoryMemory,
	ToolConnectorSend:    CategoryOutbound,
	ToolManageSchedules:  CategoryPlatform,
	ToolManageTasks:      CategoryPlatform,
	ToolDelegateClaude:   CategoryDelegation,
	ToolDelegateCodex:    CategoryDelegation,
	ToolDelegateOpenCode: CategoryDelegation,
}

// KnownTools lists the tool names the engine recognises in free text, longest first
// so that prefix-sharing names match greedily.
var KnownTools = []string{
	ToolDelegateOpenCode,
	ToolConnectorSend,
	ToolDelegateClaude,
	ToolDelegateCodex,
	ToolManageSchedules,
	ToolManageTasks,
	ToolWebSearch,
	ToolEditFile,
	ToolWebFetch,
	ToolProcess,
	ToolBrowser,
	ToolMemory,
	ToolShell,
	ToolFiles,
}

// CategoryOf returns the tool category, or "" for unknown tools.
func CategoryOf(tool string) ToolCategory {
	return toolCategories[NormalizeToolName(tool)]
}

func IsDelegateTool(tool string) bool {
	return CategoryOf(tool) == CategoryDelegation
}

func NormalizeToolName(tool string) string {
	return strings.ToLower(strings.TrimSpace(tool))
}

// NormalizeToolList trims, lowercases and deduplicates a tool list, keeping first-seen order.
func NormalizeToolList(tools []string) []string {
	out := make([]string, 0, len(tools))
	seen := make(map[string]struct{}, len(tools))
	for _, tool := range tools {
		name := NormalizeToolName(tool)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// ToolCallRequest is the structured form of a tool call, whether it came from
// a stream event or from the free-text adapter.
type ToolCallRequest struct {
	Tool string
	Args map[string]string
	// Task is the quoted task text, when the text convention carried one.
	Task string
}

func (r ToolCallRequest) Arg(key string) string {
	if r.Args == nil {
		return ""
	}
	return r.Args[key]
}
