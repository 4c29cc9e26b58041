package domain

type BlockedTool struct {
	Tool   string `json:"tool" yaml:"tool"`
	Reason string `json:"reason" yaml:"reason"`
}

// ToolPolicy is the resolved tool permission set for one run.
type ToolPolicy struct {
	Enabled []string      `json:"enabledTools" yaml:"enabled_tools"`
	Blocked []BlockedTool `json:"blockedTools" yaml:"blocked_tools"`
}

func (p ToolPolicy) IsEnabled(tool string) bool {
	name := NormalizeToolName(tool)
	for _, enabled := range p.Enabled {
		if enabled == name {
			return true
		}
	}
	return false
}

// BlockReason returns the recorded denial reason for tool, if any.
func (p ToolPolicy) BlockReason(tool string) (string, bool) {
	name := NormalizeToolName(tool)
	for _, blocked := range p.Blocked {
		if blocked.Tool == name {
			return blocked.Reason, true
		}
	}
	return "", false
}

func (p ToolPolicy) BlockedNames() []string {
	names := make([]string, 0, len(p.Blocked))
	for _, blocked := range p.Blocked {
		names = append(names, blocked.Tool)
	}
	return names
}
