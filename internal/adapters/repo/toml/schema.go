package toml

import "fmt"

const currentSchemaVersion = 1

func applyVersionDefault(version *int) {
	if *version == 0 {
		*version = currentSchemaVersion
	}
}

func validateVersion(label string, version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", label, version, currentSchemaVersion)
	}

	return nil
}

type sessionFileSchema struct {
	Version int           `toml:"version"`
	Session sessionSchema `toml:"session"`
}

type sessionSchema struct {
	ID           string            `toml:"id"`
	Name         string            `toml:"name"`
	AgentID      string            `toml:"agent_id,omitempty"`
	Provider     string            `toml:"provider,omitempty"`
	Model        string            `toml:"model,omitempty"`
	CredentialID string            `toml:"credential_id,omitempty"`
	Cwd          string            `toml:"cwd,omitempty"`
	Tools        []string          `toml:"tools"`
	CreatedAt    string            `toml:"created_at,omitempty"`
	LastActiveAt string            `toml:"last_active_at,omitempty"`
	ResumeTokens map[string]string `toml:"resume_tokens,omitempty"`
	MainLoop     *mainLoopSchema   `toml:"main_loop,omitempty"`
	Messages     []messageSchema   `toml:"messages,omitempty"`
}

type mainLoopSchema struct {
	Status           string `toml:"status"`
	UpdatedAt        string `toml:"updated_at,omitempty"`
	LastHeartbeatAt  string `toml:"last_heartbeat_at,omitempty"`
	LastAutoMemoryAt string `toml:"last_auto_memory_at,omitempty"`
}

type messageSchema struct {
	ID         string            `toml:"id"`
	Role       string            `toml:"role"`
	Kind       string            `toml:"kind,omitempty"`
	Text       string            `toml:"text"`
	Time       string            `toml:"time,omitempty"`
	ImagePath  string            `toml:"image_path,omitempty"`
	ToolEvents []toolEventSchema `toml:"tool_events,omitempty"`
}

// toolEventSchema flags completion separately because TOML has no null.
type toolEventSchema struct {
	Name      string `toml:"name"`
	Input     string `toml:"input,omitempty"`
	Output    string `toml:"output,omitempty"`
	Completed bool   `toml:"completed"`
	Error     bool   `toml:"error,omitempty"`
}

type agentsFileSchema struct {
	Version int           `toml:"version"`
	Agents  []agentSchema `toml:"agents"`
}

type agentSchema struct {
	ID                   string `toml:"id"`
	Name                 string `toml:"name"`
	Provider             string `toml:"provider"`
	Model                string `toml:"model,omitempty"`
	CredentialID         string `toml:"credential_id,omitempty"`
	SystemPrompt         string `toml:"system_prompt,omitempty"`
	HeartbeatAckMaxChars int    `toml:"heartbeat_ack_max_chars,omitempty"`
	UpdatedAt            string `toml:"updated_at,omitempty"`
}

type settingsFileSchema struct {
	Version                     int                `toml:"version"`
	CapabilityPolicyMode        string             `toml:"capability_policy_mode"`
	CapabilityBlockedTools      []string           `toml:"capability_blocked_tools"`
	CapabilityBlockedCategories []string           `toml:"capability_blocked_categories"`
	CapabilityAllowedTools      []string           `toml:"capability_allowed_tools"`
	DailySpendCapUSD            float64            `toml:"daily_spend_cap_usd"`
	DelegateOrder               []string           `toml:"delegate_order"`
	HeartbeatAckMaxChars        int                `toml:"heartbeat_ack_max_chars"`
	HistoryLimit                int                `toml:"history_limit"`
	HeartbeatInterval           string             `toml:"heartbeat_interval,omitempty"`
	AutoMemoryEnabled           *bool              `toml:"auto_memory_enabled,omitempty"`
	CostPer1KTokens             map[string]float64 `toml:"cost_per_1k_tokens,omitempty"`
}

type healthFileSchema struct {
	Version    int                 `toml:"version"`
	CapturedAt string              `toml:"captured_at,omitempty"`
	Entries    []healthEntrySchema `toml:"entries"`
}

type healthEntrySchema struct {
	Backend  string                `toml:"backend"`
	Outcomes []healthOutcomeSchema `toml:"outcomes"`
}

type healthOutcomeSchema struct {
	Success bool   `toml:"success"`
	Reason  string `toml:"reason,omitempty"`
	At      string `toml:"at"`
}
