package domain

type Intent string

const (
	IntentCoding     Intent = "coding"
	IntentResearch   Intent = "research"
	IntentBrowsing   Intent = "browsing"
	IntentOutreach   Intent = "outreach"
	IntentScheduling Intent = "scheduling"
	IntentMemory     Intent = "memory"
	IntentGeneral    Intent = "general"
)

type RoutingDecision struct {
	Intent             Intent      `json:"intent" yaml:"intent"`
	Confidence         float64     `json:"confidence" yaml:"confidence"`
	PreferredTools     []string    `json:"preferredTools" yaml:"preferred_tools"`
	PreferredDelegates []BackendID `json:"preferredDelegates" yaml:"preferred_delegates"`
	PrimaryURL         string      `json:"primaryUrl,omitempty" yaml:"primary_url,omitempty"`
}
