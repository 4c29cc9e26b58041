package application

import (
	"fmt"

	"github.com/bnema/agentdeck/internal/domain"
)

// ResolveToolPolicy intersects the session's tools with what the capability policy allows.
// Balanced and permissive modes apply the same block lists.
func ResolveToolPolicy(sessionTools []string, settings domain.Settings) domain.ToolPolicy {
	policy := domain.ToolPolicy{
		Enabled: make([]string, 0, len(sessionTools)),
		Blocked: make([]domain.BlockedTool, 0),
	}

	rules := newPolicyRules(settings)
	for _, tool := range domain.NormalizeToolList(sessionTools) {
		if reason := rules.denial(tool); reason != "" {
			policy.Blocked = append(policy.Blocked, domain.BlockedTool{Tool: tool, Reason: reason})
			continue
		}
		policy.Enabled = append(policy.Enabled, tool)
	}

	return policy
}

// BlockConcreteInvocation re-checks a forced tool call. Forced calls skip the
// enabled-tools gate, so the configured rules are evaluated again here. It returns
// the denial reason, or "" when the call may proceed.
func BlockConcreteInvocation(tool string, policy domain.ToolPolicy, settings domain.Settings) string {
	if reason, ok := policy.BlockReason(tool); ok {
		return reason
	}
	return newPolicyRules(settings).denial(domain.NormalizeToolName(tool))
}

type policyRules struct {
	mode       domain.PolicyMode
	allowed    map[string]struct{}
	blocked    map[string]struct{}
	categories map[domain.ToolCategory]struct{}
}

func newPolicyRules(settings domain.Settings) policyRules {
	mode := settings.PolicyMode
	if !mode.Valid() {
		mode = domain.PolicyModeBalanced
	}

	rules := policyRules{
		mode:       mode,
		allowed:    toolSet(settings.AllowedTools),
		blocked:    toolSet(settings.BlockedTools),
		categories: make(map[domain.ToolCategory]struct{}, len(settings.BlockedCategories)),
	}
	for _, category := range settings.BlockedCategories {
		rules.categories[category] = struct{}{}
	}

	return rules
}

func (r policyRules) denial(tool string) string {
	_, allowed := r.allowed[tool]

	if r.mode == domain.PolicyModeStrict {
		if allowed {
			return ""
		}
		return fmt.Sprintf("%s is not in the allow-list (strict capability policy)", tool)
	}

	if _, blocked := r.blocked[tool]; blocked {
		return fmt.Sprintf("%s is blocked by capability policy", tool)
	}

	category := domain.CategoryOf(tool)
	if _, blocked := r.categories[category]; blocked && category != "" && !allowed {
		return fmt.Sprintf("%s belongs to blocked category %q", tool, category)
	}

	return ""
}

func toolSet(tools []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tools))
	for _, tool := range domain.NormalizeToolList(tools) {
		set[tool] = struct{}{}
	}
	return set
}
