package application

import (
	"strings"
	"unicode"

	"github.com/bnema/agentdeck/internal/domain"
)

type intentRule struct {
	intent     domain.Intent
	confidence float64
	words      []string
	phrases    []string
	tools      []string
}

// Rules are evaluated in order and the first match wins. Browsing and research
// have extra URL conditions handled in Classify.
var intentRules = []intentRule{
	{
		intent:     domain.IntentCoding,
		confidence: 0.85,
		words: []string{
			"code", "coding", "build", "implement", "refactor", "debug", "bug", "compile", "script",
			"function", "app", "repo", "repository", "deploy", "program", "golang", "python", "typescript",
			"javascript", "api", "endpoint", "test", "tests", "commit",
		},
		phrases: []string{"pull request", "stack trace", "unit test", "write a cli"},
		tools:   []string{domain.ToolShell, domain.ToolEditFile, domain.ToolFiles, domain.ToolProcess},
	},
	{
		intent:     domain.IntentOutreach,
		confidence: 0.8,
		words:      []string{"email", "dm", "tweet", "slack", "telegram", "discord", "whatsapp", "notify", "announce"},
		phrases:    []string{"send a message", "send message", "message to", "reply to", "reach out", "post to", "post on"},
		tools:      []string{domain.ToolConnectorSend},
	},
	{
		intent:     domain.IntentScheduling,
		confidence: 0.8,
		words:      []string{"schedule", "scheduled", "reschedule", "cron", "recurring", "calendar", "daily", "weekly", "hourly"},
		phrases:    []string{"remind me", "every day", "every morning", "every week", "tomorrow at", "at noon"},
		tools:      []string{domain.ToolManageSchedules, domain.ToolManageTasks},
	},
	{
		intent:     domain.IntentBrowsing,
		confidence: 0.75,
		words:      []string{"browse", "visit", "navigate", "click", "screenshot", "website", "webpage", "login", "scrape"},
		phrases:    []string{"open the page", "open the site", "go to", "log in", "fill out", "fill in"},
		tools:      []string{domain.ToolBrowser, domain.ToolWebFetch},
	},
	{
		intent:     domain.IntentResearch,
		confidence: 0.7,
		words:      []string{"research", "search", "investigate", "compare", "latest", "news", "sources", "summarize"},
		phrases:    []string{"look up", "find out", "what is", "who is", "how does"},
		tools:      []string{domain.ToolWebSearch, domain.ToolWebFetch, domain.ToolBrowser},
	},
	{
		intent:     domain.IntentMemory,
		confidence: 0.75,
		words:      []string{"remember", "recall", "forget", "memorize", "memory", "remind"},
		phrases:    []string{"note that", "save this", "what did i", "do you know my"},
		tools:      []string{domain.ToolMemory},
	},
}

const (
	generalConfidence = 0.3
	urlOnlyConfidence = 0.55
)

// CapabilityRouter classifies message intent. It holds no state.
type CapabilityRouter struct{}

func NewCapabilityRouter() *CapabilityRouter {
	return &CapabilityRouter{}
}

func (r *CapabilityRouter) Classify(message string, enabledTools []string, settings domain.Settings) domain.RoutingDecision {
	lower := strings.ToLower(message)
	words := tokens(lower)
	url := FirstURL(message)
	delegates := DelegateOrder(settings)
	browserEnabled := containsTool(enabledTools, domain.ToolBrowser)

	for _, rule := range intentRules {
		matched := rule.matches(lower, words)
		switch rule.intent {
		case domain.IntentBrowsing:
			matched = matched && (url != "" || browserEnabled)
		case domain.IntentResearch:
			if !matched && url != "" {
				return decision(rule, urlOnlyConfidence, delegates, url)
			}
		}
		if matched {
			return decision(rule, rule.confidence, delegates, url)
		}
	}

	return domain.RoutingDecision{
		Intent:             domain.IntentGeneral,
		Confidence:         generalConfidence,
		PreferredTools:     []string{},
		PreferredDelegates: delegates,
		PrimaryURL:         url,
	}
}

func decision(rule intentRule, confidence float64, delegates []domain.BackendID, url string) domain.RoutingDecision {
	return domain.RoutingDecision{
		Intent:             rule.intent,
		Confidence:         confidence,
		PreferredTools:     append([]string(nil), rule.tools...),
		PreferredDelegates: delegates,
		PrimaryURL:         url,
	}
}

func (r intentRule) matches(lower string, words []string) bool {
	for _, keyword := range r.words {
		for _, word := range words {
			if containsKeyword(word, keyword) {
				return true
			}
		}
	}
	for _, phrase := range r.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func tokens(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// inflections are the endings a keyword may carry and still match. A bare prefix
// match would route "report" as "repo" or "apple" as "app".
var inflections = map[string]struct{}{
	"s": {}, "es": {}, "d": {}, "ed": {}, "ing": {}, "ings": {}, "er": {}, "ers": {},
}

var vowelInflections = map[string]struct{}{
	"es": {}, "ed": {}, "ing": {}, "ings": {}, "er": {}, "ers": {},
}

// containsKeyword reports whether word is keyword or an inflected form of it:
// "tests", "building", "debugging" (doubled consonant), "coding" (dropped e) and
// "notified" (y to i).
func containsKeyword(word, keyword string) bool {
	if rest, ok := strings.CutPrefix(word, keyword); ok {
		if rest == "" {
			return true
		}
		if _, ok := inflections[rest]; ok {
			return true
		}
		if rest[0] == keyword[len(keyword)-1] {
			_, ok := vowelInflections[rest[1:]]
			return ok
		}
		return false
	}

	var stem string
	switch {
	case strings.HasSuffix(keyword, "e"):
		stem = strings.TrimSuffix(keyword, "e")
	case strings.HasSuffix(keyword, "y"):
		stem = strings.TrimSuffix(keyword, "y") + "i"
	default:
		return false
	}
	rest, ok := strings.CutPrefix(word, stem)
	if !ok {
		return false
	}
	_, ok = vowelInflections[rest]
	return ok
}

// DelegateOrder maps the configured delegate order onto known delegates, falling
// back to the canonical order when nothing usable is configured.
func DelegateOrder(settings domain.Settings) []domain.BackendID {
	out := make([]domain.BackendID, 0, len(domain.CanonicalDelegateOrder))
	seen := make(map[domain.BackendID]struct{})
	for _, raw := range settings.DelegateOrder {
		id, ok := domain.ParseDelegate(raw)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return append([]domain.BackendID(nil), domain.CanonicalDelegateOrder...)
	}
	return out
}

func containsTool(tools []string, name string) bool {
	for _, tool := range tools {
		if domain.NormalizeToolName(tool) == name {
			return true
		}
	}
	return false
}
