package domain

import (
	"fmt"
	"time"
)

type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns InputTokens + OutputTokens.
func (u TokenUsage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u TokenUsage) TotalCompact() string {
	return compactNumber(u.Total())
}

// EstimateTokens approximates a token count from text length (four characters per token).
func EstimateTokens(text string) int64 {
	runes := int64(len([]rune(text)))
	if runes == 0 {
		return 0
	}
	return (runes + 3) / 4
}

type UsageRecord struct {
	ID            string
	SessionID     SessionID
	AgentID       AgentID
	Provider      Provider
	Model         string
	Usage         TokenUsage
	EstimatedCost float64
	CreatedAt     time.Time
}

// defaultCostPer1K is a blended USD price per thousand tokens.
var defaultCostPer1K = map[Provider]float64{
	ProviderOpenAI:      0.005,
	ProviderOpenRouter:  0.005,
	ProviderAnthropic:   0.009,
	ProviderGemini:      0.002,
	ProviderClaudeCLI:   0.009,
	ProviderCodexCLI:    0.005,
	ProviderOpenCodeCLI: 0.005,
	ProviderOllama:      0,
}

// EstimateCost prices usage with the override table first, then the built-in defaults.
func EstimateCost(provider Provider, usage TokenUsage, overrides map[Provider]float64) float64 {
	price, ok := overrides[provider]
	if !ok {
		price = defaultCostPer1K[provider]
	}
	return float64(usage.Total()) / 1000 * price
}

func compactNumber(v int64) string {
	if v < 1_000 {
		return fmt.Sprintf("%d", v)
	}

	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(v)/1_000)
	}

	return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
}
