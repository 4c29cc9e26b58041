package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/logger"
	"github.com/bnema/agentdeck/internal/ports"
	"github.com/charmbracelet/log"
)

// SpendGuard is the daily spend circuit breaker. It fails open when the ledger
// cannot be read.
type SpendGuard struct {
	ledger ports.UsageLedger
	log    *log.Logger
}

func NewSpendGuard(ledger ports.UsageLedger, l *log.Logger) *SpendGuard {
	return &SpendGuard{ledger: ledger, log: logger.OrDefault(l)}
}

// DayBounds returns [start of day, start of next day) in now's location.
func DayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

// Spent returns today's estimated cost. Read failures are logged and reported as zero.
func (g *SpendGuard) Spent(ctx context.Context, now time.Time) float64 {
	if g.ledger == nil {
		return 0
	}

	from, to := DayBounds(now)
	total, err := g.ledger.DailyCost(ctx, from, to)
	if err != nil {
		g.log.Warn("spend guard could not read usage, continuing", "err", err)
		return 0
	}
	return total
}

// Evaluate returns an error wrapping domain.ErrBudgetExceeded when spent meets the cap.
func (g *SpendGuard) Evaluate(settings domain.Settings, spent float64) error {
	if !settings.SpendCapEnabled() {
		return nil
	}
	if spent >= settings.DailySpendCapUSD {
		return fmt.Errorf("%w ($%.2f of $%.2f)", domain.ErrBudgetExceeded, spent, settings.DailySpendCapUSD)
	}
	return nil
}

func (g *SpendGuard) Check(ctx context.Context, settings domain.Settings, now time.Time) error {
	if !settings.SpendCapEnabled() {
		return nil
	}
	return g.Evaluate(settings, g.Spent(ctx, now))
}

// Summary totals today's usage records for display.
func (g *SpendGuard) Summary(ctx context.Context, settings domain.Settings, now time.Time) (SpendSummary, error) {
	from, to := DayBounds(now)
	summary := SpendSummary{Day: from, Cap: settings.DailySpendCapUSD, ByAgent: map[domain.AgentID]float64{}}
	if g.ledger == nil {
		return summary, nil
	}

	records, err := g.ledger.List(ctx, from)
	if err != nil {
		return SpendSummary{}, fmt.Errorf("list usage: %w", err)
	}

	for _, record := range records {
		if !record.CreatedAt.Before(to) {
			continue
		}
		summary.Records++
		summary.Spent += record.EstimatedCost
		summary.Tokens.InputTokens += record.Usage.InputTokens
		summary.Tokens.OutputTokens += record.Usage.OutputTokens
		summary.ByAgent[record.AgentID] += record.EstimatedCost
	}
	summary.Exhausted = g.Evaluate(settings, summary.Spent) != nil

	return summary, nil
}
