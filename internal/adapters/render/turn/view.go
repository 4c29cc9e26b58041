package turn

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bnema/agentdeck/internal/application"
	"github.com/bnema/agentdeck/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultMaxOutput = 240

type RenderOptions struct {
	// Warnings are the warning events streamed during the turn.
	Warnings    []domain.StreamEvent
	ShowRouting bool
	// OmitText skips the reply, for callers that already streamed it.
	OmitText bool
	// MaxOutput truncates each tool output to this many runes. Zero means 240.
	MaxOutput int
}

func renderTurn(result application.TurnResult, opts RenderOptions, s styles) string {
	lines := make([]string, 0, 8)

	if opts.ShowRouting && result.Routing != nil {
		lines = append(lines, s.header.Render(routingLine(*result.Routing)))
	}

	switch {
	case result.Failed():
		lines = append(lines, s.warning.Render("error: "+result.Error))
	case opts.OmitText:
	case strings.TrimSpace(result.Text) == "":
		lines = append(lines, s.empty.Render("(no reply)"))
	default:
		lines = append(lines, s.text.Render(result.Text))
	}

	if len(result.ToolEvents) > 0 {
		tools := []string{s.title.Render(fmt.Sprintf("tools: %d", len(result.ToolEvents)))}
		for _, event := range result.ToolEvents {
			tools = append(tools, toolLine(event, opts, s))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, tools...)))
	}

	if len(opts.Warnings) > 0 {
		warnings := make([]string, 0, len(opts.Warnings))
		for _, ev := range opts.Warnings {
			warnings = append(warnings, s.warning.Render("! ")+s.toolMeta.Render(warningLine(ev)))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, warnings...)))
	}

	if result.Classification != "" && result.Classification != domain.HeartbeatKeep {
		lines = append(lines, s.header.Render("heartbeat: "+string(result.Classification)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func routingLine(decision domain.RoutingDecision) string {
	line := fmt.Sprintf("intent: %s (%.2f)", decision.Intent, decision.Confidence)
	if len(decision.PreferredTools) > 0 {
		line += " tools: " + strings.Join(decision.PreferredTools, ",")
	}
	if len(decision.PreferredDelegates) > 0 {
		ids := make([]string, 0, len(decision.PreferredDelegates))
		for _, id := range decision.PreferredDelegates {
			ids = append(ids, string(id))
		}
		line += " delegates: " + strings.Join(ids, ",")
	}
	return line
}

func toolLine(event domain.ToolEvent, opts RenderOptions, s styles) string {
	name := s.toolName.Render(event.Name)
	switch {
	case event.Output == nil:
		return name + " " + s.toolMeta.Render("(no result)")
	case event.Error:
		return name + " " + s.toolError.Render(truncate(*event.Output, opts.MaxOutput))
	default:
		return name + " " + s.toolMeta.Render(truncate(*event.Output, opts.MaxOutput))
	}
}

func warningLine(ev domain.StreamEvent) string {
	if ev.Failure == "" {
		return ev.Text
	}
	return fmt.Sprintf("[%s] %s", ev.Failure, ev.Text)
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		limit = defaultMaxOutput
	}
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}

func renderSpend(summary application.SpendSummary, s styles) string {
	lines := []string{
		s.title.Render("Daily Spend"),
		s.header.Render(fmt.Sprintf("day: %s  records: %d", summary.Day.Format("2006-01-02"), summary.Records)),
	}

	if summary.Cap > 0 {
		used := clampPercent(summary.Spent / summary.Cap * 100)
		line := lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render("budget:"),
			" ",
			renderProgressBar(used, 24, s),
			" ",
			lipgloss.NewStyle().Foreground(interpolateColor(100-used, 0, 100)).
				Render(fmt.Sprintf("$%.4f of $%.2f", summary.Spent, summary.Cap)),
		)
		if summary.Exhausted {
			line += " " + s.warning.Render("[exhausted]")
		}
		lines = append(lines, line)
	} else {
		lines = append(lines, s.key.Render("budget: ")+s.meta.Render(fmt.Sprintf("$%.4f (no cap)", summary.Spent)))
	}

	lines = append(lines, s.meta.Render(fmt.Sprintf("tokens: %d in / %d out", summary.Tokens.InputTokens, summary.Tokens.OutputTokens)))

	if len(summary.ByAgent) > 0 {
		agents := make([]domain.AgentID, 0, len(summary.ByAgent))
		for id := range summary.ByAgent {
			agents = append(agents, id)
		}
		sort.Slice(agents, func(i, j int) bool {
			if summary.ByAgent[agents[i]] == summary.ByAgent[agents[j]] {
				return agents[i] < agents[j]
			}
			return summary.ByAgent[agents[i]] > summary.ByAgent[agents[j]]
		})
		rows := make([]string, 0, len(agents))
		for _, id := range agents {
			name := string(id)
			if name == "" {
				name = "(none)"
			}
			rows = append(rows, s.key.Render(name+":")+" "+s.meta.Render(fmt.Sprintf("$%.4f", summary.ByAgent[id])))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderDelegates(scores []application.DelegateScore, s styles) string {
	lines := []string{
		s.title.Render("Delegate Health"),
		s.header.Render(fmt.Sprintf("delegates: %d", len(scores))),
	}

	if len(scores) == 0 {
		lines = append(lines, s.empty.Render("No delegate outcomes recorded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, score := range scores {
		lines = append(lines, s.section.Render(delegateBlock(score, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func delegateBlock(score application.DelegateScore, s styles) string {
	total := score.Successes + score.Failures
	okPercent := 0.0
	if total > 0 {
		okPercent = float64(score.Successes) / float64(total) * 100
	}

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.toolName.Render(fmt.Sprintf("%-8s", score.Backend)),
		" ",
		renderProgressBar(100-okPercent, 16, s),
		" ",
		lipgloss.NewStyle().Foreground(interpolateColor(okPercent, 0, 100)).
			Render(fmt.Sprintf("%d ok / %d failed", score.Successes, score.Failures)),
		" ",
		s.meta.Render(fmt.Sprintf("score %+.2f", score.Score)),
	)

	if score.LastError == "" {
		return line
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, s.toolError.Render("  last error: "+truncate(score.LastError, 120)))
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	leftFraction := (100.0 - used) / 100.0
	filled := int(math.Round(float64(width) * leftFraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240.0+15.0*normalized)))
}
