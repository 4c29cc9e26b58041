package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type turnDoneMsg struct {
	err error
}

type turnEventMsg struct {
	event domain.StreamEvent
}

// turnSpinnerModel shows what the running turn is doing: the backend that
// answered last, the tool in flight and how much reply text has arrived.
type turnSpinnerModel struct {
	spinner spinner.Model
	meta    lipgloss.Style
	label   string
	work    tea.Cmd

	backend  domain.BackendID
	tool     string
	tools    int
	received int

	err  error
	done bool
}

func newTurnSpinnerModel(label string, work tea.Cmd) turnSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return turnSpinnerModel{
		spinner: s,
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		label:   label,
		work:    work,
	}
}

func (m turnSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m turnSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case turnEventMsg:
		return m.observe(msg.event), nil
	case turnDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m turnSpinnerModel) observe(ev domain.StreamEvent) turnSpinnerModel {
	if ev.Backend != "" {
		m.backend = ev.Backend
	}
	switch ev.Type {
	case domain.EventDelta:
		m.received += len(ev.Text)
	case domain.EventToolCall:
		m.tool = ev.Tool
		m.tools++
	case domain.EventToolResult:
		if ev.Tool == m.tool {
			m.tool = ""
		}
	}
	return m
}

func (m turnSpinnerModel) View() string {
	if m.done {
		return ""
	}

	details := make([]string, 0, 4)
	if m.backend != "" {
		details = append(details, "via "+string(m.backend))
	}
	if m.tool != "" {
		details = append(details, "running "+m.tool)
	}
	if m.tools > 0 {
		details = append(details, fmt.Sprintf("%d tool calls", m.tools))
	}
	if m.received > 0 {
		details = append(details, fmt.Sprintf("%d chars", m.received))
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	if len(details) > 0 {
		line += " " + m.meta.Render(strings.Join(details, " · "))
	}
	return line
}

// runWithSpinner shows label on output until work returns. work receives a
// progress func that feeds stream events into the spinner line.
func runWithSpinner(ctx context.Context, output io.Writer, label string, work func(context.Context, func(domain.StreamEvent)) error) error {
	var p *tea.Program
	progress := func(ev domain.StreamEvent) {
		p.Send(turnEventMsg{event: ev})
	}
	workCmd := func() tea.Msg {
		return turnDoneMsg{err: work(ctx, progress)}
	}

	p = tea.NewProgram(
		newTurnSpinnerModel(label, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(turnSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
