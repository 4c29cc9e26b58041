package turn

import (
	"errors"
	"io"

	"github.com/bnema/agentdeck/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	view   func(styles) string
	styles styles
	output string
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.view(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func run(view func(styles) string) (string, error) {
	p := tea.NewProgram(
		model{view: view, styles: newStyles()},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}

// RenderTurn formats a finished turn: the reply, the tools it ran and any warnings
// streamed along the way.
func RenderTurn(result application.TurnResult, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return renderTurn(result, opts, s) })
}

func RenderSpend(summary application.SpendSummary) (string, error) {
	return run(func(s styles) string { return renderSpend(summary, s) })
}

func RenderDelegates(scores []application.DelegateScore) (string, error) {
	return run(func(s styles) string { return renderDelegates(scores, s) })
}
