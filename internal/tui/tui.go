package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"relaymark/internal/probe"
	"relaymark/internal/storage/models"
)

// Model renders live progress while a probe batch runs.
type Model struct {
	total     int
	completed int
	succeeded int
	failed    int

	lastLine string
	batch    *probe.BatchResult
	aborted  bool

	spinner  spinner.Model
	progress progress.Model
}

func newModel(total int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return &Model{
		total:    total,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.progress.Width = width
		}
		return m, nil

	case probeProgressMsg:
		m.completed = msg.current
		if msg.outcome.Success() {
			m.succeeded++
			m.lastLine = fmt.Sprintf("%s  %s",
				msg.outcome.Relay.Hostname,
				okStyle.Render(fmt.Sprintf("%.2f ms", *msg.outcome.LatencyMS)))
		} else {
			m.failed++
			m.lastLine = fmt.Sprintf("%s  %s",
				msg.outcome.Relay.Hostname,
				failStyle.Render("unreachable"))
		}
		return m, nil

	case probeDoneMsg:
		m.batch = msg.batch
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	if m.batch != nil {
		return ""
	}

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total)
	}

	view := titleStyle.Render("relaymark") + "\n\n"
	view += fmt.Sprintf("%s probing %d relays...\n\n", m.spinner.View(), m.total)
	view += m.progress.ViewAs(percent) + "\n\n"
	view += fmt.Sprintf("  %d/%d done  %s  %s\n",
		m.completed, m.total,
		okStyle.Render(fmt.Sprintf("%d ok", m.succeeded)),
		failStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	if m.lastLine != "" {
		view += dimStyle.Render("  last: "+m.lastLine) + "\n"
	}
	view += dimStyle.Render("\n  q to abort") + "\n"
	return view
}

// RunProbe executes a probe batch behind a live progress display and returns
// the batch result. A nil result with nil error means the user aborted.
func RunProbe(ctx context.Context, prober *probe.Prober, relays []*models.Relay) (*probe.BatchResult, error) {
	model := newModel(len(relays))
	program := tea.NewProgram(model, tea.WithContext(ctx))

	go func() {
		batch := prober.ProbeBatch(ctx, relays, func(outcome *probe.Outcome, current, total int) {
			program.Send(probeProgressMsg{outcome: outcome, current: current, total: total})
		})
		program.Send(probeDoneMsg{batch: batch})
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	m := final.(*Model)
	if m.aborted {
		return nil, nil
	}
	return m.batch, nil
}
