package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joegoldin/decipher/internal/ffmpeg"
)

type State int

const (
	StateRunning State = iota
	StateDone
	StateFailed
	StateCancelled
)

// stage is one finished or in-flight step shown in the history list.
type stage struct {
	label   string
	started time.Time
	elapsed time.Duration
}

// Model renders the pipeline's steps: a progress bar while ffmpeg reports a
// known total, a spinner otherwise.
type Model struct {
	state    State
	stages   []stage
	last     ffmpeg.Progress
	haveLast bool
	bar      progress.Model
	spin     spinner.Model
	cancel   func()
	err      error
	width    int
}

type tickMsg time.Time

// StageMsg starts a new step.
type StageMsg struct{ Label string }

// ProgressMsg carries one progress update for the current step.
type ProgressMsg ffmpeg.Progress

// DoneMsg ends the program. Err is nil on success.
type DoneMsg struct{ Err error }

var cancelKeys = key.NewBinding(key.WithKeys("ctrl+c", "q", "esc"))

func NewModel(cancel func()) *Model {
	return &Model{
		state:  StateRunning,
		bar:    progress.New(progress.WithGradient("#a78bfa", "#22c55e"), progress.WithWidth(40)),
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		cancel: cancel,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Err returns the error the run finished with.
func (m *Model) Err() error { return m.err }

func (m *Model) State() State { return m.state }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(60, msg.Width-30))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, cancelKeys) && m.state == StateRunning {
			m.state = StateCancelled
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case StageMsg:
		m.closeStage()
		m.stages = append(m.stages, stage{label: msg.Label, started: time.Now()})
		m.haveLast = false
		return m, nil

	case ProgressMsg:
		m.last = ffmpeg.Progress(msg)
		m.haveLast = true
		return m, nil

	case DoneMsg:
		m.closeStage()
		m.err = msg.Err
		switch {
		case m.state == StateCancelled:
		case msg.Err != nil:
			m.state = StateFailed
		default:
			m.state = StateDone
		}
		return m, tea.Quit

	case tickMsg:
		if m.state != StateRunning {
			return m, nil
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) closeStage() {
	if n := len(m.stages); n > 0 && m.stages[n-1].elapsed == 0 {
		m.stages[n-1].elapsed = time.Since(m.stages[n-1].started)
	}
}

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#c084fc"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

func (m *Model) View() string {
	var lines []string
	for i, st := range m.stages {
		current := i == len(m.stages)-1 && m.state == StateRunning
		if current {
			lines = append(lines, m.currentLine(st))
			continue
		}
		mark := doneStyle.Render("✓")
		if i == len(m.stages)-1 {
			switch m.state {
			case StateFailed:
				mark = errStyle.Render("✗")
			case StateCancelled:
				mark = warnStyle.Render("⏹")
			}
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s", mark, st.label, dimStyle.Render(formatDuration(st.elapsed))))
	}

	if m.state == StateRunning {
		lines = append(lines, "", dimStyle.Render("  [q] cancel"))
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) currentLine(st stage) string {
	elapsed := dimStyle.Render(formatDuration(time.Since(st.started)))
	head := fmt.Sprintf("  %s %s", m.spin.View(), labelStyle.Render(st.label))
	if !m.haveLast || m.last.Label != st.label {
		return head + "  " + elapsed
	}

	if f := m.last.Fraction(); f >= 0 {
		return fmt.Sprintf("%s\n    %s %s  %s", head, m.bar.ViewAs(f), counter(m.last), elapsed)
	}
	// total unknown: show how far ffmpeg got
	return fmt.Sprintf("%s  %s  %s", head, counter(m.last), elapsed)
}

// counter renders "current/total unit", e.g. "120/300 frames".
func counter(p ffmpeg.Progress) string {
	switch p.Unit {
	case ffmpeg.UnitPercent:
		return ""
	case ffmpeg.UnitSeconds:
		if p.Total > 0 {
			return dimStyle.Render(fmt.Sprintf("%s/%s", formatDuration(time.Duration(p.Current)*time.Second), formatDuration(time.Duration(p.Total)*time.Second)))
		}
		return dimStyle.Render(formatDuration(time.Duration(p.Current) * time.Second))
	}
	if p.Total > 0 {
		return dimStyle.Render(fmt.Sprintf("%d/%d %s", p.Current, p.Total, p.Unit))
	}
	return dimStyle.Render(fmt.Sprintf("%d %s", p.Current, p.Unit))
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
