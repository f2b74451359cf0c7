package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/reactorsim/internal/sim"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
	graphWidth   = 40
	maxSpeed     = 4096
)

type TickMsg time.Time

// Model drives a sim.Session from the Bubble Tea event loop and renders the
// p-V diagram next to the current state.
type Model struct {
	sess    *sim.Session
	title   string
	speed   int
	running bool
	theme   Theme
	st      styles
	canvas  *Canvas

	volumes   []float64
	pressures []float64
	temps     []float64

	outcome  *sim.Outcome
	err      error
	finished bool
	showHelp bool
}

func NewModel(sess *sim.Session, title string) Model {
	m := Model{
		sess:    sess,
		title:   title,
		speed:   8,
		running: true,
		theme:   Themes[0],
		st:      newStyles(Themes[0]),
		canvas:  NewCanvas(canvasWidth, canvasHeight),
	}
	m.pull()
	return m
}

// Outcome is set once the session has finished.
func (m Model) Outcome() (*sim.Outcome, error) { return m.outcome, m.err }

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.finish()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "t":
			m.theme = m.theme.next()
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.finished {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance takes up to speed accepted steps.
func (m *Model) advance() {
	for i := 0; i < m.speed && !m.sess.Done(); i++ {
		if err := m.sess.Advance(); err != nil {
			break
		}
	}
	m.pull()
	if m.sess.Done() {
		m.finish()
	}
}

func (m *Model) finish() {
	if m.finished {
		return
	}
	m.outcome, m.err = m.sess.Finish()
	m.finished = true
}

// pull copies the samples recorded since the last call.
func (m *Model) pull() {
	seen := len(m.volumes)
	i := 0
	for s := range m.sess.Recorder().All() {
		if i >= seen {
			m.volumes = append(m.volumes, s.Volume)
			m.pressures = append(m.pressures, s.Pressure)
			m.temps = append(m.temps, s.Temperature)
		}
		i++
	}
}

func (m Model) status() (string, lipgloss.Style) {
	switch {
	case m.finished && m.err != nil:
		return strings.ToUpper(m.sess.Phase().String()), m.st.status["failed"]
	case m.finished:
		return "COMPLETED", m.st.status["completed"]
	case !m.running:
		return "PAUSED", m.st.status["paused"]
	}
	return "RUNNING", m.st.status["running"]
}

func (m Model) View() string {
	m.canvas.Clear()
	m.canvas.Plot(m.volumes, m.pressures, true)
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.st.label.Render("p-V (log p)"),
		m.canvas.String(),
	)

	snap := m.sess.Snapshot()
	stats := m.sess.Stats()
	var s strings.Builder
	s.WriteString(m.st.header.Render(strings.ToUpper(m.title)) + "\n")
	text, style := m.status()
	s.WriteString(style.Render(text) + "\n\n")
	s.WriteString(m.st.value.Render(ProgressBar(m.sess.Progress(), 30)) + fmt.Sprintf(" %5.1f%%\n\n", 100*m.sess.Progress()))

	row := func(label, value string) {
		s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4e s", snap.Time))
	row("Pressure", fmt.Sprintf("%.4g bar", snap.Pressure/1e5))
	row("Temp", fmt.Sprintf("%.1f K", snap.Temperature))
	row("Volume", fmt.Sprintf("%.4g cm3", snap.Volume*1e6))
	row("Steps", fmt.Sprintf("%d (%d rejected)", stats.Accepted, stats.Rejected))
	row("Speed", fmt.Sprintf("%d steps/frame", m.speed))
	if m.err != nil {
		row("Error", m.err.Error())
	}

	if len(m.temps) > 1 {
		chart := asciigraph.Plot(m.temps,
			asciigraph.Height(6), asciigraph.Width(graphWidth), asciigraph.Caption("T [K]"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}
	s.WriteString(m.st.help.Render("SP:Pause +/-:Speed T:Theme ?:Help Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, m.st.panel.Render(s.String()))
	if m.showHelp {
		return `
  Space  - Pause/Resume integration
  + / -  - Double/halve steps per frame
  T      - Cycle themes
  ?      - Toggle this help
  Q      - Finish and quit
` + "\n" + main
	}
	return main
}
