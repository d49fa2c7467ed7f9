package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/scmodel/internal/galaxy"
	"github.com/san-kum/scmodel/internal/metrics"
	"github.com/san-kum/scmodel/internal/scm"
)

type TickMsg time.Time

// ComponentMsg reports that a component finished updating.
type ComponentMsg struct {
	Iteration int
	Index     int
	Total     int
}

// IterationMsg reports a completed iteration.
type IterationMsg struct {
	Iteration int
	Change    float64
	Central   float64
}

// DoneMsg ends the view. Err is nil on success.
type DoneMsg struct {
	Err error
}

// Progress is a Bubble Tea model of a running iteration.
type Progress struct {
	name       string
	iterations int
	components int

	iteration int
	component int
	changes   []float64
	central   []float64
	start     time.Time
	elapsed   time.Duration
	frame     int
	done      bool
	quit      bool
	err       error
}

func NewProgress(name string, iterations, components int) Progress {
	return Progress{
		name:       name,
		iterations: iterations,
		components: components,
		start:      time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Progress) Init() tea.Cmd { return tick() }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit = true
			return m, tea.Quit
		}
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Since(m.start)
		return m, tick()
	case ComponentMsg:
		m.iteration = msg.Iteration - 1
		m.component = msg.Index + 1
		if msg.Total > 0 {
			m.components = msg.Total
		}
	case IterationMsg:
		m.iteration = msg.Iteration
		m.component = 0
		m.changes = append(m.changes, msg.Change)
		m.central = append(m.central, msg.Central)
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	}
	return m, nil
}

// Fraction is the share of work completed, counting finished components of
// the current iteration.
func (m Progress) Fraction() float64 {
	if m.iterations <= 0 {
		return 0
	}
	f := float64(m.iteration)
	if m.components > 0 {
		f += float64(m.component) / float64(m.components)
	}
	return math.Min(f/float64(m.iterations), 1)
}

// Quit reports whether the user left before the run finished.
func (m Progress) Quit() bool { return m.quit && !m.done }

func (m Progress) Err() error { return m.err }

func (m Progress) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.name)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusFailed.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString(StatusConverged.Render("DONE") + "\n\n")
	default:
		s.WriteString(StatusRunning.Render(spinner(m.frame)+" ITERATING") + "\n\n")
	}

	s.WriteString(ProgressBar(m.Fraction(), 40) + fmt.Sprintf(" %3.0f%%\n\n", 100*m.Fraction()))
	s.WriteString(KeyValue("Iteration", fmt.Sprintf("%d / %d", m.iteration, m.iterations)) + "\n")
	if !m.done && m.components > 0 {
		s.WriteString(KeyValue("Component", fmt.Sprintf("%d / %d", m.component, m.components)) + "\n")
	}
	if n := len(m.changes); n > 0 {
		s.WriteString(KeyValue("Potential change", fmt.Sprintf("%.3e", m.changes[n-1])) + "\n")
		s.WriteString(KeyValue("Central potential", fmt.Sprintf("%.6f", m.central[n-1])) + "\n")
	}
	s.WriteString(KeyValue("Elapsed", m.elapsed.Round(100*time.Millisecond).String()) + "\n")

	if len(m.changes) > 1 {
		if logs, ok := log10Series(m.changes); ok {
			chart := asciigraph.Plot(logs, asciigraph.Height(5), asciigraph.Width(40), asciigraph.Caption("log10 change"))
			s.WriteString(GraphStyle.Render(chart) + "\n")
		}
	}

	s.WriteString(HelpStyle.Render("q: quit"))
	return PanelStyle.Render(s.String())
}

// Observer forwards model callbacks to a tea.Program. change supplies the
// per-iteration potential change and may be nil.
type Observer struct {
	send   func(tea.Msg)
	change metrics.Metric
}

var _ scm.ProgressObserver = (*Observer)(nil)

func NewObserver(send func(tea.Msg), change metrics.Metric) *Observer {
	return &Observer{send: send, change: change}
}

func (o *Observer) OnComponentUpdated(iteration, index, total int) {
	o.send(ComponentMsg{Iteration: iteration, Index: index, Total: total})
}

func (o *Observer) OnIteration(s scm.Snapshot) {
	msg := IterationMsg{Iteration: s.Iteration}
	if o.change != nil {
		msg.Change = o.change.Value()
	}
	if s.Potential != nil {
		msg.Central = s.Potential.Value(galaxy.Vec3{1e-3, 0, 0})
	}
	o.send(msg)
}
