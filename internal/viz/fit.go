package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/microkin/internal/fit"
)

const historyCapacity = 600

type progressMsg fit.Progress

type progressClosedMsg struct{}

// FitDoneMsg carries the outcome of the fit into the view.
type FitDoneMsg struct {
	Fit *fit.Fit
	Err error
}

// FitModel follows a running fit. The program quits after FitDoneMsg.
type FitModel struct {
	progress       <-chan fit.Progress
	cancel         func()
	names          []string
	maxGenerations int

	last    fit.Progress
	history []float64
	result  *fit.Fit
	err     error
	done    bool
	stopped bool
}

// NewFitModel reads updates from progress. cancel is called when the
// user quits before the fit ends.
func NewFitModel(progress <-chan fit.Progress, names []string, maxGenerations int, cancel func()) FitModel {
	return FitModel{
		progress:       progress,
		cancel:         cancel,
		names:          names,
		maxGenerations: maxGenerations,
		history:        make([]float64, 0, historyCapacity),
	}
}

func (m FitModel) Init() tea.Cmd {
	return waitForProgress(m.progress)
}

func waitForProgress(ch <-chan fit.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return progressClosedMsg{}
		}
		return progressMsg(p)
	}
}

func (m FitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done && m.cancel != nil {
				m.cancel()
				m.stopped = true
			}
			if m.done {
				return m, tea.Quit
			}
		}
	case progressMsg:
		m.last = fit.Progress(msg)
		if !math.IsInf(msg.Objective, 0) && msg.Objective > 0 {
			m.history = append(m.history, math.Log10(msg.Objective))
			if len(m.history) > historyCapacity {
				m.history = m.history[len(m.history)-historyCapacity:]
			}
		}
		return m, waitForProgress(m.progress)
	case progressClosedMsg:
		return m, nil
	case FitDoneMsg:
		m.result, m.err, m.done = msg.Fit, msg.Err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m FitModel) View() string {
	var s strings.Builder
	s.WriteString(Title.Render("Curve fit") + "\n\n")

	frac := 0.0
	if m.maxGenerations > 0 {
		frac = float64(m.last.Generation) / float64(m.maxGenerations)
	}
	s.WriteString(Metric("Generation", fmt.Sprintf("%d / %d", m.last.Generation, m.maxGenerations)) + "\n")
	s.WriteString(MetricLabel.Render("") + ProgressBar(frac, 30) + "\n")
	s.WriteString(Metric("Objective", fmt.Sprintf("%.6e", m.last.Objective)) + "\n")
	s.WriteString(Metric("Convergence", fmt.Sprintf("%.3e", m.last.Convergence)) + "\n")
	s.WriteString(Metric("Evaluations", fmt.Sprintf("%d", m.last.Evaluations)) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("log10 objective"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	x := m.last.X
	if m.result != nil {
		x = m.result.X
	}
	for i, v := range x {
		name := fmt.Sprintf("x%d", i)
		if i < len(m.names) {
			name = m.names[i]
		}
		s.WriteString(Metric(name, fmt.Sprintf("%.5f eV", v)) + "\n")
	}

	switch {
	case m.err != nil:
		s.WriteString("\n" + StatusError.Render("fit failed: "+m.err.Error()) + "\n")
	case m.done:
		s.WriteString("\n" + StatusOK.Render("fit finished") + "\n")
	case m.stopped:
		s.WriteString("\n" + StatusWarn.Render("stopping…") + "\n")
	default:
		s.WriteString("\n" + KeyHint.Render("q: stop and keep best") + "\n")
	}
	return s.String()
}

// Result returns the fit delivered by FitDoneMsg.
func (m FitModel) Result() (*fit.Fit, error) { return m.result, m.err }
