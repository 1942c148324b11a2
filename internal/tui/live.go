// Package tui provides a live terminal view of a running evolution: the
// density profile is redrawn each animation tick while the evolver advances
// between frames.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/forbes-group/timeode/internal/states"
)

const (
	graphHeight   = 16
	graphWidth    = 72
	stepsPerFrame = 4
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 2)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Padding(0, 2)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1).Padding(0, 2)
)

// Evolver is the slice of the evolver API the live view needs.
type Evolver interface {
	Evolve(steps int) error
	T() float64
}

type TickMsg time.Time

// Model is the bubbletea model driving the live view.
type Model struct {
	evolver   Evolver
	wave      *states.Wavefunction
	method    string
	frameRate int
	steps     int
	maxSteps  int
	running   bool
	err       error
}

// NewModel builds a live view over an evolver advancing wave. The view
// stops after maxSteps steps (0 means run until quit).
func NewModel(e Evolver, wave *states.Wavefunction, method string, frameRate, maxSteps int) Model {
	if frameRate <= 0 {
		frameRate = 30
	}
	return Model{
		evolver:   e,
		wave:      wave,
		method:    method,
		frameRate: frameRate,
		maxSteps:  maxSteps,
		running:   true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
		return m, nil

	case TickMsg:
		if m.running && m.err == nil {
			if err := m.evolver.Evolve(stepsPerFrame); err != nil {
				m.err = err
				m.running = false
			} else {
				m.steps += stepsPerFrame
			}
			if m.maxSteps > 0 && m.steps >= m.maxSteps {
				m.running = false
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	density := downsample(m.wave.Density(), graphWidth)
	graph := asciigraph.Plot(density, asciigraph.Height(graphHeight), asciigraph.Width(graphWidth))

	header := headerStyle.Render(fmt.Sprintf("timeode live  [%s]", m.method))
	stats := statsStyle.Render(fmt.Sprintf(
		"t=%8.3f   steps=%d   norm=%.6f   energy=%.6f",
		m.evolver.T(), m.steps, m.wave.Norm(), m.wave.Energy()))

	view := lipgloss.JoinVertical(lipgloss.Left,
		header,
		graphStyle.Render(graph),
		stats,
	)
	if m.err != nil {
		view = lipgloss.JoinVertical(lipgloss.Left, view,
			errStyle.Render("error: "+m.err.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, view,
		helpStyle.Render("space pause/resume - q quit"))
}

// downsample reduces the density grid to the graph width by averaging.
func downsample(v []float64, n int) []float64 {
	if len(v) <= n {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		lo := i * len(v) / n
		hi := (i + 1) * len(v) / n
		sum := 0.0
		for _, x := range v[lo:hi] {
			sum += x
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
