package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/forcelayout/pkg/geom"
	"github.com/matzehuels/forcelayout/pkg/graph"
	"github.com/matzehuels/forcelayout/pkg/layout"
)

// Canvas styles
var (
	canvasNodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	canvasEdgeStyle  = lipgloss.NewStyle().Foreground(colorDim)
	canvasFrameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	watchHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	canvasNode = '●'
	canvasEdge = '·'

	// chrome is the number of terminal rows taken by everything but the canvas.
	chrome = 14
)

// =============================================================================
// WatchModel - Animated layout in the terminal
// =============================================================================

type tickMsg time.Time

type watchKeyMap struct {
	Pause       key.Binding
	FastForward key.Binding
	Reset       key.Binding
	Quit        key.Binding
}

func newWatchKeyMap(ffSteps int) watchKeyMap {
	return watchKeyMap{
		Pause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "pause/resume"),
		),
		FastForward: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", fmt.Sprintf("fast-forward %d", ffSteps)),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.FastForward, k.Reset, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// WatchModel is the bubbletea model that steps a layout session once per
// tick and draws the graph.
type WatchModel struct {
	ctx      context.Context
	ctrl     layout.Controller
	graph    *graph.Stable
	view     geom.Rect
	interval time.Duration
	ffSteps  int
	keys     watchKeyMap
	help     help.Model

	status   layout.Status
	lastStep time.Duration
	message  string
	err      error

	Width  int
	Height int
}

// NewWatchModel creates a watch model over ctrl. The model starts from the
// persisted status of the session.
func NewWatchModel(ctx context.Context, ctrl layout.Controller, g *graph.Stable, view geom.Rect, fps, ffSteps int) (WatchModel, error) {
	if fps <= 0 {
		fps = 30
	}
	status, err := ctrl.Status(ctx)
	if err != nil {
		return WatchModel{}, err
	}
	return WatchModel{
		ctx:      ctx,
		ctrl:     ctrl,
		graph:    g,
		view:     view,
		interval: time.Second / time.Duration(fps),
		ffSteps:  ffSteps,
		keys:     newWatchKeyMap(ffSteps),
		help:     help.New(),
		status:   status,
		Width:    80,
		Height:   24,
	}, nil
}

// Status returns the session status as of the last update.
func (m WatchModel) Status() layout.Status { return m.status }

// Err returns the error that stopped the model, if any.
func (m WatchModel) Err() error { return m.err }

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m WatchModel) Init() tea.Cmd {
	return m.tick()
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.status.Running {
			return m, m.tick()
		}
		start := time.Now()
		status, err := m.ctrl.Frame(m.ctx, m.graph, m.view)
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.lastStep = time.Since(start)
		m.status = status
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			status, err := m.ctrl.SetRunning(m.ctx, !m.status.Running)
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.status = status
			m.message = ""
		case key.Matches(msg, m.keys.Reset):
			if err := m.ctrl.Reset(m.ctx); err != nil {
				m.err = err
				return m, tea.Quit
			}
			status, err := m.ctrl.Status(m.ctx)
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.status = status
			m.message = "layout state reset"
		case key.Matches(msg, m.keys.FastForward):
			start := time.Now()
			res, err := m.ctrl.FastForward(m.ctx, m.graph, m.view, layout.FastForwardOptions{Steps: m.ffSteps, ForceRun: true})
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.status = res.Status
			m.message = fmt.Sprintf("fast-forwarded %d steps in %s", res.Steps, time.Since(start).Round(time.Millisecond))
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("forcelayout watch"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.status.Strategy + " · " + m.status.ID))
	b.WriteString("\n")

	cols := max(m.Width-4, 10)
	rows := max(m.Height-chrome, 5)
	b.WriteString(canvasFrameStyle.Render(strings.Join(styleCanvas(Rasterize(m.graph, cols, rows)), "\n")))
	b.WriteString("\n")
	b.WriteString(m.statusTable())
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(StyleHighlight.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString(watchHelpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return b.String()
}

func (m WatchModel) statusTable() string {
	state := StyleSuccess.Render("running")
	if !m.status.Running {
		state = StyleWarning.Render("paused")
	}
	avg := "—"
	if m.status.LastAvgDisplacement != nil {
		avg = fmt.Sprintf("%.4f", *m.status.LastAvgDisplacement)
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("State", "Steps", "Avg displacement", "Step time", "Nodes").
		Row(state,
			fmt.Sprintf("%d", m.status.Steps),
			avg,
			fmt.Sprintf("%.2fms", float64(m.lastStep.Microseconds())/1000),
			fmt.Sprintf("%d", m.graph.NodeCount())).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	return t.Render()
}

// =============================================================================
// Canvas
// =============================================================================

// Rasterize draws g onto a cols×rows character grid, fitted to the graph
// bounds. Edges are dotted lines; nodes are drawn on top.
func Rasterize(g *graph.Stable, cols, rows int) []string {
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}

	bounds := g.Bounds()
	w, h := bounds.Width(), bounds.Height()
	cell := func(p geom.Vec2) (int, int) {
		x, y := 0.5, 0.5
		if w > 0 {
			x = (p.X - bounds.Min.X) / w
		}
		if h > 0 {
			y = (p.Y - bounds.Min.Y) / h
		}
		return clampInt(int(math.Round(x*float64(cols-1))), cols), clampInt(int(math.Round(y*float64(rows-1))), rows)
	}

	for from, to := range g.Edges() {
		x0, y0 := cell(g.Position(from))
		x1, y1 := cell(g.Position(to))
		n := max(abs(x1-x0), abs(y1-y0))
		for i := 1; i < n; i++ {
			x := x0 + (x1-x0)*i/n
			y := y0 + (y1-y0)*i/n
			grid[y][x] = canvasEdge
		}
	}
	for idx := range g.Nodes() {
		x, y := cell(g.Position(idx))
		grid[y][x] = canvasNode
	}

	lines := make([]string, rows)
	for i, r := range grid {
		lines[i] = string(r)
	}
	return lines
}

// styleCanvas colors the node and edge glyphs of rasterized lines.
func styleCanvas(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		var b strings.Builder
		for _, r := range line {
			switch r {
			case canvasNode:
				b.WriteString(canvasNodeStyle.Render(string(r)))
			case canvasEdge:
				b.WriteString(canvasEdgeStyle.Render(string(r)))
			default:
				b.WriteRune(r)
			}
		}
		out[i] = b.String()
	}
	return out
}

func clampInt(v, n int) int {
	return min(max(v, 0), n-1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
