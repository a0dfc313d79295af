package ui

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIRenderer shows a one-line spinner and progress bar while checks run.
// The line is cleared on Stop so only the report remains on screen.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *checkModel
	tracker *ProgressTracker
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
// Returns an error if TUI initialization fails (e.g., non-TTY output).
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newCheckModel(tracker)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(nil),
		// Signals are handled by the command so the fallback header is printed.
		tea.WithoutSignalHandler(),
	}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(event)
	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program == nil {
		return nil
	}
	r.program.Send(finishedMsg{})

	// Wait with timeout to avoid hanging on an unresponsive TUI.
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		r.program.Kill()
	}
	return nil
}

type progressUpdateMsg ProgressEvent
type finishedMsg struct{}

// checkModel is the bubbletea model for check progress.
type checkModel struct {
	tracker     *ProgressTracker
	width       int
	finished    bool
	spinner     spinner.Model
	progressBar progress.Model
	styles      Styles
}

func newCheckModel(tracker *ProgressTracker) *checkModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	p := progress.New(
		progress.WithSolidFill(ColorLime),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return &checkModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
	}
}

// Init implements tea.Model.
func (m *checkModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *checkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = msg.Width / 3
		if m.progressBar.Width < 10 {
			m.progressBar.Width = 10
		}

	case progressUpdateMsg:
		return m, nil

	case finishedMsg:
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model. An empty final view clears the progress line.
func (m *checkModel) View() string {
	if m.finished {
		return ""
	}

	stats := m.tracker.Stats()
	label := m.styles.Label.Render(fmt.Sprintf("%s %d/%d", stats.Stage, stats.Current, stats.Total))
	if stats.Total == 0 {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Label.Render(stats.Stage.String()+"..."))
	}

	line := fmt.Sprintf("%s %s  %s", m.spinner.View(), m.progressBar.ViewAs(stats.Progress), label)
	if stats.CheckID != "" {
		line += "  " + m.styles.Dim.Render(truncate(stats.CheckID, m.width-lipgloss.Width(line)-2))
	}
	return line
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
