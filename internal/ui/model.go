package ui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spoteemix/internal/tasks"
)

// Job is a long-running command body. It reports progress on the channel and must not close it.
type Job func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (Summary, error)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProgressView ViewState = iota
	MissingView
	DoneView
)

const maxBarWidth = 60

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	job          Job
	view         ViewState
	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	update       tasks.ProgressUpdate

	// set once by startJob, read by wait after the program exits
	started     atomic.Bool
	jobProgress chan tasks.ProgressUpdate
	jobDone     chan struct{}

	bar          progress.Model
	spinner      spinner.Model
	missing      list.Model
	summary      Summary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that runs job once started.
func NewModel(ctx context.Context, job Job) *Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = maxBarWidth

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		job:     job,
		view:    ProgressView,
		bar:     bar,
		spinner: s,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Summary returns the job's summary once it finished.
func (m *Model) Summary() Summary { return m.summary }

// Err returns the job's error once it finished.
func (m *Model) Err() error { return m.err }

// Init starts the job and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startJob())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(msg.Width-4, maxBarWidth)
		if m.view == MissingView {
			m.missing.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view != ProgressView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.update = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgJobComplete:
			res := msg.data.(jobResult)
			m.summary, m.err = res.summary, res.err
			m.progressChan = nil
			if m.err != nil || len(m.summary.Missing) == 0 || m.ctx.Err() != nil {
				m.view = DoneView
				return m, tea.Quit
			}
			m.missing = newMissingList(m.summary.Missing, max(m.width-4, 20), max(m.height-6, 10))
			m.view = MissingView
			return m, nil
		}
	}

	if m.view == MissingView {
		var cmd tea.Cmd
		m.missing, cmd = m.missing.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.view {
	case ProgressView:
		if key.Matches(msg, m.keys.quit) {
			// the job still reports back, with the context error
			m.cancel()
		}
		return m, nil
	case DoneView:
		return m, nil
	case MissingView:
		if m.missing.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.quit):
			m.view = DoneView
			return m, tea.Quit
		case key.Matches(msg, m.keys.help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.missing, cmd = m.missing.Update(msg)
	return m, cmd
}

func (m *Model) startJob() tea.Cmd {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	m.progressChan, m.jobProgress, m.jobDone = ch, ch, done

	go func() {
		defer close(done)
		summary, err := m.job(m.ctx, ch)
		m.summary, m.err = summary, err
		close(ch)
	}()
	m.started.Store(true)

	return m.waitForProgress()
}

// wait blocks until a started job has returned, discarding progress nobody renders any more.
func (m *Model) wait() {
	if !m.started.Load() {
		return
	}
	for range m.jobProgress {
	}
	<-m.jobDone
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return jobCompleteMsg(m.summary, m.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ProgressView:
		return m.renderProgress()
	case MissingView:
		return fmt.Sprintf("%s\n%s", m.missing.View(), m.help.View(m.keys))
	default:
		return ""
	}
}

func (m *Model) renderProgress() string {
	var b strings.Builder
	label := m.update.Phase.Label()
	if label == "" {
		label = "Starting"
	}
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(styles.title.UnsetMarginBottom().Render(label))
	b.WriteString("\n")

	if m.update.Total > 0 {
		b.WriteString(m.bar.ViewAs(Percent(m.update)))
		b.WriteString(fmt.Sprintf(" %d/%d\n", m.update.Step, m.update.Total))
	}
	if m.update.Message != "" {
		b.WriteString(m.update.Message)
		b.WriteString("\n")
	}
	if m.ctx.Err() != nil {
		b.WriteString(styles.err.Render("Cancelling..."))
		b.WriteString("\n")
	}
	b.WriteString(styles.help.Render(m.help.ShortHelpView([]key.Binding{m.keys.quit})))
	return b.String()
}

// Percent is the completed fraction of an update, clamped to [0, 1].
func Percent(u tasks.ProgressUpdate) float64 {
	if u.Total <= 0 {
		return 0
	}
	p := float64(u.Step) / float64(u.Total)
	return min(max(p, 0), 1)
}
