package ui

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/desertthunder/spoteemix/internal/tasks"
	"github.com/mattn/go-isatty"
)

// RunOpts configures [Run].
type RunOpts struct {
	Out         io.Writer // where the TUI draws, defaults to stdout
	Logger      *log.Logger
	Interactive bool // use the TUI, see [IsTerminal]
}

// IsTerminal reports whether w is a terminal the TUI can draw on.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run executes job, showing its progress in the TUI when interactive and as log lines otherwise.
func Run(ctx context.Context, job Job, opts RunOpts) (Summary, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if !opts.Interactive {
		return RunPlain(ctx, job, opts.Logger)
	}

	m := NewModel(ctx, job)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(opts.Out))
	_, err := p.Run()
	if err != nil {
		m.cancel()
	}
	// the job may still be running when the program was killed
	m.wait()

	if jobErr := m.Err(); jobErr != nil || err == nil {
		return m.Summary(), jobErr
	}
	return m.Summary(), err
}

// RunPlain executes job and logs each phase change, plus every tenth of a phase's steps.
func RunPlain(ctx context.Context, job Job, logger *log.Logger) (Summary, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		last := tasks.ProgressUpdate{Phase: -1}
		for u := range progress {
			if shouldLog(last, u) {
				logger.Info(u.Phase.Label(), "step", u.Step, "total", u.Total, "msg", u.Message)
			}
			last = u
		}
	}()

	summary, err := job(ctx, progress)
	close(progress)
	<-done
	return summary, err
}

func shouldLog(last, u tasks.ProgressUpdate) bool {
	if u.Phase != last.Phase || u.Total <= 10 || u.Step == u.Total {
		return true
	}
	stride := u.Total / 10
	return u.Step%stride == 0
}
