package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/desertthunder/spoteemix/internal/ui"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitUnavailable = 4
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Interactive: ui.IsTerminal(os.Stdout)})
	err := runner.App().Run(ctx, os.Args)
	if err != nil {
		shared.NewLogger(nil).Error("spoteemix failed", "error", err)
	}
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidFlag),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingCredentials),
		errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrAuthFailed):
		return exitAuth
	case services.IsUnavailable(err),
		errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrTimeout):
		return exitUnavailable
	default:
		return exitFailure
	}
}
