package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/server"
	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/desertthunder/spoteemix/internal/tasks"
	"github.com/desertthunder/spoteemix/internal/ui"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil in [RunnerOpts] are built from the loaded config when a command needs them.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	interactive bool
	runID       string
	spotify     tasks.Spotify
	deemix      match.Searcher
	queue       tasks.Queue
	authorize   tasks.AuthorizeFunc
	closers     []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Logger      *log.Logger
	Output      io.Writer
	Interactive bool // draw progress with the TUI
	Spotify     tasks.Spotify
	Deemix      match.Searcher
	Queue       tasks.Queue
	Authorize   tasks.AuthorizeFunc
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		interactive: opts.Interactive,
		spotify:     opts.Spotify,
		deemix:      opts.Deemix,
		queue:       opts.Queue,
		authorize:   opts.Authorize,
	}
}

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "spoteemix",
		Usage:   "Download Spotify playlists with Deemix & build Spotify playlists from local files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: $XDG_CONFIG_HOME/spoteemix/config.toml)",
			},
			&cli.StringFlag{
				Name:    "client-id",
				Usage:   "The client id of your Spotify API key",
				Sources: cli.EnvVars(shared.EnvClientID),
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Usage:   "The client secret of your Spotify API key",
				Sources: cli.EnvVars(shared.EnvClientSecret),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to a rotated file instead of stderr",
			},
		},
		Before:   r.setup,
		After:    r.teardown,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		convertCommand, utilsCommand, deemixCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads the config, applies global flags and prepares logging for the run.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.loadConfig(cmd.String("config")); err != nil {
		return ctx, err
	}
	r.config.ApplyEnv(nil)

	for _, cred := range []struct {
		flag string
		dst  *string
	}{
		{"client-id", &r.config.Spotify.ClientID},
		{"client-secret", &r.config.Spotify.ClientSecret},
	} {
		if !cmd.IsSet(cred.flag) {
			continue
		}
		value := cmd.String(cred.flag)
		if err := shared.ValidateCredential(cred.flag, value); err != nil {
			return ctx, err
		}
		*cred.dst = value
	}

	if cmd.IsSet("log-level") {
		r.config.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-file") {
		r.config.Log.File = cmd.String("log-file")
	}
	if err := r.setupLogger(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// loadConfig reads path, or the default config path when empty. A missing file leaves the defaults in place.
func (r *Runner) loadConfig(path string) error {
	explicit := path != ""
	if !explicit {
		if r.configPath != "" {
			path = r.configPath
		} else if p, err := shared.DefaultConfigPath(); err == nil {
			path = p
		}
	}
	r.configPath = path
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			r.logger.Warn("config file not found, using defaults", "path", path)
		}
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// setupLogger moves logs to a file while the TUI owns the terminal and tags them with the run id.
func (r *Runner) setupLogger() error {
	file := r.config.Log.File
	if file == "" && r.interactive {
		p, err := xdg.StateFile(filepath.Join("spoteemix", "spoteemix.log"))
		if err != nil {
			return fmt.Errorf("failed to resolve log file: %w", err)
		}
		file = p
	}
	if file != "" {
		fl, closer := shared.NewFileLogger(file)
		r.closers = append(r.closers, closer)
		r.SetLogger(fl)
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	r.runID = shared.GenerateID()
	r.SetLogger(shared.WithLogger(r.logger, "run", r.runID))
	return nil
}

func (r *Runner) teardown(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// spotifyService returns the injected Spotify client or builds one from the config.
func (r *Runner) spotifyService() (tasks.Spotify, tasks.AuthorizeFunc, error) {
	if r.spotify != nil {
		return r.spotify, r.authorize, nil
	}

	creds := r.config.Spotify
	if err := shared.ValidateCredential("client-id", creds.ClientID); err != nil {
		return nil, nil, err
	}
	if err := shared.ValidateCredential("client-secret", creds.ClientSecret); err != nil {
		return nil, nil, err
	}

	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURI:  creds.RedirectURI,
		Logger:       r.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	authorize := func(ctx context.Context) error {
		return server.Authorize(ctx, server.AuthorizeOpts{
			RedirectURI: svc.RedirectURI(),
			AuthCodeURL: svc.AuthCodeURL,
			Exchanger:   svc,
			Prompt:      os.Stderr,
			Logger:      r.logger,
		})
	}
	return svc, authorize, nil
}

// deemixServices returns the injected Deemix clients or builds them for url.
func (r *Runner) deemixServices(url string, withQueue bool) (match.Searcher, tasks.Queue, error) {
	opts := services.DeemixOpts{
		BaseURL:   url,
		ARL:       r.config.Deemix.ARL,
		RateLimit: r.config.Deemix.RateLimit,
		Timeout:   time.Duration(r.config.Deemix.TimeoutSeconds) * time.Second,
		Logger:    r.logger,
	}

	searcher := r.deemix
	if searcher == nil {
		searcher = services.NewDeemixService(opts)
	}
	if !withQueue {
		return searcher, nil, nil
	}

	queue := r.queue
	if queue == nil {
		opts.RateLimit = 0
		q, err := services.NewDeemixQueue(opts)
		if err != nil {
			return nil, nil, err
		}
		queue = q
	}
	return searcher, queue, nil
}

func (r *Runner) newEngine(opts tasks.EngineOpts) *tasks.Engine {
	opts.Workers = r.config.Deemix.Workers
	opts.Logger = r.logger
	return tasks.NewEngine(opts)
}

// run executes job with the progress display matching the terminal.
func (r *Runner) run(ctx context.Context, job ui.Job) (ui.Summary, error) {
	return ui.Run(ctx, job, ui.RunOpts{
		Out:         r.output,
		Logger:      r.logger,
		Interactive: r.interactive,
	})
}

func (r *Runner) writeSummary(s ui.Summary) error {
	if err := ui.WriteSummary(r.output, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
