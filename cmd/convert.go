package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spoteemix/internal/formatter"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/desertthunder/spoteemix/internal/tasks"
	"github.com/desertthunder/spoteemix/internal/ui"
	"github.com/urfave/cli/v3"
)

// ConvertStd downloads a Spotify playlist through Deemix.
func (r *Runner) ConvertStd(ctx context.Context, cmd *cli.Command) error {
	link := cmd.StringArg("playlist")
	if link == "" {
		return fmt.Errorf("%w: PLAYLIST", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(link, "http") {
		return fmt.Errorf("%w: playlist URL doesn't start with http(s) or is otherwise malformed", shared.ErrInvalidArgument)
	}

	deemixURL := r.config.Deemix.URL
	if cmd.IsSet("deemix") {
		deemixURL = cmd.String("deemix")
	}
	if err := shared.ValidateHTTPURL("deemix", deemixURL); err != nil {
		return err
	}

	formatName := r.config.Deemix.Format
	if cmd.IsSet("format") {
		formatName = cmd.String("format")
	}
	format, err := models.ParseFormat(formatName)
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")

	spotify, _, err := r.spotifyService()
	if err != nil {
		return err
	}
	deemix, queue, err := r.deemixServices(deemixURL, !dryRun)
	if err != nil {
		return err
	}
	engine := r.newEngine(tasks.EngineOpts{Spotify: spotify, Deemix: deemix, Queue: queue})

	r.logger.Info("converting playlist", "playlist", link, "deemix", deemixURL, "format", format, "dry_run", dryRun)

	var result *tasks.ConvertResult
	summary, runErr := r.run(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (ui.Summary, error) {
		res, err := engine.Convert(ctx, progress, tasks.ConvertOpts{PlaylistLink: link, Format: format, DryRun: dryRun})
		result = res
		return convertSummary(res, dryRun), err
	})

	if err := r.writeSummary(summary); err != nil {
		return err
	}
	if path := cmd.String("report"); path != "" && result != nil && result.Report != nil {
		report := formatter.NewReport(services.CatalogSpotify, services.CatalogDeemix, result.Playlist, result.Report)
		if err := formatter.WriteFile(report, path); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path)
	}
	return runErr
}

func convertSummary(res *tasks.ConvertResult, dryRun bool) ui.Summary {
	if res == nil || res.Report == nil {
		return ui.Summary{}
	}

	s := ui.Summary{Missing: res.Report.NotFound}
	if dryRun {
		s.Headline = fmt.Sprintf("%d/%d tracks found.", len(res.Report.Matches), res.Total())
		return s
	}

	s.Headline = ui.Downloaded(len(res.Queued), res.Total())
	for _, f := range res.Failed {
		s.Details = append(s.Details, fmt.Sprintf("Couldn't queue %s: %v", f.Result.Reference, f.Err))
	}
	return s
}

// ConvertFiles builds a private Spotify playlist from the audio files in a directory.
func (r *Runner) ConvertFiles(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	dir, name := "./", ""
	switch len(args) {
	case 1:
		name = args[0]
	case 2:
		dir, name = args[0], args[1]
	default:
		return fmt.Errorf("%w: expected [PATH] NAME", shared.ErrMissingArgument)
	}

	spotify, authorize, err := r.spotifyService()
	if err != nil {
		return err
	}
	engine := r.newEngine(tasks.EngineOpts{Spotify: spotify, Authorize: authorize})

	r.logger.Info("creating playlist from files", "dir", dir, "name", name)

	summary, runErr := r.run(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (ui.Summary, error) {
		res, err := engine.FilesToSpotify(ctx, progress, tasks.FilesOpts{Dir: dir, PlaylistName: name})
		return filesSummary(res), err
	})

	if err := r.writeSummary(summary); err != nil {
		return err
	}
	return runErr
}

func filesSummary(res *tasks.FilesResult) ui.Summary {
	if res == nil || res.Report == nil {
		return ui.Summary{}
	}

	s := ui.Summary{Missing: res.Report.NotFound}
	if res.Playlist == nil {
		s.Headline = fmt.Sprintf("%d/%d files matched, no playlist created.", len(res.Report.Matches), res.Report.Total())
		return s
	}
	s.Headline = fmt.Sprintf("%d/%d tracks added to %s.", len(res.Report.Matches), res.Report.Total(), res.Playlist.Name)
	if res.Playlist.URL != "" {
		s.Details = append(s.Details, res.Playlist.URL)
	}
	return s
}

// convertCommand handles playlist conversions
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert playlists between Spotify, Deemix & local files",
		Commands: []*cli.Command{
			{
				Name:      "std",
				Usage:     "Download Spotify playlist using Deemix",
				ArgsUsage: "PLAYLIST",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "deemix",
						Aliases: []string{"d"},
						Usage:   "URL of the Deemix instance",
						Value:   "http://127.0.0.1:6595",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Preferred audio format (" + strings.Join(models.Formats, ", ") + ")",
						Value:   "mp3_320",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Match tracks without adding them to the queue",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a report of the run (.csv, .md, .txt or .json)",
					},
				},
				Action: r.ConvertStd,
			},
			{
				Name:      "fts",
				Usage:     "Create Spotify playlist from files in PATH",
				ArgsUsage: "[PATH] NAME",
				Action:    r.ConvertFiles,
			},
		},
	}
}
