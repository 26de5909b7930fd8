package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/desertthunder/spoteemix/internal/tasks"
	"github.com/desertthunder/spoteemix/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultShuffleIterations = 100

// Shuffle reorders a Spotify playlist with random range moves.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	link := cmd.StringArg("playlist")
	if link == "" {
		return fmt.Errorf("%w: PLAYLIST", shared.ErrMissingArgument)
	}
	iterations := int(cmd.Int("iterations"))

	spotify, authorize, err := r.spotifyService()
	if err != nil {
		return err
	}
	engine := r.newEngine(tasks.EngineOpts{Spotify: spotify, Authorize: authorize})

	r.logger.Info("shuffling playlist", "playlist", link, "iterations", iterations)

	summary, runErr := r.run(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (ui.Summary, error) {
		res, err := engine.Shuffle(ctx, progress, tasks.ShuffleOpts{PlaylistLink: link, Iterations: iterations})
		if res == nil {
			return ui.Summary{}, err
		}
		return ui.Summary{
			Headline: fmt.Sprintf("%d/%d moves applied to %s.", len(res.Moves), iterations, res.Playlist.Name),
		}, err
	})

	if err := r.writeSummary(summary); err != nil {
		return err
	}
	return runErr
}

// utilsCommand handles playlist utilities
func utilsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "utils",
		Usage: "Spotify playlist utilities",
		Commands: []*cli.Command{
			{
				Name:      "shuffle",
				Usage:     "Shuffle a Spotify playlist in place",
				ArgsUsage: "PLAYLIST",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "iterations",
						Aliases: []string{"i"},
						Usage:   "Number of random moves",
						Value:   defaultShuffleIterations,
					},
				},
				Action: r.Shuffle,
			},
		},
	}
}
