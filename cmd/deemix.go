package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/desertthunder/spoteemix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// searchOutput is the JSON shape of a single lookup.
type searchOutput struct {
	Reference  models.ReferenceTrack `json:"reference"`
	Found      bool                  `json:"found"`
	Title      string                `json:"title,omitempty"`
	Artists    []string              `json:"artists,omitempty"`
	URL        string                `json:"url,omitempty"`
	Confidence float64               `json:"confidence"`
	Strategy   string                `json:"strategy,omitempty"`
	Attempts   int                   `json:"attempts"`
	Breakdown  *match.Breakdown      `json:"breakdown,omitempty"`
}

// DeemixSearch resolves one track against Deemix and explains the selected candidate.
func (r *Runner) DeemixSearch(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("%w: TITLE", shared.ErrMissingArgument)
	}
	ref := models.NewReferenceTrack(args[0], args[1:]...)

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

	deemix, _, err := r.deemixServices(deemixURL, false)
	if err != nil {
		return err
	}
	engine := r.newEngine(tasks.EngineOpts{Deemix: deemix})

	res := engine.Lookup(ctx, ref, format)
	if err := ctx.Err(); err != nil {
		return err
	}

	out := searchOutput{
		Reference:  ref,
		Found:      res.Found(),
		Confidence: res.Confidence,
		Strategy:   res.Strategy,
		Attempts:   res.Attempts,
	}
	if res.Found() {
		out.Title = res.Candidate.Title()
		out.Artists = res.Candidate.ArtistNames()
		if u, ok := res.Candidate.(interface{ URL() string }); ok {
			out.URL = u.URL()
		}
		b := match.Explain(ref, res.Candidate)
		out.Breakdown = &b
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}
	return r.writeSearchResult(out)
}

func (r *Runner) writeSearchResult(out searchOutput) error {
	if !out.Found {
		return r.writePlain("No match for %s after %d searches.\n", out.Reference, out.Attempts)
	}

	lines := []string{fmt.Sprintf("%s - %s", out.Title, strings.Join(out.Artists, ", "))}
	if out.URL != "" {
		lines = append(lines, out.URL)
	}
	lines = append(lines,
		fmt.Sprintf("confidence: %.1f (strategy %s, %d searches)", out.Confidence, out.Strategy, out.Attempts),
		fmt.Sprintf("  title:  %.1f", out.Breakdown.Title),
	)
	for _, a := range out.Breakdown.Artists {
		if a.Matched == "" {
			lines = append(lines, fmt.Sprintf("  artist: %s (no match)", a.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("  artist: %s ~ %s %.1f", a.Name, a.Matched, a.Score))
	}

	for _, line := range lines {
		if err := r.writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// deemixCommand handles direct Deemix lookups
func deemixCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "deemix",
		Usage: "Deemix catalog operations",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Find the best Deemix match for a track",
				ArgsUsage: "TITLE [ARTIST...]",
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
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.DeemixSearch,
			},
		},
	}
}
