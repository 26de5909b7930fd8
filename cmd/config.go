package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spoteemix/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example config to PATH or the default config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		p, err := shared.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// ConfigARL stores the Deezer ARL used to log Deemix in, given directly or read from a copied cURL command.
func (r *Runner) ConfigARL(ctx context.Context, cmd *cli.Command) error {
	var arl string
	switch curlFile := cmd.String("curl-file"); {
	case curlFile != "":
		v, err := shared.ARLFromCurlFile(curlFile)
		if err != nil {
			return err
		}
		arl = v
	case cmd.StringArg("arl") != "":
		arl = cmd.StringArg("arl")
		if err := shared.ValidateARL(arl); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: ARL or --curl-file", shared.ErrMissingArgument)
	}

	path := r.configPath
	if path == "" {
		p, err := shared.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// start from the file so values from flags and the environment aren't written back
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return err
		}
	}
	config.Deemix.ARL = arl

	if err := shared.SaveConfig(path, config); err != nil {
		return err
	}
	r.logger.Info("ARL saved", "path", path)
	return r.writePlain("✓ ARL saved to %s\n", path)
}

// configCommand handles configuration files
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write the example config",
				ArgsUsage: "[PATH]",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.ConfigInit,
			},
			{
				Name:      "arl",
				Usage:     "Save the Deezer ARL Deemix logs in with",
				ArgsUsage: "[ARL]",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "arl"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a .sh file with a deezer.com request (DevTools: Copy as cURL)",
					},
				},
				Action: r.ConfigARL,
			},
		},
	}
}
