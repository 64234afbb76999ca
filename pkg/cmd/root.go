package cmd

import (
	"context"
	"os"

	"github.com/AntoniaR/tkp/pkg/config"
	"github.com/AntoniaR/tkp/pkg/consts"
	"github.com/AntoniaR/tkp/pkg/project"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

var (
	currentProject *project.Project
	currentConfig  *config.Config
)

// Run creates and executes the main tkpdb CLI application with the given
// version and command-line arguments.
//
// The application automatically detects tkpdb projects by looking for
// tkpdb.yaml in the specified directory. If found, it loads the configuration
// for use by subcommands.
//
// Global Flags:
//   - --dir, -d: Project directory (defaults to current directory)
//
// Example usage:
//
//	# Run in current directory (auto-detect project)
//	err := Run(ctx, "v1.0.0", []string{"tkpdb", "bootstrap", "--url", dsn})
//
//	# Run in specific directory
//	err := Run(ctx, "v1.0.0", []string{"tkpdb", "--dir", "/path/to/project", "verify"})
func Run(ctx context.Context, version string, args []string) error {
	app := &cli.Command{
		Name:  "tkpdb",
		Usage: "Bootstrap a complete database schema from an ordered script manifest",
		Description: `tkpdb applies an ordered manifest of SQL definition files (tables,
functions, procedures, init scripts, views) against a PostgreSQL database,
constructing a complete schema from nothing. Manifest order is the dependency
contract; each script runs as one transaction and the run halts at the first
failure unless told otherwise.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "the project directory",
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			projectDir := cmd.String("dir")

			// Change to project directory first
			if err := os.Chdir(projectDir); err != nil {
				return ctx, err
			}

			// Check if this is a tkpdb project
			_, err := os.Stat(consts.ConfigFile)
			if os.IsNotExist(err) {
				return ctx, nil
			}

			if err != nil {
				return ctx, err
			}

			pwd, err := os.Getwd()
			if err != nil {
				return ctx, errors.Wrap(err, "failed to get current working directory")
			}

			currentConfig, err = config.LoadConfigFile(consts.ConfigFile)
			if err != nil {
				return ctx, errors.Wrapf(err, "failed to load %s", consts.ConfigFile)
			}

			currentProject = project.NewWithConfig(pwd, currentConfig)

			return ctx, nil
		},
		Commands: []*cli.Command{
			bootstrap(),
			verify(),
			initCmd(),
			dev(),
		},
	}

	return app.Run(ctx, args)
}

func requireConfig(ctx context.Context, _ *cli.Command) (context.Context, error) {
	if currentConfig == nil {
		return ctx, errors.Errorf("%s not found - run 'tkpdb init' first", consts.ConfigFile)
	}

	return ctx, nil
}
