package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/AntoniaR/tkp/pkg/project"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// initCmd creates the init command which scaffolds a new tkpdb project:
// tkpdb.yaml, the schema root, an empty manifest, and the category
// subdirectories scripts live in. Idempotent; existing files are preserved.
//
// Example usage:
//
//	tkpdb init
//	tkpdb init --database-url postgres://tkp:tkp@db:5432/tkp
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new tkpdb project in the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "database-url",
				Usage: "PostgreSQL connection string to write into tkpdb.yaml",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			pwd, err := os.Getwd()
			if err != nil {
				return errors.Wrap(err, "failed to get current working directory")
			}

			proj := project.New(pwd)
			if err := proj.Initialize(project.InitOptions{
				DatabaseURL: cmd.String("database-url"),
			}); err != nil {
				return errors.Wrap(err, "failed to initialize project")
			}

			fmt.Println("Project initialized.")
			fmt.Println("Add scripts under db/{tables,functions,procedures,init,views}/ and list them in db/manifest.")

			return nil
		},
	}
}
