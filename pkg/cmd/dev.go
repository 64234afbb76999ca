package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/AntoniaR/tkp/pkg/docker"
	"github.com/AntoniaR/tkp/pkg/executor"
	"github.com/AntoniaR/tkp/pkg/postgres"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// dev creates the dev command: stand up a throwaway PostgreSQL container,
// apply the project's manifest against it, and keep it running until
// interrupted. Useful for inspecting the bootstrapped schema without a real
// database.
//
// Example usage:
//
//	tkpdb dev
//	tkpdb dev --postgres-version 15
func dev() *cli.Command {
	return &cli.Command{
		Name:   "dev",
		Usage:  "Run the bootstrap against a disposable PostgreSQL container",
		Before: requireConfig,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "postgres-version",
				Usage: "PostgreSQL version for the container",
				Value: "16",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: runDev,
	}
}

func runDev(ctx context.Context, cmd *cli.Command) error {
	scripts, err := loadScripts(cmd)
	if err != nil {
		return err
	}

	container := docker.NewWithOptions(docker.Options{
		Version: cmd.String("postgres-version"),
	})

	fmt.Println("Starting PostgreSQL container...")
	if err := container.Start(ctx); err != nil {
		return err
	}
	defer func() {
		// Teardown must proceed even when ctx is already cancelled.
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = container.Stop(stopCtx)
	}()

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		return err
	}

	client, err := postgres.NewClient(ctx, postgres.Config{URL: dsn, PingTimeout: 10 * time.Second})
	if err != nil {
		return errors.Wrap(err, "failed to connect to dev container")
	}
	defer func() { _ = client.Close() }()

	exec := executor.New(executor.Config{
		DB:     client,
		Policy: currentConfig.Policy(),
	})

	rpt, err := exec.Execute(ctx, scripts)
	if err != nil && !errors.Is(err, executor.ErrCancelled) {
		return errors.Wrap(err, "failed to execute bootstrap")
	}

	if werr := rpt.WriteSummary(os.Stdout); werr != nil {
		return werr
	}

	if errors.Is(err, executor.ErrCancelled) {
		return err
	}

	if !rpt.Summary().OverallSuccess {
		return errors.New("bootstrap failed against dev container")
	}

	fmt.Println()
	fmt.Printf("Dev database ready: %s\n", dsn)
	fmt.Println("Press Ctrl-C to stop.")

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	return nil
}
