// Package docker runs temporary PostgreSQL instances for trying a schema
// bootstrap without touching a real database.
//
// The `tkpdb dev` command uses this package to stand up a throwaway
// container, apply the project's manifest against it, and tear it down
// again. Container lifecycle management is delegated to testcontainers.
package docker

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	// DefaultDatabase is the database created inside the dev container
	DefaultDatabase = "tkp"

	// DefaultUser is the superuser of the dev container
	DefaultUser = "tkp"

	// DefaultPassword is the password of the dev container superuser
	DefaultPassword = "tkp"
)

type (
	// Options configures the dev PostgreSQL container.
	Options struct {
		// Version is the PostgreSQL version to run (default: 16)
		Version string
	}

	// Container manages a PostgreSQL container for bootstrap runs.
	Container struct {
		options   Options
		container *postgres.PostgresContainer
	}
)

// New creates a new container handle with default options.
func New() *Container {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a new container handle with custom options.
//
// Example:
//
//	container := docker.NewWithOptions(docker.Options{Version: "16"})
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func NewWithOptions(opts Options) *Container {
	return &Container{options: opts}
}

// Start launches the PostgreSQL container and waits for it to accept
// connections.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = "16"
	}

	ctr, err := postgres.Run(ctx,
		fmt.Sprintf("postgres:%s-alpine", version),
		postgres.WithDatabase(DefaultDatabase),
		postgres.WithUsername(DefaultUser),
		postgres.WithPassword(DefaultPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to start PostgreSQL container")
	}

	c.container = ctr
	return nil
}

// Stop stops and removes the container. Safe to call when not running.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	return errors.Wrap(err, "failed to stop PostgreSQL container")
}

// ConnectionString returns the DSN for connecting to the running container.
func (c *Container) ConnectionString(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// IsRunning returns true if the container is currently running.
func (c *Container) IsRunning() bool {
	return c.container != nil
}
