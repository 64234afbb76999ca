package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/AntoniaR/tkp/pkg/manifest"
	"github.com/AntoniaR/tkp/pkg/resolver"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// verify creates the verify command: load the manifest and eagerly resolve
// every script without touching any database. A passing verify proves a
// bootstrap run could at least start.
//
// Example usage:
//
//	tkpdb verify
func verify() *cli.Command {
	return &cli.Command{
		Name:   "verify",
		Usage:  "Check that every manifest entry resolves to a script on disk",
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			entries, err := manifest.LoadFile(currentProject.ManifestPath())
			if err != nil {
				return errors.Wrap(err, "failed to load manifest")
			}

			if len(entries) == 0 {
				fmt.Println("Manifest is empty; nothing to verify.")
				return nil
			}

			scripts, err := resolver.ResolveAll(os.DirFS(currentProject.SchemaRoot()), entries)
			if err != nil {
				return errors.Wrap(err, "manifest verification failed")
			}

			byCategory := map[manifest.Category]int{}
			totalBytes := 0
			for _, s := range scripts {
				byCategory[s.Entry.Category]++
				totalBytes += s.SizeBytes
			}

			fmt.Printf("Manifest OK: %d scripts (%d bytes)\n", len(scripts), totalBytes)
			for _, c := range []manifest.Category{
				manifest.CategoryTable,
				manifest.CategoryFunction,
				manifest.CategoryProcedure,
				manifest.CategoryInit,
				manifest.CategoryView,
				manifest.CategoryOther,
			} {
				if n := byCategory[c]; n > 0 {
					fmt.Printf("  %-10s %d\n", c, n)
				}
			}

			return nil
		},
	}
}
