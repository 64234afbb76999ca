// Package resolver turns manifest entries into executable script content.
//
// Resolution is deliberately eager: the whole manifest is read from disk
// before the first statement reaches the database, so a missing or unreadable
// script anywhere in the list aborts the run while the target schema is still
// untouched. The resolver is pure with respect to the database.
package resolver

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/AntoniaR/tkp/pkg/manifest"
)

type (
	// Script is a manifest entry paired with its resolved content. Scripts
	// are owned by the resolver until handed to the executor and are never
	// mutated after resolution. Content is opaque text; the resolver makes
	// no attempt to understand the SQL inside.
	Script struct {
		Entry     manifest.Entry
		Content   string
		SizeBytes int
	}

	// NotFoundError indicates a manifest entry that has no corresponding
	// file under the schema root.
	NotFoundError struct {
		Entry manifest.Entry
	}

	// ReadError indicates an I/O failure reading a script that does exist.
	ReadError struct {
		Entry manifest.Entry
		Err   error
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("script not found: %s (manifest position %d)", e.Entry.RelativePath, e.Entry.SequenceIndex)
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read script %s: %v", e.Entry.RelativePath, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Resolve reads a single entry's content from the schema root filesystem.
func Resolve(fsys fs.FS, entry manifest.Entry) (*Script, error) {
	f, err := fsys.Open(entry.RelativePath)
	if err != nil {
		return nil, &NotFoundError{Entry: entry}
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, &ReadError{Entry: entry, Err: err}
	}

	return &Script{
		Entry:     entry,
		Content:   string(content),
		SizeBytes: len(content),
	}, nil
}

// ResolveAll eagerly resolves every manifest entry against the schema root,
// preserving manifest order. The first missing or unreadable script fails the
// whole resolution; callers are expected to treat that as "the run never
// started".
//
// Example:
//
//	entries, _ := manifest.LoadFile("db/manifest")
//	scripts, err := resolver.ResolveAll(os.DirFS("db"), entries)
//	if err != nil {
//		// no schema change has been made
//	}
func ResolveAll(fsys fs.FS, entries []manifest.Entry) ([]*Script, error) {
	scripts := make([]*Script, 0, len(entries))

	for _, entry := range entries {
		s, err := Resolve(fsys, entry)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}

	return scripts, nil
}
