// Package manifest loads the ordered list of schema scripts that defines a
// bootstrap run.
//
// A manifest is plain line-oriented text: one relative path per line, `#`
// starts a comment, blank lines are skipped. Declaration order is the
// execution order contract - the manifest author's ordering is the only
// dependency mechanism the bootstrap has, so tables come before the
// functions that query them, and every definitional object comes before the
// views that reference it.
//
// The loader never touches the database; its only output is the in-memory
// entry sequence consumed by the resolver and the executor.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Entry is a single manifest line, resolved to its category and position.
	// Entries are created once at load time and never mutated, reordered, or
	// removed afterwards.
	Entry struct {
		// RelativePath is the script path relative to the schema root,
		// exactly as written in the manifest.
		RelativePath string

		// Category is derived from the path's leading directory segment.
		Category Category

		// SequenceIndex is the entry's position among the non-comment,
		// non-blank manifest lines. Strictly increasing from zero.
		SequenceIndex int
	}

	// ParseError indicates structurally malformed manifest input, such as an
	// unreadable source. Unknown categories are not parse errors.
	ParseError struct {
		Line int
		Err  error
	}
)

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("manifest: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("manifest: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load parses a manifest from the provided reader and returns the ordered
// entry sequence. Blank lines and lines starting with `#` are ignored and do
// not consume a sequence index. Every remaining line is treated as a relative
// path; its category is classified from the leading directory segment, with
// unknown segments logged at warning level and classified as CategoryOther.
//
// Example:
//
//	entries, err := manifest.Load(strings.NewReader(`
//	# core tables first
//	tables/datasets.sql
//	functions/flux.sql
//	views/augmented_runningcatalog.sql
//	`))
func Load(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		category := Classify(text)
		if category == CategoryOther {
			slog.Warn("Unknown script category", "path", text, "line", line)
		}

		entries = append(entries, Entry{
			RelativePath:  text,
			Category:      category,
			SequenceIndex: len(entries),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	return entries, nil
}

// LoadFile loads a manifest from the specified file path. This is a
// convenience function that opens the file and calls Load.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Err: errors.Wrapf(err, "failed to open manifest: %s", path)}
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// FilterCategory returns the subset of entries matching the given category,
// preserving manifest order. Sequence indexes are kept as loaded so a
// filtered rerun still reports original positions.
func FilterCategory(entries []Entry, c Category) []Entry {
	filtered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Category == c {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
