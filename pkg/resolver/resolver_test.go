package resolver_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/AntoniaR/tkp/pkg/manifest"
	"github.com/AntoniaR/tkp/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaRoot() fstest.MapFS {
	return fstest.MapFS{
		"tables/datasets.sql":  {Data: []byte("CREATE TABLE datasets (id SERIAL PRIMARY KEY);")},
		"functions/flux.sql":   {Data: []byte("CREATE FUNCTION flux() RETURNS int AS $$ SELECT 1 $$ LANGUAGE sql;")},
		"views/augmented.sql":  {Data: []byte("CREATE VIEW augmented AS SELECT * FROM datasets;")},
		"init/skyregions.sql":  {Data: []byte("INSERT INTO skyregions VALUES (1);")},
		"procedures/assoc.sql": {Data: []byte("CREATE PROCEDURE assoc() LANGUAGE sql AS $$ SELECT 1 $$;")},
	}
}

func loadEntries(t *testing.T, lines ...string) []manifest.Entry {
	t.Helper()

	entries, err := manifest.Load(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return entries
}

func TestResolve(t *testing.T) {
	entries := loadEntries(t, "tables/datasets.sql")

	script, err := resolver.Resolve(schemaRoot(), entries[0])
	require.NoError(t, err)

	assert.Equal(t, entries[0], script.Entry)
	assert.Equal(t, "CREATE TABLE datasets (id SERIAL PRIMARY KEY);", script.Content)
	assert.Equal(t, len(script.Content), script.SizeBytes)
}

func TestResolveMissing(t *testing.T) {
	entries := loadEntries(t, "tables/ghost.sql")

	_, err := resolver.Resolve(schemaRoot(), entries[0])
	require.Error(t, err)

	var notFound *resolver.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "tables/ghost.sql", notFound.Entry.RelativePath)
	assert.Contains(t, err.Error(), "manifest position 0")
}

func TestResolveAll(t *testing.T) {
	entries := loadEntries(t,
		"tables/datasets.sql",
		"functions/flux.sql",
		"views/augmented.sql",
	)

	scripts, err := resolver.ResolveAll(schemaRoot(), entries)
	require.NoError(t, err)
	require.Len(t, scripts, 3)

	// Manifest order is preserved through resolution.
	for i, s := range scripts {
		assert.Equal(t, entries[i], s.Entry)
		assert.NotEmpty(t, s.Content)
	}
}

func TestResolveAllFailsFast(t *testing.T) {
	entries := loadEntries(t,
		"tables/datasets.sql",
		"tables/ghost.sql",
		"views/augmented.sql",
	)

	scripts, err := resolver.ResolveAll(schemaRoot(), entries)
	require.Error(t, err)

	// A missing script anywhere in the manifest yields no scripts at all.
	assert.Nil(t, scripts)

	var notFound *resolver.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 1, notFound.Entry.SequenceIndex)
}
