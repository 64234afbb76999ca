package postgres_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AntoniaR/tkp/pkg/executor"
	"github.com/AntoniaR/tkp/pkg/manifest"
	"github.com/AntoniaR/tkp/pkg/postgres"
	"github.com/AntoniaR/tkp/pkg/report"
	"github.com/AntoniaR/tkp/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres launches a throwaway Postgres container and returns a
// connected client. Skipped in -short mode.
func startPostgres(t *testing.T) *postgres.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tkp"),
		tcpostgres.WithUsername("tkp"),
		tcpostgres.WithPassword("tkp"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := postgres.NewClient(ctx, postgres.Config{URL: dsn, PingTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func bootstrapScripts(t *testing.T, manifestText string, files map[string]string) []*resolver.Script {
	t.Helper()

	entries, err := manifest.Load(strings.NewReader(manifestText))
	require.NoError(t, err)

	scripts := make([]*resolver.Script, 0, len(entries))
	for _, e := range entries {
		content, ok := files[e.RelativePath]
		require.True(t, ok, "missing script fixture: %s", e.RelativePath)
		scripts = append(scripts, &resolver.Script{Entry: e, Content: content, SizeBytes: len(content)})
	}
	return scripts
}

var cleanSchema = map[string]string{
	"tables/datasets.sql": `
		CREATE TABLE datasets (
			id SERIAL PRIMARY KEY,
			rerun INT NOT NULL DEFAULT 0,
			description TEXT NOT NULL
		);
		CREATE TABLE images (
			id SERIAL PRIMARY KEY,
			dataset INT NOT NULL REFERENCES datasets (id),
			tau_time DOUBLE PRECISION
		);`,
	"functions/imagecount.sql": `
		CREATE FUNCTION imagecount(ds INT) RETURNS BIGINT AS $$
			SELECT count(*) FROM images WHERE dataset = ds;
		$$ LANGUAGE sql;`,
	"init/seed.sql": `
		INSERT INTO datasets (description) VALUES ('reference set');`,
	"views/dataset_summary.sql": `
		CREATE VIEW dataset_summary AS
			SELECT d.id, d.description, imagecount(d.id) AS images
			FROM datasets d;`,
}

const cleanManifest = `
tables/datasets.sql
functions/imagecount.sql
init/seed.sql
views/dataset_summary.sql
`

func TestBootstrapCleanDatabase(t *testing.T) {
	client := startPostgres(t)
	scripts := bootstrapScripts(t, cleanManifest, cleanSchema)

	exec := executor.New(executor.Config{DB: client, Policy: executor.DefaultPolicy()})
	rpt, err := exec.Execute(context.Background(), scripts)
	require.NoError(t, err)

	assert.Equal(t, executor.StateCompleted, exec.State())

	s := rpt.Summary()
	assert.True(t, s.OverallSuccess)
	assert.Equal(t, len(scripts), s.Succeeded)

	// The view built on the function built on the tables is queryable.
	var images int64
	row := client.QueryRow(context.Background(), "SELECT images FROM dataset_summary LIMIT 1")
	require.NoError(t, row.Scan(&images))
	assert.Zero(t, images)
}

func TestBootstrapRerunFailsOnNonCleanDatabase(t *testing.T) {
	client := startPostgres(t)
	scripts := bootstrapScripts(t, cleanManifest, cleanSchema)

	first := executor.New(executor.Config{DB: client, Policy: executor.DefaultPolicy()})
	rpt, err := first.Execute(context.Background(), scripts)
	require.NoError(t, err)
	require.True(t, rpt.Summary().OverallSuccess)

	// Scripts are not idempotent; the rerun deterministically fails at the
	// first create of an existing object.
	second := executor.New(executor.Config{DB: client, Policy: executor.DefaultPolicy()})
	rpt, err = second.Execute(context.Background(), scripts)
	require.NoError(t, err)

	s := rpt.Summary()
	assert.False(t, s.OverallSuccess)
	require.NotNil(t, s.FirstFailure)
	assert.Equal(t, "tables/datasets.sql", s.FirstFailure.Entry.RelativePath)
	assert.Contains(t, s.FirstFailure.ErrorDetail, "already exists")
	assert.Equal(t, executor.StateAborted, second.State())
}

func TestBootstrapScriptTransactionIsAtomic(t *testing.T) {
	client := startPostgres(t)

	scripts := bootstrapScripts(t, "tables/datasets.sql\ntables/broken.sql\n", map[string]string{
		"tables/datasets.sql": cleanSchema["tables/datasets.sql"],
		"tables/broken.sql": `
			CREATE TABLE transients (id SERIAL PRIMARY KEY);
			CREATE TABLE transients_detail (transient INT REFERENCES no_such_table (id));`,
	})

	exec := executor.New(executor.Config{DB: client, Policy: executor.DefaultPolicy()})
	rpt, err := exec.Execute(context.Background(), scripts)
	require.NoError(t, err)

	s := rpt.Summary()
	assert.False(t, s.OverallSuccess)
	assert.Equal(t, 1, s.Succeeded)

	// The failed script rolled back wholesale: its first statement must not
	// have survived even though it was individually valid.
	var exists bool
	row := client.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'transients')")
	require.NoError(t, row.Scan(&exists))
	assert.False(t, exists)

	// Earlier committed scripts are untouched by the failure.
	row = client.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'datasets')")
	require.NoError(t, row.Scan(&exists))
	assert.True(t, exists)
}

func TestBootstrapContinueOnErrorCollectsDownstreamFailures(t *testing.T) {
	client := startPostgres(t)

	scripts := bootstrapScripts(t, "tables/datasets.sql\nfunctions/imagecount.sql\nviews/dataset_summary.sql\n", map[string]string{
		"tables/datasets.sql": cleanSchema["tables/datasets.sql"],
		// References a column that doesn't exist; the view below then fails
		// as a downstream casualty.
		"functions/imagecount.sql": `
			CREATE FUNCTION imagecount(ds INT) RETURNS BIGINT AS $$
				SELECT count(*) FROM images WHERE no_such_column = ds;
			$$ LANGUAGE sql;`,
		"views/dataset_summary.sql": cleanSchema["views/dataset_summary.sql"],
	})

	exec := executor.New(executor.Config{DB: client, Policy: executor.Policy{FailFast: false}})
	rpt, err := exec.Execute(context.Background(), scripts)
	require.NoError(t, err)

	outcomes := rpt.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, report.StatusSuccess, outcomes[0].Status)
	assert.Equal(t, report.StatusFailed, outcomes[1].Status)
	assert.Equal(t, report.StatusFailed, outcomes[2].Status)

	// The primary diagnostic stays the first failure.
	assert.Equal(t, "functions/imagecount.sql", rpt.Summary().FirstFailure.Entry.RelativePath)
}
