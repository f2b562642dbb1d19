package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "migrate.db")
	s, err := NewLibSQLStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	// The schema is usable after the repeated migration.
	require.NoError(t, s.SaveRun(ctx, &Run{
		ID:           "run-migrate",
		WorkflowName: "lead_generation_pipeline",
		Status:       RunStatusRunning,
	}))
	got, err := s.GetRun(ctx, "run-migrate")
	require.NoError(t, err)
	assert.Equal(t, "lead_generation_pipeline", got.WorkflowName)
}

func TestParseMigrationName(t *testing.T) {
	version, label, err := parseMigrationName("001_initial_schema.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "initial_schema", label)

	_, _, err = parseMigrationName("schema.sql")
	require.Error(t, err)

	_, _, err = parseMigrationName("abc_schema.sql")
	require.Error(t, err)
}

func TestSQLStatements(t *testing.T) {
	script := `-- leading comment
CREATE TABLE a (id TEXT);

-- another comment
CREATE INDEX idx_a ON a(id);
`
	stmts := sqlStatements(script)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.Contains(t, stmts[1], "CREATE INDEX idx_a")

	assert.Empty(t, sqlStatements("-- only comments\n-- here\n"))
}
