package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	stmts, err := SplitStatements(`
-- comment; with semicolon
CREATE TABLE a (x String);

CREATE TABLE b (y String DEFAULT 'it''s');
`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CREATE TABLE a (x String)",
		"CREATE TABLE b (y String DEFAULT 'it''s')",
	}, stmts)
}

func TestSplitStatements_RejectsSemicolonInString(t *testing.T) {
	_, err := SplitStatements(`INSERT INTO a VALUES ('x;y');`)
	assert.Error(t, err)
}

func TestEmbeddedFiles(t *testing.T) {
	pg, err := sqlFiles(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_daily_records.sql", pg[0].name)
	assert.Contains(t, pg[1].body, "feature_values")

	ch, err := sqlFiles(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)

	stmts, err := SplitStatements(ch[0].body)
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}
