package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- archive table
CREATE TABLE IF NOT EXISTS t (x UInt8)
ENGINE = MergeTree ORDER BY x;

ALTER TABLE t ADD COLUMN IF NOT EXISTS y UInt8;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE")
	assert.Contains(t, stmts[1], "ALTER TABLE")
}

func TestCheckSplittable(t *testing.T) {
	assert.NoError(t, checkSplittable("SELECT 'plain'"))
	assert.NoError(t, checkSplittable("SELECT 'it''s fine'; SELECT 1"))
	assert.Error(t, checkSplittable("SELECT 'a;b'"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/anubis")
	require.NoError(t, err)
	assert.Equal(t, "anubis", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000/")
	assert.Error(t, err)
}
