package migrations_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/slok/nodeinit/internal/storage/sqlite/migrations"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestMigrator(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(err)
	defer db.Close()

	m, err := migrations.NewMigrator(migrations.MigratorConfig{DB: db})
	require.NoError(err)

	version, err := m.Up()
	require.NoError(err)
	assert.Equal(uint(2), version)
	assert.True(tableExists(t, db, "sessions"))
	assert.True(tableExists(t, db, "step_records"))

	// Already migrated schemas are kept.
	version, err = m.Up()
	require.NoError(err)
	assert.Equal(uint(2), version)

	require.NoError(m.Down())
	assert.False(tableExists(t, db, "sessions"))
	assert.False(tableExists(t, db, "step_records"))
}

func TestNewMigratorWithoutDB(t *testing.T) {
	_, err := migrations.NewMigrator(migrations.MigratorConfig{})
	assert.Error(t, err)
}
