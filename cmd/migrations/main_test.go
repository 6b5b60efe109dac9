package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilePath(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0001_init_schema.up.sql", "0001_init_schema.down.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o755))

	got, err := migrationFilePath(dir, "init_schema.down")
	require.NoError(t, err)
	assert.Equal(t, "0001_init_schema.down.sql", got)

	got, err = migrationFilePath(dir, "0001_init_schema.up")
	require.NoError(t, err)
	assert.Equal(t, "0001_init_schema.up.sql", got)

	_, err = migrationFilePath(dir, "0002_missing.up")
	assert.Error(t, err)
}
