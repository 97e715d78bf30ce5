package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bistro/migrations"
)

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"002_payments.sql": {Data: []byte("SELECT 1;")},
		"001_init.sql":     {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("docs")},
		"archive/000.sql":  {Data: []byte("SELECT 0;")},
	}

	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_payments.sql"}, files)
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Contains(t, files, "001_init.sql")
}
