package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestEmbeddedFiles(t *testing.T) {
	pg, err := Migrations.ReadDir(postgresDir)
	require.NoError(t, err)
	assert.NotEmpty(t, pg)

	lite, err := Migrations.ReadDir(sqliteDir)
	require.NoError(t, err)
	assert.NotEmpty(t, lite)
}

func TestUpSQLite_CreatesFingerprintTable(t *testing.T) {
	dsn := fmt.Sprintf("file:migr_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, UpSQLite(context.Background(), db))

	_, err = db.Exec(`INSERT INTO upload_fingerprints (fingerprint, upload_url, object_path, size, created_at)
		VALUES ('fp', 'http://x/1', 'u1/a.bin', 10, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	// running again is a no-op
	require.NoError(t, UpSQLite(context.Background(), db))
}

func TestUpPostgres_UsesSeam(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return errors.New("boom")
	}

	err := UpPostgres(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run postgres migrations")
	assert.Equal(t, postgresDir, gotDir)
}
