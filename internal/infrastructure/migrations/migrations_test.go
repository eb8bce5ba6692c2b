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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:migrations_%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	db, err := gdb.DB()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n))
	return n == 1
}

func TestUpAndDown_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, "sqlite3"))
	assert.True(t, tableExists(t, db, "users"))
	assert.True(t, tableExists(t, db, "sign_in_tokens"))

	// idempotent
	require.NoError(t, Up(ctx, db, "sqlite3"))

	require.NoError(t, Down(ctx, db, "sqlite3"))
	assert.False(t, tableExists(t, db, "sign_in_tokens"))
	assert.True(t, tableExists(t, db, "users"))
}

func TestUp_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Up(context.Background(), nil, "postgres"))
	assert.Equal(t, "sql", gotDir)
}

func TestUp_Error(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err := Up(context.Background(), nil, "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDown_Error(t *testing.T) {
	orig := gooseDownContext
	t.Cleanup(func() { gooseDownContext = orig })
	gooseDownContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	assert.ErrorContains(t, Down(context.Background(), nil, "postgres"), "boom")
}

func TestUnknownDialect(t *testing.T) {
	assert.Error(t, Up(context.Background(), nil, "not-a-dialect"))
	assert.Error(t, Down(context.Background(), nil, "not-a-dialect"))
}
