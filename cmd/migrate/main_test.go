package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "gorm.io/driver/sqlite"

	"event-board.backend/internal/config"
)

func withHooks(t *testing.T) *bytes.Buffer {
	t.Helper()
	origLoadDotenv, origLoadCfg, origOpenDB := loadDotenv, loadCfg, openDB
	origUp, origDown := migrateUp, migrateDown
	origDriver, origDialect, origStdout := driverName, dialect, stdout
	t.Cleanup(func() {
		loadDotenv, loadCfg, openDB = origLoadDotenv, origLoadCfg, origOpenDB
		migrateUp, migrateDown = origUp, origDown
		driverName, dialect, stdout = origDriver, origDialect, origStdout
	})

	out := &bytes.Buffer{}
	stdout = out
	loadDotenv = func(...string) error { return errors.New("no .env") }
	driverName = "sqlite3"
	dialect = "sqlite3"
	loadCfg = func() *config.Config {
		return &config.Config{Database: config.DatabaseConfig{
			DSN: fmt.Sprintf("file:migrate_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		}}
	}
	return out
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n))
	return n == 1
}

func TestRun_UpAndDown(t *testing.T) {
	out := withHooks(t)
	dsn := fmt.Sprintf("file:migrate_updown_%d?mode=memory&cache=shared", time.Now().UnixNano())

	// keep the shared in-memory database alive between runs
	keep, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer keep.Close()
	require.NoError(t, keep.Ping())

	require.NoError(t, run(context.Background(), []string{"-dsn", dsn}))
	assert.True(t, tableExists(t, keep, "users"))
	assert.True(t, tableExists(t, keep, "sign_in_tokens"))
	assert.Contains(t, out.String(), "migrations up: done")

	require.NoError(t, run(context.Background(), []string{"-dsn", dsn, "down"}))
	assert.False(t, tableExists(t, keep, "sign_in_tokens"))
	assert.Contains(t, out.String(), "migrations down: done")
}

func TestRun_UsesConfigWhenNoDSN(t *testing.T) {
	withHooks(t)
	var gotDSN string
	openDB = func(driver, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return sql.Open(driver, dsn)
	}
	migrateUp = func(context.Context, *sql.DB, string) error { return nil }

	require.NoError(t, run(context.Background(), nil))
	assert.Contains(t, gotDSN, "file:migrate_")
}

func TestRun_Errors(t *testing.T) {
	withHooks(t)

	assert.ErrorContains(t, run(context.Background(), []string{"sideways"}), "unknown direction")
	assert.Error(t, run(context.Background(), []string{"-bogus"}))

	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }
	assert.ErrorContains(t, run(context.Background(), nil), "open database")

	openDB = sql.Open
	migrateUp = func(context.Context, *sql.DB, string) error { return errors.New("dirty") }
	assert.ErrorContains(t, run(context.Background(), nil), "migrate up")
}
