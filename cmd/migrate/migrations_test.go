package main

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	// cmd/migrate -> repo root
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
}

func TestCollectMigrations_EntitlementSchemaIsFirst(t *testing.T) {
	dir := filepath.Join(repoRoot(t), "db", "migrations")

	migrations, err := goose.CollectMigrations(dir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	first := migrations[0]
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, "00001_create_entitlement_slots.sql", filepath.Base(first.Source))
}
