// Package testutil provides stores for tests that exercise the pipeline without
// database servers: file-backed SQLite for the relational side and an in-memory
// document store.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/relational"
	"github.com/Rana718/mfgseed/internal/database/sqlite"
	"github.com/stretchr/testify/require"
)

// SQLiteConfig points a store at a fresh file in the test's temp dir.
func SQLiteConfig(t *testing.T, name string) config.Store {
	t.Helper()
	return config.Store{Provider: "sqlite", Database: filepath.Join(t.TempDir(), name+".db")}
}

// SQLiteStore returns a connected, empty relational store.
func SQLiteStore(t *testing.T, name string) *relational.Store {
	t.Helper()
	s := relational.New(name, SQLiteConfig(t, name), sqlite.New(), relational.Options{})
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}
