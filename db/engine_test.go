package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/letsencrypt/borp"
	"github.com/stretchr/testify/require"
)

type engineTestRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func initEngineTestTable(dbMap *borp.DbMap) {
	dbMap.AddTableWithName(engineTestRow{}, "engine_test_rows").SetKeys(true, "id")
}

func TestOpenInMemoryCreatesUsableMap(t *testing.T) {
	e, err := Open(":memory:", initEngineTestTable)
	require.NoError(t, err)
	require.NoError(t, e.CreateTablesIfNotExist())

	require.NoError(t, e.Map.Insert(&engineTestRow{Name: "alice"}))
	var got engineTestRow
	require.NoError(t, e.Map.SelectOne(&got, "SELECT * FROM engine_test_rows WHERE name = ?", "alice"))
	require.Equal(t, "alice", got.Name)
}

func TestSnapshotUnavailableForInMemoryStore(t *testing.T) {
	e, err := Open(":memory:", initEngineTestTable)
	require.NoError(t, err)

	_, err = e.ExportSnapshot()
	require.Error(t, err)

	err = e.ImportSnapshot([]byte("anything"))
	require.Error(t, err)
}

func TestExportImportSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcore-test.sqlite")

	e, err := Open(path, initEngineTestTable)
	require.NoError(t, err)
	require.NoError(t, e.CreateTablesIfNotExist())
	require.NoError(t, e.Map.Insert(&engineTestRow{Name: "bob"}))

	blob, err := e.ExportSnapshot()
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	otherPath := filepath.Join(t.TempDir(), "lcore-restored.sqlite")
	require.NoError(t, os.WriteFile(otherPath, blob, 0o600))
	restored, err := Open(otherPath, initEngineTestTable)
	require.NoError(t, err)

	var got engineTestRow
	require.NoError(t, restored.Map.SelectOne(&got, "SELECT * FROM engine_test_rows WHERE name = ?", "bob"))
	require.Equal(t, "bob", got.Name)
}

func TestMaintenanceOperationsSucceed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcore-maint.sqlite")
	e, err := Open(path, initEngineTestTable)
	require.NoError(t, err)
	require.NoError(t, e.CreateTablesIfNotExist())

	require.NoError(t, e.Vacuum())
	require.NoError(t, e.Analyze())

	result, err := e.IntegrityCheck()
	require.NoError(t, err)
	require.Equal(t, "ok", result)
}

func TestEngineStringIncludesPath(t *testing.T) {
	e, err := Open(":memory:", initEngineTestTable)
	require.NoError(t, err)
	require.Contains(t, e.String(), ":memory:")
}
