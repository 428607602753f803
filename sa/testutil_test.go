package sa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcore-labs/lcore-core/db"
)

// newTestStorage opens an in-memory embedded store with the full schema
// applied, for package tests that need a real Storage rather than a mock.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	engine, err := db.Open(":memory:", InitTables)
	require.NoError(t, err)
	require.NoError(t, Bootstrap(engine.Map))
	return New(engine.Map)
}
