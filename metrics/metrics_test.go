package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotRendersRegisteredCounters(t *testing.T) {
	m := New()
	m.RequestsTotal.WithLabelValues("ingest_attestation", "accept").Inc()
	m.RejectsTotal.WithLabelValues("BadRequest").Inc()
	m.ActiveGrants.Set(3)

	snapshot, err := m.Snapshot()
	require.NoError(t, err)
	require.Contains(t, snapshot, "lcore_requests_total")
	require.Contains(t, snapshot, "lcore_rejects_total")
	require.Contains(t, snapshot, "lcore_active_grants")
}

func TestSnapshotIsStableAcrossCalls(t *testing.T) {
	m := New()
	first, err := m.Snapshot()
	require.NoError(t, err)
	second, err := m.Snapshot()
	require.NoError(t, err)
	require.Equal(t, first, second)
}
