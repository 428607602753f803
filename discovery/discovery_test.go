package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcore-labs/lcore-core/core"
	"github.com/lcore-labs/lcore-core/db"
	"github.com/lcore-labs/lcore-core/sa"
)

func newTestDiscovery(t *testing.T) (*Discovery, *sa.Storage) {
	t.Helper()
	engine, err := db.Open(":memory:", sa.InitTables)
	require.NoError(t, err)
	require.NoError(t, sa.Bootstrap(engine.Map))
	storage := sa.New(engine.Map)
	return New(storage), storage
}

func seedDiscoveryFixture(t *testing.T, storage *sa.Storage) {
	t.Helper()
	require.NoError(t, storage.RegisterSchema(core.ProviderSchema{
		Provider: "acme-sensors",
		FlowType: "temperature",
		Version:  1,
		Domain:   "iot.example",
		BucketDefinitions: map[string]core.BucketDefinition{
			"reading": {Boundaries: []float64{0, 20, 40}, Labels: []string{"cold", "warm"}},
		},
		DataKeys:          []string{"raw_reading"},
		FreshnessHalfLife: 100,
		Status:            core.SchemaActive,
	}))

	// AttestedAtInput values chosen against a half-life of 100 and a
	// currentInput of 400 (see discoveryCurrentInput): att-1 has just been
	// attested (score 100), att-2 is exactly one half-life old (score 50),
	// att-3 is four half-lives old (near zero).
	attestations := []struct {
		id              string
		owner           string
		attestedAtInput int64
		bucketValue     string
	}{
		{"att-1", "0xowner1", 400, "warm"},
		{"att-2", "0xowner2", 300, "warm"},
		{"att-3", "0xowner3", 0, "cold"},
	}
	for _, a := range attestations {
		require.NoError(t, storage.InsertAttestation(core.Attestation{
			ID:              a.id,
			OwnerAddress:    a.owner,
			Domain:          "iot.example",
			Provider:        "acme-sensors",
			FlowType:        "temperature",
			Status:          core.StatusActive,
			AttestedAtInput: a.attestedAtInput,
			FreshnessScore:  100,
		}, []core.BucketEntry{{AttestationID: a.id, BucketKey: "reading", BucketValue: a.bucketValue}}, nil))
	}
}

const discoveryCurrentInput = 400

func TestQueryByBucketFiltersByMinFreshness(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	got, err := d.QueryByBucket("iot.example", "acme-sensors", "reading", "warm", 0, 0, 0, discoveryCurrentInput)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = d.QueryByBucket("iot.example", "acme-sensors", "reading", "warm", 60, 0, 0, discoveryCurrentInput)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "att-1", got[0].ID)
}

func TestQueryByDomainOrdersByFreshnessDescending(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	got, err := d.QueryByDomain("iot.example", "", "", 0, 0, 0, discoveryCurrentInput)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "att-1", got[0].ID)
	require.Equal(t, "att-3", got[2].ID)
}

func TestCountByBucketGroupsByValue(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	got, err := d.CountByBucket("iot.example", "acme-sensors", "reading", 0)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, r := range got {
		counts[r.BucketValue] = r.Count
	}
	require.Equal(t, 2, counts["warm"])
	require.Equal(t, 1, counts["cold"])
}

func TestCountByDomainAndProvider(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	n, err := d.CountByDomain("iot.example")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	providers, err := d.CountByProvider("iot.example")
	require.NoError(t, err)
	require.Len(t, providers, 1)
	require.Equal(t, "acme-sensors", providers[0].Provider)
	require.Equal(t, 3, providers[0].Count)
}

func TestFreshnessStatsComputesTiers(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	// FreshnessStats reads the stored scores, so persist the decayed
	// scores (100, 50, 6) first.
	_, err := d.attestation.RecalculateFreshness(discoveryCurrentInput)
	require.NoError(t, err)

	stats, err := d.FreshnessStats("iot.example", "")
	require.NoError(t, err)
	require.Equal(t, 3, stats.Count)
	require.Equal(t, 1, stats.Tiers.Fresh)
	require.Equal(t, 1, stats.Tiers.Stale)
	require.Equal(t, 1, stats.Tiers.Decayed)
}

func TestQueryByMultipleBucketsRequiresCriteria(t *testing.T) {
	d, _ := newTestDiscovery(t)
	_, err := d.QueryByMultipleBuckets("iot.example", nil, 0, 0, 0, discoveryCurrentInput)
	require.Error(t, err)
}

func TestQueryByMultipleBucketsMatchesAllCriteria(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	got, err := d.QueryByMultipleBuckets("iot.example", []BucketCriterion{
		{Key: "reading", Values: []string{"warm"}},
	}, 0, 0, 0, discoveryCurrentInput)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestBucketDefinitionReturnsActiveSchema(t *testing.T) {
	d, storage := newTestDiscovery(t)
	seedDiscoveryFixture(t, storage)

	schema, err := d.BucketDefinition("acme-sensors", "temperature")
	require.NoError(t, err)
	require.Equal(t, "iot.example", schema.Domain)
}
