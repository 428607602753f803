package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcore-labs/lcore-core/core"
	"github.com/lcore-labs/lcore-core/db"
	"github.com/lcore-labs/lcore-core/sa"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	engine, err := db.Open(":memory:", sa.InitTables)
	require.NoError(t, err)
	require.NoError(t, sa.Bootstrap(engine.Map))
	return New(sa.New(engine.Map))
}

func validBuckets() map[string]core.BucketDefinition {
	return map[string]core.BucketDefinition{
		"reading": {Boundaries: []float64{0, 20, 40}, Labels: []string{"cold", "warm"}},
	}
}

func TestAddSchemaAdminBootstrapsFirstAdmin(t *testing.T) {
	r := newTestRegistry(t)

	admin, err := r.AddSchemaAdmin("0xRoot", "0xRoot", false, false, 1)
	require.NoError(t, err)
	require.True(t, admin.CanAddAdmins)
	require.True(t, admin.CanAddProviders)
	require.Equal(t, "0xroot", admin.WalletAddress)
}

func TestAddSchemaAdminRequiresCapabilityAfterBootstrap(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)

	_, err = r.AddSchemaAdmin("0xnobody", "0xsecond", true, false, 2)
	require.Error(t, err)

	added, err := r.AddSchemaAdmin("0xroot", "0xsecond", true, false, 2)
	require.NoError(t, err)
	require.True(t, added.CanAddProviders)
	require.False(t, added.CanAddAdmins)
}

func TestRemoveSchemaAdminForbidsRemovingLastAdmin(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)

	err = r.RemoveSchemaAdmin("0xroot", "0xroot")
	require.Error(t, err)
}

func TestRemoveSchemaAdminSucceedsWhenAnotherAdminRemains(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)
	_, err = r.AddSchemaAdmin("0xroot", "0xsecond", true, true, 2)
	require.NoError(t, err)

	require.NoError(t, r.RemoveSchemaAdmin("0xroot", "0xroot"))
}

func TestRegisterProviderSchemaRequiresCapability(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.RegisterProviderSchema("0xnobody", "acme", "temperature", "iot.example", validBuckets(), []string{"raw"}, 100, 5, 1)
	require.Error(t, err)
}

func TestRegisterProviderSchemaValidatesBucketShape(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)

	badBuckets := map[string]core.BucketDefinition{
		"reading": {Boundaries: []float64{0, 20}, Labels: []string{"cold", "warm"}},
	}
	_, err = r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", badBuckets, []string{"raw"}, 100, 5, 2)
	require.Error(t, err)
}

func TestRegisterProviderSchemaRejectsEmptyDataKeys(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)

	_, err = r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", validBuckets(), nil, 100, 5, 2)
	require.Error(t, err)
}

func TestRegisterProviderSchemaRejectsNonPositiveHalfLife(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)

	_, err = r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", validBuckets(), []string{"raw"}, 0, 5, 2)
	require.Error(t, err)
}

func TestRegisterProviderSchemaAllocatesNextVersion(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)

	s1, err := r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", validBuckets(), []string{"raw"}, 100, 5, 2)
	require.NoError(t, err)
	require.Equal(t, 1, s1.Version)

	s2, err := r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", validBuckets(), []string{"raw"}, 200, 10, 3)
	require.NoError(t, err)
	require.Equal(t, 2, s2.Version)
}

func TestDeprecateProviderSchemaOnlyAffectsActiveVersion(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)
	schema, err := r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", validBuckets(), []string{"raw"}, 100, 5, 2)
	require.NoError(t, err)

	require.NoError(t, r.DeprecateProviderSchema("0xroot", "acme", "temperature", schema.Version))

	err = r.DeprecateProviderSchema("0xroot", "acme", "temperature", schema.Version)
	require.Error(t, err)
}

func TestSetEncryptionKeyBootstrapThenRestricted(t *testing.T) {
	r := newTestRegistry(t)
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	cfg, err := r.SetEncryptionKey("0xanyone", key, "k1", 1)
	require.NoError(t, err)
	require.Equal(t, core.EncryptionActive, cfg.Status)

	_, err = r.AddSchemaAdmin("0xroot", "0xroot", false, false, 2)
	require.NoError(t, err)

	_, err = r.SetEncryptionKey("0xnobody", key, "k2", 3)
	require.Error(t, err)
}

func TestSetEncryptionKeyAcceptsAnyAdminRegardlessOfCapabilityFlags(t *testing.T) {
	r := newTestRegistry(t)
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)
	_, err = r.AddSchemaAdmin("0xroot", "0xdelegate", false, true, 2)
	require.NoError(t, err)

	cfg, err := r.SetEncryptionKey("0xdelegate", key, "k1", 3)
	require.NoError(t, err)
	require.Equal(t, core.EncryptionActive, cfg.Status)
}

func TestSetEncryptionKeyRejectsWrongKeyLength(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.SetEncryptionKey("0xanyone", []byte("too-short"), "k1", 1)
	require.Error(t, err)
}

func TestAvailableProvidersFiltersByDomain(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.AddSchemaAdmin("0xroot", "0xroot", false, false, 1)
	require.NoError(t, err)
	_, err = r.RegisterProviderSchema("0xroot", "acme", "temperature", "iot.example", validBuckets(), []string{"raw"}, 100, 5, 2)
	require.NoError(t, err)
	_, err = r.RegisterProviderSchema("0xroot", "globex", "humidity", "other.example", validBuckets(), []string{"raw"}, 100, 5, 3)
	require.NoError(t, err)

	matched, err := r.AvailableProviders("iot.example", true)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "acme", matched[0].Provider)

	all, err := r.AvailableProviders("", true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
