package sa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcore-labs/lcore-core/core"
)

func testSchema() core.ProviderSchema {
	return core.ProviderSchema{
		Provider:          "acme-sensors",
		FlowType:          "temperature",
		Version:           1,
		Domain:            "iot.example",
		RegisteredBy:      "0xadmin",
		RegisteredAtInput: 1,
		BucketDefinitions: map[string]core.BucketDefinition{
			"reading": {Boundaries: []float64{0, 20, 40}, Labels: []string{"cold", "warm"}},
		},
		DataKeys:          []string{"raw_reading"},
		FreshnessHalfLife: 100,
		MinFreshness:      5,
		Status:            core.SchemaActive,
	}
}

func TestRegisterAndFetchActiveSchema(t *testing.T) {
	s := newTestStorage(t)
	schema := testSchema()
	require.NoError(t, s.RegisterSchema(schema))

	got, err := s.GetActiveSchema("acme-sensors", "temperature")
	require.NoError(t, err)
	require.Equal(t, schema.Domain, got.Domain)
	require.Equal(t, schema.DataKeys, got.DataKeys)
	require.Len(t, got.BucketDefinitions["reading"].Labels, 2)
}

func TestRegisterSchemaDeprecatesPriorVersion(t *testing.T) {
	s := newTestStorage(t)
	v1 := testSchema()
	require.NoError(t, s.RegisterSchema(v1))

	v2 := v1
	v2.Version = 2
	v2.MinFreshness = 10
	require.NoError(t, s.RegisterSchema(v2))

	versions, err := s.SchemaVersions("acme-sensors", "temperature")
	require.NoError(t, err)
	require.Len(t, versions, 2)

	active, err := s.GetActiveSchema("acme-sensors", "temperature")
	require.NoError(t, err)
	require.Equal(t, 2, active.Version)
}

func TestInsertAndGetAttestation(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.RegisterSchema(testSchema()))

	att := core.Attestation{
		ID:              "att-1",
		AttestationHash: "hash",
		OwnerAddress:    "0xowner",
		Domain:          "iot.example",
		Provider:        "acme-sensors",
		FlowType:        "temperature",
		AttestedAtInput: 10,
		ValidFrom:       10,
		TeeSignature:    "sig",
		Status:          core.StatusActive,
		FreshnessScore:  100,
		CreatedInput:    10,
	}
	buckets := []core.BucketEntry{{AttestationID: "att-1", BucketKey: "reading", BucketValue: "warm"}}
	chunks := []core.DataChunk{{AttestationID: "att-1", DataKey: "raw_reading", EncryptedValue: []byte("ciphertext"), EncryptionKeyID: "k1"}}
	require.NoError(t, s.InsertAttestation(att, buckets, chunks))

	got, err := s.GetAttestation("att-1")
	require.NoError(t, err)
	require.Equal(t, att.OwnerAddress, got.OwnerAddress)
	require.Equal(t, 100, got.FreshnessScore)

	require.NoError(t, s.UpdateAttestationFreshness("att-1", 42))
	got, err = s.GetAttestation("att-1")
	require.NoError(t, err)
	require.Equal(t, 42, got.FreshnessScore)

	newID := "att-1"
	require.NoError(t, s.UpdateAttestationStatus("att-1", core.StatusRevoked, &newID))
	got, err = s.GetAttestation("att-1")
	require.NoError(t, err)
	require.Equal(t, core.StatusRevoked, got.Status)
}

func TestInsertAttestationRejectsDuplicateID(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.RegisterSchema(testSchema()))
	att := core.Attestation{ID: "dup", Provider: "acme-sensors", FlowType: "temperature", Status: core.StatusActive}
	require.NoError(t, s.InsertAttestation(att, nil, nil))
	err := s.InsertAttestation(att, nil, nil)
	require.Error(t, err)
}

func TestAdminBootstrapAndRemoval(t *testing.T) {
	s := newTestStorage(t)
	count, err := s.AdminCount()
	require.NoError(t, err)
	require.Equal(t, 0, count)

	admin := core.SchemaAdmin{WalletAddress: "0xroot", AddedBy: "0xroot", CanAddAdmins: true, CanAddProviders: true}
	require.NoError(t, s.InsertAdmin(admin))

	count, err = s.AdminCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)

	got, err := s.GetAdmin("0xroot")
	require.NoError(t, err)
	require.True(t, got.CanAddAdmins)

	require.NoError(t, s.RemoveAdmin("0xroot"))
	_, err = s.GetAdmin("0xroot")
	require.Error(t, err)
}

func TestGrantLifecycle(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.RegisterSchema(testSchema()))
	att := core.Attestation{ID: "att-g", Provider: "acme-sensors", FlowType: "temperature", OwnerAddress: "0xowner", Status: core.StatusActive}
	require.NoError(t, s.InsertAttestation(att, nil, nil))

	grant := core.AccessGrant{
		ID:             "grant-1",
		AttestationID:  "att-g",
		GranteeAddress: "0xgrantee",
		GrantedBy:      "0xowner",
		GrantType:      core.GrantFull,
		GrantedAtInput: 1,
		Status:         core.GrantActive,
	}
	require.NoError(t, s.InsertGrant(grant))

	grants, err := s.GrantsForAttestation("att-g")
	require.NoError(t, err)
	require.Len(t, grants, 1)

	require.NoError(t, s.UpdateGrantStatus("grant-1", core.GrantRevoked, 5))
	got, err := s.GetGrant("grant-1")
	require.NoError(t, err)
	require.Equal(t, core.GrantRevoked, got.Status)
	require.NotNil(t, got.RevokedAtInput)
	require.Equal(t, int64(5), *got.RevokedAtInput)
}
