// Package sa is the storage authority: it owns the embedded store's
// schema and exposes typed CRUD and query helpers over it (spec §4.2,
// persistence halves of §4.4-§4.7). Row ("model") structs are kept
// distinct from core's domain structs exactly as boulder keeps its gorp
// row models (regModel, authzModel, ...) distinct from core.Registration.
package sa

import (
	"database/sql"
	"encoding/json"

	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

type attestationModel struct {
	ID              string `db:"id"`
	AttestationHash string `db:"attestation_hash"`
	OwnerAddress    string `db:"owner_address"`
	Domain          string `db:"domain"`
	Provider        string `db:"provider"`
	FlowType        string `db:"flow_type"`
	AttestedAtInput int64         `db:"attested_at_input"`
	ValidFrom       int64         `db:"valid_from"`
	ValidUntil      sql.NullInt64 `db:"valid_until"`
	TeeSignature    string        `db:"tee_signature"`
	Status          string        `db:"status"`
	FreshnessScore  int           `db:"freshness_score"`
	SupersededBy    sql.NullString `db:"superseded_by"`
	CreatedInput    int64         `db:"created_input"`
}

func attestationToModel(a core.Attestation) attestationModel {
	m := attestationModel{
		ID:              a.ID,
		AttestationHash: a.AttestationHash,
		OwnerAddress:    a.OwnerAddress,
		Domain:          a.Domain,
		Provider:        a.Provider,
		FlowType:        a.FlowType,
		AttestedAtInput: a.AttestedAtInput,
		ValidFrom:       a.ValidFrom,
		TeeSignature:    a.TeeSignature,
		Status:          string(a.Status),
		FreshnessScore:  a.FreshnessScore,
		CreatedInput:    a.CreatedInput,
	}
	if a.ValidUntil != nil {
		m.ValidUntil = sql.NullInt64{Int64: *a.ValidUntil, Valid: true}
	}
	if a.SupersededBy != nil {
		m.SupersededBy = sql.NullString{String: *a.SupersededBy, Valid: true}
	}
	return m
}

func modelToAttestation(m attestationModel) core.Attestation {
	a := core.Attestation{
		ID:              m.ID,
		AttestationHash: m.AttestationHash,
		OwnerAddress:    m.OwnerAddress,
		Domain:          m.Domain,
		Provider:        m.Provider,
		FlowType:        m.FlowType,
		AttestedAtInput: m.AttestedAtInput,
		ValidFrom:       m.ValidFrom,
		TeeSignature:    m.TeeSignature,
		Status:          core.AttestationStatus(m.Status),
		FreshnessScore:  m.FreshnessScore,
		CreatedInput:    m.CreatedInput,
	}
	if m.ValidUntil.Valid {
		v := m.ValidUntil.Int64
		a.ValidUntil = &v
	}
	if m.SupersededBy.Valid {
		v := m.SupersededBy.String
		a.SupersededBy = &v
	}
	return a
}

type bucketEntryModel struct {
	AttestationID string `db:"attestation_id"`
	BucketKey     string `db:"bucket_key"`
	BucketValue   string `db:"bucket_value"`
}

type dataChunkModel struct {
	AttestationID   string `db:"attestation_id"`
	DataKey         string `db:"data_key"`
	EncryptedValue  []byte `db:"encrypted_value"`
	EncryptionKeyID string `db:"encryption_key_id"`
}

type accessGrantModel struct {
	ID             string `db:"id"`
	AttestationID  string `db:"attestation_id"`
	GranteeAddress string        `db:"grantee_address"`
	GrantedBy      string        `db:"granted_by"`
	DataKeysJSON   sql.NullString `db:"data_keys"`
	GrantType      string        `db:"grant_type"`
	GrantedAtInput int64         `db:"granted_at_input"`
	ExpiresAtInput sql.NullInt64 `db:"expires_at_input"`
	RevokedAtInput sql.NullInt64 `db:"revoked_at_input"`
	Status         string        `db:"status"`
}

func grantToModel(g core.AccessGrant) (accessGrantModel, error) {
	m := accessGrantModel{
		ID:             g.ID,
		AttestationID:  g.AttestationID,
		GranteeAddress: g.GranteeAddress,
		GrantedBy:      g.GrantedBy,
		GrantType:      string(g.GrantType),
		GrantedAtInput: g.GrantedAtInput,
		Status:         string(g.Status),
	}
	if g.DataKeys != nil {
		b, err := json.Marshal(g.DataKeys)
		if err != nil {
			return m, lerrors.InternalError("sa: marshal data_keys: %s", err)
		}
		m.DataKeysJSON = sql.NullString{String: string(b), Valid: true}
	}
	if g.ExpiresAtInput != nil {
		m.ExpiresAtInput = sql.NullInt64{Int64: *g.ExpiresAtInput, Valid: true}
	}
	if g.RevokedAtInput != nil {
		m.RevokedAtInput = sql.NullInt64{Int64: *g.RevokedAtInput, Valid: true}
	}
	return m, nil
}

func modelToGrant(m accessGrantModel) (core.AccessGrant, error) {
	g := core.AccessGrant{
		ID:             m.ID,
		AttestationID:  m.AttestationID,
		GranteeAddress: m.GranteeAddress,
		GrantedBy:      m.GrantedBy,
		GrantType:      core.GrantType(m.GrantType),
		GrantedAtInput: m.GrantedAtInput,
		Status:         core.GrantStatus(m.Status),
	}
	if m.DataKeysJSON.Valid {
		var keys []string
		if err := json.Unmarshal([]byte(m.DataKeysJSON.String), &keys); err != nil {
			return g, lerrors.InternalError("sa: unmarshal data_keys: %s", err)
		}
		g.DataKeys = keys
	}
	if m.ExpiresAtInput.Valid {
		v := m.ExpiresAtInput.Int64
		g.ExpiresAtInput = &v
	}
	if m.RevokedAtInput.Valid {
		v := m.RevokedAtInput.Int64
		g.RevokedAtInput = &v
	}
	return g, nil
}

type providerSchemaModel struct {
	Provider            string `db:"provider"`
	FlowType            string `db:"flow_type"`
	Version             int    `db:"version"`
	Domain              string `db:"domain"`
	RegisteredBy        string `db:"registered_by"`
	RegisteredAtInput   int64  `db:"registered_at_input"`
	BucketDefinitionsJS string `db:"bucket_definitions"`
	DataKeysJSON        string `db:"data_keys"`
	FreshnessHalfLife   int64  `db:"freshness_half_life"`
	MinFreshness        int    `db:"min_freshness"`
	Status              string `db:"status"`
}

func schemaToModel(s core.ProviderSchema) (providerSchemaModel, error) {
	bdJSON, err := json.Marshal(s.BucketDefinitions)
	if err != nil {
		return providerSchemaModel{}, lerrors.InternalError("sa: marshal bucket_definitions: %s", err)
	}
	dkJSON, err := json.Marshal(s.DataKeys)
	if err != nil {
		return providerSchemaModel{}, lerrors.InternalError("sa: marshal data_keys: %s", err)
	}
	return providerSchemaModel{
		Provider:            s.Provider,
		FlowType:            s.FlowType,
		Version:             s.Version,
		Domain:              s.Domain,
		RegisteredBy:        s.RegisteredBy,
		RegisteredAtInput:   s.RegisteredAtInput,
		BucketDefinitionsJS: string(bdJSON),
		DataKeysJSON:        string(dkJSON),
		FreshnessHalfLife:   s.FreshnessHalfLife,
		MinFreshness:        s.MinFreshness,
		Status:              string(s.Status),
	}, nil
}

func modelToSchema(m providerSchemaModel) (core.ProviderSchema, error) {
	var bd map[string]core.BucketDefinition
	if err := json.Unmarshal([]byte(m.BucketDefinitionsJS), &bd); err != nil {
		return core.ProviderSchema{}, lerrors.InternalError("sa: unmarshal bucket_definitions: %s", err)
	}
	var dk []string
	if err := json.Unmarshal([]byte(m.DataKeysJSON), &dk); err != nil {
		return core.ProviderSchema{}, lerrors.InternalError("sa: unmarshal data_keys: %s", err)
	}
	return core.ProviderSchema{
		Provider:          m.Provider,
		FlowType:          m.FlowType,
		Version:           m.Version,
		Domain:            m.Domain,
		RegisteredBy:      m.RegisteredBy,
		RegisteredAtInput: m.RegisteredAtInput,
		BucketDefinitions: bd,
		DataKeys:          dk,
		FreshnessHalfLife: m.FreshnessHalfLife,
		MinFreshness:      m.MinFreshness,
		Status:            core.SchemaStatus(m.Status),
	}, nil
}

type schemaAdminModel struct {
	WalletAddress   string `db:"wallet_address"`
	AddedBy         string `db:"added_by"`
	AddedAtInput    int64  `db:"added_at_input"`
	CanAddProviders bool   `db:"can_add_providers"`
	CanAddAdmins    bool   `db:"can_add_admins"`
}

func adminToModel(a core.SchemaAdmin) schemaAdminModel {
	return schemaAdminModel(a)
}

func modelToAdmin(m schemaAdminModel) core.SchemaAdmin {
	return core.SchemaAdmin(m)
}

type deviceAttestationModel struct {
	ID         int64  `db:"id"`
	DeviceDID  string `db:"device_did"`
	Data       string `db:"data"`
	Timestamp  int64  `db:"timestamp"`
	Source     string `db:"source"`
	InputIndex int64  `db:"input_index"`
}

type identityAttestationModel struct {
	ID                int64  `db:"id"`
	UserDID           string `db:"user_did"`
	Provider          string `db:"provider"`
	CountryCode       string `db:"country_code"`
	VerificationLevel string `db:"verification_level"`
	Verified          bool   `db:"verified"`
	IssuedAt          int64  `db:"issued_at"`
	ExpiresAt         int64  `db:"expires_at"`
	AttestorSignature string `db:"attestor_signature"`
	SessionID         string `db:"session_id"`
	Revoked           bool   `db:"revoked"`
	InputIndex        int64  `db:"input_index"`
}

type encryptionConfigModel struct {
	KeyID     string `db:"key_id"`
	PublicKey []byte `db:"public_key"`
	Algorithm string `db:"algorithm"`
	CreatedAt int64  `db:"created_at"`
	Status    string `db:"status"`
}

func encConfigToModel(e core.EncryptionConfig) encryptionConfigModel {
	return encryptionConfigModel{
		KeyID:     e.KeyID,
		PublicKey: e.PublicKey,
		Algorithm: e.Algorithm,
		CreatedAt: e.CreatedAt,
		Status:    string(e.Status),
	}
}

func modelToEncConfig(m encryptionConfigModel) core.EncryptionConfig {
	return core.EncryptionConfig{
		KeyID:     m.KeyID,
		PublicKey: m.PublicKey,
		Algorithm: m.Algorithm,
		CreatedAt: m.CreatedAt,
		Status:    core.EncryptionConfigStatus(m.Status),
	}
}
