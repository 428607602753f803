package router

import "encoding/json"

// Request payload shapes (spec §9's "tagged variant" design note): each
// advance action decodes into one of these before a handler ever sees it,
// so advance handlers operate on total, pre-validated values rather than
// raw maps. Inspect handlers read their params map directly; the inspect
// param structs below are not decoded into. Validation tags are enforced by
// letsencrypt/validator/v10, the same struct-tag validator boulder's wfe
// package uses for its own request bodies.

type addSchemaAdminRequest struct {
	Wallet          string `json:"wallet" validate:"required"`
	CanAddProviders bool   `json:"can_add_providers"`
	CanAddAdmins    bool   `json:"can_add_admins"`
}

type removeSchemaAdminRequest struct {
	Wallet string `json:"wallet" validate:"required"`
}

type bucketDefinitionInput struct {
	Boundaries []float64 `json:"boundaries" validate:"required,min=1"`
	Labels     []string  `json:"labels" validate:"required,min=1"`
}

type registerProviderSchemaRequest struct {
	Provider          string                           `json:"provider" validate:"required"`
	FlowType          string                           `json:"flow_type" validate:"required"`
	Domain            string                           `json:"domain" validate:"required"`
	BucketDefinitions map[string]bucketDefinitionInput `json:"bucket_definitions" validate:"required"`
	DataKeys          []string                         `json:"data_keys" validate:"required,min=1"`
	FreshnessHalfLife int64                            `json:"freshness_half_life" validate:"required,gt=0"`
	MinFreshness      int                              `json:"min_freshness"`
}

type deprecateProviderSchemaRequest struct {
	Provider string `json:"provider" validate:"required"`
	FlowType string `json:"flow_type" validate:"required"`
	Version  int    `json:"version" validate:"required,gt=0"`
}

type setEncryptionKeyRequest struct {
	PublicKey string `json:"public_key" validate:"required"`
	KeyID     string `json:"key_id" validate:"required"`
}

type bucketKV struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}

type dataKV struct {
	Key             string `json:"key" validate:"required"`
	ValueB64        string `json:"value" validate:"required"`
	EncryptionKeyID string `json:"encryption_key_id"`
}

type ingestAttestationRequest struct {
	ID              string     `json:"id" validate:"required"`
	AttestationHash string     `json:"attestation_hash" validate:"required"`
	OwnerAddress    string     `json:"owner_address" validate:"required"`
	Provider        string     `json:"provider" validate:"required"`
	FlowType        string     `json:"flow_type" validate:"required"`
	ValidFrom       int64      `json:"valid_from"`
	ValidUntil      *int64     `json:"valid_until,omitempty"`
	TeeSignature    string     `json:"tee_signature" validate:"required"`
	Buckets         []bucketKV `json:"buckets"`
	Data            []dataKV   `json:"data"`
}

type revokeAttestationRequest struct {
	ID string `json:"id" validate:"required"`
}

type supersedeAttestationRequest struct {
	Old string `json:"old" validate:"required"`
	New string `json:"new" validate:"required"`
}

type grantAccessRequest struct {
	GrantID        string   `json:"grant_id" validate:"required"`
	AttestationID  string   `json:"attestation_id" validate:"required"`
	GranteeAddress string   `json:"grantee_address" validate:"required"`
	GrantType      string   `json:"grant_type" validate:"required,oneof=full partial aggregate"`
	DataKeys       []string `json:"data_keys"`
	ExpiresAtInput *int64   `json:"expires_at_input,omitempty"`
}

type revokeAccessRequest struct {
	GrantID string `json:"grant_id" validate:"required"`
}

type deviceAttestationRequest struct {
	DeviceDID string          `json:"device_did" validate:"required"`
	Data      json.RawMessage `json:"data" validate:"required"`
	Signature string          `json:"signature" validate:"required"`
	Timestamp int64           `json:"timestamp" validate:"required"`
	Source    string          `json:"source"`
}

type identityAttestationRequest struct {
	UserDID           string `json:"user_did" validate:"required"`
	Provider          string `json:"provider" validate:"required"`
	CountryCode       string `json:"country_code" validate:"required,len=2"`
	VerificationLevel string `json:"verification_level" validate:"required,oneof=basic document biometric"`
	Verified          bool   `json:"verified"`
	IssuedAt          int64  `json:"issued_at"`
	ExpiresAt         int64  `json:"expires_at"`
	AttestorSignature string `json:"attestor_signature" validate:"required"`
	SessionID         string `json:"session_id" validate:"required"`
}

// Inspect params.

type queryByBucketParams struct {
	Domain       string `json:"domain" validate:"required"`
	Provider     string `json:"provider"`
	BucketKey    string `json:"bucket_key" validate:"required"`
	BucketValue  string `json:"bucket_value" validate:"required"`
	MinFreshness int    `json:"min_freshness"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
}

type queryByDomainParams struct {
	Domain       string `json:"domain" validate:"required"`
	Provider     string `json:"provider"`
	FlowType     string `json:"flow_type"`
	MinFreshness int    `json:"min_freshness"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
}

type countByBucketParams struct {
	Domain       string `json:"domain" validate:"required"`
	Provider     string `json:"provider"`
	BucketKey    string `json:"bucket_key" validate:"required"`
	MinFreshness int    `json:"min_freshness"`
}

type countByDomainParams struct {
	Domain string `json:"domain" validate:"required"`
}

type countByProviderParams struct {
	Domain string `json:"domain" validate:"required"`
}

type freshnessStatsParams struct {
	Domain   string `json:"domain" validate:"required"`
	Provider string `json:"provider"`
}

type availableProvidersParams struct {
	Domain     string `json:"domain"`
	ActiveOnly bool   `json:"active_only"`
}

type bucketDefinitionParams struct {
	Provider string `json:"provider" validate:"required"`
	FlowType string `json:"flow_type" validate:"required"`
}

type checkAccessParams struct {
	AttestationID string `json:"attestation_id" validate:"required"`
	Grantee       string `json:"grantee" validate:"required"`
	CurrentInput  int64  `json:"current_input"`
	DataKey       string `json:"data_key"`
}

type attestationDataParams struct {
	AttestationID string `json:"attestation_id" validate:"required"`
	Grantee       string `json:"grantee" validate:"required"`
	CurrentInput  int64  `json:"current_input"`
	DataKey       string `json:"data_key"`
}
