// Package core holds the guest's domain model: the entities of spec §3,
// free of any storage or transport concern. Row/wire representations live
// in sa and router respectively and convert to/from these types at their
// boundary, the way boulder keeps core.Registration distinct from sa's
// internal regModel.
package core

// AttestationStatus is the lifecycle state of an Attestation.
type AttestationStatus string

const (
	StatusActive     AttestationStatus = "active"
	StatusRevoked    AttestationStatus = "revoked"
	StatusExpired    AttestationStatus = "expired"
	StatusSuperseded AttestationStatus = "superseded"
)

// SchemaStatus is the lifecycle state of a ProviderSchema.
type SchemaStatus string

const (
	SchemaActive     SchemaStatus = "active"
	SchemaDeprecated SchemaStatus = "deprecated"
)

// GrantStatus is the lifecycle state of an AccessGrant.
type GrantStatus string

const (
	GrantActive  GrantStatus = "active"
	GrantRevoked GrantStatus = "revoked"
)

// GrantType is the authorization shape of an AccessGrant.
type GrantType string

const (
	GrantFull      GrantType = "full"
	GrantPartial   GrantType = "partial"
	GrantAggregate GrantType = "aggregate"
)

// EncryptionConfigStatus is the lifecycle state of an EncryptionConfig.
type EncryptionConfigStatus string

const (
	EncryptionActive     EncryptionConfigStatus = "active"
	EncryptionDeprecated EncryptionConfigStatus = "deprecated"
)

// VerificationLevel is the strength of an identity attestation.
type VerificationLevel string

const (
	VerificationBasic     VerificationLevel = "basic"
	VerificationDocument  VerificationLevel = "document"
	VerificationBiometric VerificationLevel = "biometric"
)

// Attestation is the central record of spec §3: a signed device/IoT
// reading or TEE-issued web-data claim, bucketed for discovery and
// decaying in freshness over logical time.
type Attestation struct {
	ID              string
	AttestationHash string
	OwnerAddress    string
	Domain          string
	Provider        string
	FlowType        string
	AttestedAtInput int64
	ValidFrom       int64
	ValidUntil      *int64
	TeeSignature    string
	Status          AttestationStatus
	FreshnessScore  int
	SupersededBy    *string
	CreatedInput    int64
}

// BucketEntry is one discretized field value belonging to an Attestation.
type BucketEntry struct {
	AttestationID string
	BucketKey     string
	BucketValue   string
}

// DataChunk is one opaque, gated data field belonging to an Attestation.
type DataChunk struct {
	AttestationID   string
	DataKey         string
	EncryptedValue  []byte
	EncryptionKeyID string
}

// AccessGrant authorizes a grantee to read some or all of an
// Attestation's data chunks.
type AccessGrant struct {
	ID             string
	AttestationID  string
	GranteeAddress string
	GrantedBy      string
	DataKeys       []string // nil means "all keys"
	GrantType      GrantType
	GrantedAtInput int64
	ExpiresAtInput *int64
	RevokedAtInput *int64
	Status         GrantStatus
}

// BucketDefinition discretizes a numeric field into ordinal labels.
// len(Boundaries) == len(Labels)+1 (spec §3 invariant 1).
type BucketDefinition struct {
	Boundaries []float64
	Labels     []string
}

// ProviderSchema is a versioned description of a provider's bucket
// vocabulary and data keys.
type ProviderSchema struct {
	Provider          string
	FlowType          string
	Version           int
	Domain            string
	RegisteredBy      string
	RegisteredAtInput int64
	BucketDefinitions map[string]BucketDefinition
	DataKeys          []string
	FreshnessHalfLife int64
	MinFreshness      int
	Status            SchemaStatus
}

// SchemaAdmin is a wallet address with registry-mutation privileges.
type SchemaAdmin struct {
	WalletAddress   string
	AddedBy         string
	AddedAtInput    int64
	CanAddProviders bool
	CanAddAdmins    bool
}

// DeviceAttestation is an append-only, JWS-verified device reading.
type DeviceAttestation struct {
	ID         int64
	DeviceDID  string
	Data       string // opaque JSON text
	Timestamp  int64
	Source     string
	InputIndex int64
}

// IdentityAttestation is an append-only, attestor-issued identity claim.
type IdentityAttestation struct {
	ID                int64
	UserDID           string
	Provider          string
	CountryCode       string
	VerificationLevel VerificationLevel
	Verified          bool
	IssuedAt          int64
	ExpiresAt         int64
	AttestorSignature string
	SessionID         string
	Revoked           bool
	InputIndex        int64
}

// EncryptionConfig is the process-scoped output encryption key record.
type EncryptionConfig struct {
	KeyID     string
	PublicKey []byte // 32 bytes
	Algorithm string // "nacl-box"
	CreatedAt int64
	Status    EncryptionConfigStatus
}
