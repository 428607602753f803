package core

// Getter is the read-only half of the storage authority, the way
// boulder's StorageGetter separates reads from writes for privilege
// separation. Implemented by sa.Storage.
type Getter interface {
	GetAttestation(id string) (Attestation, error)
	GetActiveSchema(provider, flowType string) (ProviderSchema, error)
	GetGrant(id string) (AccessGrant, error)
}

// Adder is the write half of the storage authority.
type Adder interface {
	InsertAttestation(a Attestation, buckets []BucketEntry, data []DataChunk) error
	UpdateAttestationStatus(id string, status AttestationStatus, supersededBy *string) error
	InsertGrant(g AccessGrant) error
	UpdateGrantStatus(id string, status GrantStatus, revokedAtInput int64) error
}

// StorageAuthority is the full read/write storage interface, composed the
// way boulder composes StorageGetter+StorageAdder into StorageAuthority.
type StorageAuthority interface {
	Getter
	Adder
}
