package sa

import "github.com/letsencrypt/borp"

// initTables registers every table in the storage layout (SPEC_FULL §3.1)
// with the map, mirroring boulder's sa.initTables: one AddTableWithName
// per entity, primary keys set explicitly since borp does not infer
// composite keys. The tables themselves are created by tableDDL, not by
// borp's own reflection-based CREATE TABLE: SQLite cannot ALTER TABLE to
// add a foreign key to an existing table, so the foreign-key-bearing
// tables must exist with their constraints from the first CREATE.
func initTables(dbMap *borp.DbMap) {
	dbMap.AddTableWithName(attestationModel{}, "attestations").SetKeys(false, "ID")
	dbMap.AddTableWithName(bucketEntryModel{}, "bucket_entries").SetKeys(false, "AttestationID", "BucketKey")
	dbMap.AddTableWithName(dataChunkModel{}, "data_chunks").SetKeys(false, "AttestationID", "DataKey")
	dbMap.AddTableWithName(accessGrantModel{}, "access_grants").SetKeys(false, "ID")
	dbMap.AddTableWithName(providerSchemaModel{}, "provider_schemas").SetKeys(false, "Provider", "FlowType", "Version")
	dbMap.AddTableWithName(schemaAdminModel{}, "schema_admins").SetKeys(false, "WalletAddress")
	dbMap.AddTableWithName(deviceAttestationModel{}, "device_attestations").SetKeys(true, "ID")
	dbMap.AddTableWithName(identityAttestationModel{}, "identity_attestations").SetKeys(true, "ID")
	dbMap.AddTableWithName(encryptionConfigModel{}, "encryption_configs").SetKeys(false, "KeyID")
}

// tableDDL creates every table by hand, in dependency order, so the
// foreign keys on bucket_entries, data_chunks, and access_grants exist
// from the table's first CREATE (spec §9 cascade invariant). This runs
// before borp's CreateTablesIfNotExists, which then no-ops on each table
// since all nine already exist with matching column names.
const tableDDL = `
CREATE TABLE IF NOT EXISTS attestations (
	id TEXT PRIMARY KEY,
	attestation_hash TEXT NOT NULL,
	owner_address TEXT NOT NULL,
	domain TEXT NOT NULL,
	provider TEXT NOT NULL,
	flow_type TEXT NOT NULL,
	attested_at_input INTEGER NOT NULL,
	valid_from INTEGER NOT NULL,
	valid_until INTEGER,
	tee_signature TEXT NOT NULL,
	status TEXT NOT NULL,
	freshness_score INTEGER NOT NULL,
	superseded_by TEXT,
	created_input INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS bucket_entries (
	attestation_id TEXT NOT NULL,
	bucket_key TEXT NOT NULL,
	bucket_value TEXT NOT NULL,
	PRIMARY KEY (attestation_id, bucket_key),
	FOREIGN KEY (attestation_id) REFERENCES attestations (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS data_chunks (
	attestation_id TEXT NOT NULL,
	data_key TEXT NOT NULL,
	encrypted_value BLOB NOT NULL,
	encryption_key_id TEXT NOT NULL,
	PRIMARY KEY (attestation_id, data_key),
	FOREIGN KEY (attestation_id) REFERENCES attestations (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS access_grants (
	id TEXT PRIMARY KEY,
	attestation_id TEXT NOT NULL,
	grantee_address TEXT NOT NULL,
	granted_by TEXT NOT NULL,
	data_keys TEXT,
	grant_type TEXT NOT NULL,
	granted_at_input INTEGER NOT NULL,
	expires_at_input INTEGER,
	revoked_at_input INTEGER,
	status TEXT NOT NULL,
	FOREIGN KEY (attestation_id) REFERENCES attestations (id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS provider_schemas (
	provider TEXT NOT NULL,
	flow_type TEXT NOT NULL,
	version INTEGER NOT NULL,
	domain TEXT NOT NULL,
	registered_by TEXT NOT NULL,
	registered_at_input INTEGER NOT NULL,
	bucket_definitions TEXT NOT NULL,
	data_keys TEXT NOT NULL,
	freshness_half_life INTEGER NOT NULL,
	min_freshness INTEGER NOT NULL,
	status TEXT NOT NULL,
	PRIMARY KEY (provider, flow_type, version)
);

CREATE TABLE IF NOT EXISTS schema_admins (
	wallet_address TEXT PRIMARY KEY,
	added_by TEXT NOT NULL,
	added_at_input INTEGER NOT NULL,
	can_add_providers INTEGER NOT NULL,
	can_add_admins INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS device_attestations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_did TEXT NOT NULL,
	data TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	source TEXT NOT NULL,
	input_index INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS identity_attestations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_did TEXT NOT NULL,
	provider TEXT NOT NULL,
	country_code TEXT NOT NULL,
	verification_level TEXT NOT NULL,
	verified INTEGER NOT NULL,
	issued_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	attestor_signature TEXT NOT NULL,
	session_id TEXT NOT NULL,
	revoked INTEGER NOT NULL DEFAULT 0,
	input_index INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS encryption_configs (
	key_id TEXT PRIMARY KEY,
	public_key BLOB NOT NULL,
	algorithm TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	status TEXT NOT NULL
);
`

// indexDDL holds the supplementary indexes and uniqueness constraints the
// spec's invariants depend on. Run once, after tableDDL.
const indexDDL = `
CREATE INDEX IF NOT EXISTS idx_bucket_entries_lookup
	ON bucket_entries (bucket_key, bucket_value);

CREATE INDEX IF NOT EXISTS idx_attestations_domain
	ON attestations (domain, provider, flow_type);

CREATE INDEX IF NOT EXISTS idx_attestations_owner
	ON attestations (owner_address);

CREATE INDEX IF NOT EXISTS idx_access_grants_attestation
	ON access_grants (attestation_id, status);

CREATE INDEX IF NOT EXISTS idx_access_grants_grantee
	ON access_grants (grantee_address, status);

CREATE UNIQUE INDEX IF NOT EXISTS idx_provider_schemas_active
	ON provider_schemas (provider, flow_type)
	WHERE status = 'active';

CREATE INDEX IF NOT EXISTS idx_device_attestations_did
	ON device_attestations (device_did, input_index);

CREATE UNIQUE INDEX IF NOT EXISTS idx_identity_attestations_session
	ON identity_attestations (user_did, provider, session_id);
`

// applySchemaDDL runs the table and index DDL against the open map. Safe
// to call every process start: every statement is IF NOT EXISTS.
func applySchemaDDL(dbMap *borp.DbMap) error {
	if _, err := dbMap.Db.Exec(tableDDL); err != nil {
		return err
	}
	_, err := dbMap.Db.Exec(indexDDL)
	return err
}

// InitTables is the db.Engine initFunc for this package's table set
// (spec §4.2): registers every table, mirroring boulder's
// sa.NewDbMap(..., sa.initTables).
func InitTables(dbMap *borp.DbMap) {
	initTables(dbMap)
}

// Bootstrap applies the hand-written table and index DDL, then lets
// borp's own CreateTablesIfNotExists run over the registered tables. The
// latter is a no-op for every table by the time it runs; it stays so a
// future AddTableWithName without a matching tableDDL entry still gets
// created (without a foreign key) instead of failing outright.
func Bootstrap(dbMap *borp.DbMap) error {
	if err := applySchemaDDL(dbMap); err != nil {
		return err
	}
	return dbMap.CreateTablesIfNotExists()
}
