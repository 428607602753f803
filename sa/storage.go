package sa

import (
	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
	"github.com/lcore-labs/lcore-core/db"
)

// Storage is the storage authority facade: it implements core.Getter and
// core.Adder over a db.DatabaseMap, the way boulder's sa.SQLStorageAuthority
// implements sapb's Getter/Adder services over a gorp DbMap. Every method
// runs against either dbMap directly (reads, single-row writes) or a
// transaction it opens itself (multi-table writes), never leaking the
// underlying SQL to callers.
type Storage struct {
	dbMap db.DatabaseMap
}

// New wraps an opened embedded store. Callers typically pass
// (*db.Engine).Map, which satisfies db.DatabaseMap.
func New(dbMap db.DatabaseMap) *Storage {
	return &Storage{dbMap: dbMap}
}

var _ core.StorageAuthority = (*Storage)(nil)

// GetAttestation fetches a single attestation by ID.
func (s *Storage) GetAttestation(id string) (core.Attestation, error) {
	var m attestationModel
	err := s.dbMap.SelectOne(&m, "SELECT * FROM attestations WHERE id = ?", id)
	if err != nil {
		return core.Attestation{}, lerrors.NotFoundError("attestation %q not found", id)
	}
	return modelToAttestation(m), nil
}

// GetGrant fetches a single access grant by ID.
func (s *Storage) GetGrant(id string) (core.AccessGrant, error) {
	var m accessGrantModel
	err := s.dbMap.SelectOne(&m, "SELECT * FROM access_grants WHERE id = ?", id)
	if err != nil {
		return core.AccessGrant{}, lerrors.NotFoundError("grant %q not found", id)
	}
	return modelToGrant(m)
}

// GetActiveSchema fetches the active schema version for a provider/flow
// pair. Only one row per (provider, flow_type) may be active at a time
// (spec §3 invariant, enforced by idx_provider_schemas_active).
func (s *Storage) GetActiveSchema(provider, flowType string) (core.ProviderSchema, error) {
	var m providerSchemaModel
	err := s.dbMap.SelectOne(&m,
		"SELECT * FROM provider_schemas WHERE provider = ? AND flow_type = ? AND status = 'active'",
		provider, flowType)
	if err != nil {
		return core.ProviderSchema{}, lerrors.NotFoundError("no active schema for %s/%s", provider, flowType)
	}
	return modelToSchema(m)
}

// InsertAttestation writes an attestation and its bucket/data-chunk rows
// as a single transaction: readers must never observe an attestation
// without its buckets, or buckets without their data chunks.
func (s *Storage) InsertAttestation(a core.Attestation, buckets []core.BucketEntry, chunks []core.DataChunk) error {
	tx, err := s.dbMap.Begin()
	if err != nil {
		return lerrors.InternalError("sa: begin insert attestation: %s", err)
	}
	if err := tx.Insert(attestationToModel(a)); err != nil {
		tx.Rollback()
		return lerrors.ConflictError("attestation %q already exists", a.ID)
	}
	for _, b := range buckets {
		if err := tx.Insert(bucketEntryModel(b)); err != nil {
			tx.Rollback()
			return lerrors.InternalError("sa: insert bucket entry: %s", err)
		}
	}
	for _, c := range chunks {
		if err := tx.Insert(dataChunkModel(c)); err != nil {
			tx.Rollback()
			return lerrors.InternalError("sa: insert data chunk: %s", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return lerrors.InternalError("sa: commit insert attestation: %s", err)
	}
	return nil
}

// UpdateAttestationStatus transitions an attestation's lifecycle status,
// optionally recording the attestation that superseded it.
func (s *Storage) UpdateAttestationStatus(id string, status core.AttestationStatus, supersededBy *string) error {
	args := []interface{}{string(status)}
	query := "UPDATE attestations SET status = ?"
	if supersededBy != nil {
		query += ", superseded_by = ?"
		args = append(args, *supersededBy)
	}
	query += " WHERE id = ?"
	args = append(args, id)
	res, err := s.dbMap.Exec(query, args...)
	if err != nil {
		return lerrors.InternalError("sa: update attestation status: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lerrors.InternalError("sa: rows affected: %s", err)
	}
	if n == 0 {
		return lerrors.NotFoundError("attestation %q not found", id)
	}
	return nil
}

// UpdateAttestationFreshness persists a recomputed decay score; its
// caller is attestation.RecalculateFreshness. Discovery reads recompute
// scores transiently and do not persist them.
func (s *Storage) UpdateAttestationFreshness(id string, score int) error {
	res, err := s.dbMap.Exec("UPDATE attestations SET freshness_score = ? WHERE id = ?", score, id)
	if err != nil {
		return lerrors.InternalError("sa: update freshness: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lerrors.InternalError("sa: rows affected: %s", err)
	}
	if n == 0 {
		return lerrors.NotFoundError("attestation %q not found", id)
	}
	return nil
}

// InsertGrant writes a new access grant.
func (s *Storage) InsertGrant(g core.AccessGrant) error {
	m, err := grantToModel(g)
	if err != nil {
		return err
	}
	if err := s.dbMap.Insert(m); err != nil {
		return lerrors.ConflictError("grant %q already exists", g.ID)
	}
	return nil
}

// UpdateGrantStatus revokes (or otherwise transitions) an access grant.
func (s *Storage) UpdateGrantStatus(id string, status core.GrantStatus, revokedAtInput int64) error {
	res, err := s.dbMap.Exec(
		"UPDATE access_grants SET status = ?, revoked_at_input = ? WHERE id = ?",
		string(status), revokedAtInput, id)
	if err != nil {
		return lerrors.InternalError("sa: update grant status: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lerrors.InternalError("sa: rows affected: %s", err)
	}
	if n == 0 {
		return lerrors.NotFoundError("grant %q not found", id)
	}
	return nil
}

// GrantsForAttestation lists every grant issued against an attestation,
// active and revoked, newest first — used by access.Check to find the
// grant covering a requested grantee/key.
func (s *Storage) GrantsForAttestation(attestationID string) ([]core.AccessGrant, error) {
	var rows []accessGrantModel
	_, err := s.dbMap.Select(&rows,
		"SELECT * FROM access_grants WHERE attestation_id = ? ORDER BY granted_at_input DESC", attestationID)
	if err != nil {
		return nil, lerrors.InternalError("sa: select grants: %s", err)
	}
	out := make([]core.AccessGrant, 0, len(rows))
	for _, m := range rows {
		g, err := modelToGrant(m)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
