package sa

import (
	"strings"

	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// InsertDeviceAttestation appends a device reading row. Device
// attestations are append-only (spec §3): there is no update or delete.
func (s *Storage) InsertDeviceAttestation(d core.DeviceAttestation) (int64, error) {
	m := deviceAttestationModel{
		DeviceDID:  d.DeviceDID,
		Data:       d.Data,
		Timestamp:  d.Timestamp,
		Source:     d.Source,
		InputIndex: d.InputIndex,
	}
	if err := s.dbMap.Insert(&m); err != nil {
		return 0, lerrors.InternalError("sa: insert device attestation: %s", err)
	}
	return m.ID, nil
}

// InsertIdentityAttestation appends an identity claim row, enforcing the
// (user_did, provider, session_id) idempotency key. On a duplicate, it
// returns lerrors.Conflict with the ID of the first row, so callers can
// reference it in the reject detail (spec §3, scenario 5).
func (s *Storage) InsertIdentityAttestation(idn core.IdentityAttestation) (int64, error) {
	countryCode := strings.ToUpper(idn.CountryCode)
	var existing identityAttestationModel
	err := s.dbMap.SelectOne(&existing,
		"SELECT * FROM identity_attestations WHERE user_did = ? AND provider = ? AND session_id = ?",
		idn.UserDID, idn.Provider, idn.SessionID)
	if err == nil {
		return existing.ID, lerrors.ConflictError("identity attestation already recorded as id %d", existing.ID)
	}

	m := identityAttestationModel{
		UserDID:           idn.UserDID,
		Provider:          idn.Provider,
		CountryCode:       countryCode,
		VerificationLevel: string(idn.VerificationLevel),
		Verified:          idn.Verified,
		IssuedAt:          idn.IssuedAt,
		ExpiresAt:         idn.ExpiresAt,
		AttestorSignature: idn.AttestorSignature,
		SessionID:         idn.SessionID,
		Revoked:           idn.Revoked,
		InputIndex:        idn.InputIndex,
	}
	if err := s.dbMap.Insert(&m); err != nil {
		return 0, lerrors.ConflictError("identity attestation (user_did, provider, session_id) already exists")
	}
	return m.ID, nil
}

// RevokeIdentityAttestation marks an identity claim as revoked.
func (s *Storage) RevokeIdentityAttestation(id int64) error {
	res, err := s.dbMap.Exec("UPDATE identity_attestations SET revoked = ? WHERE id = ?", true, id)
	if err != nil {
		return lerrors.InternalError("sa: revoke identity attestation: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lerrors.InternalError("sa: rows affected: %s", err)
	}
	if n == 0 {
		return lerrors.NotFoundError("identity attestation %d not found", id)
	}
	return nil
}

// DeviceAttestationsByDID lists every reading recorded for a device,
// oldest first.
func (s *Storage) DeviceAttestationsByDID(deviceDID string) ([]core.DeviceAttestation, error) {
	var rows []deviceAttestationModel
	_, err := s.dbMap.Select(&rows,
		"SELECT * FROM device_attestations WHERE device_did = ? ORDER BY input_index ASC", deviceDID)
	if err != nil {
		return nil, lerrors.InternalError("sa: select device attestations: %s", err)
	}
	out := make([]core.DeviceAttestation, 0, len(rows))
	for _, m := range rows {
		out = append(out, core.DeviceAttestation(m))
	}
	return out, nil
}
