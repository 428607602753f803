// Package attestation implements the attestation core (spec §4.5): ingest,
// revoke, supersede, freshness recalculation, and the device/identity
// attestation flows that verify a JWS or enforce idempotency before
// appending an append-only row.
package attestation

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	lcrypto "github.com/lcore-labs/lcore-core/crypto"
	"github.com/lcore-labs/lcore-core/freshness"

	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
	"github.com/lcore-labs/lcore-core/sa"
)

type Attestation struct {
	storage *sa.Storage
}

func New(storage *sa.Storage) *Attestation {
	return &Attestation{storage: storage}
}

// BucketInput and DataInput mirror the wire shape of ingest_attestation's
// buckets/data arrays (§4.5).
type BucketInput struct {
	Key   string
	Value string
}

type DataInput struct {
	Key             string
	ValueB64        string
	EncryptionKeyID string
}

// Ingest implements ingest_attestation (§4.5).
func (a *Attestation) Ingest(id, attestationHash, ownerAddress, provider, flowType string, validFrom int64, validUntil *int64, teeSignature string, buckets []BucketInput, data []DataInput, currentInput int64) (core.Attestation, error) {
	if _, err := a.storage.GetAttestation(id); err == nil {
		return core.Attestation{}, lerrors.ConflictError("attestation %q already exists", id)
	}

	provider = strings.ToLower(provider)
	flowType = strings.ToLower(flowType)
	schema, err := a.storage.GetActiveSchema(provider, flowType)
	if err != nil {
		return core.Attestation{}, lerrors.NotFoundError("UnknownProvider: no active schema for %s/%s", provider, flowType)
	}

	att := core.Attestation{
		ID:              id,
		AttestationHash: attestationHash,
		OwnerAddress:    strings.ToLower(ownerAddress),
		Domain:          schema.Domain,
		Provider:        provider,
		FlowType:        flowType,
		AttestedAtInput: currentInput,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		TeeSignature:    teeSignature,
		Status:          core.StatusActive,
		FreshnessScore:  100,
		CreatedInput:    currentInput,
	}

	bucketEntries := make([]core.BucketEntry, 0, len(buckets))
	for _, b := range buckets {
		bucketEntries = append(bucketEntries, core.BucketEntry{
			AttestationID: id,
			BucketKey:     b.Key,
			BucketValue:   b.Value,
		})
	}

	chunks := make([]core.DataChunk, 0, len(data))
	for _, d := range data {
		raw, err := base64.StdEncoding.DecodeString(d.ValueB64)
		if err != nil {
			return core.Attestation{}, lerrors.BadRequestError("data[%q]: invalid base64", d.Key)
		}
		chunks = append(chunks, core.DataChunk{
			AttestationID:   id,
			DataKey:         d.Key,
			EncryptedValue:  raw,
			EncryptionKeyID: d.EncryptionKeyID,
		})
	}

	if err := a.storage.InsertAttestation(att, bucketEntries, chunks); err != nil {
		return core.Attestation{}, err
	}
	return att, nil
}

// Revoke implements revoke_attestation (§4.5): only the recorded owner
// may revoke an active attestation.
func (a *Attestation) Revoke(sender, id string) error {
	att, err := a.storage.GetAttestation(id)
	if err != nil {
		return err
	}
	if !strings.EqualFold(att.OwnerAddress, sender) {
		return lerrors.UnauthorizedError("sender does not own attestation %q", id)
	}
	if att.Status != core.StatusActive {
		return lerrors.ConflictError("attestation %q is not active", id)
	}
	return a.storage.UpdateAttestationStatus(id, core.StatusRevoked, nil)
}

// Supersede implements supersede_attestation (§4.5): caller owns both
// old and new, and both share (provider, flow_type).
func (a *Attestation) Supersede(sender, oldID, newID string) error {
	oldAtt, err := a.storage.GetAttestation(oldID)
	if err != nil {
		return err
	}
	newAtt, err := a.storage.GetAttestation(newID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(oldAtt.OwnerAddress, sender) || !strings.EqualFold(newAtt.OwnerAddress, sender) {
		return lerrors.UnauthorizedError("sender does not own both attestations")
	}
	if oldAtt.Provider != newAtt.Provider || oldAtt.FlowType != newAtt.FlowType {
		return lerrors.ConflictError("attestations do not share (provider, flow_type)")
	}
	if oldAtt.Status != core.StatusActive {
		return lerrors.ConflictError("attestation %q is not active", oldID)
	}
	newID2 := newID
	return a.storage.UpdateAttestationStatus(oldID, core.StatusSuperseded, &newID2)
}

// RecalculateFreshness implements the freshness update (§4.5): for every
// active attestation, recompute its decay score against the matching
// active schema's half_life and min_freshness, and persist the result.
// It is idempotent and side-effect free beyond the persisted scores.
func (a *Attestation) RecalculateFreshness(currentInput int64) (int, error) {
	active, err := a.storage.ActiveAttestations()
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, att := range active {
		schema, err := a.storage.GetActiveSchema(att.Provider, att.FlowType)
		if err != nil {
			continue // no active schema any more; leave score as last computed
		}
		score := freshness.Score(att.AttestedAtInput, currentInput, schema.FreshnessHalfLife, schema.MinFreshness)
		if score == att.FreshnessScore {
			continue
		}
		if err := a.storage.UpdateAttestationFreshness(att.ID, score); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// CurrentFreshness recomputes an attestation's score transiently, without
// persisting, for read paths that choose the lazy evaluation point (§9).
func (a *Attestation) CurrentFreshness(att core.Attestation, currentInput int64) (int, error) {
	schema, err := a.storage.GetActiveSchema(att.Provider, att.FlowType)
	if err != nil {
		return att.FreshnessScore, nil
	}
	return freshness.Score(att.AttestedAtInput, currentInput, schema.FreshnessHalfLife, schema.MinFreshness), nil
}

// RecordDevice implements device_attestation (§4.5): verifies the
// supplied JWS against the original wire bytes of data, not a
// re-serialization of it — json.Marshal sorts map keys, which would
// reorder any payload whose signer used a different field order and
// wrongly reject a genuine signature.
func (a *Attestation) RecordDevice(deviceDID string, data json.RawMessage, signature string, timestamp int64, source string, currentInput int64) (core.DeviceAttestation, error) {
	valid, err := lcrypto.VerifyJWS(signature, data, deviceDID)
	if err != nil {
		return core.DeviceAttestation{}, err
	}
	if !valid {
		return core.DeviceAttestation{}, lerrors.CryptoError("BadSignature: device JWS does not verify")
	}

	d := core.DeviceAttestation{
		DeviceDID:  deviceDID,
		Data:       string(data),
		Timestamp:  timestamp,
		Source:     source,
		InputIndex: currentInput,
	}
	id, err := a.storage.InsertDeviceAttestation(d)
	if err != nil {
		return core.DeviceAttestation{}, err
	}
	d.ID = id
	return d, nil
}

// RecordIdentity implements identity_attestation (§4.5): idempotent on
// (user_did, provider, session_id).
func (a *Attestation) RecordIdentity(userDID, provider, countryCode string, level core.VerificationLevel, verified bool, issuedAt, expiresAt int64, attestorSignature, sessionID string, currentInput int64) (core.IdentityAttestation, error) {
	idn := core.IdentityAttestation{
		UserDID:           userDID,
		Provider:          strings.ToLower(provider),
		CountryCode:       strings.ToUpper(countryCode),
		VerificationLevel: level,
		Verified:          verified,
		IssuedAt:          issuedAt,
		ExpiresAt:         expiresAt,
		AttestorSignature: attestorSignature,
		SessionID:         sessionID,
		InputIndex:        currentInput,
	}
	id, err := a.storage.InsertIdentityAttestation(idn)
	if err != nil {
		return core.IdentityAttestation{}, err
	}
	idn.ID = id
	return idn, nil
}
