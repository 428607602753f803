package router

import (
	"encoding/base64"
	"encoding/json"

	"github.com/lcore-labs/lcore-core/attestation"
	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// decodeB64Key decodes a standard-base64 public key, as carried on the
// wire by set_encryption_key's public_key field.
func decodeB64Key(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, lerrors.BadRequestError("public_key is not valid base64: %s", err)
	}
	return raw, nil
}

// defaultAdvanceHandlers is the action name -> handler table (§4.8.4):
// every advance action of SPEC_FULL §4.4-4.6 decodes into its typed
// request, validates, and dispatches to registry/attestation/access.
func defaultAdvanceHandlers() map[string]advanceHandler {
	return map[string]advanceHandler{
		"add_schema_admin":           handleAddSchemaAdmin,
		"remove_schema_admin":        handleRemoveSchemaAdmin,
		"register_provider_schema":   handleRegisterProviderSchema,
		"deprecate_provider_schema":  handleDeprecateProviderSchema,
		"set_encryption_key":         handleSetEncryptionKey,
		"ingest_attestation":         handleIngestAttestation,
		"revoke_attestation":         handleRevokeAttestation,
		"supersede_attestation":      handleSupersedeAttestation,
		"grant_access":               handleGrantAccess,
		"revoke_access":              handleRevokeAccess,
		"device_attestation":         handleDeviceAttestation,
		"identity_attestation":       handleIdentityAttestation,
	}
}

// decodeAndValidate unmarshals raw into req and runs struct-tag
// validation, turning any failure into a BadRequest CoreError.
func decodeAndValidate(r *Router, raw []byte, req interface{}) error {
	if err := json.Unmarshal(raw, req); err != nil {
		return lerrors.BadRequestError("invalid request body: %s", err)
	}
	if err := r.validate.Struct(req); err != nil {
		return lerrors.BadRequestError("validation failed: %s", err)
	}
	return nil
}

func handleAddSchemaAdmin(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req addSchemaAdminRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	return r.registry.AddSchemaAdmin(sender, req.Wallet, req.CanAddProviders, req.CanAddAdmins, inputIndex)
}

func handleRemoveSchemaAdmin(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req removeSchemaAdminRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	if err := r.registry.RemoveSchemaAdmin(sender, req.Wallet); err != nil {
		return nil, err
	}
	return map[string]string{"removed": req.Wallet}, nil
}

func toBucketDefinitions(in map[string]bucketDefinitionInput) map[string]core.BucketDefinition {
	out := make(map[string]core.BucketDefinition, len(in))
	for k, v := range in {
		out[k] = core.BucketDefinition{Boundaries: v.Boundaries, Labels: v.Labels}
	}
	return out
}

func handleRegisterProviderSchema(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req registerProviderSchemaRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	return r.registry.RegisterProviderSchema(sender, req.Provider, req.FlowType, req.Domain,
		toBucketDefinitions(req.BucketDefinitions), req.DataKeys, req.FreshnessHalfLife, req.MinFreshness, inputIndex)
}

func handleDeprecateProviderSchema(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req deprecateProviderSchemaRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	if err := r.registry.DeprecateProviderSchema(sender, req.Provider, req.FlowType, req.Version); err != nil {
		return nil, err
	}
	return map[string]interface{}{"provider": req.Provider, "flow_type": req.FlowType, "version": req.Version}, nil
}

func handleSetEncryptionKey(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req setEncryptionKeyRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	key, err := decodeB64Key(req.PublicKey)
	if err != nil {
		return nil, err
	}
	return r.registry.SetEncryptionKey(sender, key, req.KeyID, inputIndex)
}

func handleIngestAttestation(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req ingestAttestationRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	buckets := make([]attestation.BucketInput, 0, len(req.Buckets))
	for _, b := range req.Buckets {
		buckets = append(buckets, attestation.BucketInput{Key: b.Key, Value: b.Value})
	}
	data := make([]attestation.DataInput, 0, len(req.Data))
	for _, d := range req.Data {
		data = append(data, attestation.DataInput{Key: d.Key, ValueB64: d.ValueB64, EncryptionKeyID: d.EncryptionKeyID})
	}
	return r.attestation.Ingest(req.ID, req.AttestationHash, req.OwnerAddress, req.Provider, req.FlowType,
		req.ValidFrom, req.ValidUntil, req.TeeSignature, buckets, data, inputIndex)
}

func handleRevokeAttestation(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req revokeAttestationRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	if err := r.attestation.Revoke(sender, req.ID); err != nil {
		return nil, err
	}
	return map[string]string{"revoked": req.ID}, nil
}

func handleSupersedeAttestation(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req supersedeAttestationRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	if err := r.attestation.Supersede(sender, req.Old, req.New); err != nil {
		return nil, err
	}
	return map[string]string{"superseded": req.Old, "by": req.New}, nil
}

func handleGrantAccess(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req grantAccessRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	return r.access.Grant(sender, req.GrantID, req.AttestationID, req.GranteeAddress,
		core.GrantType(req.GrantType), req.DataKeys, req.ExpiresAtInput, inputIndex)
}

func handleRevokeAccess(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req revokeAccessRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	if err := r.access.Revoke(sender, req.GrantID, inputIndex); err != nil {
		return nil, err
	}
	return map[string]string{"revoked": req.GrantID}, nil
}

func handleDeviceAttestation(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req deviceAttestationRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	return r.attestation.RecordDevice(req.DeviceDID, req.Data, req.Signature, req.Timestamp, req.Source, inputIndex)
}

func handleIdentityAttestation(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error) {
	var req identityAttestationRequest
	if err := decodeAndValidate(r, raw, &req); err != nil {
		return nil, err
	}
	return r.attestation.RecordIdentity(req.UserDID, req.Provider, req.CountryCode,
		core.VerificationLevel(req.VerificationLevel), req.Verified, req.IssuedAt, req.ExpiresAt,
		req.AttestorSignature, req.SessionID, inputIndex)
}
