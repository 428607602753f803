// Package access implements the access-grant authorization algebra
// (spec §4.6): grant issuance, revocation, and the total, side-effect
// free check predicate used by the gated data-fetch inspect.
package access

import (
	"encoding/base64"
	"strings"

	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
	"github.com/lcore-labs/lcore-core/sa"
)

type Access struct {
	storage *sa.Storage
}

func New(storage *sa.Storage) *Access {
	return &Access{storage: storage}
}

// Grant implements grant_access (§4.6).
func (a *Access) Grant(sender, grantID, attestationID, granteeAddress string, grantType core.GrantType, dataKeys []string, expiresAtInput *int64, currentInput int64) (core.AccessGrant, error) {
	att, err := a.storage.GetAttestation(attestationID)
	if err != nil {
		return core.AccessGrant{}, err
	}
	if !strings.EqualFold(att.OwnerAddress, sender) {
		return core.AccessGrant{}, lerrors.UnauthorizedError("sender does not own attestation %q", attestationID)
	}
	if att.Status != core.StatusActive {
		return core.AccessGrant{}, lerrors.ConflictError("attestation %q is not active", attestationID)
	}
	if grantType == core.GrantPartial && len(dataKeys) == 0 {
		return core.AccessGrant{}, lerrors.BadRequestError("partial grant requires non-empty data_keys")
	}
	if _, err := a.storage.GetGrant(grantID); err == nil {
		return core.AccessGrant{}, lerrors.ConflictError("grant %q already exists", grantID)
	}

	grant := core.AccessGrant{
		ID:             grantID,
		AttestationID:  attestationID,
		GranteeAddress: strings.ToLower(granteeAddress),
		GrantedBy:      strings.ToLower(sender),
		GrantType:      grantType,
		GrantedAtInput: currentInput,
		ExpiresAtInput: expiresAtInput,
		Status:         core.GrantActive,
	}
	if grantType == core.GrantFull {
		grant.DataKeys = nil
	} else {
		grant.DataKeys = dataKeys
	}
	if err := a.storage.InsertGrant(grant); err != nil {
		return core.AccessGrant{}, err
	}
	return grant, nil
}

// Revoke implements revoke_access (§4.6): only granted_by may revoke,
// and only an active grant is revocable.
func (a *Access) Revoke(sender, grantID string, currentInput int64) error {
	grant, err := a.storage.GetGrant(grantID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(grant.GrantedBy, sender) {
		return lerrors.UnauthorizedError("sender did not issue grant %q", grantID)
	}
	if grant.Status != core.GrantActive {
		return lerrors.ConflictError("grant %q is not active", grantID)
	}
	return a.storage.UpdateGrantStatus(grantID, core.GrantRevoked, currentInput)
}

// Check implements the check predicate (§4.6): total and side-effect
// free. dataKey == nil means "any access"; a non-nil dataKey narrows to
// that specific key.
func (a *Access) Check(attestationID, grantee string, currentInput int64, dataKey *string) (bool, *core.AccessGrant, error) {
	grantee = strings.ToLower(grantee)
	grants, err := a.storage.GrantsForAttestation(attestationID)
	if err != nil {
		return false, nil, err
	}
	for i := range grants {
		g := grants[i]
		if !strings.EqualFold(g.GranteeAddress, grantee) {
			continue
		}
		if g.Status != core.GrantActive {
			continue
		}
		if g.ExpiresAtInput != nil && *g.ExpiresAtInput <= currentInput {
			continue
		}
		if dataKey == nil {
			return true, &g, nil
		}
		if g.DataKeys == nil {
			return true, &g, nil
		}
		for _, k := range g.DataKeys {
			if k == *dataKey {
				return true, &g, nil
			}
		}
	}
	return false, nil, nil
}

// DataResult is one returned data chunk, base64-encoded for transport.
type DataResult struct {
	Key      string
	ValueB64 string
}

// FetchData implements the attestation_data gated-read inspect (§4.6):
// runs Check, and on success returns either the single requested key or
// the union of the grant's allowed keys.
func (a *Access) FetchData(attestationID, grantee string, currentInput int64, dataKey *string) ([]DataResult, error) {
	allowed, grant, err := a.Check(attestationID, grantee, currentInput, dataKey)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, lerrors.UnauthorizedError("Access denied")
	}

	chunks, err := a.storage.DataChunksForAttestation(attestationID)
	if err != nil {
		return nil, err
	}

	keep := func(key string) bool {
		if dataKey != nil {
			return key == *dataKey
		}
		if grant.DataKeys == nil {
			return true
		}
		for _, k := range grant.DataKeys {
			if k == key {
				return true
			}
		}
		return false
	}

	out := make([]DataResult, 0, len(chunks))
	for _, c := range chunks {
		if !keep(c.DataKey) {
			continue
		}
		out = append(out, DataResult{
			Key:      c.DataKey,
			ValueB64: base64.StdEncoding.EncodeToString(c.EncryptedValue),
		})
	}
	return out, nil
}
