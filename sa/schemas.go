package sa

import (
	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// RegisterSchema inserts a new provider schema version inside a
// transaction that first deprecates whatever version is currently active
// for the same (provider, flow_type) pair — spec §4.4's invariant that at
// most one version is active at a time.
func (s *Storage) RegisterSchema(schema core.ProviderSchema) error {
	tx, err := s.dbMap.Begin()
	if err != nil {
		return lerrors.InternalError("sa: begin register schema: %s", err)
	}
	_, err = tx.Exec(
		"UPDATE provider_schemas SET status = 'deprecated' WHERE provider = ? AND flow_type = ? AND status = 'active'",
		schema.Provider, schema.FlowType)
	if err != nil {
		tx.Rollback()
		return lerrors.InternalError("sa: deprecate prior schema: %s", err)
	}
	m, err := schemaToModel(schema)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Insert(m); err != nil {
		tx.Rollback()
		return lerrors.ConflictError("schema %s/%s v%d already exists", schema.Provider, schema.FlowType, schema.Version)
	}
	if err := tx.Commit(); err != nil {
		return lerrors.InternalError("sa: commit register schema: %s", err)
	}
	return nil
}

// DeprecateSchema marks a provider's active schema as deprecated without
// registering a replacement, leaving the provider with no active schema
// until one is registered again.
func (s *Storage) DeprecateSchema(provider, flowType string) error {
	res, err := s.dbMap.Exec(
		"UPDATE provider_schemas SET status = 'deprecated' WHERE provider = ? AND flow_type = ? AND status = 'active'",
		provider, flowType)
	if err != nil {
		return lerrors.InternalError("sa: deprecate schema: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lerrors.InternalError("sa: rows affected: %s", err)
	}
	if n == 0 {
		return lerrors.NotFoundError("no active schema for %s/%s", provider, flowType)
	}
	return nil
}

// SchemaVersions lists every version ever registered for a provider/flow
// pair, newest first.
func (s *Storage) SchemaVersions(provider, flowType string) ([]core.ProviderSchema, error) {
	var rows []providerSchemaModel
	_, err := s.dbMap.Select(&rows,
		"SELECT * FROM provider_schemas WHERE provider = ? AND flow_type = ? ORDER BY version DESC",
		provider, flowType)
	if err != nil {
		return nil, lerrors.InternalError("sa: select schema versions: %s", err)
	}
	out := make([]core.ProviderSchema, 0, len(rows))
	for _, m := range rows {
		sch, err := modelToSchema(m)
		if err != nil {
			return nil, err
		}
		out = append(out, sch)
	}
	return out, nil
}

// AvailableProviders lists every (provider, flow_type) pair with an
// active schema, for discovery's available_providers operation (§4.7).
func (s *Storage) AvailableProviders() ([]core.ProviderSchema, error) {
	var rows []providerSchemaModel
	_, err := s.dbMap.Select(&rows,
		"SELECT * FROM provider_schemas WHERE status = 'active' ORDER BY provider, flow_type")
	if err != nil {
		return nil, lerrors.InternalError("sa: select active schemas: %s", err)
	}
	out := make([]core.ProviderSchema, 0, len(rows))
	for _, m := range rows {
		sch, err := modelToSchema(m)
		if err != nil {
			return nil, err
		}
		out = append(out, sch)
	}
	return out, nil
}
