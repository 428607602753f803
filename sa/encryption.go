package sa

import (
	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// ActiveEncryptionConfig fetches the single active output encryption key.
// Exactly one row is active at a time; rotation deprecates the old row
// and inserts the new one inside a transaction, mirroring RegisterSchema.
func (s *Storage) ActiveEncryptionConfig() (core.EncryptionConfig, error) {
	var m encryptionConfigModel
	err := s.dbMap.SelectOne(&m, "SELECT * FROM encryption_configs WHERE status = 'active'")
	if err != nil {
		return core.EncryptionConfig{}, lerrors.NotFoundError("no active encryption config")
	}
	return modelToEncConfig(m), nil
}

// RotateEncryptionConfig deprecates whatever key is currently active and
// installs next as the new active key.
func (s *Storage) RotateEncryptionConfig(next core.EncryptionConfig) error {
	tx, err := s.dbMap.Begin()
	if err != nil {
		return lerrors.InternalError("sa: begin rotate encryption config: %s", err)
	}
	if _, err := tx.Exec("UPDATE encryption_configs SET status = 'deprecated' WHERE status = 'active'"); err != nil {
		tx.Rollback()
		return lerrors.InternalError("sa: deprecate encryption config: %s", err)
	}
	if err := tx.Insert(encConfigToModel(next)); err != nil {
		tx.Rollback()
		return lerrors.ConflictError("encryption config %q already exists", next.KeyID)
	}
	if err := tx.Commit(); err != nil {
		return lerrors.InternalError("sa: commit rotate encryption config: %s", err)
	}
	return nil
}

// EncryptionConfigByID fetches a specific key by ID, active or deprecated
// — data chunks reference the key that was active when they were
// encrypted and must remain decryptable after rotation.
func (s *Storage) EncryptionConfigByID(keyID string) (core.EncryptionConfig, error) {
	var m encryptionConfigModel
	err := s.dbMap.SelectOne(&m, "SELECT * FROM encryption_configs WHERE key_id = ?", keyID)
	if err != nil {
		return core.EncryptionConfig{}, lerrors.NotFoundError("encryption config %q not found", keyID)
	}
	return modelToEncConfig(m), nil
}
