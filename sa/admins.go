package sa

import (
	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// GetAdmin fetches a schema admin by wallet address.
func (s *Storage) GetAdmin(walletAddress string) (core.SchemaAdmin, error) {
	var m schemaAdminModel
	err := s.dbMap.SelectOne(&m, "SELECT * FROM schema_admins WHERE wallet_address = ?", walletAddress)
	if err != nil {
		return core.SchemaAdmin{}, lerrors.NotFoundError("admin %q not found", walletAddress)
	}
	return modelToAdmin(m), nil
}

// InsertAdmin adds a wallet as a schema admin. The bootstrap admin (the
// first row ever inserted) is added directly by the registry package with
// AddedBy set to itself; every subsequent admin must be added by an
// existing admin with CanAddAdmins set.
func (s *Storage) InsertAdmin(a core.SchemaAdmin) error {
	if err := s.dbMap.Insert(adminToModel(a)); err != nil {
		return lerrors.ConflictError("admin %q already exists", a.WalletAddress)
	}
	return nil
}

// RemoveAdmin deletes a schema admin.
func (s *Storage) RemoveAdmin(walletAddress string) error {
	res, err := s.dbMap.Exec("DELETE FROM schema_admins WHERE wallet_address = ?", walletAddress)
	if err != nil {
		return lerrors.InternalError("sa: remove admin: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return lerrors.InternalError("sa: rows affected: %s", err)
	}
	if n == 0 {
		return lerrors.NotFoundError("admin %q not found", walletAddress)
	}
	return nil
}

// AdminCount reports how many schema admins exist, used by the registry
// to decide whether the next add_admin call is the bootstrap call.
func (s *Storage) AdminCount() (int, error) {
	var count int
	err := s.dbMap.SelectOne(&count, "SELECT COUNT(*) FROM schema_admins")
	if err != nil {
		return 0, lerrors.InternalError("sa: count admins: %s", err)
	}
	return count, nil
}
