package db

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/letsencrypt/borp"
	_ "modernc.org/sqlite" // pure-Go embedded driver, registered as "sqlite"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

// Engine owns the single embedded relational store (spec §4.2): a
// borp.DbMap over a modernc.org/sqlite connection, file-backed so its
// full state can be read back as an opaque byte blob for
// export_snapshot/import_snapshot.
type Engine struct {
	Map      *borp.DbMap
	path     string
	initFunc func(*borp.DbMap)
}

// Open creates (or reopens) the embedded store at path and applies
// initFunc to register the schema's tables, mirroring boulder's
// sa.NewDbMap + initTables split. path may be ":memory:" for tests, in
// which case ExportSnapshot/ImportSnapshot are unavailable.
func Open(path string, initFunc func(*borp.DbMap)) (*Engine, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, lerrors.InternalError("db: open %s: %s", path, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, lerrors.InternalError("db: ping %s: %s", path, err)
	}
	// Single-writer, in-process, one request handled to completion before
	// the next begins (spec §5) — never allow the sql package's own
	// pool to hand out a second concurrent connection.
	sqlDB.SetMaxOpenConns(1)

	// SQLite disables foreign key enforcement per connection unless asked;
	// with MaxOpenConns(1) this pragma applies to the one connection ever
	// handed out, for the lifetime of the Engine.
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, lerrors.InternalError("db: enable foreign_keys pragma: %s", err)
	}

	dbMap := &borp.DbMap{Db: sqlDB, Dialect: borp.SqliteDialect{}}
	initFunc(dbMap)

	return &Engine{Map: dbMap, path: path, initFunc: initFunc}, nil
}

// CreateTablesIfNotExist issues the DDL for every table registered with
// the map.
func (e *Engine) CreateTablesIfNotExist() error {
	if err := e.Map.CreateTablesIfNotExists(); err != nil {
		return lerrors.InternalError("db: create tables: %s", err)
	}
	return nil
}

// ExportSnapshot returns an opaque byte blob containing the entire
// database state, for host-driven state transfer (§4.2, §6). Not a
// durability mechanism from the core's point of view — the host decides
// when and whether to persist it.
func (e *Engine) ExportSnapshot() ([]byte, error) {
	if e.path == ":memory:" || e.path == "" {
		return nil, lerrors.InternalError("db: snapshot unavailable for in-memory store")
	}
	if _, err := e.Map.Db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, lerrors.InternalError("db: checkpoint before snapshot: %s", err)
	}
	blob, err := os.ReadFile(e.path)
	if err != nil {
		return nil, lerrors.InternalError("db: read snapshot file: %s", err)
	}
	return blob, nil
}

// ImportSnapshot replaces the live database with the given blob,
// reopening the connection against it.
func (e *Engine) ImportSnapshot(blob []byte) error {
	if e.path == ":memory:" || e.path == "" {
		return lerrors.InternalError("db: snapshot import unavailable for in-memory store")
	}
	if err := e.Map.Db.Close(); err != nil {
		return lerrors.InternalError("db: close before import: %s", err)
	}
	if err := os.WriteFile(e.path, blob, 0o600); err != nil {
		return lerrors.InternalError("db: write snapshot file: %s", err)
	}
	reopened, err := Open(e.path, e.initFunc)
	if err != nil {
		return err
	}
	*e = *reopened
	return nil
}

// Vacuum, Analyze, and IntegrityCheck are idempotent maintenance
// operations (§4.2): they are reported to the host but never change
// logical state.
func (e *Engine) Vacuum() error {
	_, err := e.Map.Db.Exec("VACUUM")
	if err != nil {
		return lerrors.InternalError("db: vacuum: %s", err)
	}
	return nil
}

func (e *Engine) Analyze() error {
	_, err := e.Map.Db.Exec("ANALYZE")
	if err != nil {
		return lerrors.InternalError("db: analyze: %s", err)
	}
	return nil
}

func (e *Engine) IntegrityCheck() (string, error) {
	var result string
	if err := e.Map.Db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return "", lerrors.InternalError("db: integrity_check: %s", err)
	}
	return result, nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("db.Engine{path=%s}", e.path)
}
