// Package db defines the storage-engine primitives of spec §4.2: scoped
// run/exec interfaces over a single embedded relational store, plus
// snapshot export/import and maintenance operations.
//
// These interfaces exist to aid in mocking database operations for unit
// tests, mirroring boulder's db package exactly. By convention, any
// function that takes a OneSelector, Selector, Inserter, Execer, or
// SelectExecer expects that the embedded store is already open.
package db

import (
	"database/sql"

	"github.com/letsencrypt/borp"
)

// OneSelector is anything that provides a SelectOne function.
type OneSelector interface {
	SelectOne(interface{}, string, ...interface{}) error
}

// Selector is anything that provides a Select function.
type Selector interface {
	Select(interface{}, string, ...interface{}) ([]interface{}, error)
}

// Inserter is anything that provides an Insert function.
type Inserter interface {
	Insert(list ...interface{}) error
}

// Execer is anything that provides an Exec function.
type Execer interface {
	Exec(string, ...interface{}) (sql.Result, error)
}

// SelectExecer offers a subset of borp.SqlExecutor's methods: Select and
// Exec.
type SelectExecer interface {
	Selector
	Execer
}

// DatabaseMap offers the full combination of OneSelector, Inserter,
// SelectExecer, and a Begin function for creating a Transaction.
type DatabaseMap interface {
	OneSelector
	Inserter
	SelectExecer
	Begin() (*borp.Transaction, error)
}

// Transaction offers the combination of OneSelector, Inserter,
// SelectExecer interfaces as well as Delete, Get, Update, and
// Commit/Rollback.
type Transaction interface {
	OneSelector
	Inserter
	SelectExecer
	Delete(...interface{}) (int64, error)
	Get(interface{}, ...interface{}) (interface{}, error)
	Update(...interface{}) (int64, error)
	Commit() error
	Rollback() error
}
