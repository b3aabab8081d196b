package db

import (
	"database/sql"
	"time"
)

// DBProvider exposes a sql.DB handle. PostgresClient, SupabaseClient,
// SQLiteClient and MySQLClient all satisfy it.
type DBProvider interface {
	DB() *sql.DB
}

// Dialect names the SQL placeholder style of a DBProvider
type Dialect int

const (
	// DialectQuestion uses ? placeholders (sqlite, mysql)
	DialectQuestion Dialect = iota
	// DialectDollar uses $n placeholders (postgres)
	DialectDollar
)

// PoolConfig holds optional connection pool tuning
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	ConnMaxLife  time.Duration
}

func (p PoolConfig) apply(db *sql.DB) {
	if p.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.MaxOpenConns)
	}
	if p.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.MaxIdleConns)
	}
	if p.ConnMaxIdle > 0 {
		db.SetConnMaxIdleTime(p.ConnMaxIdle)
	}
	if p.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(p.ConnMaxLife)
	}
}
