package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig holds configuration for the WordPress database
type MySQLConfig struct {
	// DSN example: "user:pass@tcp(localhost:3306)/wordpress"
	DSN string
	PoolConfig
}

// MySQLClient wraps a handle on the host CMS database
type MySQLClient struct {
	db  *sql.DB
	cfg MySQLConfig
}

// NewMySQLClient constructs a MySQL client
func NewMySQLClient(cfg MySQLConfig) *MySQLClient {
	return &MySQLClient{cfg: cfg}
}

// Connect parses the DSN, forces utf8mb4 and time parsing, and pings the server
func (c *MySQLClient) Connect(ctx context.Context) error {
	if c.cfg.DSN == "" {
		return fmt.Errorf("mysql DSN is required")
	}

	dsn, err := mysql.ParseDSN(c.cfg.DSN)
	if err != nil {
		return fmt.Errorf("parse mysql DSN: %w", err)
	}
	dsn.ParseTime = true
	if dsn.Params == nil {
		dsn.Params = map[string]string{}
	}
	if _, ok := dsn.Params["charset"]; !ok {
		dsn.Params["charset"] = "utf8mb4"
	}

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	c.cfg.apply(db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping mysql: %w", err)
	}

	c.db = db
	return nil
}

// Close closes the handle
func (c *MySQLClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB exposes the underlying handle
func (c *MySQLClient) DB() *sql.DB {
	return c.db
}

// Dialect reports the placeholder style
func (c *MySQLClient) Dialect() Dialect {
	return DialectQuestion
}
