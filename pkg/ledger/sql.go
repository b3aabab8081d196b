package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"course-migrator/pkg/db"
	"course-migrator/pkg/urls"
)

const tableName = "processed_urls"

// Provider is a database handle with a known placeholder style
type Provider interface {
	db.DBProvider
	Dialect() db.Dialect
}

// SQL stores URLs in the processed_urls table of a sqlite or postgres database
type SQL struct {
	provider Provider
}

// NewSQL creates a ledger on provider
func NewSQL(provider Provider) *SQL {
	return &SQL{provider: provider}
}

// EnsureSchema creates the processed_urls table
func (s *SQL) EnsureSchema(ctx context.Context) error {
	handle, err := s.handle()
	if err != nil {
		return err
	}

	ddl := `CREATE TABLE IF NOT EXISTS processed_urls (
  url TEXT PRIMARY KEY,
  processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := handle.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s table: %w", tableName, err)
	}
	return nil
}

// Contains reports whether the normalized URL is recorded
func (s *SQL) Contains(ctx context.Context, rawURL string) (bool, error) {
	handle, err := s.handle()
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE url = %s", tableName, s.placeholder(1))
	var one int
	err = handle.QueryRowContext(ctx, query, urls.Normalize(rawURL)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", tableName, err)
	}
	return true, nil
}

// Append records the normalized URL. Re-appending is a no-op.
func (s *SQL) Append(ctx context.Context, rawURL string) error {
	handle, err := s.handle()
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO %s (url) VALUES (%s) ON CONFLICT (url) DO NOTHING", tableName, s.placeholder(1))
	if _, err := handle.ExecContext(ctx, query, urls.Normalize(rawURL)); err != nil {
		return fmt.Errorf("insert into %s: %w", tableName, err)
	}
	return nil
}

func (s *SQL) handle() (*sql.DB, error) {
	if s.provider == nil || s.provider.DB() == nil {
		return nil, ErrNotConnected
	}
	return s.provider.DB(), nil
}

func (s *SQL) placeholder(n int) string {
	if s.provider.Dialect() == db.DialectDollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
