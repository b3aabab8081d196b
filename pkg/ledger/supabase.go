package ledger

import (
	"context"
	"fmt"

	supabase "github.com/supabase-community/supabase-go"

	"course-migrator/pkg/urls"
)

type processedRow struct {
	URL string `json:"url"`
}

// Supabase stores URLs in the processed_urls table through the REST API
type Supabase struct {
	client *supabase.Client
}

// NewSupabase creates a ledger on an initialized Supabase client
func NewSupabase(client *supabase.Client) *Supabase {
	return &Supabase{client: client}
}

// Contains reports whether the normalized URL is recorded
func (s *Supabase) Contains(_ context.Context, rawURL string) (bool, error) {
	if s.client == nil {
		return false, ErrNotConnected
	}

	var rows []processedRow
	_, err := s.client.From(tableName).
		Select("url", "", false).
		Eq("url", urls.Normalize(rawURL)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return false, fmt.Errorf("query %s: %w", tableName, err)
	}
	return len(rows) > 0, nil
}

// Append records the normalized URL, ignoring an existing row
func (s *Supabase) Append(_ context.Context, rawURL string) error {
	if s.client == nil {
		return ErrNotConnected
	}

	row := processedRow{URL: urls.Normalize(rawURL)}
	_, _, err := s.client.From(tableName).
		Upsert(row, "url", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", tableName, err)
	}
	return nil
}
