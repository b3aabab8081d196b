package wordpress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"course-migrator/pkg/db"
)

const thumbnailMetaKey = "_thumbnail_id"

// MetaDB writes post meta directly to the WordPress database
type MetaDB struct {
	provider db.DBProvider
	prefix   string
}

// NewMetaDB creates a post meta writer. An empty prefix means "wp_".
func NewMetaDB(provider db.DBProvider, tablePrefix string) *MetaDB {
	if tablePrefix == "" {
		tablePrefix = DefaultTablePrefix
	}
	return &MetaDB{provider: provider, prefix: tablePrefix}
}

// UpsertThumbnail points the post's _thumbnail_id meta at mediaID
func (m *MetaDB) UpsertThumbnail(ctx context.Context, postID, mediaID int) error {
	if m.provider == nil || m.provider.DB() == nil {
		return errors.New("wordpress database not connected")
	}
	handle := m.provider.DB()
	table := m.prefix + "postmeta"
	value := strconv.Itoa(mediaID)

	var metaID int64
	err := handle.QueryRowContext(ctx,
		fmt.Sprintf("SELECT meta_id FROM %s WHERE post_id = ? AND meta_key = ? LIMIT 1", table),
		postID, thumbnailMetaKey).Scan(&metaID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = handle.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (post_id, meta_key, meta_value) VALUES (?, ?, ?)", table),
			postID, thumbnailMetaKey, value)
		if err != nil {
			return fmt.Errorf("failed to insert thumbnail meta: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to query thumbnail meta: %w", err)
	default:
		_, err = handle.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET meta_value = ? WHERE meta_id = ?", table),
			value, metaID)
		if err != nil {
			return fmt.Errorf("failed to update thumbnail meta: %w", err)
		}
	}
	return nil
}
