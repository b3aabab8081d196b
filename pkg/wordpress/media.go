package wordpress

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"course-migrator/pkg/logger"
)

// MediaREST uploads attachments and sets featured images through the REST API
type MediaREST struct {
	rest restClient
}

// NewMediaREST creates a media client
func NewMediaREST(cfg RESTConfig) *MediaREST {
	return &MediaREST{rest: newRESTClient(cfg, "wordpress.media")}
}

type idResponse struct {
	ID int `json:"id"`
}

// Upload stores data as a media attachment named filename and returns its id
func (m *MediaREST) Upload(ctx context.Context, filename, contentType string, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("refusing to upload empty file %s", filename)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	headers := map[string]string{
		"Content-Type":        contentType,
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	}
	var out idResponse
	if err := m.rest.send(ctx, http.MethodPost, "/wp/v2/media", bytes.NewReader(data), headers, &out); err != nil {
		return 0, fmt.Errorf("failed to upload media: %w", err)
	}
	if out.ID <= 0 {
		return 0, fmt.Errorf("media upload returned no id")
	}

	m.rest.log.Info("media uploaded", logger.String("filename", filename), logger.Int("media_id", out.ID))
	return out.ID, nil
}

// SetFeaturedImage sets mediaID as the featured image of the post postID
func (m *MediaREST) SetFeaturedImage(ctx context.Context, postID, mediaID int) error {
	path := "/wp/v2/" + m.rest.postType + "/" + strconv.Itoa(postID)
	var out idResponse
	if err := m.rest.sendJSON(ctx, http.MethodPost, path, map[string]int{"featured_media": mediaID}, &out); err != nil {
		return fmt.Errorf("failed to set featured image: %w", err)
	}
	return nil
}
