package thumbnail

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"course-migrator/pkg/youtube"
)

// ErrInvalidReference is returned for a thumbnail source that is neither a
// YouTube reference nor an http(s) URL
var ErrInvalidReference = errors.New("invalid thumbnail reference")

// Canonicalize turns a thumbnail source into a downloadable image URL.
// YouTube thumbnail, watch, embed and short URLs and bare video ids map to
// the hqdefault image; any other http(s) URL is used as is.
func Canonicalize(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if id, ok := youtube.ExtractID(ref); ok {
		return youtube.ThumbnailURL(id), nil
	}

	u, err := url.Parse(ref)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
}
