package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	idPattern      = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	thumbPattern   = regexp.MustCompile(`img\.youtube\.com/vi/([a-zA-Z0-9_-]+)/`)
	embedPattern   = regexp.MustCompile(`youtube(?:-nocookie)?\.com/embed/([a-zA-Z0-9_-]+)`)
	shortPattern   = regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]+)`)
	watchIDPattern = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]+)`)
)

// IsVideoID reports whether s looks like a bare 11 character video id
func IsVideoID(s string) bool {
	return idPattern.MatchString(s)
}

// EmbedURL returns the embed player URL for id
func EmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + id
}

// WatchURL returns the watch page URL for id
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// ThumbnailURL returns the high quality thumbnail image URL for id
func ThumbnailURL(id string) string {
	return "https://img.youtube.com/vi/" + id + "/hqdefault.jpg"
}

// IDFromThumbnail extracts the id from an img.youtube.com/vi/<id>/ URL
func IDFromThumbnail(s string) (string, bool) {
	return firstGroup(thumbPattern, s)
}

// IDFromEmbed extracts the id from a youtube.com/embed/<id> URL
func IDFromEmbed(s string) (string, bool) {
	return firstGroup(embedPattern, s)
}

// ExtractID finds a video id in a thumbnail, embed, watch or short URL, or
// accepts a bare id
func ExtractID(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	if IsVideoID(ref) {
		return ref, true
	}
	if id, ok := IDFromThumbnail(ref); ok {
		return id, true
	}
	if id, ok := IDFromEmbed(ref); ok {
		return id, true
	}
	if strings.Contains(ref, "youtube.com/") {
		if id, ok := firstGroup(watchIDPattern, ref); ok {
			return id, true
		}
	}
	if id, ok := firstGroup(shortPattern, ref); ok {
		return id, true
	}
	return "", false
}

// ToWatchURL converts embed URLs to watch URLs and leaves other URLs untouched
func ToWatchURL(ref string) string {
	if id, ok := IDFromEmbed(ref); ok {
		return WatchURL(id)
	}
	return ref
}

func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}
