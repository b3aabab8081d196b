package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://img.youtube.com/vi/abcDEF_-123/hqdefault.jpg", "abcDEF_-123", true},
		{"https://www.youtube.com/embed/abcDEF_-123?rel=0", "abcDEF_-123", true},
		{"https://www.youtube.com/watch?v=abcDEF_-123&t=10", "abcDEF_-123", true},
		{"https://youtu.be/abcDEF_-123", "abcDEF_-123", true},
		{"https://www.mindluster.com/lesson/101-video", "", false},
		{"pending", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractID(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/abc", EmbedURL("abc"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", WatchURL("abc"))
	assert.Equal(t, "https://img.youtube.com/vi/abc/hqdefault.jpg", ThumbnailURL("abc"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", ToWatchURL("https://www.youtube.com/embed/abc"))
	assert.Equal(t, "https://vimeo.com/1", ToWatchURL("https://vimeo.com/1"))
}
