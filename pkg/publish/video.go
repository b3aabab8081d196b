package publish

import (
	"strings"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/youtube"
)

// PlaceholderVideo is used when no source yields a video
const PlaceholderVideo = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

// LessonVideo picks the video source for a lesson: the detail video URL,
// an id in the lesson link, the detail video id, the course intro video,
// then the placeholder.
func LessonVideo(stub, detail domain.Lesson, introVideo, placeholder string) string {
	if v := strings.TrimSpace(detail.VideoURL); v != "" {
		return youtube.ToWatchURL(v)
	}
	if id, ok := youtube.ExtractID(stub.Link); ok {
		return youtube.WatchURL(id)
	}
	if detail.HasVideo() {
		return youtube.WatchURL(detail.VideoID)
	}
	if id, ok := youtube.ExtractID(introVideo); ok {
		return youtube.WatchURL(id)
	}
	if placeholder == "" {
		placeholder = PlaceholderVideo
	}
	return placeholder
}

// thumbnailSource returns the reference the thumbnail resolver should use,
// or "" when there is none
func thumbnailSource(course domain.CourseRecord, details []domain.Lesson) string {
	switch t := strings.TrimSpace(course.Thumbnail); t {
	case "", domain.PendingThumb, domain.NotFound:
	default:
		return t
	}
	for _, d := range details {
		if d.HasVideo() {
			return d.VideoID
		}
	}
	return ""
}
