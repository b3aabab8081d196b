package domain

// Sentinel values used instead of missing fields so downstream code never sees
// an absent key
const (
	NotFound        = "Not found"
	UnknownDuration = "Unknown"
	NoVideoID       = "N/A"
	PendingThumb    = "pending"
)

// CourseRecord is one scraped course: the dataset handed from scraping to publication
type CourseRecord struct {
	CourseName  string   `json:"course_name" bson:"course_name"`
	Category    string   `json:"category" bson:"category"`
	LessonCount string   `json:"lesson_count" bson:"lesson_count"`
	Description string   `json:"description" bson:"description"`
	Lessons     []Lesson `json:"lessons" bson:"lessons"`
	IntroVideo  string   `json:"intro_video" bson:"intro_video"`
	Thumbnail   string   `json:"thumbnail" bson:"thumbnail"`
	ThumbnailID string   `json:"thumbnail_id,omitempty" bson:"thumbnail_id,omitempty"`
	SourceURL   string   `json:"source_url,omitempty" bson:"source_url,omitempty"`
	SiteType    string   `json:"site_type,omitempty" bson:"site_type,omitempty"`
}

// NewCourseRecord returns a record with every field set to its sentinel
func NewCourseRecord(sourceURL, siteType string) CourseRecord {
	return CourseRecord{
		CourseName:  NotFound,
		Category:    NotFound,
		LessonCount: NotFound,
		Description: NotFound,
		Lessons:     []Lesson{},
		IntroVideo:  NotFound,
		Thumbnail:   PendingThumb,
		SourceURL:   sourceURL,
		SiteType:    siteType,
	}
}

// HasName reports whether the adapter found a course name
func (c CourseRecord) HasName() bool {
	return c.CourseName != "" && c.CourseName != NotFound
}

// Stubs returns the lessons reduced to title, link and duration
func (c CourseRecord) Stubs() []Lesson {
	out := make([]Lesson, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		out = append(out, l.Stub())
	}
	return out
}
