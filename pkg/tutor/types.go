package tutor

// Duration is the course length shown on the course page
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// AdditionalContent holds the course page side sections
type AdditionalContent struct {
	CourseBenefits         string   `json:"course_benefits"`
	CourseTargetAudience   string   `json:"course_target_audience"`
	CourseDuration         Duration `json:"course_duration"`
	CourseMaterialIncludes string   `json:"course_material_includes"`
	CourseRequirements     string   `json:"course_requirements"`
}

// CourseRequest is the body of POST /courses. A nil PostAuthor omits the field.
type CourseRequest struct {
	PostAuthor        *int              `json:"post_author,omitempty"`
	PostTitle         string            `json:"post_title"`
	PostContent       string            `json:"post_content"`
	PostExcerpt       string            `json:"post_excerpt"`
	PostStatus        string            `json:"post_status"`
	CommentStatus     string            `json:"comment_status"`
	CourseLevel       string            `json:"course_level"`
	CourseCategories  []int             `json:"course_categories"`
	ThumbnailID       int               `json:"thumbnail_id"`
	AdditionalContent AdditionalContent `json:"additional_content"`
}

// TopicRequest is the body of POST /topics
type TopicRequest struct {
	TopicCourseID int    `json:"topic_course_id"`
	TopicTitle    string `json:"topic_title"`
	TopicSummary  string `json:"topic_summary"`
	TopicAuthor   int    `json:"topic_author"`
}

// Runtime is a lesson video length
type Runtime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Video references a lesson's hosted video
type Video struct {
	SourceType string  `json:"source_type"`
	Source     string  `json:"source"`
	Runtime    Runtime `json:"runtime"`
}

// LessonRequest is the body of POST /lessons
type LessonRequest struct {
	TopicID       int    `json:"topic_id"`
	LessonTitle   string `json:"lesson_title"`
	LessonContent string `json:"lesson_content"`
	LessonAuthor  int    `json:"lesson_author"`
	Video         Video  `json:"video"`
}
