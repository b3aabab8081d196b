package domain

import "time"

// CreatedAtLayout is the timestamp format stored in the current course pointer
const CreatedAtLayout = "2006-01-02 15:04:05"

// PublishedCourse is the result of one publication run
type PublishedCourse struct {
	CourseID         int       `json:"course_id" bson:"course_id"`
	TopicID          int       `json:"topic_id" bson:"topic_id"`
	LessonIDs        []int     `json:"lesson_ids" bson:"lesson_ids"`
	ThumbnailMediaID int       `json:"thumbnail_media_id,omitempty" bson:"thumbnail_media_id,omitempty"`
	CourseName       string    `json:"course_name" bson:"course_name"`
	LessonCount      int       `json:"lesson_count" bson:"lesson_count"`
	SourceURL        string    `json:"source_url,omitempty" bson:"source_url,omitempty"`
	Errors           []string  `json:"errors" bson:"errors"`
	CreatedAt        time.Time `json:"-" bson:"created_at"`
}

// CurrentCourse is the pointer used to retarget an already created course
type CurrentCourse struct {
	CourseID    int    `json:"course_id"`
	CourseName  string `json:"course_name"`
	CreatedAt   string `json:"created_at"`
	LessonCount int    `json:"lesson_count"`
}

// Pointer converts a published course to its current course pointer
func (p PublishedCourse) Pointer() CurrentCourse {
	return CurrentCourse{
		CourseID:    p.CourseID,
		CourseName:  p.CourseName,
		CreatedAt:   p.CreatedAt.Format(CreatedAtLayout),
		LessonCount: p.LessonCount,
	}
}
