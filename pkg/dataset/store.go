package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"course-migrator/pkg/domain"
)

// Artifact file names inside the store directory
const (
	ResultFile        = "result.json"
	LessonsFile       = "lesson_data.json"
	CurrentCourseFile = "current_course_id.json"
	LedgerFile        = "scraped_courses.txt"
	ArchiveDir        = "created_courses"
)

// ErrNoDataset is returned when an artifact has not been written yet
var ErrNoDataset = errors.New("dataset not found")

// Store owns the artifact directory shared by the scrape and publish stages.
// It assumes a single writer.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the artifact directory
func (s *Store) Dir() string { return s.dir }

// Path returns the path of an artifact
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Encode renders v as indented JSON without HTML escaping, so slashes,
// ampersands and non-ASCII text stay literal
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile atomically replaces the artifact name with data
func (s *Store) WriteFile(name string, data []byte) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return s.WriteFile(name, data)
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoDataset, name)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	// Tolerate a UTF-8 byte order mark left by other tools
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// LoadCourse reads result.json
func (s *Store) LoadCourse() (domain.CourseRecord, error) {
	var course domain.CourseRecord
	err := s.readJSON(ResultFile, &course)
	return course, err
}

// SaveCourse writes result.json. Lessons are reduced to their stubs.
func (s *Store) SaveCourse(course domain.CourseRecord) error {
	course.Lessons = course.Stubs()
	return s.writeJSON(ResultFile, course)
}

// LoadLessons reads lesson_data.json
func (s *Store) LoadLessons() ([]domain.Lesson, error) {
	var lessons []domain.Lesson
	err := s.readJSON(LessonsFile, &lessons)
	return lessons, err
}

// SaveLessons writes lesson_data.json
func (s *Store) SaveLessons(lessons []domain.Lesson) error {
	if lessons == nil {
		lessons = []domain.Lesson{}
	}
	return s.writeJSON(LessonsFile, lessons)
}

// LoadCurrent reads the current course pointer
func (s *Store) LoadCurrent() (domain.CurrentCourse, error) {
	var current domain.CurrentCourse
	err := s.readJSON(CurrentCourseFile, &current)
	return current, err
}

// SaveCurrent writes the current course pointer
func (s *Store) SaveCurrent(course domain.PublishedCourse) error {
	return s.writeJSON(CurrentCourseFile, course.Pointer())
}

type archiveEntry struct {
	domain.PublishedCourse
	CreatedAt string `json:"created_at"`
}

// Archive writes the publication result to created_courses/ and returns the
// file path
func (s *Store) Archive(course domain.PublishedCourse) (string, error) {
	created := course.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	name := filepath.Join(ArchiveDir, fmt.Sprintf("%s_course_%d.json", created.Format("20060102_150405"), course.CourseID))
	entry := archiveEntry{PublishedCourse: course, CreatedAt: created.Format(domain.CreatedAtLayout)}
	if err := s.writeJSON(name, entry); err != nil {
		return "", err
	}
	return s.Path(name), nil
}

// PatchThumbnail updates the thumbnail fields of result.json in place
func (s *Store) PatchThumbnail(thumbnail, thumbnailID string) error {
	course, err := s.LoadCourse()
	if err != nil {
		return err
	}
	course.Thumbnail = thumbnail
	course.ThumbnailID = thumbnailID
	return s.writeJSON(ResultFile, course)
}

// ThumbnailFields are the result.json fields carried across re-scrapes
type ThumbnailFields struct {
	Thumbnail   string
	ThumbnailID string
}

// ClearStale removes the artifacts of a previous scrape and returns the
// thumbnail fields the previous result.json carried
func (s *Store) ClearStale() (ThumbnailFields, error) {
	var prev ThumbnailFields
	if course, err := s.LoadCourse(); err == nil {
		prev = ThumbnailFields{Thumbnail: course.Thumbnail, ThumbnailID: course.ThumbnailID}
	}

	for _, name := range []string{LessonsFile, ResultFile} {
		if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return prev, fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return prev, nil
}
