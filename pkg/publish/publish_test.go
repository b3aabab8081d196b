package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-migrator/pkg/dataset"
	"course-migrator/pkg/domain"
	"course-migrator/pkg/progress"
	"course-migrator/pkg/thumbnail"
	"course-migrator/pkg/tutor"
)

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short"))

	long := strings.Repeat("\u0628", 200)
	got := Excerpt(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Len(t, []rune(got), 158)
}

func TestTotalDuration(t *testing.T) {
	lessons := func(ds ...string) []domain.Lesson {
		out := make([]domain.Lesson, 0, len(ds))
		for _, d := range ds {
			out = append(out, domain.Lesson{Duration: d})
		}
		return out
	}

	assert.Equal(t, tutor.Duration{Hours: 0, Minutes: 20}, TotalDuration(lessons("00:05:00", "00:10:30", "00:04:30")))
	assert.Equal(t, tutor.Duration{Hours: 1, Minutes: 5}, TotalDuration(lessons("00:10:00", "00:55:00")))
	assert.Equal(t, TotalDuration(lessons("00:55:00", "00:10:00")), TotalDuration(lessons("00:10:00", "00:55:00")))
	assert.Equal(t, tutor.Duration{Hours: 1, Minutes: 0}, TotalDuration(lessons("00:59:45")))
	assert.Equal(t, tutor.Duration{Hours: 0, Minutes: 3}, TotalDuration(lessons("Unknown", "3:00", "garbage")))
	assert.Equal(t, tutor.Duration{}, TotalDuration(nil))
}

func TestBuildCourseRequest(t *testing.T) {
	course := domain.CourseRecord{
		CourseName:  "Intro to X",
		Category:    "Programming",
		Description: "Learn X from scratch",
		ThumbnailID: "88",
		Lessons: []domain.Lesson{
			{Title: "One", Duration: "00:05:00"},
			{Title: "Two", Duration: "00:10:00"},
		},
	}
	req := BuildCourseRequest(course, 7)

	assert.Nil(t, req.PostAuthor)
	assert.Equal(t, "Intro to X", req.PostTitle)
	assert.Equal(t, "Learn X from scratch", req.PostExcerpt)
	assert.Equal(t, []int{7}, req.CourseCategories)
	assert.Equal(t, 88, req.ThumbnailID)
	assert.Equal(t, "Learn One\nLearn Two", req.AdditionalContent.CourseBenefits)
	assert.Equal(t, "Students interested in Programming", req.AdditionalContent.CourseTargetAudience)
	assert.Equal(t, tutor.Duration{Minutes: 15}, req.AdditionalContent.CourseDuration)
	assert.Equal(t, defaultMaterials, req.AdditionalContent.CourseMaterialIncludes)

	course.ThumbnailID = "pending"
	assert.Equal(t, 1, BuildCourseRequest(course, 7).ThumbnailID)
}

func TestCoerce(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	const short = "\u062f\u0648\u0631\u0629"
	req := Coerce(tutor.CourseRequest{PostContent: short}, now)

	assert.Equal(t, "Untitled Course 2026-01-02 03:04:05", req.PostTitle)
	assert.True(t, strings.HasPrefix(req.PostContent, short+" - "))
	assert.Equal(t, "publish", req.PostStatus)
	assert.Equal(t, "beginner", req.CourseLevel)
	assert.Equal(t, []int{1}, req.CourseCategories)
	assert.Equal(t, 1, req.ThumbnailID)
	assert.Equal(t, "Default course benefits", req.AdditionalContent.CourseBenefits)
	assert.Equal(t, "Default course requirements", req.AdditionalContent.CourseRequirements)

	empty := Coerce(tutor.CourseRequest{}, now)
	assert.Equal(t, "Course content created on 2026-01-02 03:04:05", empty.PostContent)

	kept := Coerce(tutor.CourseRequest{PostTitle: "T", PostContent: "Plain content", CourseCategories: []int{4}}, now)
	assert.Equal(t, "Plain content", kept.PostContent)
	assert.Equal(t, []int{4}, kept.CourseCategories)
}

func TestLessonVideo(t *testing.T) {
	const id = "abcDEF12345"
	tests := []struct {
		name   string
		stub   domain.Lesson
		detail domain.Lesson
		intro  string
		want   string
	}{
		{"detail embed url", domain.Lesson{}, domain.Lesson{VideoURL: "https://www.youtube.com/embed/" + id}, "", "https://www.youtube.com/watch?v=" + id},
		{"link id", domain.Lesson{Link: "https://youtu.be/" + id}, domain.Lesson{VideoID: domain.NoVideoID}, "", "https://www.youtube.com/watch?v=" + id},
		{"detail id", domain.Lesson{Link: "https://www.mindluster.com/lesson/1-video"}, domain.Lesson{VideoID: id}, "", "https://www.youtube.com/watch?v=" + id},
		{"intro video", domain.Lesson{}, domain.Lesson{VideoID: domain.NoVideoID}, id, "https://www.youtube.com/watch?v=" + id},
		{"placeholder", domain.Lesson{}, domain.Lesson{VideoID: domain.NoVideoID}, "https://www.mindluster.com/lesson/1-video", PlaceholderVideo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LessonVideo(tt.stub, tt.detail, tt.intro, ""))
		})
	}
}

type call struct {
	Path string
	Body map[string]any
}

type fakeLMS struct {
	mu           sync.Mutex
	calls        []call
	nextLesson   int
	failLesson   string
	authorReject map[string]bool
}

func (f *fakeLMS) handler(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, call{Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/tutor/v1/courses":
		author := "none"
		if a, ok := body["post_author"]; ok {
			author = jsonString(a)
		}
		if f.authorReject[author] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"rest_invalid_param","message":"Invalid parameter(s): post_author","data":{"status":400,"details":{"post_author":"Invalid author"}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":101}`))
	case "/tutor/v1/topics":
		_, _ = w.Write([]byte(`{"data":"202"}`))
	case "/tutor/v1/lessons":
		if body["lesson_title"] == f.failLesson {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"server_error","message":"boom"}`))
			return
		}
		f.mu.Lock()
		f.nextLesson++
		id := 300 + f.nextLesson
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]int{"data": id})
	default:
		http.NotFound(w, r)
	}
}

func jsonString(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (f *fakeLMS) paths(prefix string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Path == prefix {
			out = append(out, c)
		}
	}
	return out
}

type fakeThumbs struct {
	refs []string
	err  error
}

func (f *fakeThumbs) Resolve(_ context.Context, courseID int, ref string) (thumbnail.Outcome, error) {
	f.refs = append(f.refs, ref)
	if f.err != nil {
		return thumbnail.Outcome{}, f.err
	}
	return thumbnail.Outcome{MediaID: 900 + courseID}, nil
}

type fakeArchive struct{ saved []domain.PublishedCourse }

func (f *fakeArchive) SaveCourse(_ context.Context, c *domain.PublishedCourse) error {
	f.saved = append(f.saved, *c)
	return nil
}

type staticCategories int

func (s staticCategories) Resolve(context.Context, string) int { return int(s) }

func sampleCourse() (domain.CourseRecord, []domain.Lesson) {
	course := domain.CourseRecord{
		CourseName:  "Intro to X",
		Category:    "Programming",
		Description: "Everything about X",
		Thumbnail:   domain.PendingThumb,
		SourceURL:   "https://www.mindluster.com/certified/course/1",
		Lessons: []domain.Lesson{
			{Title: "L1", Link: "https://www.mindluster.com/lesson/1-video", Duration: "00:05:00"},
			{Title: "L2", Link: "https://www.mindluster.com/lesson/2-video", Duration: "00:10:30"},
			{Title: "L3", Link: "https://www.mindluster.com/lesson/3-video", Duration: "00:04:30"},
		},
	}
	details := []domain.Lesson{
		{Title: "L1", Link: course.Lessons[0].Link, Duration: "00:05:00", VideoID: "aaaaaaaaaaa", VideoURL: "https://www.youtube.com/embed/aaaaaaaaaaa", Content: "First"},
		{Title: "L2", Link: course.Lessons[1].Link, Duration: "00:10:30", VideoID: domain.NoVideoID},
		{Title: "L3", Link: course.Lessons[2].Link, Duration: "00:04:30", VideoID: "ccccccccccc", Content: "Third"},
	}
	return course, details
}

func newTestWorkflow(t *testing.T, lms *fakeLMS, cfg Config) *Workflow {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(lms.handler))
	t.Cleanup(srv.Close)
	cfg.LMS = tutor.New(tutor.Config{BaseURL: srv.URL, Key: "k", Secret: "s"})
	w := NewWorkflow(cfg)
	w.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return w
}

func TestPublish_EndToEnd(t *testing.T) {
	lms := &fakeLMS{}
	store := dataset.NewStore(t.TempDir())
	thumbs := &fakeThumbs{}
	archive := &fakeArchive{}
	mem := progress.NewMemory()
	w := newTestWorkflow(t, lms, Config{
		Categories: staticCategories(12),
		Thumbnails: thumbs,
		Store:      store,
		Archive:    archive,
		Progress:   mem,
	})

	course, details := sampleCourse()
	ctx := progress.WithRunID(context.Background(), "run-42")
	res, err := w.Publish(ctx, course, details)
	require.NoError(t, err)

	assert.Equal(t, 101, res.CourseID)
	assert.Equal(t, 202, res.TopicID)
	assert.Equal(t, []int{301, 302, 303}, res.LessonIDs)
	assert.Equal(t, 3, res.LessonCount)
	assert.Equal(t, 1001, res.ThumbnailMediaID)
	assert.Empty(t, res.Errors)

	courses := lms.paths("/tutor/v1/courses")
	require.Len(t, courses, 1)
	ac := courses[0].Body["additional_content"].(map[string]any)
	assert.Equal(t, map[string]any{"hours": float64(0), "minutes": float64(20)}, ac["course_duration"])
	assert.Equal(t, float64(1), courses[0].Body["post_author"])
	assert.Equal(t, []any{float64(12)}, courses[0].Body["course_categories"])

	topics := lms.paths("/tutor/v1/topics")
	require.Len(t, topics, 1)
	assert.Equal(t, "Intro to X - Lessons", topics[0].Body["topic_title"])
	assert.Equal(t, float64(101), topics[0].Body["topic_course_id"])

	lessons := lms.paths("/tutor/v1/lessons")
	require.Len(t, lessons, 3)
	for i, want := range []string{"L1", "L2", "L3"} {
		assert.Equal(t, want, lessons[i].Body["lesson_title"])
		assert.Equal(t, float64(202), lessons[i].Body["topic_id"])
	}
	video := lessons[0].Body["video"].(map[string]any)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", video["source"])
	assert.Equal(t, map[string]any{"hours": float64(0), "minutes": float64(5), "seconds": float64(0)}, video["runtime"])
	assert.Equal(t, PlaceholderVideo, lessons[1].Body["video"].(map[string]any)["source"])
	assert.Equal(t, "Lesson content for L2", lessons[1].Body["lesson_content"])
	assert.Equal(t, "https://www.youtube.com/watch?v=ccccccccccc", lessons[2].Body["video"].(map[string]any)["source"])

	assert.Equal(t, []string{"aaaaaaaaaaa"}, thumbs.refs)

	current, err := store.LoadCurrent()
	require.NoError(t, err)
	assert.Equal(t, domain.CurrentCourse{CourseID: 101, CourseName: "Intro to X", CreatedAt: "2026-03-04 05:06:07", LessonCount: 3}, current)
	require.Len(t, archive.saved, 1)
	assert.Equal(t, 101, archive.saved[0].CourseID)

	latest, err := mem.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, progress.StateDone, latest.State)
	assert.Equal(t, 100, latest.Progress)
	assert.Equal(t, "run-42", latest.RunID)
}

func TestPublish_LessonFailureIsCollected(t *testing.T) {
	lms := &fakeLMS{failLesson: "L2"}
	w := newTestWorkflow(t, lms, Config{})

	course, details := sampleCourse()
	res, err := w.Publish(context.Background(), course, details)
	require.NoError(t, err)

	assert.Equal(t, []int{301, 302}, res.LessonIDs)
	assert.Equal(t, 2, res.LessonCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "L2")
	assert.Len(t, lms.paths("/tutor/v1/lessons"), 3)
}

func TestPublish_AuthorLadder(t *testing.T) {
	lms := &fakeLMS{authorReject: map[string]bool{"1": true, "2": true, "3": true}}
	w := newTestWorkflow(t, lms, Config{AlternateAuthorIDs: []int{2, 3}})

	course, details := sampleCourse()
	res, err := w.Publish(context.Background(), course, details)
	require.NoError(t, err)
	assert.Equal(t, 101, res.CourseID)

	courses := lms.paths("/tutor/v1/courses")
	require.Len(t, courses, 4)
	var authors []any
	for _, c := range courses {
		authors = append(authors, c.Body["post_author"])
	}
	assert.Equal(t, []any{float64(1), float64(2), float64(3), nil}, authors)
	_, present := courses[3].Body["post_author"]
	assert.False(t, present)
}

func TestPublish_AuthorLadderStopsOnOtherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"rest_invalid_param","message":"Invalid parameter(s): post_title","data":{"status":400,"details":{"post_title":"required"}}}`))
	}))
	defer srv.Close()
	w := NewWorkflow(Config{LMS: tutor.New(tutor.Config{BaseURL: srv.URL}), AlternateAuthorIDs: []int{2, 3}})

	course, details := sampleCourse()
	_, err := w.Publish(context.Background(), course, details)
	require.ErrorIs(t, err, ErrCourseRejected)

	var apiErr *tutor.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.JSONEq(t, `{"post_title":"required"}`, string(apiErr.Details))
}

type topicFailLMS struct{}

func (f *topicFailLMS) CreateCourse(context.Context, tutor.CourseRequest) (int, error) { return 5, nil }
func (f *topicFailLMS) CreateTopic(context.Context, tutor.TopicRequest) (int, error) {
	return 0, errors.New("down")
}
func (f *topicFailLMS) CreateLesson(context.Context, tutor.LessonRequest) (int, error) {
	return 0, errors.New("unreachable")
}

func TestPublish_TopicFailureIsTerminal(t *testing.T) {
	w := NewWorkflow(Config{LMS: &topicFailLMS{}})
	course, details := sampleCourse()
	res, err := w.Publish(context.Background(), course, details)
	require.ErrorIs(t, err, ErrTopicRejected)
	assert.Equal(t, 5, res.CourseID)
	assert.Empty(t, res.LessonIDs)
}

func TestPublish_ThumbnailFailureIsCollected(t *testing.T) {
	lms := &fakeLMS{}
	thumbs := &fakeThumbs{err: thumbnail.ErrAttachFailed}
	w := newTestWorkflow(t, lms, Config{Thumbnails: thumbs})

	course, details := sampleCourse()
	course.Thumbnail = "https://cdn.test/cover.png"
	res, err := w.Publish(context.Background(), course, details)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.test/cover.png"}, thumbs.refs)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "thumbnail")
	assert.Zero(t, res.ThumbnailMediaID)
}

// cancelAfterTopicLMS cancels the run once the topic exists
type cancelAfterTopicLMS struct {
	cancel  context.CancelFunc
	lessons int
}

func (f *cancelAfterTopicLMS) CreateCourse(context.Context, tutor.CourseRequest) (int, error) {
	return 10, nil
}
func (f *cancelAfterTopicLMS) CreateTopic(context.Context, tutor.TopicRequest) (int, error) {
	f.cancel()
	return 11, nil
}
func (f *cancelAfterTopicLMS) CreateLesson(ctx context.Context, _ tutor.LessonRequest) (int, error) {
	f.lessons++
	return 0, ctx.Err()
}

func TestPublish_CancelledRunAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(progress.WithRunID(context.Background(), "run-7"))
	defer cancel()

	lms := &cancelAfterTopicLMS{cancel: cancel}
	thumbs := &fakeThumbs{}
	archive := &fakeArchive{}
	mem := progress.NewMemory()
	store := dataset.NewStore(t.TempDir())
	w := NewWorkflow(Config{LMS: lms, Thumbnails: thumbs, Archive: archive, Store: store, Progress: mem})

	course, details := sampleCourse()
	res, err := w.Publish(ctx, course, details)
	require.ErrorIs(t, err, ErrAborted)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 10, res.CourseID)
	assert.Equal(t, 11, res.TopicID)
	assert.Zero(t, lms.lessons)
	assert.Empty(t, res.LessonIDs)
	assert.Empty(t, thumbs.refs)
	assert.Empty(t, archive.saved)

	_, err = store.LoadCurrent()
	assert.ErrorIs(t, err, dataset.ErrNoDataset)

	last, err := mem.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, progress.StateError, last.State)
	assert.Equal(t, "run-7", last.RunID)
	assert.Contains(t, last.Message, "publish aborted")
}
