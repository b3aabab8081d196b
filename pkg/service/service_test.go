package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-migrator/pkg/config"
	"course-migrator/pkg/dataset"
	"course-migrator/pkg/domain"
	"course-migrator/pkg/progress"
	"course-migrator/pkg/thumbnail"
	"course-migrator/pkg/urls"
)

type fakeScraper struct {
	calls  []string
	status map[string]domain.ScrapeStatus
	runIDs []string
}

func (f *fakeScraper) BuildAndPersist(ctx context.Context, url string) dataset.Result {
	f.calls = append(f.calls, url)
	f.runIDs = append(f.runIDs, progress.RunID(ctx))
	st := domain.StatusSuccess
	if s, ok := f.status[url]; ok {
		st = s
	}
	return dataset.Result{Status: st, Message: st.Message()}
}

type fakePublisher struct {
	course  domain.CourseRecord
	details []domain.Lesson
	err     error
}

func (f *fakePublisher) Publish(_ context.Context, course domain.CourseRecord, details []domain.Lesson) (domain.PublishedCourse, error) {
	f.course, f.details = course, details
	if f.err != nil {
		return domain.PublishedCourse{}, f.err
	}
	return domain.PublishedCourse{CourseID: 9, CourseName: course.CourseName, LessonCount: len(course.Lessons)}, nil
}

type fakeDiscoverer []urls.URL

func (f fakeDiscoverer) Discover(context.Context, string) ([]urls.URL, error) { return f, nil }

type seenSet map[string]bool

func (s seenSet) Contains(_ context.Context, u string) (bool, error) { return s[u], nil }

func TestScrape_ReportsProgress(t *testing.T) {
	scraper := &fakeScraper{status: map[string]domain.ScrapeStatus{"https://x.test/bad": domain.StatusUnsupportedSite}}
	mem := progress.NewMemory()
	svc := New(Deps{Scraper: scraper, Progress: mem, Status: mem})

	res := svc.Scrape(context.Background(), "https://www.m3aarf.com/certificate/1")
	assert.Equal(t, domain.StatusSuccess, res.Status)
	require.Len(t, scraper.runIDs, 1)
	assert.NotEmpty(t, scraper.runIDs[0])

	latest, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, progress.StateDone, latest.State)
	assert.Equal(t, scraper.runIDs[0], latest.RunID)

	res = svc.Scrape(progress.WithRunID(context.Background(), "fixed"), "https://x.test/bad")
	assert.Equal(t, domain.StatusUnsupportedSite, res.Status)
	latest, err = svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, progress.StateError, latest.State)
	assert.Equal(t, "fixed", latest.RunID)
}

func TestPublish_LoadsDataset(t *testing.T) {
	store := dataset.NewStore(t.TempDir())
	pub := &fakePublisher{}
	svc := New(Deps{Publisher: pub, Store: store})

	_, err := svc.Publish(context.Background())
	require.ErrorIs(t, err, dataset.ErrNoDataset)

	course := domain.NewCourseRecord("https://www.m3aarf.com/certificate/1", "m3aarf")
	course.CourseName = "Intro"
	course.Lessons = []domain.Lesson{{Title: "L1", Link: "https://www.m3aarf.com/lesson/1", Duration: "00:01:00"}}
	require.NoError(t, store.SaveCourse(course))

	res, err := svc.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, res.CourseID)
	assert.Equal(t, "Intro", pub.course.CourseName)
	assert.Nil(t, pub.details)

	details := []domain.Lesson{{Title: "L1", Link: "https://www.m3aarf.com/lesson/1", Content: "text"}}
	require.NoError(t, store.SaveLessons(details))
	_, err = svc.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, details, pub.details)
}

func TestPublishCourse_Error(t *testing.T) {
	boom := errors.New("rejected")
	svc := New(Deps{Publisher: &fakePublisher{err: boom}})
	_, err := svc.PublishCourse(context.Background(), domain.CourseRecord{}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestScrapeFeed(t *testing.T) {
	scraper := &fakeScraper{}
	svc := New(Deps{
		Scraper: scraper,
		Discoverer: fakeDiscoverer{
			{Location: "https://www.m3aarf.com/"},
			{Location: "https://www.m3aarf.com/certificate/1"},
			{Location: "https://www.m3aarf.com/certificate/2"},
			{Location: "https://blog.test/post"},
			{Location: "https://www.m3aarf.com/certificate/3"},
			{Location: "https://www.m3aarf.com/certificate/4"},
		},
		Seen:     seenSet{"https://www.m3aarf.com/certificate/2": true},
		Supports: func(u string) bool { return strings.Contains(u, "m3aarf.com") },
	})

	results, err := svc.ScrapeFeed(context.Background(), "https://www.m3aarf.com/sitemap.xml", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"https://www.m3aarf.com/certificate/1", "https://www.m3aarf.com/certificate/3"}, scraper.calls)
	assert.Equal(t, scraper.runIDs[0], scraper.runIDs[1])
}

func TestScrapeFeed_Cancelled(t *testing.T) {
	scraper := &fakeScraper{}
	svc := New(Deps{Scraper: scraper, Discoverer: fakeDiscoverer{{Location: "https://www.m3aarf.com/certificate/1"}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ScrapeFeed(ctx, "feed", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, scraper.calls)
}

type fakeLogin struct{ cookies string }

func (f *fakeLogin) CheckLogin(_ context.Context, _, cookies string) (bool, error) {
	f.cookies = cookies
	return strings.Contains(cookies, "laravel_session"), nil
}

func TestCheckLogin(t *testing.T) {
	login := &fakeLogin{}
	ok, err := New(Deps{Login: login}).CheckLogin(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, login.cookies)

	ok, err = New(Deps{Login: login, Cookies: "laravel_session=abc"}).CheckLogin(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

type fakeRetarget struct{ ref string }

func (f *fakeRetarget) RetargetCurrent(_ context.Context, ref string) (thumbnail.Outcome, error) {
	f.ref = ref
	return thumbnail.Outcome{MediaID: 3, Mechanism: thumbnail.MechanismPostMeta}, nil
}

func TestRetargetThumbnail(t *testing.T) {
	r := &fakeRetarget{}
	out, err := New(Deps{Thumbnails: r}).RetargetThumbnail(context.Background(), "abcDEF12345")
	require.NoError(t, err)
	assert.Equal(t, "abcDEF12345", r.ref)
	assert.Equal(t, 3, out.MediaID)

	_, err = New(Deps{}).RetargetThumbnail(context.Background(), "x")
	assert.Error(t, err)
}

func TestRecentCourses_Disabled(t *testing.T) {
	_, err := New(Deps{}).RecentCourses(context.Background(), 10)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestClose_RunsClosersInReverse(t *testing.T) {
	var order []int
	svc := New(Deps{Closers: []func(context.Context) error{
		func(context.Context) error { order = append(order, 1); return nil },
		func(context.Context) error { order = append(order, 2); return errors.New("close failed") },
	}})
	err := svc.Close(context.Background())
	assert.ErrorContains(t, err, "close failed")
	assert.Equal(t, []int{2, 1}, order)
}

func TestOpenLedger_File(t *testing.T) {
	store := dataset.NewStore(t.TempDir())
	led, closer, err := openLedger(context.Background(), config.StorageConfig{Ledger: "file"}, store)
	require.NoError(t, err)
	require.NoError(t, closer(context.Background()))

	require.NoError(t, led.Append(context.Background(), "https://www.m3aarf.com/certificate/1/"))
	seen, err := led.Contains(context.Background(), "HTTPS://www.m3aarf.com/certificate/1")
	require.NoError(t, err)
	assert.True(t, seen)

	_, _, err = openLedger(context.Background(), config.StorageConfig{Ledger: "etcd"}, store)
	assert.ErrorIs(t, err, config.ErrUnknownLedger)
}

func TestFromConfig_FileBackends(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.Ledger = "file"
	cfg.Scraper.Cookies = "laravel_session=abc"

	svc, err := FromConfig(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer svc.Close(context.Background())

	assert.Nil(t, svc.Metrics())
	_, err = svc.RecentCourses(context.Background(), 5)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	_, err = svc.Status(context.Background())
	assert.ErrorIs(t, err, progress.ErrNoStatus)
}

type fakeCourses struct {
	ids []int
	err error
}

func (f *fakeCourses) GetCourse(_ context.Context, id int) (json.RawMessage, error) {
	f.ids = append(f.ids, id)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"id":1}`), nil
}

func TestVerifyCurrent(t *testing.T) {
	store := dataset.NewStore(t.TempDir())
	lms := &fakeCourses{}
	svc := New(Deps{Store: store, LMS: lms})

	_, err := svc.VerifyCurrent(context.Background())
	require.ErrorIs(t, err, dataset.ErrNoDataset)

	require.NoError(t, store.SaveCurrent(domain.PublishedCourse{CourseID: 42, CourseName: "Go"}))
	current, err := svc.VerifyCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, current.CourseID)
	assert.Equal(t, []int{42}, lms.ids)

	lms.err = errors.New("404")
	_, err = svc.VerifyCurrent(context.Background())
	assert.ErrorContains(t, err, "failed to fetch course 42")
}

func TestFromConfig_DiscoveryUsesCurlProfile(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<?xml version="1.0"?><urlset><url><loc>https://example.test/</loc></url></urlset>`))
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.Ledger = "file"

	svc, err := FromConfig(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	defer svc.Close(context.Background())

	results, err := svc.ScrapeFeed(context.Background(), server.URL+"/sitemap.xml", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, "curl/8.7.1", gotUA)
}
