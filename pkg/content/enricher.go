package content

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"course-migrator/pkg/domain"
	"course-migrator/pkg/httpclient"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/textclean"
	"course-migrator/pkg/youtube"
)

// Fetcher retrieves raw documents
type Fetcher interface {
	FetchBytes(ctx context.Context, url, cookies string) (*httpclient.Response, error)
}

// Profile is the part of a site profile the enricher needs
type Profile interface {
	Name() string
	ContentLabels() []string
	NeedsCookies() bool
}

// Config holds enricher dependencies
type Config struct {
	Fetcher   Fetcher
	Extractor Extractor
	Logger    logger.Logger
}

// Enricher upgrades lesson stubs with their video and content details
type Enricher struct {
	fetcher   Fetcher
	extractor Extractor
	log       logger.Logger
}

// NewEnricher creates an enricher. The layered extractor is used when none
// is configured.
func NewEnricher(cfg Config) *Enricher {
	if cfg.Extractor == nil {
		cfg.Extractor = NewLayeredExtractor(textclean.LocaleAuto)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &Enricher{
		fetcher:   cfg.Fetcher,
		extractor: cfg.Extractor,
		log:       cfg.Logger.With(logger.Component("content")),
	}
}

// Enrich fetches the lesson page and resolves its video and content. An error
// is returned only when the lesson page itself cannot be fetched or parsed;
// content failures fall back to courseDescription.
func (e *Enricher) Enrich(ctx context.Context, stub domain.Lesson, p Profile, courseDescription, cookies string) (domain.Lesson, error) {
	lesson := stub.Stub()
	lesson.SiteType = p.Name()

	resp, err := e.fetcher.FetchBytes(ctx, stub.Link, cookies)
	if err != nil {
		return lesson, fmt.Errorf("failed to fetch lesson page: %w", err)
	}
	page := httpclient.DecodeHTML(resp.Body, resp.ContentType)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return lesson, fmt.Errorf("failed to parse lesson page: %w", err)
	}

	lesson.VideoID = FindVideoID(doc)
	if lesson.HasVideo() {
		lesson.VideoURL = youtube.EmbedURL(lesson.VideoID)
	}

	lesson.Content = e.resolveContent(ctx, doc, page, stub.Link, p.ContentLabels(), cookies)
	if utf8.RuneCountInString(strings.TrimSpace(lesson.Content)) < MinContentLength {
		e.log.Debug("lesson content too short, using course description",
			logger.String("lesson", stub.Link),
			logger.Int("length", utf8.RuneCountInString(lesson.Content)))
		lesson.Content = courseDescription
	}
	return lesson, nil
}

func (e *Enricher) resolveContent(ctx context.Context, doc *goquery.Document, page, pageURL string, labels []string, cookies string) string {
	src, ok := LocateContentFrame(doc, page, labels)
	if !ok {
		e.log.Debug("no content frame found", logger.String("lesson", pageURL))
		return ""
	}
	frameURL := resolveURL(pageURL, src)

	resp, err := e.fetcher.FetchBytes(ctx, frameURL, cookies)
	if err != nil {
		e.log.Warn("failed to fetch content frame", logger.String("url", frameURL), logger.Error(err))
		return ""
	}

	if resp.IsPDF() {
		text, err := ExtractPDFText(resp.Body)
		if err != nil {
			e.log.Warn("failed to extract pdf content", logger.String("url", frameURL), logger.Error(err))
			return ""
		}
		return textclean.Clean(text, textclean.LocaleAuto)
	}

	text, err := e.extractor.ExtractText(httpclient.DecodeHTML(resp.Body, resp.ContentType))
	if err != nil {
		e.log.Warn("failed to extract content frame", logger.String("url", frameURL), logger.Error(err))
		return ""
	}
	return text
}

// EnrichCourse enriches every lesson of course in order. Lessons whose page
// cannot be fetched are skipped. The first resolved video id becomes the
// course thumbnail unless the page already supplied one.
func (e *Enricher) EnrichCourse(ctx context.Context, course *domain.CourseRecord, p Profile, cookies string) []domain.Lesson {
	if !p.NeedsCookies() {
		cookies = ""
	}

	details := make([]domain.Lesson, 0, len(course.Lessons))
	for i, stub := range course.Lessons {
		if ctx.Err() != nil {
			break
		}
		lesson, err := e.Enrich(ctx, stub, p, course.Description, cookies)
		if err != nil {
			e.log.Warn("skipping lesson",
				logger.Int("index", i),
				logger.String("lesson", stub.Link),
				logger.Error(err))
			continue
		}
		if lesson.HasVideo() && needsThumbnail(course.Thumbnail) {
			course.Thumbnail = youtube.ThumbnailURL(lesson.VideoID)
		}
		details = append(details, lesson)
	}

	e.log.Info("lessons enriched",
		logger.Int("total", len(course.Lessons)),
		logger.Int("enriched", len(details)))
	return details
}

func needsThumbnail(current string) bool {
	switch strings.TrimSpace(current) {
	case "", domain.PendingThumb, domain.NotFound:
		return true
	}
	return false
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
