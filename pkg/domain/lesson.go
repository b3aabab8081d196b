package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Lesson starts as a stub (title, link, duration) and is upgraded in place
// with video and content details by the lesson detail extractor
type Lesson struct {
	Title    string `json:"title" bson:"title"`
	Link     string `json:"link" bson:"link"`
	Duration string `json:"duration" bson:"duration"`

	VideoID  string `json:"video_id,omitempty" bson:"video_id,omitempty"`
	VideoURL string `json:"video_url,omitempty" bson:"video_url,omitempty"`
	Content  string `json:"content,omitempty" bson:"content,omitempty"`
	SiteType string `json:"site_type,omitempty" bson:"site_type,omitempty"`
}

// Stub drops the detail fields
func (l Lesson) Stub() Lesson {
	return Lesson{Title: l.Title, Link: l.Link, Duration: l.Duration}
}

// HasVideo reports whether a real video id was resolved
func (l Lesson) HasVideo() bool {
	return l.VideoID != "" && l.VideoID != NoVideoID
}

// Runtime is a duration split into the components the LMS expects
type Runtime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// TotalSeconds returns the runtime in seconds
func (r Runtime) TotalSeconds() int {
	return r.Hours*3600 + r.Minutes*60 + r.Seconds
}

// ParseDuration reads "HH:MM:SS", "MM:SS" or "SS". Missing leading segments
// and unparseable segments count as zero.
func ParseDuration(s string) Runtime {
	s = strings.TrimSpace(s)
	if s == "" || s == UnknownDuration {
		return Runtime{}
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	vals := [3]int{}
	offset := 3 - len(parts)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			n = 0
		}
		vals[offset+i] = n
	}
	return Runtime{Hours: vals[0], Minutes: vals[1], Seconds: vals[2]}
}

// FormatDuration renders a runtime as "HH:MM:SS"
func FormatDuration(r Runtime) string {
	return fmt.Sprintf("%02d:%02d:%02d", r.Hours, r.Minutes, r.Seconds)
}

// NormalizeDuration rewrites scraped durations ("5:07", "1:02:03", "45")
// into the "HH:MM:SS" triple stored in datasets
func NormalizeDuration(s string) string {
	return FormatDuration(ParseDuration(s))
}
