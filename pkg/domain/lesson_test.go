package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want Runtime
	}{
		{"01:02:03", Runtime{1, 2, 3}},
		{"10:30", Runtime{0, 10, 30}},
		{"45", Runtime{0, 0, 45}},
		{"", Runtime{}},
		{"Unknown", Runtime{}},
		{"00:xx:10", Runtime{0, 0, 10}},
		{" 00:05:00 ", Runtime{0, 5, 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDuration(tt.in), "input %q", tt.in)
	}
}

func TestRuntime_TotalSeconds(t *testing.T) {
	assert.Equal(t, 3723, Runtime{1, 2, 3}.TotalSeconds())
}

func TestNewCourseRecord_Sentinels(t *testing.T) {
	c := NewCourseRecord("https://x.com/c", "m3aarf")
	assert.False(t, c.HasName())
	assert.Equal(t, NotFound, c.Category)
	assert.Equal(t, PendingThumb, c.Thumbnail)
	assert.NotNil(t, c.Lessons)
}

func TestCourseRecord_Stubs(t *testing.T) {
	c := CourseRecord{Lessons: []Lesson{{Title: "a", Link: "l", Duration: "00:01:00", VideoID: "abc", Content: "x"}}}
	assert.Equal(t, []Lesson{{Title: "a", Link: "l", Duration: "00:01:00"}}, c.Stubs())
}

func TestNormalizeDuration(t *testing.T) {
	assert.Equal(t, "00:05:07", NormalizeDuration("5:07"))
	assert.Equal(t, "01:02:03", NormalizeDuration("1:2:3"))
	assert.Equal(t, "00:00:00", NormalizeDuration("Unknown"))
}
