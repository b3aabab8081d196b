package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/wp-json/", Key: "key", Secret: "secret"})
}

func TestParseID(t *testing.T) {
	tests := []struct {
		body    string
		want    int
		wantErr bool
	}{
		{`{"data": 42}`, 42, false},
		{`{"code":"ok","message":"created","data":"17"}`, 17, false},
		{`{"data": " 9 "}`, 9, false},
		{`{"data": null}`, 0, true},
		{`{"data": {"id": 3}}`, 0, true},
		{`{"data": "abc"}`, 0, true},
		{`{}`, 0, true},
		{`not json`, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID([]byte(tt.body))
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrNoID, tt.body)
			continue
		}
		require.NoError(t, err, tt.body)
		assert.Equal(t, tt.want, got)
	}
}

func TestClient_CreateCourse(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/tutor/v1/courses", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"code":"tutor_create_course","data":101}`))
	})

	author := 2
	id, err := c.CreateCourse(context.Background(), CourseRequest{
		PostAuthor:       &author,
		PostTitle:        "Intro to X",
		CourseCategories: []int{5},
		AdditionalContent: AdditionalContent{
			CourseDuration: Duration{Hours: 1, Minutes: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 101, id)
	assert.Equal(t, float64(2), got["post_author"])
	assert.Equal(t, "Intro to X", got["post_title"])
	duration := got["additional_content"].(map[string]any)["course_duration"].(map[string]any)
	assert.Equal(t, float64(1), duration["hours"])
	assert.Equal(t, float64(5), duration["minutes"])
}

func TestClient_CreateCourseWithoutAuthor(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"data":"5"}`))
	})

	_, err := c.CreateCourse(context.Background(), CourseRequest{PostTitle: "T"})
	require.NoError(t, err)
	_, present := got["post_author"]
	assert.False(t, present)
}

func TestClient_APIErrorDetailsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"tutor_create_course_error","message":"Invalid input","data":{"status":400,"details":{"post_author":"Invalid author ID"}}}`))
	})

	_, err := c.CreateCourse(context.Background(), CourseRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "tutor_create_course_error", apiErr.Code)
	assert.Equal(t, "Invalid input", apiErr.Message)
	assert.JSONEq(t, `{"post_author":"Invalid author ID"}`, string(apiErr.Details))
	assert.True(t, apiErr.IsValidation())
	assert.True(t, apiErr.Mentions("post_author"))
	assert.Contains(t, apiErr.Error(), `{"post_author":"Invalid author ID"}`)
}

func TestClient_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})

	_, err := c.CreateTopic(context.Background(), TopicRequest{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.False(t, apiErr.IsValidation())
}

func TestClient_PatchAndGetCourse(t *testing.T) {
	var patched map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/tutor/v1/courses/42", r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &patched))
			_, _ = w.Write([]byte(`{"data":42}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data":{"ID":42,"post_title":"Intro"}}`))
		}
	})

	require.NoError(t, c.PatchCourse(context.Background(), 42, map[string]any{"thumbnail_id": 7}))
	assert.Equal(t, float64(7), patched["thumbnail_id"])

	raw, err := c.GetCourse(context.Background(), 42)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Intro")
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url})
	_, err := c.CreateLesson(context.Background(), LessonRequest{})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
