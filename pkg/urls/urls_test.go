package urls

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP://X.com/a/", "http://x.com/a"},
		{"http://x.com/a", "http://x.com/a"},
		{"  https://www.m3aarf.com/certificate/12#lessons  ", "https://www.m3aarf.com/certificate/12"},
		{"https://x.com/a///", "https://x.com/a"},
		{"https://", "https://"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"HTTP://X.com/a/", "https://x.com/A/#frag/", " https://y.org/ ", "https://x.com/a/ #b", "file:///"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
	assert.Equal(t, Normalize("HTTP://X.com/a/"), Normalize("http://x.com/a"))
}

type fakeSeen map[string]bool

func (f fakeSeen) Contains(ctx context.Context, u string) (bool, error) {
	return f[u], nil
}

type failingSeen struct{}

func (failingSeen) Contains(ctx context.Context, u string) (bool, error) {
	return false, errors.New("boom")
}

func TestFilterURLs(t *testing.T) {
	list := []string{
		"https://www.mindluster.com/",
		"https://www.mindluster.com/certificate/1",
		"https://www.mindluster.com/certificate/2/",
		"https://www.mindluster.com/certificate/3",
		"https://www.mindluster.com/CERTIFICATE/3",
		"https://example.com/course/9",
	}

	got, err := FilterURLs(context.Background(), list,
		NewBaseURLFilter(),
		NewSupportedSiteFilter(func(u string) bool { return strings.Contains(u, "mindluster") }),
		NewAlreadyFetchedFilter(fakeSeen{"https://www.mindluster.com/certificate/2": true}),
		NewDedupFilter(),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.mindluster.com/certificate/1",
		"https://www.mindluster.com/certificate/3",
	}, got)
}

func TestFilterURLs_PropagatesError(t *testing.T) {
	_, err := FilterURLs(context.Background(), []string{"https://x.com/a"}, NewAlreadyFetchedFilter(failingSeen{}))
	assert.Error(t, err)
}
