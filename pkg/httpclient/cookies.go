package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ProfileInfoURL is the mindluster page used to verify a logged-in session
const ProfileInfoURL = "https://www.mindluster.com/profile/info"

// sessionCookiePrefixes lists the cookies mindluster needs for an authenticated session
var sessionCookiePrefixes = []string{
	"__eoi",
	"laravel_session",
	"remember_web_",
	"XSRF-TOKEN",
}

type exportedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadCookieHeader reads a browser cookie-jar export (a JSON array of
// {name, value}) and returns the session cookies as a Cookie header value
func LoadCookieHeader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read cookies file: %w", err)
	}
	return ParseCookieExport(data)
}

// ParseCookieExport filters an exported cookie jar down to session cookies
func ParseCookieExport(data []byte) (string, error) {
	var cookies []exportedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return "", fmt.Errorf("failed to parse cookies: %w", err)
	}

	parts := make([]string, 0, len(sessionCookiePrefixes))
	for _, c := range cookies {
		if c.Name == "" || !isSessionCookie(c.Name) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

func isSessionCookie(name string) bool {
	for _, prefix := range sessionCookiePrefixes {
		if name == prefix || (strings.HasSuffix(prefix, "_") && strings.HasPrefix(name, prefix)) {
			return true
		}
	}
	return false
}

// CheckLogin fetches the profile page with the cookies and reports whether it
// shows a logged-in account
func (c *HTTPClient) CheckLogin(ctx context.Context, profileURL, cookies string) (bool, error) {
	if profileURL == "" {
		profileURL = ProfileInfoURL
	}
	body, err := c.Fetch(ctx, profileURL, cookies)
	if err != nil {
		return false, err
	}
	return strings.Contains(body, "My Account") || strings.Contains(body, "p_name"), nil
}
