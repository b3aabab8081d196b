package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://wedti.com/wp-json", cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, 10, cfg.Scraper.MaxPages)
	assert.Equal(t, "file", cfg.Storage.Ledger)
	assert.Equal(t, []int{2, 3}, cfg.Publish.AlternateAuthorIDs)
	assert.Equal(t, 1, cfg.Publish.DefaultAuthorID)
	assert.Equal(t, "wp_", cfg.WordPress.TablePrefix)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("WESCRAPER_API_SECRET", "from-env")
	t.Setenv("WESCRAPER_FETCH_TIMEOUT", "5s")

	path := writeConfig(t, `
api:
  key: key-1
  secret: from-yaml
  base_url: https://lms.example.com/wp-json
scraper:
  course_url: https://www.mindluster.com/certificate/1
publish:
  alternate_author_ids: [7]
storage:
  ledger: sqlite
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key-1", cfg.API.Key)
	assert.Equal(t, "from-env", cfg.API.Secret)
	assert.Equal(t, "https://lms.example.com/wp-json", cfg.API.BaseURL)
	assert.Equal(t, "https://lms.example.com/wp-json", cfg.WordPress.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Scraper.Timeout)
	assert.Equal(t, []int{7}, cfg.Publish.AlternateAuthorIDs)
	assert.NoError(t, cfg.ValidateForPublish())
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("WESCRAPER_TEST_ONLY_KEY=abc\n"), 0o644))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("WESCRAPER_TEST_ONLY_KEY") })

	_, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "abc", os.Getenv("WESCRAPER_TEST_ONLY_KEY"))
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, cfg.ValidateForPublish(), ErrMissingCredentials)

	cfg.Storage.Ledger = "redis"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownLedger)

	cfg.Storage.Ledger = "postgres"
	assert.Error(t, cfg.Validate())
	cfg.Storage.PostgresDSN = "postgres://localhost/db"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
