package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"course-migrator/pkg/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingCredentials is returned when the LMS API key pair is not configured
	ErrMissingCredentials = errors.New("api key and secret are required")
	// ErrUnknownLedger is returned for an unsupported ledger backend name
	ErrUnknownLedger = errors.New("unknown ledger backend")
)

// Config is the full application configuration
type Config struct {
	Logger    logger.Config   `yaml:"logger"`
	API       APIConfig       `yaml:"api"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Storage   StorageConfig   `yaml:"storage"`
	Publish   PublishConfig   `yaml:"publish"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
}

// APIConfig holds Tutor LMS REST API settings
type APIConfig struct {
	Key     string        `yaml:"key" env:"WESCRAPER_API_KEY"`
	Secret  string        `yaml:"secret" env:"WESCRAPER_API_SECRET"`
	BaseURL string        `yaml:"base_url" env:"WESCRAPER_API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"WESCRAPER_API_TIMEOUT"`
}

// ScraperConfig holds source-site fetch settings
type ScraperConfig struct {
	CourseURL         string        `yaml:"course_url" env:"WESCRAPER_COURSE_URL"`
	CookiesFile       string        `yaml:"cookies_file" env:"WESCRAPER_COOKIES_FILE"`
	Cookies           string        `yaml:"cookies" env:"WESCRAPER_COOKIES"`
	Timeout           time.Duration `yaml:"timeout" env:"WESCRAPER_FETCH_TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"WESCRAPER_RPS"`
	MaxPages          int           `yaml:"max_pages"`
}

// StorageConfig selects where artifacts and the processed URL ledger live
type StorageConfig struct {
	Dir         string `yaml:"dir" env:"WESCRAPER_DATA_DIR"`
	Ledger      string `yaml:"ledger" env:"WESCRAPER_LEDGER"`
	SQLitePath  string `yaml:"sqlite_path" env:"WESCRAPER_SQLITE_PATH"`
	PostgresDSN string `yaml:"postgres_dsn" env:"WESCRAPER_POSTGRES_DSN"`
	SupabaseURL string `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseKey string `yaml:"supabase_key" env:"SUPABASE_KEY"`
}

// PublishConfig holds publication workflow defaults
type PublishConfig struct {
	DefaultAuthorID    int    `yaml:"default_author_id"`
	AlternateAuthorIDs []int  `yaml:"alternate_author_ids"`
	PlaceholderVideo   string `yaml:"placeholder_video"`
	DefaultCategoryID  int    `yaml:"default_category_id"`
}

// WordPressConfig holds host CMS access used for media, meta and categories
type WordPressConfig struct {
	BaseURL       string `yaml:"base_url" env:"WP_BASE_URL"`
	Username      string `yaml:"username" env:"WP_USERNAME"`
	AppPassword   string `yaml:"app_password" env:"WP_APP_PASSWORD"`
	MySQLDSN      string `yaml:"mysql_dsn" env:"WP_MYSQL_DSN"`
	TablePrefix   string `yaml:"table_prefix" env:"WP_TABLE_PREFIX"`
	PostType      string `yaml:"post_type"`
	CategoryStore string `yaml:"category_store" env:"WP_CATEGORY_STORE"`
}

// MongoConfig enables the published course archive when URI is set
type MongoConfig struct {
	URI        string `yaml:"uri" env:"MONGO_URI"`
	Database   string `yaml:"database" env:"MONGO_DATABASE"`
	Collection string `yaml:"collection"`
}

// RedisConfig enables the redis progress channel when Address is set
type RedisConfig struct {
	Address   string `yaml:"address" env:"REDIS_ADDRESS"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB"`
	StatusKey string `yaml:"status_key"`
}

// ServerConfig holds the HTTP job API settings
type ServerConfig struct {
	Addr string `yaml:"addr" env:"WESCRAPER_SERVER_ADDR"`
}

// Load reads .env files, the optional YAML file at path, applies defaults and
// then environment overrides. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://wedti.com/wp-json"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 60 * time.Second
	}
	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 30 * time.Second
	}
	if c.Scraper.RequestsPerSecond == 0 {
		c.Scraper.RequestsPerSecond = 2
	}
	if c.Scraper.MaxPages == 0 {
		c.Scraper.MaxPages = 10
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "data"
	}
	if c.Storage.Ledger == "" {
		c.Storage.Ledger = "file"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/ledger.db"
	}
	if c.Publish.DefaultAuthorID == 0 {
		c.Publish.DefaultAuthorID = 1
	}
	if c.Publish.AlternateAuthorIDs == nil {
		c.Publish.AlternateAuthorIDs = []int{2, 3}
	}
	if c.Publish.PlaceholderVideo == "" {
		c.Publish.PlaceholderVideo = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	}
	if c.Publish.DefaultCategoryID == 0 {
		c.Publish.DefaultCategoryID = 1
	}
	if c.WordPress.BaseURL == "" {
		c.WordPress.BaseURL = c.API.BaseURL
	}
	if c.WordPress.TablePrefix == "" {
		c.WordPress.TablePrefix = "wp_"
	}
	if c.WordPress.PostType == "" {
		c.WordPress.PostType = "courses"
	}
	if c.WordPress.CategoryStore == "" {
		c.WordPress.CategoryStore = "rest"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "wescraper"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "published_courses"
	}
	if c.Redis.StatusKey == "" {
		c.Redis.StatusKey = "wescraper:status"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks settings required by every command
func (c *Config) Validate() error {
	switch c.Storage.Ledger {
	case "file", "sqlite", "postgres", "supabase":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLedger, c.Storage.Ledger)
	}
	if c.Storage.Ledger == "postgres" && c.Storage.PostgresDSN == "" {
		return errors.New("postgres ledger requires storage.postgres_dsn")
	}
	if c.Storage.Ledger == "supabase" && (c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "") {
		return errors.New("supabase ledger requires storage.supabase_url and storage.supabase_key")
	}
	return nil
}

// ValidateForPublish additionally checks the LMS credentials
func (c *Config) ValidateForPublish() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.API.Key == "" || c.API.Secret == "" {
		return ErrMissingCredentials
	}
	return nil
}
