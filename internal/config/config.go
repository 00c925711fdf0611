package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed theme.yaml
var themeYAML []byte

type Config struct {
	Database  DatabaseConfig
	BlobStore BlobStoreConfig
	Export    ExportConfig
	Theme     ThemeConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
	SQLitePath   string // Local SQLite entry store (used when URL is empty)
	MariaDBDSN   string // MariaDB DSN, e.g. diary:diary@tcp(mariadb:3306)/diary?parseTime=true
}

// Backend returns the name of the configured entry store, or "" if none is set.
// PostgreSQL wins over MariaDB, which wins over SQLite.
func (c *DatabaseConfig) Backend() string {
	switch {
	case c.URL != "":
		return "postgres"
	case c.MariaDBDSN != "":
		return "mariadb"
	case c.SQLitePath != "":
		return "sqlite"
	}
	return ""
}

type BlobStoreConfig struct {
	URL     string // base URL, stored paths are resolved against it
	Token   string // bearer token
	Timeout time.Duration
}

type ExportConfig struct {
	AssetsDir           string // directory for static/ sticker assets
	FontDir             string // optional regular.ttf / bold.ttf / italic.ttf overrides
	DefaultOwner        string
	DownloadConcurrency int
	AssetTimeout        time.Duration
	MaxImageSize        int
	Debug               bool
}

type ThemeConfig struct {
	Locale  string       `yaml:"locale"` // BCP 47 tag for header and footer numbers
	Brand   BrandTheme   `yaml:"brand"`
	Fonts   FontTheme    `yaml:"fonts"`
	Caption CaptionTheme `yaml:"caption"`
}

type BrandTheme struct {
	Name    string `yaml:"name"`
	Primary string `yaml:"primary"`
	Ink     string `yaml:"ink"`
	Muted   string `yaml:"muted"`
	Paper   string `yaml:"paper"`
	Card    string `yaml:"card"`
	Neutral string `yaml:"neutral"`
}

type FontTheme struct {
	Title      float64 `yaml:"title"`
	Header     float64 `yaml:"header"`
	Body       float64 `yaml:"body"`
	Small      float64 `yaml:"small"`
	LineHeight float64 `yaml:"line_height"`
}

type CaptionTheme struct {
	DayMaxLines      int `yaml:"day_max_lines"`
	FavoriteMaxLines int `yaml:"favorite_max_lines"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads a Go duration string ("15s", "2m") from the environment.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

// ParseTheme decodes a theme document on top of the embedded defaults,
// so a partial override file only needs the keys it changes.
func ParseTheme(data []byte) (ThemeConfig, error) {
	var theme ThemeConfig
	if err := yaml.Unmarshal(themeYAML, &theme); err != nil {
		return ThemeConfig{}, fmt.Errorf("unmarshal embedded theme.yaml: %w", err)
	}
	if len(data) == 0 {
		return theme, nil
	}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return ThemeConfig{}, fmt.Errorf("unmarshal theme: %w", err)
	}
	return theme, nil
}

func loadTheme() ThemeConfig {
	var override []byte
	if path := os.Getenv("EXPORT_THEME_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			panic("failed to read EXPORT_THEME_FILE: " + err.Error())
		}
		override = data
	}
	theme, err := ParseTheme(override)
	if err != nil {
		// The embedded file is part of the binary; a failure here is a build defect.
		panic(err.Error())
	}
	return theme
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			SQLitePath:   os.Getenv("SQLITE_PATH"),
			MariaDBDSN:   os.Getenv("MARIADB_DSN"),
		},
		BlobStore: BlobStoreConfig{
			URL:     os.Getenv("BLOBSTORE_URL"),
			Token:   os.Getenv("BLOBSTORE_TOKEN"),
			Timeout: envDuration("BLOBSTORE_TIMEOUT", 30*time.Second),
		},
		Export: ExportConfig{
			AssetsDir:           os.Getenv("EXPORT_ASSETS_DIR"),
			FontDir:             os.Getenv("EXPORT_FONT_DIR"),
			DefaultOwner:        os.Getenv("DIARY_OWNER"),
			DownloadConcurrency: envInt("EXPORT_DOWNLOAD_CONCURRENCY", 4),
			AssetTimeout:        envDuration("EXPORT_ASSET_TIMEOUT", 20*time.Second),
			MaxImageSize:        envInt("EXPORT_MAX_IMAGE_SIZE", 1600),
			Debug:               envBool("EXPORT_DEBUG"),
		},
		Theme: loadTheme(),
	}
}
