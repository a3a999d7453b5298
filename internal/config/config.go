// file: internal/config/config.go
// version: 2.0.0
// guid: 7b8c9d0e-1f2a-3b4c-5d6e-7f8a9b0c1d2e

package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/logutils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jdfalk/book-library/internal/database"
	"github.com/jdfalk/book-library/internal/metadata"
	"github.com/jdfalk/book-library/internal/scanner"
)

// EnvPrefix prefixes every environment override (BOOK_LIBRARY_PORT, ...).
const EnvPrefix = "BOOK_LIBRARY"

// Config holds application configuration
type Config struct {
	DatabasePath string
	DatabaseType string // "pebble" (default), "sqlite", "bolt", "postgres", "mysql", "memory"
	DatabaseDSN  string
	EnableSQLite bool // Must be true to use SQLite (safety flag)
	StorageKey   string

	GoogleBooksBaseURL  string
	OpenLibraryBaseURL  string
	BnFBaseURL          string
	WorldCatBaseURL     string
	HTTPTimeout         time.Duration
	LookupRatePerSecond float64
	LookupCacheTTL      time.Duration
	UserAgent           string

	ScanMinCodeLength int
	ScanQueueSize     int
	ScanWatchDir      string
	SimulateISBN      string

	Host               string
	Port               int
	BasicAuthEnabled   bool
	BasicAuthUsername  string
	BasicAuthPassHash  string // bcrypt hash
	RateLimitPerMinute int
	MaxBodyBytes       int64

	BackupDir      string
	BackupKeep     int
	BackupInterval time.Duration // 0 disables scheduled backups while serving

	LogLevel string
}

var AppConfig Config

// defaults are registered with viper by InitConfig.
var defaults = map[string]any{
	"database_path":                   "./book-library.db",
	"database_type":                   "pebble",
	"database_dsn":                    "",
	"enable_sqlite3_i_know_the_risks": false,
	"storage_key":                     database.DefaultStorageKey,
	"google_books_base_url":           metadata.DefaultGoogleBooksBaseURL,
	"openlibrary_base_url":            metadata.DefaultOpenLibraryBaseURL,
	"bnf_base_url":                    metadata.DefaultBnFBaseURL,
	"worldcat_base_url":               metadata.DefaultWorldCatBaseURL,
	"http_timeout":                    "30s",
	"lookup_rate_per_second":          0.0,
	"lookup_cache_ttl":                "1h",
	"user_agent":                      "book-library/1.0",
	"scan_min_code_length":            scanner.DefaultMinCodeLength,
	"scan_queue_size":                 scanner.DefaultQueueSize,
	"scan_watch_dir":                  "",
	"simulate_isbn":                   scanner.DefaultSimulateISBN,
	"host":                            "localhost",
	"port":                            8080,
	"basic_auth_enabled":              false,
	"basic_auth_username":             "",
	"basic_auth_password_hash":        "",
	"rate_limit_per_minute":           120,
	"max_body_bytes":                  10 << 20,
	"backup_dir":                      "",
	"backup_keep":                     10,
	"backup_interval":                 "0s",
	"log_level":                       "info",
}

// legacyEnv maps keys to the unprefixed variables the metadata clients honour.
var legacyEnv = map[string]string{
	"google_books_base_url": "GOOGLE_BOOKS_BASE_URL",
	"openlibrary_base_url":  "OPENLIBRARY_BASE_URL",
	"bnf_base_url":          "BNF_BASE_URL",
	"worldcat_base_url":     "WORLDCAT_BASE_URL",
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment. Missing files are ignored; variables that
// are already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ", "), err)
	}
	log.Printf("[DEBUG] loaded environment from %s", strings.Join(existing, ", "))
	return nil
}

// InitConfig registers defaults and env bindings, then fills AppConfig.
func InitConfig() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	for key, legacy := range legacyEnv {
		_ = viper.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), legacy)
	}

	SyncFromViper()
}

// SyncFromViper copies the effective viper values into AppConfig.
func SyncFromViper() {
	AppConfig = Config{
		DatabasePath: viper.GetString("database_path"),
		DatabaseType: viper.GetString("database_type"),
		DatabaseDSN:  viper.GetString("database_dsn"),
		EnableSQLite: viper.GetBool("enable_sqlite3_i_know_the_risks"),
		StorageKey:   viper.GetString("storage_key"),

		GoogleBooksBaseURL:  viper.GetString("google_books_base_url"),
		OpenLibraryBaseURL:  viper.GetString("openlibrary_base_url"),
		BnFBaseURL:          viper.GetString("bnf_base_url"),
		WorldCatBaseURL:     viper.GetString("worldcat_base_url"),
		HTTPTimeout:         viper.GetDuration("http_timeout"),
		LookupRatePerSecond: viper.GetFloat64("lookup_rate_per_second"),
		LookupCacheTTL:      viper.GetDuration("lookup_cache_ttl"),
		UserAgent:           viper.GetString("user_agent"),

		ScanMinCodeLength: viper.GetInt("scan_min_code_length"),
		ScanQueueSize:     viper.GetInt("scan_queue_size"),
		ScanWatchDir:      viper.GetString("scan_watch_dir"),
		SimulateISBN:      viper.GetString("simulate_isbn"),

		Host:               viper.GetString("host"),
		Port:               viper.GetInt("port"),
		BasicAuthEnabled:   viper.GetBool("basic_auth_enabled"),
		BasicAuthUsername:  viper.GetString("basic_auth_username"),
		BasicAuthPassHash:  viper.GetString("basic_auth_password_hash"),
		RateLimitPerMinute: viper.GetInt("rate_limit_per_minute"),
		MaxBodyBytes:       viper.GetInt64("max_body_bytes"),

		BackupDir:      viper.GetString("backup_dir"),
		BackupKeep:     viper.GetInt("backup_keep"),
		BackupInterval: viper.GetDuration("backup_interval"),

		LogLevel: strings.ToLower(viper.GetString("log_level")),
	}

	// Normalize database type
	if AppConfig.DatabaseType == "sqlite3" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "pebble"
	}
	if AppConfig.StorageKey == "" {
		AppConfig.StorageKey = database.DefaultStorageKey
	}
	if AppConfig.BackupDir == "" {
		AppConfig.BackupDir = filepath.Join(filepath.Dir(AppConfig.DatabasePath), "backups")
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.BasicAuthEnabled && (c.BasicAuthUsername == "" || c.BasicAuthPassHash == "") {
		return fmt.Errorf("basic auth enabled but basic_auth_username or basic_auth_password_hash is empty")
	}
	if _, ok := levels[c.LogLevel]; !ok && c.LogLevel != "" {
		return fmt.Errorf("unknown log_level %q (want debug, info, warn or error)", c.LogLevel)
	}
	if c.BackupInterval < 0 {
		return fmt.Errorf("backup_interval must not be negative")
	}
	if c.LookupRatePerSecond < 0 {
		return fmt.Errorf("lookup_rate_per_second must not be negative")
	}
	return nil
}

// DatabaseOptions returns the KV backend selection.
func (c Config) DatabaseOptions() database.Options {
	return database.Options{
		Type:         c.DatabaseType,
		Path:         c.DatabasePath,
		DSN:          c.DatabaseDSN,
		EnableSQLite: c.EnableSQLite,
	}
}

// LookupConfig returns the metadata lookup settings.
func (c Config) LookupConfig() metadata.Config {
	return metadata.Config{
		GoogleBooksBaseURL: c.GoogleBooksBaseURL,
		OpenLibraryBaseURL: c.OpenLibraryBaseURL,
		BnFBaseURL:         c.BnFBaseURL,
		WorldCatBaseURL:    c.WorldCatBaseURL,
		Timeout:            c.HTTPTimeout,
		RatePerSecond:      c.LookupRatePerSecond,
		UserAgent:          c.UserAgent,
		CacheTTL:           c.LookupCacheTTL,
	}
}

// ScannerOptions returns the scan controller settings.
func (c Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		MinCodeLength: c.ScanMinCodeLength,
		QueueSize:     c.ScanQueueSize,
		SimulateISBN:  c.SimulateISBN,
	}
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var levels = map[string]logutils.LogLevel{
	"debug": "DEBUG",
	"info":  "INFO",
	"warn":  "WARN",
	"error": "ERROR",
}

// SetupLogging routes the standard logger through a level filter: lines
// tagged below level ([DEBUG] under "info", ...) are dropped. Untagged
// lines always pass.
func SetupLogging(w io.Writer, level string) {
	min, ok := levels[strings.ToLower(level)]
	if !ok {
		min = "INFO"
	}
	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: min,
		Writer:   w,
	})
}
