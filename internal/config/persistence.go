// file: internal/config/persistence.go
// version: 2.0.0
// guid: 9c8d7e6f-5a4b-3c2d-1e0f-9a8b7c6d5e4f

package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/book-library/internal/fileops"
)

// ConfigFileName is the YAML file looked up next to the database.
const ConfigFileName = "config.yaml"

// ConfigFilePath returns explicit when set, otherwise config.yaml next to
// the database. Network backends without a path yield "".
func ConfigFilePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if AppConfig.DatabasePath != "" {
		return filepath.Join(filepath.Dir(AppConfig.DatabasePath), ConfigFileName)
	}
	return ""
}

// LoadConfigFromFile merges the YAML file at path under env and flag
// values, then refreshes AppConfig. A missing file is not an error.
func LoadConfigFromFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig map[string]any
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	known := 0
	for key := range fileConfig {
		if _, ok := defaults[key]; ok {
			known++
		} else {
			log.Printf("[WARN] ignoring unknown config key %q in %s", key, path)
			delete(fileConfig, key)
		}
	}
	if err := viper.MergeConfigMap(fileConfig); err != nil {
		return fmt.Errorf("failed to merge config file %s: %w", path, err)
	}
	SyncFromViper()
	log.Printf("[INFO] applied %d settings from config file %s", known, path)
	return nil
}

// Effective returns the current settings keyed like the config file. The
// password hash is masked unless includeSecrets is set.
func Effective(includeSecrets bool) map[string]any {
	c := AppConfig
	out := map[string]any{
		"database_path":                   c.DatabasePath,
		"database_type":                   c.DatabaseType,
		"database_dsn":                    c.DatabaseDSN,
		"enable_sqlite3_i_know_the_risks": c.EnableSQLite,
		"storage_key":                     c.StorageKey,
		"google_books_base_url":           c.GoogleBooksBaseURL,
		"openlibrary_base_url":            c.OpenLibraryBaseURL,
		"bnf_base_url":                    c.BnFBaseURL,
		"worldcat_base_url":               c.WorldCatBaseURL,
		"http_timeout":                    c.HTTPTimeout.String(),
		"lookup_rate_per_second":          c.LookupRatePerSecond,
		"lookup_cache_ttl":                c.LookupCacheTTL.String(),
		"user_agent":                      c.UserAgent,
		"scan_min_code_length":            c.ScanMinCodeLength,
		"scan_queue_size":                 c.ScanQueueSize,
		"scan_watch_dir":                  c.ScanWatchDir,
		"simulate_isbn":                   c.SimulateISBN,
		"host":                            c.Host,
		"port":                            c.Port,
		"basic_auth_enabled":              c.BasicAuthEnabled,
		"basic_auth_username":             c.BasicAuthUsername,
		"basic_auth_password_hash":        c.BasicAuthPassHash,
		"rate_limit_per_minute":           c.RateLimitPerMinute,
		"max_body_bytes":                  c.MaxBodyBytes,
		"backup_dir":                      c.BackupDir,
		"backup_keep":                     c.BackupKeep,
		"backup_interval":                 c.BackupInterval.String(),
		"log_level":                       c.LogLevel,
	}
	if !includeSecrets && c.BasicAuthPassHash != "" {
		out["basic_auth_password_hash"] = "********"
	}
	return out
}

// SaveConfigToFile writes the effective settings to path as YAML. The
// file holds the password hash, so it is created 0600.
func SaveConfigToFile(path string) error {
	if path == "" {
		return fmt.Errorf("cannot determine config file path")
	}

	data, err := yaml.Marshal(Effective(true))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := fileops.WriteFile(path, data, 0o600, fileops.WriteConfig{KeepPrevious: true}); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	log.Printf("[INFO] saved config to %s", path)
	return nil
}
