// Package config provides pipeline configuration management with support for
// environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the pipeline configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Rules  RulesConfig
	Lookup LookupConfig
	Stats  StatsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds data file locations.
type DataConfig struct {
	// ExportPath is the raw Goodreads library export CSV (read-only input).
	ExportPath string
	// CatalogPath is the SQLite database holding the enriched catalog,
	// the system of record across runs.
	CatalogPath string
	// CachePath is the directory for the lookup result cache.
	CachePath string
	// SnapshotPath is where the aggregation snapshot JSON is written.
	SnapshotPath string
	// BackupDir holds timestamped catalog copies taken before each run.
	BackupDir string
	// BackupKeep bounds how many catalog backups are retained.
	// Zero disables pruning.
	BackupKeep int
}

// RulesConfig holds the override and manual-genre rule documents.
type RulesConfig struct {
	// FieldOverridesPath is the JSON document of field-override rules.
	FieldOverridesPath string
	// GenreOverridesPath is the JSON document of genre-only override rules.
	GenreOverridesPath string
	// ManualGenresPath is the JSON document of manual genre assignments.
	ManualGenresPath string
}

// LookupConfig holds external genre-lookup configuration.
type LookupConfig struct {
	// APIKey is the Google Books API key. Empty disables external lookup;
	// unresolved books then fall back to the Unknown sentinel.
	APIKey string
	// RequestTimeout bounds each lookup call (default: 10s).
	RequestTimeout time.Duration
	// RequestsPerSecond paces outbound calls (default: 2).
	RequestsPerSecond float64
	// Burst is the token bucket burst size (default: 1).
	Burst int
	// MaxRetries is the number of retries after a rate-limit signal (default: 1).
	MaxRetries int
	// RetryBackoff is the fixed wait before a retry (default: 2s).
	RetryBackoff time.Duration
	// CheckpointEvery persists the catalog after this many processed
	// records so a crash loses at most one batch (default: 20).
	CheckpointEvery int
	// CacheTTL bounds how long cached lookup outcomes are reused (default: 720h).
	CacheTTL time.Duration
}

// StatsConfig holds aggregation configuration.
type StatsConfig struct {
	// Year is the processing year for the analytics window.
	// Zero means the current calendar year.
	Year int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	exportPath := flag.String("export", "", "Path to the raw library export CSV")
	catalogPath := flag.String("catalog", "", "Path to the enriched catalog database")
	cachePath := flag.String("cache-path", "", "Directory for the lookup result cache")
	snapshotPath := flag.String("snapshot", "", "Output path for the aggregation snapshot JSON")
	backupDir := flag.String("backup-dir", "", "Directory for pre-run catalog backups")

	fieldOverrides := flag.String("overrides", "", "Path to the field-override rules JSON")
	genreOverrides := flag.String("genre-overrides", "", "Path to the genre-only override rules JSON")
	manualGenres := flag.String("manual-genres", "", "Path to the manual genre lookups JSON")

	lookupTimeout := flag.String("lookup-timeout", "", "Per-call lookup timeout (default: 10s)")
	lookupRPS := flag.String("lookup-rps", "", "Lookup requests per second (default: 2)")
	retryBackoff := flag.String("lookup-backoff", "", "Backoff before a rate-limit retry (default: 2s)")
	checkpointEvery := flag.String("checkpoint-every", "", "Catalog checkpoint batch size (default: 20)")

	statsYear := flag.String("year", "", "Processing year for statistics (default: current year)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			ExportPath:   getConfigValue(*exportPath, "EXPORT_PATH", "data/goodreads_library_export.csv"),
			CatalogPath:  getConfigValue(*catalogPath, "CATALOG_PATH", "data/catalog.db"),
			CachePath:    getConfigValue(*cachePath, "LOOKUP_CACHE_PATH", "data/cache/lookups"),
			SnapshotPath: getConfigValue(*snapshotPath, "SNAPSHOT_PATH", "data/structured_reading_data.json"),
			BackupDir:    getConfigValue(*backupDir, "BACKUP_DIR", "data/backups"),
			BackupKeep:   getIntConfigValue("", "BACKUP_KEEP", 5),
		},
		Rules: RulesConfig{
			FieldOverridesPath: getConfigValue(*fieldOverrides, "OVERRIDES_PATH", "rules/overrides.json"),
			GenreOverridesPath: getConfigValue(*genreOverrides, "GENRE_OVERRIDES_PATH", "rules/genre_overrides.json"),
			ManualGenresPath:   getConfigValue(*manualGenres, "MANUAL_GENRES_PATH", "rules/manual_genres.json"),
		},
		Lookup: LookupConfig{
			APIKey:            getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
			RequestsPerSecond: getFloatConfigValue(*lookupRPS, "LOOKUP_RPS", 2),
			Burst:             getIntConfigValue("", "LOOKUP_BURST", 1),
			MaxRetries:        getIntConfigValue("", "LOOKUP_MAX_RETRIES", 1),
			CheckpointEvery:   getIntConfigValue(*checkpointEvery, "CHECKPOINT_EVERY", 20),
		},
		Stats: StatsConfig{
			Year: getIntConfigValue(*statsYear, "STATS_YEAR", 0),
		},
	}

	// Parse durations.
	timeoutStr := getConfigValue(*lookupTimeout, "LOOKUP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid lookup timeout %q: %w", timeoutStr, err)
	}
	cfg.Lookup.RequestTimeout = timeout

	backoffStr := getConfigValue(*retryBackoff, "LOOKUP_BACKOFF", "2s")
	backoff, err := time.ParseDuration(backoffStr)
	if err != nil {
		return nil, fmt.Errorf("invalid lookup backoff %q: %w", backoffStr, err)
	}
	cfg.Lookup.RetryBackoff = backoff

	ttlStr := getConfigValue("", "LOOKUP_CACHE_TTL", "720h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid lookup cache TTL %q: %w", ttlStr, err)
	}
	cfg.Lookup.CacheTTL = ttl

	// Expand data paths.
	if err := cfg.expandDataPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.ExportPath == "" {
		return errors.New("export path cannot be empty")
	}
	if c.Data.CatalogPath == "" {
		return errors.New("catalog path cannot be empty")
	}
	if c.Data.SnapshotPath == "" {
		return errors.New("snapshot path cannot be empty")
	}

	if c.Data.BackupKeep < 0 {
		return fmt.Errorf("backup retention cannot be negative, got %d", c.Data.BackupKeep)
	}

	if c.Lookup.CheckpointEvery <= 0 {
		return fmt.Errorf("checkpoint batch size must be positive, got %d", c.Lookup.CheckpointEvery)
	}
	if c.Lookup.RequestsPerSecond <= 0 {
		return fmt.Errorf("lookup rate must be positive, got %v", c.Lookup.RequestsPerSecond)
	}
	if c.Lookup.MaxRetries < 0 {
		return fmt.Errorf("lookup max retries cannot be negative, got %d", c.Lookup.MaxRetries)
	}

	if c.Stats.Year < 0 {
		return fmt.Errorf("stats year cannot be negative, got %d", c.Stats.Year)
	}

	return nil
}

// expandDataPaths expands ~ and makes the data paths absolute.
func (c *Config) expandDataPaths() error {
	for _, p := range []*string{
		&c.Data.ExportPath,
		&c.Data.CatalogPath,
		&c.Data.CachePath,
		&c.Data.SnapshotPath,
		&c.Data.BackupDir,
		&c.Rules.FieldOverridesPath,
		&c.Rules.GenreOverridesPath,
		&c.Rules.ManualGenresPath,
	} {
		if *p == "" {
			continue
		}
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
