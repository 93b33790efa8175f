// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
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

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Storage   StorageConfig
	Library   LibraryConfig
	Player    PlayerConfig
	Transcode TranscodeConfig
	Covers    CoversConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath is the root for everything the app writes: database,
	// library audio, covers, caches.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	// Backend is "badger" or "sqlite".
	Backend string
	// Path is the database location. Defaults under {data}/db for badger
	// and {data}/shelfplay.db for sqlite.
	Path string
}

// LibraryConfig holds audio library configuration.
type LibraryConfig struct {
	// Path is where imported book audio lives (default: {data}/library).
	Path string
	// InboxPath is watched for new audio to auto-import (default: {data}/inbox).
	InboxPath string
	// WatchInbox enables the inbox watcher (default: true).
	WatchInbox bool
	// InboxDebounce is how long an inbox entry must stay quiet before it
	// is imported (default: 2s).
	InboxDebounce time.Duration
}

// PlayerConfig tunes the playback orchestrator.
type PlayerConfig struct {
	// PollInterval is the engine position sampling cadence (default: 100ms).
	PollInterval time.Duration
	// AutosaveInterval is the progress save cadence while playing (default: 10s).
	AutosaveInterval time.Duration
	// SkipDeltaMs is the default skip jump (default: 15000).
	SkipDeltaMs int64
	// SeekReadyTimeout bounds how long a resume seek waits for the engine
	// to report a duration (default: 5s).
	SeekReadyTimeout time.Duration
}

// TranscodeConfig holds audio transcoding configuration.
type TranscodeConfig struct {
	// Enabled allows disabling transcoding entirely (default: true).
	Enabled bool
	// CachePath is the directory for converted audio (default: {data}/cache/transcode).
	CachePath string
	// FFmpegPath overrides auto-detection of ffmpeg location (default: auto-detect).
	FFmpegPath string
}

// CoversConfig holds cover image storage configuration.
type CoversConfig struct {
	// Path is the directory for stored cover images (default: {data}/covers).
	Path string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Root path for app data")
	libraryPath := flag.String("library-path", "", "Path for imported book audio")
	inboxPath := flag.String("inbox-path", "", "Path watched for new audio")
	watchInbox := flag.String("watch-inbox", "", "Watch the inbox for new audio (default: true)")
	inboxDebounce := flag.String("inbox-debounce", "", "Inbox settle time before import (default: 2s)")

	storageBackend := flag.String("storage-backend", "", "Persistence backend: badger or sqlite (default: badger)")
	storagePath := flag.String("storage-path", "", "Database location")

	pollInterval := flag.String("poll-interval", "", "Playback position poll cadence (default: 100ms)")
	autosaveInterval := flag.String("autosave-interval", "", "Progress save cadence while playing (default: 10s)")
	skipDelta := flag.String("skip-delta-ms", "", "Default skip jump in milliseconds (default: 15000)")
	seekReadyTimeout := flag.String("seek-ready-timeout", "", "Resume seek wait bound (default: 5s)")

	transcodeEnabled := flag.String("transcode-enabled", "", "Enable audio transcoding (default: true)")
	transcodeCachePath := flag.String("transcode-cache-path", "", "Path for converted audio")
	transcodeFFmpegPath := flag.String("ffmpeg-path", "", "Path to ffmpeg binary (default: auto-detect)")

	coversPath := flag.String("covers-path", "", "Path for stored cover images")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getConfigValue(*storageBackend, "STORAGE_BACKEND", "badger")),
			Path:    getConfigValue(*storagePath, "STORAGE_PATH", ""),
		},
		Library: LibraryConfig{
			Path:       getConfigValue(*libraryPath, "LIBRARY_PATH", ""),
			InboxPath:  getConfigValue(*inboxPath, "INBOX_PATH", ""),
			WatchInbox: getBoolConfigValue(*watchInbox, "WATCH_INBOX", true),
		},
		Player: PlayerConfig{
			SkipDeltaMs: getInt64ConfigValue(*skipDelta, "SKIP_DELTA_MS", 15000),
		},
		Transcode: TranscodeConfig{
			Enabled:    getBoolConfigValue(*transcodeEnabled, "TRANSCODE_ENABLED", true),
			CachePath:  getConfigValue(*transcodeCachePath, "TRANSCODE_CACHE_PATH", ""),
			FFmpegPath: getConfigValue(*transcodeFFmpegPath, "FFMPEG_PATH", ""),
		},
		Covers: CoversConfig{
			Path: getConfigValue(*coversPath, "COVERS_PATH", ""),
		},
	}

	var err error
	cfg.Library.InboxDebounce, err = parseDurationValue(*inboxDebounce, "INBOX_DEBOUNCE", "2s")
	if err != nil {
		return nil, err
	}
	cfg.Player.PollInterval, err = parseDurationValue(*pollInterval, "POLL_INTERVAL", "100ms")
	if err != nil {
		return nil, err
	}
	cfg.Player.AutosaveInterval, err = parseDurationValue(*autosaveInterval, "AUTOSAVE_INTERVAL", "10s")
	if err != nil {
		return nil, err
	}
	cfg.Player.SeekReadyTimeout, err = parseDurationValue(*seekReadyTimeout, "SEEK_READY_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
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

	if c.Storage.Backend != "badger" && c.Storage.Backend != "sqlite" {
		return fmt.Errorf("invalid storage backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Player.PollInterval <= 0 || c.Player.AutosaveInterval <= 0 || c.Player.SeekReadyTimeout <= 0 {
		return errors.New("player intervals must be positive")
	}
	if c.Player.SkipDeltaMs <= 0 {
		return errors.New("skip delta must be positive")
	}
	if c.Library.InboxDebounce <= 0 {
		return errors.New("inbox debounce must be positive")
	}

	return nil
}

// expandPaths resolves every path in the config, deriving unset ones from
// the data root.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, "Shelfplay"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}

	defaultStorage := filepath.Join(c.App.DataPath, "db")
	if c.Storage.Backend == "sqlite" {
		defaultStorage = filepath.Join(c.App.DataPath, "shelfplay.db")
	}
	c.Storage.Path, err = expandPath(c.Storage.Path, defaultStorage)
	if err != nil {
		return fmt.Errorf("invalid storage path: %w", err)
	}

	c.Library.Path, err = expandPath(c.Library.Path, filepath.Join(c.App.DataPath, "library"))
	if err != nil {
		return fmt.Errorf("invalid library path: %w", err)
	}

	c.Library.InboxPath, err = expandPath(c.Library.InboxPath, filepath.Join(c.App.DataPath, "inbox"))
	if err != nil {
		return fmt.Errorf("invalid inbox path: %w", err)
	}

	c.Transcode.CachePath, err = expandPath(c.Transcode.CachePath, filepath.Join(c.App.DataPath, "cache", "transcode"))
	if err != nil {
		return fmt.Errorf("invalid transcode cache path: %w", err)
	}

	c.Covers.Path, err = expandPath(c.Covers.Path, filepath.Join(c.App.DataPath, "covers"))
	if err != nil {
		return fmt.Errorf("invalid covers path: %w", err)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return "", nil
	}

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

// parseDurationValue resolves a duration setting through the usual
// flag/env/default precedence.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), raw, err)
	}
	return d, nil
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

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int64
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
