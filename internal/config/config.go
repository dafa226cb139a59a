// Package config resolves sdb's runtime configuration from command-line
// overrides, the environment, working-directory env files, and the
// optional ~/.sdb/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingDatabaseURL indicates no store URL could be resolved from
// any source. Commands that talk to the store fail with this before
// performing any operation.
var ErrMissingDatabaseURL = errors.New("database URL not configured (set --db-url, SDB_DATABASE_URL, or database_url in ~/.sdb/config.yaml)")

// Config carries everything the CLI needs for one invocation.
type Config struct {
	// DatabaseURL is the base URL of the remote store.
	DatabaseURL string
	// Timeout bounds each store round trip.
	Timeout time.Duration
	// BackupDir receives backup artifacts.
	BackupDir string
	// CachePath is the local query cache database file.
	CachePath string
	// LogFile, when set, receives rotated diagnostic logs.
	LogFile string
	// Verbose echoes diagnostics to stderr even when LogFile is set.
	Verbose bool
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		BackupDir: ".",
		CachePath: defaultCachePath(),
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sdb", "cache.db")
	}
	return filepath.Join(home, ".sdb", "cache.db")
}

// Overrides are command-line values. They take precedence over every
// other source; zero values mean "not set".
type Overrides struct {
	DatabaseURL string
	Timeout     time.Duration
	BackupDir   string
	CachePath   string
	LogFile     string
	Verbose     bool
}

// Load resolves configuration in precedence order: command-line
// overrides, then SDB_* environment variables (with the web app's
// VITE_FIREBASE_DATABASE_URL honored as a fallback for the URL), then
// .env.local/.env in the working directory, then ~/.sdb/config.yaml,
// then defaults. A missing database URL is not an error here; commands
// that need the store call RequireDatabaseURL first.
func Load(over Overrides) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".sdb"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// config file layer
	if s := v.GetString("database_url"); s != "" {
		cfg.DatabaseURL = s
	}
	if v.IsSet("timeout") {
		cfg.Timeout = v.GetDuration("timeout")
	}
	if s := v.GetString("backup_dir"); s != "" {
		cfg.BackupDir = s
	}
	if s := v.GetString("cache_path"); s != "" {
		cfg.CachePath = s
	}
	if s := v.GetString("log_file"); s != "" {
		cfg.LogFile = s
	}
	if v.IsSet("verbose") {
		cfg.Verbose = v.GetBool("verbose")
	}

	// working-directory env files; .env.local wins over .env
	for _, name := range []string{".env.local", ".env"} {
		if s := envFileURL(name); s != "" {
			cfg.DatabaseURL = s
			break
		}
	}

	// process environment
	if s := os.Getenv("SDB_DATABASE_URL"); s != "" {
		cfg.DatabaseURL = s
	} else if s := os.Getenv("VITE_FIREBASE_DATABASE_URL"); s != "" {
		cfg.DatabaseURL = s
	}
	if s := os.Getenv("SDB_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid SDB_TIMEOUT %q: %w", s, err)
		}
		cfg.Timeout = d
	}
	if s := os.Getenv("SDB_BACKUP_DIR"); s != "" {
		cfg.BackupDir = s
	}
	if s := os.Getenv("SDB_CACHE_PATH"); s != "" {
		cfg.CachePath = s
	}
	if s := os.Getenv("SDB_LOG_FILE"); s != "" {
		cfg.LogFile = s
	}

	// command line wins
	if over.DatabaseURL != "" {
		cfg.DatabaseURL = over.DatabaseURL
	}
	if over.Timeout > 0 {
		cfg.Timeout = over.Timeout
	}
	if over.BackupDir != "" {
		cfg.BackupDir = over.BackupDir
	}
	if over.CachePath != "" {
		cfg.CachePath = over.CachePath
	}
	if over.LogFile != "" {
		cfg.LogFile = over.LogFile
	}
	if over.Verbose {
		cfg.Verbose = true
	}

	return cfg, nil
}

// RequireDatabaseURL reports ErrMissingDatabaseURL when no URL was
// resolved from any source.
func (c *Config) RequireDatabaseURL() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// envFileURL reads one env-format file and returns the first database
// URL key it defines. The web app's env files carry the legacy
// VITE_FIREBASE_DATABASE_URL name.
func envFileURL(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return ""
	}
	for _, key := range []string{"sdb_database_url", "vite_firebase_database_url"} {
		if s := ev.GetString(key); s != "" {
			return s
		}
	}
	return ""
}
