// sdb administers student, teacher, and section records in a remote
// tree-structured store: roster lifecycle operations, the
// single-section to multi-section schema migration, conflict-checked
// bulk imports, integrity validation, and whole-tree backups.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stutra/sdb/internal/config"
	"github.com/stutra/sdb/internal/roster"
	"github.com/stutra/sdb/internal/store"
)

var (
	flagDBURL   string
	flagTimeout time.Duration
	flagLogFile string
	flagVerbose bool
	flagYes     bool
)

var rootCmd = &cobra.Command{
	Use:   "sdb",
	Short: "Administer student, teacher, and section records",
	Long: `sdb administers student/teacher/section records held in a remote
tree-structured store.

Beyond roster upkeep it drives the schema migration from the legacy
single-section student model to the multi-section model: conflict-checked
bulk imports, membership index maintenance, post-hoc integrity validation,
and whole-tree backup/restore.

The store URL comes from --db-url, SDB_DATABASE_URL (or the web app's
VITE_FIREBASE_DATABASE_URL), a .env.local/.env file in the working
directory, or ~/.sdb/config.yaml.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBURL, "db-url", "", "base URL of the remote store")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout (default 30s)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "append diagnostics to a rotated log file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "echo diagnostics to stderr even with --log-file")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "skip confirmation prompts")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration with the global flags applied, or
// exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(config.Overrides{
		DatabaseURL: flagDBURL,
		Timeout:     flagTimeout,
		LogFile:     flagLogFile,
		Verbose:     flagVerbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the diagnostic logger: stderr by default, a rotated
// file when --log-file is set, both when --verbose is added on top.
func newLogger(cfg *config.Config, prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		if cfg.Verbose {
			w = io.MultiWriter(os.Stderr, rotated)
		} else {
			w = rotated
		}
	}
	return log.New(w, prefix, log.LstdFlags)
}

// newTree connects to the configured store, or exits when no URL is
// configured.
func newTree(cfg *config.Config) store.Tree {
	if err := cfg.RequireDatabaseURL(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	client, err := store.New(cfg.DatabaseURL,
		store.WithTimeout(cfg.Timeout),
		store.WithLogger(newLogger(cfg, "[store] ")),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return client
}

// newRoster builds the roster service over a fresh store connection.
func newRoster(cfg *config.Config) (*roster.Service, store.Tree) {
	tree := newTree(cfg)
	ros := roster.New(tree, roster.Options{Logger: newLogger(cfg, "[roster] ")})
	return ros, tree
}
