package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/cache"
	"github.com/stutra/sdb/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local query cache",
}

var cacheSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Full sync from the remote tree to the local cache",
	Long: `Pull every student, teacher, and section from the remote tree and
rebuild the local SQLite cache from scratch.

The cache serves 'sdb student list --cached' without network access.
It never syncs on its own; rerun this command to refresh it.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		db, err := cache.Open(cfg.CachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.InitSchema(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Syncing from %s...\n", ui.RenderAccent("→"), cfg.DatabaseURL)
		start := time.Now()

		syncer := cache.NewSyncer(db, ros, newLogger(cfg, "[cache] "))
		res, err := syncer.FullSync(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		fmt.Printf("   Students: %d\n", res.Students)
		fmt.Printf("   Teachers: %d\n", res.Teachers)
		fmt.Printf("   Sections: %d\n", res.Sections)
		if res.Failed > 0 {
			fmt.Printf("%s %d records failed to cache\n", ui.RenderWarn("⚠"), res.Failed)
		}
		fmt.Printf("   Cache: %s\n", db.Path())
	},
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache location, size, and freshness",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if _, err := os.Stat(cfg.CachePath); os.IsNotExist(err) {
			fmt.Printf("%s Cache not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'sdb cache sync' to create it\n")
			return
		}

		db, err := cache.Open(cfg.CachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.InitSchema(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		students, teachers, sections, err := db.Counts(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		size, err := db.Size()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Location: %s\n", db.Path())
		fmt.Printf("Size: %s\n", humanSize(size))
		fmt.Printf("Students: %d\n", students)
		fmt.Printf("Teachers: %d\n", teachers)
		fmt.Printf("Sections: %d\n", sections)
		if at, ok, err := db.LastSync(cmd.Context()); err == nil && ok {
			fmt.Printf("Last sync: %s\n", at.Local().Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("Last sync: never\n")
		}
	},
}

func init() {
	cacheCmd.AddCommand(cacheSyncCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
	rootCmd.AddCommand(cacheCmd)
}
