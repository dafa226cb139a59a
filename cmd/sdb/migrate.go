package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/migrate"
	"github.com/stutra/sdb/internal/ui"
)

var (
	migrateDryRun    bool
	migrateBackupDir string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert legacy single-section students",
	Long: `Convert legacy students (singular "section" field) to the sections
list shape, then backfill section records and membership indices.

A full-tree backup is written before anything changes. Already
converted students are never rewritten, so reruns are safe. With
--dry-run nothing is written and no backup is taken.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tree := newTree(cfg)

		dir := migrateBackupDir
		if dir == "" {
			dir = cfg.BackupDir
		}
		m := migrate.New(tree, migrate.Options{
			DryRun:    migrateDryRun,
			BackupDir: dir,
			Logger:    newLogger(cfg, "[migrate] "),
		})

		fmt.Printf("%s Migrating students...\n", ui.RenderAccent("→"))
		res, err := m.Run(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if res.BackupPath != "" {
			fmt.Printf("%s Backup written to %s\n", ui.RenderPass("✓"), res.BackupPath)
		}
		verb := "Migrated"
		if migrateDryRun {
			verb = "Would migrate"
		}
		fmt.Printf("%s %s %d of %d students (%d already converted)\n",
			ui.RenderPass("✓"), verb, res.Migrated, res.Scanned, res.AlreadyMigrated)
		if res.SectionsCreated > 0 {
			fmt.Printf("   %d sections created\n", res.SectionsCreated)
		}
		if res.Malformed > 0 {
			fmt.Printf("%s %d malformed records left untouched\n", ui.RenderWarn("⚠"), res.Malformed)
		}
		if res.Failed > 0 {
			fmt.Printf("%s %d records failed:\n", ui.RenderWarn("⚠"), res.Failed)
			for _, msg := range res.Errors {
				fmt.Printf("   %s\n", msg)
			}
		}
		fmt.Println(ui.RenderDim("run " + res.RunID))
		if !migrateDryRun {
			fmt.Println("Run 'sdb validate' to check referential integrity")
		}
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "report without writing or backing up")
	migrateCmd.Flags().StringVar(&migrateBackupDir, "backup-dir", "", "directory for the pre-migration backup (default from config, else .)")
	rootCmd.AddCommand(migrateCmd)
}
