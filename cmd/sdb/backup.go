package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/backup"
	"github.com/stutra/sdb/internal/config"
	"github.com/stutra/sdb/internal/ui"
)

var backupDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the whole tree to a local file",
	Long: `Download the whole tree and write it to a timestamped JSON file
(backup_YYYYMMDD_HHMMSS.json) in the backup directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tree := newTree(cfg)

		fmt.Printf("%s Downloading tree...\n", ui.RenderAccent("→"))
		info, err := backup.Snapshot(cmd.Context(), tree, resolveBackupDir(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Backup written to %s (%s)\n", ui.RenderPass("✓"), info.Path, humanSize(info.Size))
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		backups, err := backup.List(resolveBackupDir(loadConfig()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found")
			return
		}
		fmt.Println(ui.RenderDim(fmt.Sprintf("%-32s %10s  %s", "FILE", "SIZE", "CREATED")))
		for _, info := range backups {
			fmt.Printf("%-32s %10s  %s\n",
				filepath.Base(info.Path), humanSize(info.Size), info.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace the whole tree with a backup",
	Long: `Replace the entire tree with the contents of a backup file.

Everything currently in the tree is overwritten. The command prompts
for confirmation; pass --yes to skip the prompt in scripts.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tree := newTree(cfg)

		if !flagYes {
			if !interactive() {
				fmt.Fprintln(os.Stderr, "Error: refusing to restore without confirmation (pass --yes)")
				os.Exit(1)
			}
			desc := fmt.Sprintf("The entire tree will be replaced with %s.", args[0])
			if !confirm("Restore this backup?", desc, "Restore") {
				fmt.Fprintln(os.Stderr, "Aborted")
				os.Exit(1)
			}
		}

		fmt.Printf("%s Restoring %s...\n", ui.RenderAccent("→"), args[0])
		if err := backup.Restore(cmd.Context(), tree, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Tree restored\n", ui.RenderPass("✓"))
	},
}

// resolveBackupDir applies the flag over the configured directory.
func resolveBackupDir(cfg *config.Config) string {
	if backupDir != "" {
		return backupDir
	}
	return cfg.BackupDir
}

func init() {
	backupCmd.PersistentFlags().StringVar(&backupDir, "dir", "", "backup directory (default from config, else .)")
	backupCmd.AddCommand(backupListCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
