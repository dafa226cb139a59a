package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/importer"
	"github.com/stutra/sdb/internal/ui"
)

var (
	importManifest    string
	importContinueNew bool
	importDryRun      bool
)

var importCmd = &cobra.Command{
	Use:   "import <dir | file.csv ...>",
	Short: "Bulk-import section rosters",
	Long: `Bulk-import section roster CSV files (S.NO, A.NO., NAME columns).

Each file maps to one section, derived from its name: "amartya1.csv"
becomes "XI Amartya". A TOML manifest can override the mapping and
extend the skip list.

The batch is planned before anything is written. If any row collides
with an existing student (same id or same admission number) the whole
batch aborts; pass --continue to upload the non-conflicting rows
instead.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, tree := newRoster(cfg)

		files, err := resolveRosterFiles(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var manifest *importer.Manifest
		if importManifest != "" {
			manifest, err = importer.LoadManifest(importManifest)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		opts := importer.Options{
			ContinueWithNew: importContinueNew,
			DryRun:          importDryRun,
			Manifest:        manifest,
			Logger:          newLogger(cfg, "[import] "),
		}
		im := importer.New(tree, opts)

		fmt.Printf("%s Planning import of %d files...\n", ui.RenderAccent("→"), len(files))
		plan, err := im.BuildPlan(cmd.Context(), files)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(plan.Conflicts) > 0 {
			fmt.Printf("%s %d rows collide with existing students:\n", ui.RenderWarn("⚠"), len(plan.Conflicts))
			for _, c := range plan.Conflicts {
				fmt.Printf("   %s\n", c)
			}
			if !opts.ContinueWithNew {
				switch {
				case flagYes:
					opts.ContinueWithNew = true
				case interactive():
					desc := fmt.Sprintf("%d new students would still be uploaded.", len(plan.Fresh))
					if !confirm("Upload the non-conflicting rows anyway?", desc, "Upload") {
						fmt.Fprintln(os.Stderr, "Aborted: nothing uploaded")
						os.Exit(1)
					}
					opts.ContinueWithNew = true
				}
				im = importer.New(tree, opts)
			}
		}

		res, err := im.Apply(cmd.Context(), plan)
		if err != nil {
			if errors.Is(err, importer.ErrConflictsFound) {
				fmt.Fprintf(os.Stderr, "Error: %v (rerun with --continue to upload the rest)\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}

		verb := "Uploaded"
		if importDryRun {
			verb = "Would upload"
		}
		fmt.Printf("%s %s %d students from %d files (%d rows)\n",
			ui.RenderPass("✓"), verb, res.Uploaded, res.Files, res.Rows)
		if res.SectionsCreated > 0 {
			fmt.Printf("   %d sections created\n", res.SectionsCreated)
		}
		if len(res.SkippedSections) > 0 {
			fmt.Printf("%s Skipped sections: %v\n", ui.RenderWarn("⚠"), res.SkippedSections)
		}
		if res.SkippedRows > 0 {
			fmt.Printf("%s Skipped %d unparseable rows\n", ui.RenderWarn("⚠"), res.SkippedRows)
		}
		if res.Failed > 0 {
			fmt.Printf("%s %d uploads failed:\n", ui.RenderWarn("⚠"), res.Failed)
			for _, msg := range res.Errors {
				fmt.Printf("   %s\n", msg)
			}
		}
		fmt.Println(ui.RenderDim("run " + res.RunID))
	},
}

// resolveRosterFiles expands a single directory argument into its
// *.csv entries, sorted by name. Explicit file arguments pass through
// untouched.
func resolveRosterFiles(args []string) ([]string, error) {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			files, err := filepath.Glob(filepath.Join(args[0], "*.csv"))
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				return nil, fmt.Errorf("no .csv files in %s", args[0])
			}
			sort.Strings(files)
			return files, nil
		}
	}
	return args, nil
}

func init() {
	importCmd.Flags().StringVar(&importManifest, "manifest", "", "TOML manifest with section overrides and skip list")
	importCmd.Flags().BoolVar(&importContinueNew, "continue", false, "upload non-conflicting rows instead of aborting")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "plan and report without writing")
	rootCmd.AddCommand(importCmd)
}
