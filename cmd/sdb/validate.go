package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/ui"
	"github.com/stutra/sdb/internal/validate"
)

var validateFormat string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check referential integrity",
	Long: `Scan the whole tree and report every integrity issue: malformed
records, dangling section references, membership lists out of step
with student and teacher records, and orphaned member ids.

Nothing is repaired. The exit code is 1 when issues are found, so the
command can gate scripted migrations and imports.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		tree := newTree(cfg)

		v := validate.New(tree, validate.Options{Logger: newLogger(cfg, "[validate] ")})
		report, err := v.Run(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if validateFormat != "text" {
			if err := renderAs(validateFormat, report); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !report.Pass() {
				os.Exit(1)
			}
			return
		}

		fmt.Printf("Scanned %d students, %d teachers, %d sections\n",
			report.Students, report.Teachers, report.Sections)
		if report.Pass() {
			fmt.Printf("%s No issues found\n", ui.RenderPass("✓"))
			return
		}
		fmt.Printf("%s %d issues:\n", ui.RenderFail("✗"), len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Printf("   %s\n", issue)
		}
		os.Exit(1)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(validateCmd)
}
