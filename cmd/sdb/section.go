package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/ui"
)

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Manage section records",
}

var sectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a section",
	Long: `Create a section record with empty membership lists.

The record id is the slug of the name: "XI Amartya" becomes
"xi_amartya". Creating a name whose slug already exists fails.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		sec, err := ros.CreateSection(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Created section %s (%s)\n", ui.RenderPass("✓"), sec.Name, sec.ID)
	},
}

var sectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sections with member counts",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		sections, err := ros.ListSections(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(sections) == 0 {
			fmt.Println("No sections found")
			return
		}
		fmt.Println(ui.RenderDim(fmt.Sprintf("%-16s %-20s %9s %9s", "ID", "NAME", "STUDENTS", "TEACHERS")))
		for _, sec := range sections {
			fmt.Printf("%-16s %-20s %9d %9d\n", sec.ID, sec.Name, len(sec.Students), len(sec.Teachers))
		}
		fmt.Printf("\n%d sections\n", len(sections))
	},
}

func init() {
	sectionCmd.AddCommand(sectionCreateCmd)
	sectionCmd.AddCommand(sectionListCmd)
	rootCmd.AddCommand(sectionCmd)
}
