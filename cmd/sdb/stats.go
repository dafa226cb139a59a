package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/ui"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts and per-section enrollment",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		stats, err := ros.Stats(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if statsFormat != "text" {
			if err := renderAs(statsFormat, stats); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Printf("Students: %d\n", stats.Students)
		fmt.Printf("Teachers: %d\n", stats.Teachers)
		fmt.Printf("Sections: %d\n", stats.Sections)
		if stats.Malformed > 0 {
			fmt.Printf("%s Malformed: %d\n", ui.RenderWarn("⚠"), stats.Malformed)
		}
		if len(stats.BySection) == 0 {
			return
		}

		ids := make([]string, 0, len(stats.BySection))
		for id := range stats.BySection {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Println()
		fmt.Println(ui.RenderDim(fmt.Sprintf("%-20s %8s", "SECTION", "STUDENTS")))
		for _, id := range ids {
			fmt.Printf("%-20s %8d\n", id, stats.BySection[id])
		}
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(statsCmd)
}
