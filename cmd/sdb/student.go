package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/cache"
	"github.com/stutra/sdb/internal/record"
	"github.com/stutra/sdb/internal/ui"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage student records",
}

var (
	studentAddName      string
	studentAddAdmission string
	studentAddSections  []string
	studentAddPhotoURL  string
)

var studentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a student",
	Long: `Add a student record and index it into each referenced section.

Sections may be given as display names ("XI Amartya") or ids
("xi_amartya"); missing section records are created on the fly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		id, err := ros.AddStudent(cmd.Context(), &record.Student{
			Name:            studentAddName,
			AdmissionNumber: studentAddAdmission,
			Sections:        studentAddSections,
			PhotoURL:        studentAddPhotoURL,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Added student %s (%s)\n", ui.RenderPass("✓"), studentAddName, id)
	},
}

var studentRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a student",
	Long: `Delete a student record.

Membership entries in section indices are not garbage-collected; run
'sdb validate' to find the leftovers.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		if err := ros.RemoveStudent(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Removed student %s\n", ui.RenderPass("✓"), args[0])
	},
}

var (
	studentListSection string
	studentListCached  bool
)

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	Long: `List students, optionally filtered to one section.

With --cached the list is served from the local query cache instead of
the remote store; run 'sdb cache sync' first.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		var students []*record.Student
		if studentListCached {
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
			students, err = db.ListStudents(cmd.Context(), studentListSection)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			ros, _ := newRoster(cfg)
			var err error
			students, err = ros.ListStudents(cmd.Context(), studentListSection)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		if len(students) == 0 {
			fmt.Println("No students found")
			return
		}
		fmt.Println(ui.RenderDim(fmt.Sprintf("%-22s %-24s %-10s %s", "ID", "NAME", "ADMISSION", "SECTIONS")))
		for _, st := range students {
			fmt.Printf("%-22s %-24s %-10s %s\n", st.ID, st.Name, st.AdmissionNumber, strings.Join(st.Sections, ", "))
		}
		fmt.Printf("\n%d students\n", len(students))
	},
}

var studentImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import students from a CSV file",
	Long: `Import students from a CSV file with a header row.

Recognized columns: name, admission_number (or admission), sections
(semicolon separated), section, photo_url. Bad rows are skipped with a
warning; the rest of the file still imports.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		fmt.Printf("%s Importing students from %s...\n", ui.RenderAccent("→"), args[0])
		res, err := ros.ImportStudentsCSV(cmd.Context(), f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Imported %d of %d rows\n", ui.RenderPass("✓"), res.Imported, res.Rows)
		if res.Skipped > 0 {
			fmt.Printf("%s Skipped %d rows:\n", ui.RenderWarn("⚠"), res.Skipped)
			for _, msg := range res.Errors {
				fmt.Printf("   %s\n", msg)
			}
		}
	},
}

var (
	studentExportSection string
	studentExportOut     string
)

var studentExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export students as CSV",
	Long:  `Write the (optionally section-filtered) student list as CSV to a file or stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		out := os.Stdout
		if studentExportOut != "" {
			f, err := os.Create(studentExportOut)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			out = f
		}

		if err := ros.ExportStudentsCSV(cmd.Context(), out, studentExportSection); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if studentExportOut != "" {
			fmt.Printf("%s Exported to %s\n", ui.RenderPass("✓"), studentExportOut)
		}
	},
}

func init() {
	studentAddCmd.Flags().StringVar(&studentAddName, "name", "", "student name (required)")
	studentAddCmd.Flags().StringVar(&studentAddAdmission, "admission", "", "admission number (required)")
	studentAddCmd.Flags().StringSliceVar(&studentAddSections, "section", nil, "section reference (repeatable, required)")
	studentAddCmd.Flags().StringVar(&studentAddPhotoURL, "photo-url", "", "photo URL")
	_ = studentAddCmd.MarkFlagRequired("name")
	_ = studentAddCmd.MarkFlagRequired("admission")
	_ = studentAddCmd.MarkFlagRequired("section")

	studentListCmd.Flags().StringVar(&studentListSection, "section", "", "only students in this section")
	studentListCmd.Flags().BoolVar(&studentListCached, "cached", false, "serve from the local query cache")

	studentExportCmd.Flags().StringVar(&studentExportSection, "section", "", "only students in this section")
	studentExportCmd.Flags().StringVar(&studentExportOut, "out", "", "output file (default stdout)")

	studentCmd.AddCommand(studentAddCmd)
	studentCmd.AddCommand(studentRemoveCmd)
	studentCmd.AddCommand(studentListCmd)
	studentCmd.AddCommand(studentImportCmd)
	studentCmd.AddCommand(studentExportCmd)
	rootCmd.AddCommand(studentCmd)
}
