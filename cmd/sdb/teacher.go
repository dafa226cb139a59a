package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stutra/sdb/internal/record"
	"github.com/stutra/sdb/internal/ui"
)

var teacherCmd = &cobra.Command{
	Use:   "teacher",
	Short: "Manage teacher records",
}

var (
	teacherAddName     string
	teacherAddEmail    string
	teacherAddSections []string
)

var teacherAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a teacher",
	Long: `Add a teacher record and index it into each assigned section.

Sections may be given as display names ("XI Amartya") or ids
("xi_amartya"); missing section records are created on the fly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		id, err := ros.AddTeacher(cmd.Context(), &record.Teacher{
			Name:             teacherAddName,
			Email:            teacherAddEmail,
			AssignedSections: teacherAddSections,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Added teacher %s (%s)\n", ui.RenderPass("✓"), teacherAddName, id)
	},
}

var teacherRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a teacher",
	Long: `Delete a teacher record.

Membership entries in section indices are not garbage-collected; run
'sdb validate' to find the leftovers.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		if err := ros.RemoveTeacher(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Removed teacher %s\n", ui.RenderPass("✓"), args[0])
	},
}

var teacherListCmd = &cobra.Command{
	Use:   "list",
	Short: "List teachers",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		teachers, err := ros.ListTeachers(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(teachers) == 0 {
			fmt.Println("No teachers found")
			return
		}
		fmt.Println(ui.RenderDim(fmt.Sprintf("%-22s %-24s %-28s %s", "ID", "NAME", "EMAIL", "SECTIONS")))
		for _, tr := range teachers {
			fmt.Printf("%-22s %-24s %-28s %s\n", tr.ID, tr.Name, tr.Email, strings.Join(tr.AssignedSections, ", "))
		}
		fmt.Printf("\n%d teachers\n", len(teachers))
	},
}

var teacherStudentsCmd = &cobra.Command{
	Use:   "students <id>",
	Short: "List students taught by a teacher",
	Long: `List every student in any of the teacher's assigned sections.

The union is deduplicated, so a student in two of the teacher's
sections appears once.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ros, _ := newRoster(cfg)

		students, err := ros.StudentsForTeacher(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
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

func init() {
	teacherAddCmd.Flags().StringVar(&teacherAddName, "name", "", "teacher name (required)")
	teacherAddCmd.Flags().StringVar(&teacherAddEmail, "email", "", "teacher email (required)")
	teacherAddCmd.Flags().StringSliceVar(&teacherAddSections, "section", nil, "assigned section (repeatable)")
	_ = teacherAddCmd.MarkFlagRequired("name")
	_ = teacherAddCmd.MarkFlagRequired("email")

	teacherCmd.AddCommand(teacherAddCmd)
	teacherCmd.AddCommand(teacherRemoveCmd)
	teacherCmd.AddCommand(teacherListCmd)
	teacherCmd.AddCommand(teacherStudentsCmd)
	rootCmd.AddCommand(teacherCmd)
}
