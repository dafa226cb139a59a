package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stutra/sdb/internal/record"
)

// CSVResult reports the outcome of a CSV student import.
type CSVResult struct {
	// Rows is the number of data rows read, excluding the header.
	Rows int
	// Imported is the number of students written.
	Imported int
	// Skipped is the number of rows rejected before upload.
	Skipped int
	// Errors holds one message per skipped or failed row.
	Errors []string
}

// ImportStudentsCSV reads student rows from r and stores each one via
// AddStudent. The first row is a header; recognized columns are name,
// admission_number (or admission), sections (semicolon separated),
// section, and photo_url. Bad rows are skipped and reported, never
// fatal.
func (s *Service) ImportStudentsCSV(ctx context.Context, r io.Reader) (*CSVResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := headerIndex(header)
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("CSV header missing required column 'name'")
	}

	res := &CSVResult{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("failed to read CSV row: %w", err)
		}
		res.Rows++

		stu := &record.Student{
			Name:            field(row, cols, "name"),
			AdmissionNumber: field(row, cols, "admission_number"),
			PhotoURL:        field(row, cols, "photo_url"),
		}
		if stu.AdmissionNumber == "" {
			stu.AdmissionNumber = field(row, cols, "admission")
		}
		if secs := field(row, cols, "sections"); secs != "" {
			for _, part := range strings.Split(secs, ";") {
				if part = strings.TrimSpace(part); part != "" {
					stu.Sections = append(stu.Sections, part)
				}
			}
		} else if sec := field(row, cols, "section"); sec != "" {
			stu.Sections = []string{sec}
		}

		if _, err := s.AddStudent(ctx, stu); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", res.Rows, err))
			s.logger.Printf("WARNING: skipping CSV row %d: %v", res.Rows, err)
			continue
		}
		res.Imported++
	}
	return res, nil
}

// ExportStudentsCSV writes every well-formed student to w as CSV with
// a fixed header, optionally filtered to one section reference.
// Sections are joined with semicolons. Malformed records are skipped
// with a warning.
func (s *Service) ExportStudentsCSV(ctx context.Context, w io.Writer, sectionRef string) error {
	students, err := s.ListStudents(ctx, sectionRef)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "admission_number", "sections", "photo_url"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, stu := range students {
		row := []string{stu.Name, stu.AdmissionNumber, strings.Join(stu.Sections, ";"), stu.PhotoURL}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", stu.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// headerIndex maps normalized column names to their positions.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		cols[key] = i
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
