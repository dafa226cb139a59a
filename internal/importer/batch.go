package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Row is one parsed roster line.
type Row struct {
	// Serial is the row's ordinal within its source file.
	Serial string
	// Admission is the admission number in canonical string form. It
	// doubles as the student's tree key.
	Admission string
	// Name is the student's name, title-cased.
	Name string
}

// ParseRoster reads roster rows from r. The header names the columns
// serial number, admission number, and name; punctuation and case in
// the header are ignored, so "S.NO", "A.NO." and "Name" parse the same
// as "sno,ano,name". A row with a blank column or a non-integer
// admission number is skipped with a warning and counted, never fatal.
func ParseRoster(r io.Reader, logger *log.Logger) ([]Row, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read roster header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, cell := range header {
		cols[letters(cell)] = i
	}
	for _, want := range []string{"sno", "ano", "name"} {
		if _, ok := cols[want]; !ok {
			return nil, 0, fmt.Errorf("roster header missing %q column", want)
		}
	}

	var rows []Row
	skipped := 0
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, skipped, fmt.Errorf("failed to read roster row: %w", err)
		}
		line++

		serial := cell(rec, cols["sno"])
		admission := cell(rec, cols["ano"])
		name := cell(rec, cols["name"])
		if serial == "" || admission == "" || name == "" {
			skipped++
			logger.Printf("WARNING: skipping row %d: missing data", line)
			continue
		}
		n, err := strconv.Atoi(admission)
		if err != nil {
			skipped++
			logger.Printf("WARNING: skipping row %d: invalid admission number %q", line, admission)
			continue
		}
		rows = append(rows, Row{
			Serial:    serial,
			Admission: strconv.Itoa(n),
			Name:      titleCase(name),
		})
	}
	return rows, skipped, nil
}

// sectionNames maps the bare roster filenames to their proper-cased
// section names.
var sectionNames = map[string]string{
	"amartya":   "Amartya",
	"ambedkar":  "Ambedkar",
	"curie":     "Curie",
	"eliot":     "Eliot",
	"hawking":   "Hawking",
	"lewis":     "Lewis",
	"raman":     "Raman",
	"satyarthi": "Satyarthi",
	"tagore":    "Tagore",
	"yunus":     "Yunus",
}

// DeriveSectionName maps a roster filename to its section display name:
// digits are stripped from the base name and the class prefix applied,
// so "amartya1.csv" becomes "XI Amartya".
func DeriveSectionName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		if !unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := strings.ToLower(strings.TrimSpace(b.String()))
	if proper, ok := sectionNames[name]; ok {
		return "XI " + proper
	}
	return "XI " + titleCase(name)
}

// letters lowercases a header cell and drops everything that is not a
// letter, turning "A.NO." into "ano".
func letters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// titleCase uppercases the first letter of each word and lowercases the
// rest.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
