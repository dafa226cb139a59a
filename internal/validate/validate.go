// Package validate scans the tree for schema drift and broken
// membership indices.
//
// # Overview
//
// The validator is read-only: it reads the three collections once,
// checks every record, and accumulates human-readable issues into a
// report. It never repairs anything. Because the store executes each
// write independently with nothing spanning two paths, drift is an
// expected runtime condition here, not a corruption surprise: interrupted
// migrations, lost index updates, and manual edits all leave traces this
// scan is meant to find.
//
// A membership reference equal to the placeholder section is skipped:
// the placeholder deliberately has no section record.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/stutra/sdb/internal/record"
	"github.com/stutra/sdb/internal/store"
)

// Issue is one finding at one tree path.
type Issue struct {
	// Path locates the offending record.
	Path string `json:"path" yaml:"path"`
	// Message says what is wrong.
	Message string `json:"message" yaml:"message"`
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Report is the outcome of one scan.
type Report struct {
	// Issues holds every finding, in scan order.
	Issues []Issue `json:"issues" yaml:"issues"`
	// Students is the number of student records scanned.
	Students int `json:"students_scanned" yaml:"students_scanned"`
	// Teachers is the number of teacher records scanned.
	Teachers int `json:"teachers_scanned" yaml:"teachers_scanned"`
	// Sections is the number of section records scanned.
	Sections int `json:"sections_scanned" yaml:"sections_scanned"`
}

// Pass reports whether the scan found nothing wrong.
func (r *Report) Pass() bool {
	return len(r.Issues) == 0
}

func (r *Report) flag(path, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Options configures a Validator.
type Options struct {
	// Logger receives scan diagnostics. Defaults to stderr.
	Logger *log.Logger
}

// Validator scans one tree.
type Validator struct {
	tree   store.Tree
	logger *log.Logger
}

// New builds a Validator over the given tree.
func New(tree store.Tree, opts Options) *Validator {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[validate] ", log.LstdFlags)
	}
	return &Validator{tree: tree, logger: logger}
}

// Run scans students, teachers, and sections and returns the report.
// The returned error is non-nil only when a collection cannot be read
// at all; individual bad records become issues, not errors.
func (v *Validator) Run(ctx context.Context) (*Report, error) {
	students, err := v.collection(ctx, "students")
	if err != nil {
		return nil, err
	}
	teachers, err := v.collection(ctx, "teachers")
	if err != nil {
		return nil, err
	}
	sections, err := v.collection(ctx, "sections")
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Students: len(students),
		Teachers: len(teachers),
		Sections: len(sections),
	}
	secs := decodeSections(rep, sections)
	v.checkStudents(rep, students, secs)
	v.checkTeachers(rep, teachers, secs)
	v.checkSections(rep, sections, secs, students, teachers)
	return rep, nil
}

func (v *Validator) collection(ctx context.Context, name string) (map[string]json.RawMessage, error) {
	raw, err := v.tree.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return coll, nil
}

// decodeSections builds typed views of the section records for the
// cross-reference checks. Sections that are not objects are flagged
// here and excluded from the views.
func decodeSections(rep *Report, sections map[string]json.RawMessage) map[string]*record.Section {
	out := make(map[string]*record.Section, len(sections))
	for _, id := range record.SortedIDs(sections) {
		var sec record.Section
		if err := json.Unmarshal(sections[id], &sec); err != nil {
			rep.flag("sections/"+id, "record cannot be decoded as a section")
			continue
		}
		sec.ID = id
		out[id] = &sec
	}
	return out
}

// checkStudents flags shape problems and, for converted records, every
// section reference that is missing or does not list the student back.
func (v *Validator) checkStudents(rep *Report, students map[string]json.RawMessage, secs map[string]*record.Section) {
	for _, id := range record.SortedIDs(students) {
		path := "students/" + id
		rec := record.ClassifyStudent(id, students[id])
		switch rec.Shape {
		case record.ShapeLegacy:
			rep.flag(path, "missing 'sections' field (legacy 'section' still present)")
			continue
		case record.ShapeMalformed:
			switch rec.Problem {
			case "missing both 'section' and 'sections' fields":
				rep.flag(path, "missing 'sections' field")
			default:
				rep.flag(path, "%s", rec.Problem)
			}
			continue
		}

		var refs []string
		if err := json.Unmarshal(rec.Fields["sections"], &refs); err != nil {
			rep.flag(path, "'sections' is not a list of strings")
			continue
		}
		if len(refs) == 0 {
			rep.flag(path, "'sections' is an empty list")
			continue
		}
		for _, ref := range refs {
			slug := record.Slug(ref)
			if slug == record.SentinelSection {
				continue
			}
			sec, ok := secs[slug]
			if !ok {
				rep.flag(path, "references missing section %q", ref)
				continue
			}
			if !sec.HasStudent(id) {
				rep.flag(path, "not listed in section %s's students", slug)
			}
		}
	}
}

// checkTeachers mirrors the student cross-reference for assigned
// sections.
func (v *Validator) checkTeachers(rep *Report, teachers map[string]json.RawMessage, secs map[string]*record.Section) {
	for _, id := range record.SortedIDs(teachers) {
		path := "teachers/" + id
		var tr record.Teacher
		if err := json.Unmarshal(teachers[id], &tr); err != nil {
			rep.flag(path, "record is not an object")
			continue
		}
		for _, ref := range tr.AssignedSections {
			slug := record.Slug(ref)
			if slug == record.SentinelSection {
				continue
			}
			sec, ok := secs[slug]
			if !ok {
				rep.flag(path, "references missing section %q", ref)
				continue
			}
			if !sec.HasTeacher(id) {
				rep.flag(path, "not listed in section %s's teachers", slug)
			}
		}
	}
}

// checkSections flags missing fields and membership entries pointing at
// records that do not exist. Field presence is checked on the raw keys:
// the store strips empty lists on write, so a section saved with no
// members reads back without those keys and is flagged here.
func (v *Validator) checkSections(rep *Report, sections map[string]json.RawMessage, secs map[string]*record.Section, students, teachers map[string]json.RawMessage) {
	for _, id := range record.SortedIDs(sections) {
		sec, ok := secs[id]
		if !ok {
			continue
		}
		path := "sections/" + id

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(sections[id], &fields); err == nil {
			for _, key := range []string{"name", "students", "teachers"} {
				if _, ok := fields[key]; !ok {
					rep.flag(path, "missing '%s' field", key)
				}
			}
		}

		for _, sid := range sec.Students {
			if _, ok := students[sid]; !ok {
				rep.flag(path, "students list has orphaned id %q", sid)
			}
		}
		for _, tid := range sec.Teachers {
			if _, ok := teachers[tid]; !ok {
				rep.flag(path, "teachers list has orphaned id %q", tid)
			}
		}
	}
}
