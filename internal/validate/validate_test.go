package validate

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stutra/sdb/internal/store/storetest"
)

// newTestValidator builds a Validator over a fresh tree with logging
// silenced.
func newTestValidator(t *testing.T) (*Validator, *storetest.Fake) {
	t.Helper()
	f := storetest.New()
	return New(f, Options{Logger: log.New(io.Discard, "", 0)}), f
}

// messages flattens a report for contains-style assertions.
func messages(rep *Report) string {
	var b strings.Builder
	for _, iss := range rep.Issues {
		b.WriteString(iss.String())
		b.WriteString("\n")
	}
	return b.String()
}

// TestRun_CleanTree verifies a fully consistent tree passes with the
// right scan counts.
func TestRun_CleanTree(t *testing.T) {
	v, f := newTestValidator(t)
	f.SeedJSON("students/s1", `{"name":"One","sections":["XI Amartya"]}`)
	f.SeedJSON("teachers/t1", `{"name":"T","email":"t@example.edu","assignedSections":["xi_amartya"]}`)
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["s1"],"teachers":["t1"]}`)

	rep, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !rep.Pass() {
		t.Fatalf("expected pass, issues:\n%s", messages(rep))
	}
	if rep.Students != 1 || rep.Teachers != 1 || rep.Sections != 1 {
		t.Errorf("unexpected scan counts %d/%d/%d", rep.Students, rep.Teachers, rep.Sections)
	}
}

// TestRun_StudentShapeIssues verifies each bad student shape produces
// its own finding.
func TestRun_StudentShapeIssues(t *testing.T) {
	v, f := newTestValidator(t)
	f.SeedJSON("students/s1", `{"name":"Legacy","section":"XI Amartya"}`)
	f.SeedJSON("students/s2", `{"name":"Neither"}`)
	f.SeedJSON("students/s3", `{"name":"NotAList","sections":"XI Amartya"}`)
	f.SeedJSON("students/s4", `{"name":"Empty","sections":[]}`)
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["s1"],"teachers":[]}`)

	rep, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Pass() {
		t.Fatal("expected findings")
	}
	got := messages(rep)
	for _, want := range []string{
		"students/s1: missing 'sections' field (legacy 'section' still present)",
		"students/s2: missing 'sections' field",
		"students/s3: 'sections' is not a list",
		"students/s4: 'sections' is an empty list",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing finding %q in:\n%s", want, got)
		}
	}
}

// TestRun_StudentIndexDrift verifies a student whose section does not
// list them back is flagged, as is a reference to a section with no
// record.
func TestRun_StudentIndexDrift(t *testing.T) {
	v, f := newTestValidator(t)
	f.SeedJSON("students/s1", `{"name":"Dropped","sections":["XI Amartya"]}`)
	f.SeedJSON("students/s2", `{"name":"Dangling","sections":["XI Nowhere"]}`)
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["someone-else"],"teachers":[]}`)

	rep, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := messages(rep)
	if !strings.Contains(got, "students/s1: not listed in section xi_amartya's students") {
		t.Errorf("missing index drift finding in:\n%s", got)
	}
	if !strings.Contains(got, `students/s2: references missing section "XI Nowhere"`) {
		t.Errorf("missing dangling reference finding in:\n%s", got)
	}
}

// TestRun_PlaceholderSkipped verifies references to the placeholder
// section are not findings even though it has no record.
func TestRun_PlaceholderSkipped(t *testing.T) {
	v, f := newTestValidator(t)
	f.SeedJSON("students/s1", `{"name":"Drifter","sections":["default"]}`)

	rep, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !rep.Pass() {
		t.Errorf("expected pass, issues:\n%s", messages(rep))
	}
}

// TestRun_SectionFindings verifies missing fields and orphaned member
// ids are flagged per section.
func TestRun_SectionFindings(t *testing.T) {
	v, f := newTestValidator(t)
	f.SeedJSON("students/s1", `{"name":"One","sections":["XI Amartya"]}`)
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["s1","ghost"],"teachers":[]}`)
	f.SeedJSON("sections/xi_curie", `{"students":["s1"]}`)

	rep, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := messages(rep)
	for _, want := range []string{
		`sections/xi_amartya: students list has orphaned id "ghost"`,
		"sections/xi_curie: missing 'name' field",
		"sections/xi_curie: missing 'teachers' field",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing finding %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "xi_curie: missing 'students'") {
		t.Errorf("students field is present and should not be flagged:\n%s", got)
	}
}

// TestRun_TeacherIndexDrift verifies the teacher-side cross-reference.
func TestRun_TeacherIndexDrift(t *testing.T) {
	v, f := newTestValidator(t)
	f.SeedJSON("teachers/t1", `{"name":"T","email":"t@example.edu","assignedSections":["XI Amartya"]}`)
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":[],"teachers":[]}`)

	rep, err := v.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got := messages(rep)
	if !strings.Contains(got, "teachers/t1: not listed in section xi_amartya's teachers") {
		t.Errorf("missing teacher drift finding in:\n%s", got)
	}
}

// TestRun_ReadFailure verifies an unreadable collection aborts the scan.
func TestRun_ReadFailure(t *testing.T) {
	v, f := newTestValidator(t)
	f.Fail("GET", "students", errors.New("transport down"))

	if _, err := v.Run(context.Background()); err == nil {
		t.Fatal("expected error when a collection cannot be read")
	}
}
