package roster

import (
	"context"
	"testing"

	"github.com/stutra/sdb/internal/record"
)

// TestAddStudentToSection_CreatesAbsentSection verifies that indexing a
// student into a section nobody has created yet writes a named shell
// holding just that member.
func TestAddStudentToSection_CreatesAbsentSection(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	added, created, err := svc.AddStudentToSection(ctx, "s1", "XI Amartya")
	if err != nil {
		t.Fatalf("AddStudentToSection failed: %v", err)
	}
	if !added || !created {
		t.Fatalf("expected added and created, got added=%v created=%v", added, created)
	}

	var sec record.Section
	getJSON(t, f, "sections/xi_amartya", &sec)
	if sec.Name != "XI Amartya" {
		t.Errorf("expected display name preserved, got %q", sec.Name)
	}
	if len(sec.Students) != 1 || sec.Students[0] != "s1" {
		t.Errorf("expected students [s1], got %v", sec.Students)
	}
	if sec.Teachers == nil || len(sec.Teachers) != 0 {
		t.Errorf("expected empty teachers list, got %v", sec.Teachers)
	}
}

// TestAddStudentToSection_AppendsWithNarrowWrite verifies that an
// existing section gets its members list replaced at the list subpath
// rather than a whole-record rewrite.
func TestAddStudentToSection_AppendsWithNarrowWrite(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["s1"],"teachers":[]}`)

	added, created, err := svc.AddStudentToSection(ctx, "s2", "XI Amartya")
	if err != nil {
		t.Fatalf("AddStudentToSection failed: %v", err)
	}
	if !added || created {
		t.Fatalf("expected append to existing section, got added=%v created=%v", added, created)
	}
	if n := f.OpCount("PUT sections/xi_amartya/students"); n != 1 {
		t.Errorf("expected one list write, ops were %v", f.Ops())
	}

	var sec record.Section
	getJSON(t, f, "sections/xi_amartya", &sec)
	if len(sec.Students) != 2 || sec.Students[0] != "s1" || sec.Students[1] != "s2" {
		t.Errorf("expected students [s1 s2], got %v", sec.Students)
	}
}

// TestAddStudentToSection_AlreadyMember verifies a present id produces
// no write at all.
func TestAddStudentToSection_AlreadyMember(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["s1"],"teachers":[]}`)

	added, created, err := svc.AddStudentToSection(ctx, "s1", "XI Amartya")
	if err != nil {
		t.Fatalf("AddStudentToSection failed: %v", err)
	}
	if added || created {
		t.Fatalf("expected no-op, got added=%v created=%v", added, created)
	}
	if n := f.OpCount("PUT"); n != 0 {
		t.Errorf("expected zero writes, ops were %v", f.Ops())
	}
}

// TestAddStudentToSection_NameAndSlugConverge verifies a display name
// and its slug address the same section record.
func TestAddStudentToSection_NameAndSlugConverge(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.AddStudentToSection(ctx, "s1", "XI Amartya"); err != nil {
		t.Fatalf("AddStudentToSection by name failed: %v", err)
	}
	if _, _, err := svc.AddStudentToSection(ctx, "s2", "xi_amartya"); err != nil {
		t.Fatalf("AddStudentToSection by slug failed: %v", err)
	}

	var sec record.Section
	getJSON(t, f, "sections/xi_amartya", &sec)
	if len(sec.Students) != 2 {
		t.Errorf("expected both adds in one section, got students %v", sec.Students)
	}
}

// TestAddTeacherToSection verifies the teachers list updates without
// touching the students list.
func TestAddTeacherToSection(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("sections/xi_curie", `{"name":"XI Curie","students":["s1"],"teachers":[]}`)

	added, created, err := svc.AddTeacherToSection(ctx, "t1", "XI Curie")
	if err != nil {
		t.Fatalf("AddTeacherToSection failed: %v", err)
	}
	if !added || created {
		t.Fatalf("expected append, got added=%v created=%v", added, created)
	}

	var sec record.Section
	getJSON(t, f, "sections/xi_curie", &sec)
	if len(sec.Teachers) != 1 || sec.Teachers[0] != "t1" {
		t.Errorf("expected teachers [t1], got %v", sec.Teachers)
	}
	if len(sec.Students) != 1 || sec.Students[0] != "s1" {
		t.Errorf("students list should be untouched, got %v", sec.Students)
	}
}

// TestAddStudentToSection_EmptyArguments verifies blank ids and
// references are rejected before any round trip.
func TestAddStudentToSection_EmptyArguments(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.AddStudentToSection(ctx, "", "XI Amartya"); err == nil {
		t.Error("expected error for empty member id")
	}
	if _, _, err := svc.AddStudentToSection(ctx, "s1", ""); err == nil {
		t.Error("expected error for empty section reference")
	}
	if len(f.Ops()) != 0 {
		t.Errorf("expected no round trips, ops were %v", f.Ops())
	}
}
