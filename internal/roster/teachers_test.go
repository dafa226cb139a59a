package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/stutra/sdb/internal/record"
)

// TestAddTeacher_StoresAndIndexes verifies a new teacher lands under a
// generated key and is recorded in each assigned section.
func TestAddTeacher_StoresAndIndexes(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()

	id, err := svc.AddTeacher(ctx, &record.Teacher{
		Name:             "R. Iyer",
		Email:            "iyer@example.edu",
		AssignedSections: []string{"XI Hawking"},
	})
	if err != nil {
		t.Fatalf("AddTeacher failed: %v", err)
	}

	var sec record.Section
	getJSON(t, f, "sections/xi_hawking", &sec)
	if !sec.HasTeacher(id) {
		t.Errorf("section missing teacher %s, teachers %v", id, sec.Teachers)
	}
}

// TestAddTeacher_RejectsInvalid verifies a missing email stops the
// upload.
func TestAddTeacher_RejectsInvalid(t *testing.T) {
	svc, f := newTestService(t)

	_, err := svc.AddTeacher(context.Background(), &record.Teacher{Name: "No Email"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := f.OpCount("POST"); n != 0 {
		t.Errorf("expected no upload, ops were %v", f.Ops())
	}
}

// TestRemoveTeacher verifies deletion and the not-found path.
func TestRemoveTeacher(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("teachers/t1", `{"name":"R. Iyer","email":"iyer@example.edu"}`)

	if err := svc.RemoveTeacher(ctx, "t1"); err != nil {
		t.Fatalf("RemoveTeacher failed: %v", err)
	}
	if err := svc.RemoveTeacher(ctx, "t1"); !errors.Is(err, ErrTeacherNotFound) {
		t.Fatalf("expected ErrTeacherNotFound, got %v", err)
	}
}

// TestListTeachers verifies ordering and that undecodable records are
// skipped.
func TestListTeachers(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("teachers/t2", `{"name":"B","email":"b@example.edu"}`)
	f.SeedJSON("teachers/t1", `{"name":"A","email":"a@example.edu"}`)
	f.SeedJSON("teachers/t3", `"just a string"`)

	got, err := svc.ListTeachers(ctx)
	if err != nil {
		t.Fatalf("ListTeachers failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 teachers, got %d", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("expected [t1 t2], got [%s %s]", got[0].ID, got[1].ID)
	}
}

// TestStudentsForTeacher verifies the roll-up across the teacher's
// sections with a single students read.
func TestStudentsForTeacher(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("teachers/t1", `{"name":"R. Iyer","email":"iyer@example.edu","assignedSections":["XI Amartya","XI Curie"]}`)
	f.SeedJSON("sections/xi_amartya", `{"name":"XI Amartya","students":["s1","s2"],"teachers":["t1"]}`)
	f.SeedJSON("sections/xi_curie", `{"name":"XI Curie","students":["s2","s3"],"teachers":["t1"]}`)
	f.SeedJSON("students/s1", `{"name":"One","sections":["XI Amartya"]}`)
	f.SeedJSON("students/s2", `{"name":"Two","sections":["XI Amartya","XI Curie"]}`)
	f.SeedJSON("students/s3", `{"name":"Three","section":"XI Curie"}`)
	f.SeedJSON("students/s4", `{"name":"Elsewhere","sections":["XI Tagore"]}`)

	got, err := svc.StudentsForTeacher(ctx, "t1")
	if err != nil {
		t.Fatalf("StudentsForTeacher failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 students, got %d", len(got))
	}
	for i, want := range []string{"s1", "s2", "s3"} {
		if got[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].ID)
		}
	}
	if n := f.OpCount("GET students"); n != 1 {
		t.Errorf("expected one students collection read, ops were %v", f.Ops())
	}
}

// TestStudentsForTeacher_MissingSection verifies a dangling assignment
// is skipped rather than fatal.
func TestStudentsForTeacher_MissingSection(t *testing.T) {
	svc, f := newTestService(t)
	ctx := context.Background()
	f.SeedJSON("teachers/t1", `{"name":"R. Iyer","email":"iyer@example.edu","assignedSections":["XI Nowhere"]}`)

	got, err := svc.StudentsForTeacher(ctx, "t1")
	if err != nil {
		t.Fatalf("StudentsForTeacher failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no students, got %d", len(got))
	}
}

// TestStudentsForTeacher_Absent verifies the not-found sentinel.
func TestStudentsForTeacher_Absent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.StudentsForTeacher(context.Background(), "missing")
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Fatalf("expected ErrTeacherNotFound, got %v", err)
	}
}
