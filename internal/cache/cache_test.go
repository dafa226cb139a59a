package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stutra/sdb/internal/record"
)

// testDB opens a fresh cache database under a temp directory.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return db
}

// TestOpen_CreatesParentDirectory verifies a nested cache path works on
// first use.
func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "cache.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

// TestUpsertStudent verifies insert-then-update keeps one row with the
// latest values.
func TestUpsertStudent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	st := &record.Student{ID: "1001", Name: "Asha Rao", AdmissionNumber: "1001", Sections: []string{"XI Amartya"}}
	if err := db.UpsertStudent(ctx, st); err != nil {
		t.Fatalf("UpsertStudent failed: %v", err)
	}
	st.Name = "Asha R. Rao"
	if err := db.UpsertStudent(ctx, st); err != nil {
		t.Fatalf("UpsertStudent failed: %v", err)
	}

	got, err := db.ListStudents(ctx, "")
	if err != nil {
		t.Fatalf("ListStudents failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Name != "Asha R. Rao" {
		t.Errorf("expected updated name, got %q", got[0].Name)
	}
	if len(got[0].Sections) != 1 || got[0].Sections[0] != "XI Amartya" {
		t.Errorf("sections did not round-trip, got %v", got[0].Sections)
	}
}

// TestListStudents_SectionFilter verifies display names and slugs both
// match stored references of either form.
func TestListStudents_SectionFilter(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	rows := []*record.Student{
		{ID: "1", Name: "Display Form", Sections: []string{"XI Amartya"}},
		{ID: "2", Name: "Slug Form", Sections: []string{"xi_amartya", "xi_curie"}},
		{ID: "3", Name: "Elsewhere", Sections: []string{"XI Tagore"}},
	}
	for _, st := range rows {
		if err := db.UpsertStudent(ctx, st); err != nil {
			t.Fatalf("UpsertStudent failed: %v", err)
		}
	}

	for _, ref := range []string{"XI Amartya", "xi_amartya"} {
		got, err := db.ListStudents(ctx, ref)
		if err != nil {
			t.Fatalf("ListStudents(%q) failed: %v", ref, err)
		}
		if len(got) != 2 {
			t.Fatalf("ListStudents(%q): expected 2 rows, got %d", ref, len(got))
		}
		if got[0].ID != "1" || got[1].ID != "2" {
			t.Errorf("ListStudents(%q): expected [1 2], got [%s %s]", ref, got[0].ID, got[1].ID)
		}
	}
}

// TestCounts verifies per-table row counts.
func TestCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertStudent(ctx, &record.Student{ID: "1", Name: "A", Sections: []string{"x"}}); err != nil {
		t.Fatalf("UpsertStudent failed: %v", err)
	}
	if err := db.UpsertTeacher(ctx, &record.Teacher{ID: "t1", Name: "T", Email: "t@example.edu"}); err != nil {
		t.Fatalf("UpsertTeacher failed: %v", err)
	}
	if err := db.UpsertSection(ctx, record.NewSection("XI Amartya")); err != nil {
		t.Fatalf("UpsertSection failed: %v", err)
	}

	students, teachers, sections, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if students != 1 || teachers != 1 || sections != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", students, teachers, sections)
	}
}

// TestLastSync verifies the unset case and the round trip.
func TestLastSync(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, ok, err := db.LastSync(ctx); err != nil || ok {
		t.Fatalf("expected no sync stamp yet, got ok=%v err=%v", ok, err)
	}

	now := time.Now()
	if err := db.SetLastSync(ctx, now); err != nil {
		t.Fatalf("SetLastSync failed: %v", err)
	}
	got, ok, err := db.LastSync(ctx)
	if err != nil || !ok {
		t.Fatalf("LastSync failed: ok=%v err=%v", ok, err)
	}
	if got.Unix() != now.Unix() {
		t.Errorf("stamp did not round-trip: %v vs %v", got, now)
	}
}
