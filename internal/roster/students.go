package roster

import (
	"context"
	"fmt"

	"github.com/stutra/sdb/internal/record"
)

// AddStudent validates and stores a new student, then records it in
// each referenced section's membership index. The student write and the
// index updates are separate round trips: a failure in the middle
// leaves the student stored with partial indexing, which the validator
// surfaces later.
func (s *Service) AddStudent(ctx context.Context, st *record.Student) (string, error) {
	st.SetDefaults()
	if err := st.Validate(); err != nil {
		return "", fmt.Errorf("invalid student: %w", err)
	}
	id, err := s.tree.Push(ctx, "students", st)
	if err != nil {
		return "", fmt.Errorf("failed to create student: %w", err)
	}
	st.ID = id
	for _, ref := range st.Sections {
		if _, _, err := s.AddStudentToSection(ctx, id, ref); err != nil {
			s.logger.Printf("WARNING: student %s created but not indexed into %q: %v", id, ref, err)
		}
	}
	return id, nil
}

// GetStudent fetches one student in its typed view.
func (s *Service) GetStudent(ctx context.Context, id string) (*record.Student, error) {
	raw, err := s.tree.Get(ctx, "students/"+id)
	if err != nil {
		return nil, fmt.Errorf("failed to read student %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	return record.ClassifyStudent(id, raw).Student(), nil
}

// RemoveStudent deletes the student record. Membership entries in
// section indices are left behind, not garbage-collected; the validator
// reports them as orphans.
func (s *Service) RemoveStudent(ctx context.Context, id string) error {
	raw, err := s.tree.Get(ctx, "students/"+id)
	if err != nil {
		return fmt.Errorf("failed to read student %s: %w", id, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s", ErrStudentNotFound, id)
	}
	if err := s.tree.Delete(ctx, "students/"+id); err != nil {
		return fmt.Errorf("failed to delete student %s: %w", id, err)
	}
	return nil
}

// ListStudents returns all students in their typed view, sorted by id,
// optionally filtered to one section reference. Legacy records surface
// their singular section for filtering; malformed records are skipped
// with a warning.
func (s *Service) ListStudents(ctx context.Context, sectionRef string) ([]*record.Student, error) {
	raw, err := s.tree.Get(ctx, "students")
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}
	out := make([]*record.Student, 0, len(coll))
	for _, id := range record.SortedIDs(coll) {
		rec := record.ClassifyStudent(id, coll[id])
		if rec.Shape == record.ShapeMalformed {
			s.logger.Printf("WARNING: skipping malformed student %s: %s", id, rec.Problem)
			continue
		}
		st := rec.Student()
		if sectionRef != "" && !st.InSection(sectionRef) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}
