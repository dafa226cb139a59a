package roster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stutra/sdb/internal/record"
)

// AddTeacher validates and stores a new teacher, then records it in
// each assigned section's membership index.
func (s *Service) AddTeacher(ctx context.Context, tr *record.Teacher) (string, error) {
	tr.SetDefaults()
	if err := tr.Validate(); err != nil {
		return "", fmt.Errorf("invalid teacher: %w", err)
	}
	id, err := s.tree.Push(ctx, "teachers", tr)
	if err != nil {
		return "", fmt.Errorf("failed to create teacher: %w", err)
	}
	tr.ID = id
	for _, ref := range tr.AssignedSections {
		if _, _, err := s.AddTeacherToSection(ctx, id, ref); err != nil {
			s.logger.Printf("WARNING: teacher %s created but not indexed into %q: %v", id, ref, err)
		}
	}
	return id, nil
}

// RemoveTeacher deletes the teacher record. Membership entries in
// section indices are left behind; the validator reports them.
func (s *Service) RemoveTeacher(ctx context.Context, id string) error {
	raw, err := s.tree.Get(ctx, "teachers/"+id)
	if err != nil {
		return fmt.Errorf("failed to read teacher %s: %w", id, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: %s", ErrTeacherNotFound, id)
	}
	if err := s.tree.Delete(ctx, "teachers/"+id); err != nil {
		return fmt.Errorf("failed to delete teacher %s: %w", id, err)
	}
	return nil
}

// ListTeachers returns all teachers sorted by id. Records that fail to
// decode are skipped with a warning.
func (s *Service) ListTeachers(ctx context.Context) ([]*record.Teacher, error) {
	raw, err := s.tree.Get(ctx, "teachers")
	if err != nil {
		return nil, fmt.Errorf("failed to read teachers: %w", err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode teachers: %w", err)
	}
	out := make([]*record.Teacher, 0, len(coll))
	for _, id := range record.SortedIDs(coll) {
		var tr record.Teacher
		if err := json.Unmarshal(coll[id], &tr); err != nil {
			s.logger.Printf("WARNING: skipping teacher %s: %v", id, err)
			continue
		}
		tr.ID = id
		out = append(out, &tr)
	}
	return out, nil
}

// StudentsForTeacher lists every student in any of the teacher's
// sections, sorted by id. Sections the teacher references but which do
// not exist are skipped with a warning.
func (s *Service) StudentsForTeacher(ctx context.Context, teacherID string) ([]*record.Student, error) {
	raw, err := s.tree.Get(ctx, "teachers/"+teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to read teacher %s: %w", teacherID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrTeacherNotFound, teacherID)
	}
	var tr record.Teacher
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode teacher %s: %w", teacherID, err)
	}

	wanted := make(map[string]bool)
	for _, ref := range tr.AssignedSections {
		sec, found, err := s.getSection(ctx, record.Slug(ref))
		if err != nil {
			return nil, err
		}
		if !found {
			s.logger.Printf("WARNING: teacher %s assigned to missing section %q", teacherID, ref)
			continue
		}
		for _, id := range sec.Students {
			wanted[id] = true
		}
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	// one collection read instead of a round trip per student
	raw, err = s.tree.Get(ctx, "students")
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}
	var out []*record.Student
	for _, id := range record.SortedIDs(coll) {
		if !wanted[id] {
			continue
		}
		rec := record.ClassifyStudent(id, coll[id])
		if rec.Shape == record.ShapeMalformed {
			s.logger.Printf("WARNING: skipping malformed student %s: %s", id, rec.Problem)
			continue
		}
		out = append(out, rec.Student())
	}
	return out, nil
}
