package roster

import (
	"context"
	"fmt"

	"github.com/stutra/sdb/internal/record"
)

const (
	roleStudents = "students"
	roleTeachers = "teachers"
)

// AddStudentToSection records the student id in the section's students
// list. The section is resolved by slug; an absent section is written as
// a named shell holding just this member. Reports whether the id was
// appended and whether the section record was created.
//
// The read and the write are separate round trips with no
// compare-and-swap: two clients updating the same section concurrently
// can lose one of the appends. That hazard is accepted here and left to
// the integrity validator to surface.
func (s *Service) AddStudentToSection(ctx context.Context, studentID, sectionRef string) (added, created bool, err error) {
	return s.appendMember(ctx, sectionRef, roleStudents, studentID)
}

// AddTeacherToSection mirrors AddStudentToSection for the teachers list.
func (s *Service) AddTeacherToSection(ctx context.Context, teacherID, sectionRef string) (added, created bool, err error) {
	return s.appendMember(ctx, sectionRef, roleTeachers, teacherID)
}

func (s *Service) appendMember(ctx context.Context, sectionRef, role, memberID string) (bool, bool, error) {
	if memberID == "" {
		return false, false, fmt.Errorf("empty member id")
	}
	id := record.Slug(sectionRef)
	if id == "" {
		return false, false, fmt.Errorf("empty section reference")
	}

	sec, found, err := s.getSection(ctx, id)
	if err != nil {
		return false, false, err
	}
	if !found {
		sec = record.NewSection(sectionRef)
	}

	var list []string
	switch role {
	case roleStudents:
		list = sec.Students
	case roleTeachers:
		list = sec.Teachers
	default:
		return false, false, fmt.Errorf("unknown membership role %q", role)
	}

	// membership is value equality over the stored list
	for _, m := range list {
		if m == memberID {
			return false, false, nil
		}
	}
	list = append(list, memberID)
	switch role {
	case roleStudents:
		sec.Students = list
	case roleTeachers:
		sec.Teachers = list
	}

	if !found {
		if err := s.tree.Put(ctx, "sections/"+id, sec); err != nil {
			return false, false, fmt.Errorf("failed to create section %s: %w", id, err)
		}
		return true, true, nil
	}
	// the narrowest possible write: replace just the membership list
	if err := s.tree.Put(ctx, "sections/"+id+"/"+role, list); err != nil {
		return false, false, fmt.Errorf("failed to update %s of section %s: %w", role, id, err)
	}
	return true, false, nil
}
