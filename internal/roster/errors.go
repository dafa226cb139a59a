package roster

import "errors"

// Errors returned by roster operations.
var (
	// ErrStudentNotFound indicates the student id has no record.
	ErrStudentNotFound = errors.New("student not found")

	// ErrTeacherNotFound indicates the teacher id has no record.
	ErrTeacherNotFound = errors.New("teacher not found")

	// ErrSectionNotFound indicates the section reference resolves to no
	// record.
	ErrSectionNotFound = errors.New("section not found")

	// ErrSectionExists indicates CreateSection hit an already-occupied
	// slug. Overwriting would wipe the section's membership lists, so
	// creation refuses instead.
	ErrSectionExists = errors.New("section already exists")
)
