package importer

import (
	"context"
	"fmt"

	"github.com/stutra/sdb/internal/record"
)

// Candidate is one student ready for upload, bound to its section.
type Candidate struct {
	// ID is the tree key the student will be stored under, equal to the
	// admission number.
	ID string
	// Row is the parsed roster line.
	Row Row
	// Section is the display name of the section the row came from.
	Section string
}

// Conflict pairs a rejected candidate with the collision that rejected
// it.
type Conflict struct {
	Candidate Candidate
	Reason    string
}

// String renders the conflict for reports.
func (c Conflict) String() string {
	return fmt.Sprintf("%s (id %s): %s", c.Candidate.Row.Name, c.Candidate.ID, c.Reason)
}

// Partition splits a candidate batch against the existing student
// collection, fetched once: a candidate whose id or admission number is
// already taken lands in conflicts, the rest in fresh. No merging is
// attempted; conflicts are reported for manual resolution.
func (im *Importer) Partition(ctx context.Context, batch []Candidate) (fresh []Candidate, conflicts []Conflict, err error) {
	raw, err := im.tree.Get(ctx, "students")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read students: %w", err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode students: %w", err)
	}

	ids := make(map[string]bool, len(coll))
	admissions := make(map[string]bool, len(coll))
	for id, body := range coll {
		ids[id] = true
		if adm := record.ClassifyStudent(id, body).Student().AdmissionNumber; adm != "" {
			admissions[adm] = true
		}
	}

	for _, c := range batch {
		switch {
		case ids[c.ID]:
			conflicts = append(conflicts, Conflict{Candidate: c, Reason: "id already exists"})
		case admissions[c.Row.Admission]:
			conflicts = append(conflicts, Conflict{Candidate: c, Reason: fmt.Sprintf("admission number %s already in use", c.Row.Admission)})
		default:
			fresh = append(fresh, c)
		}
	}
	return fresh, conflicts, nil
}
