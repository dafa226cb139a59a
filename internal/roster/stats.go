package roster

import (
	"context"
	"fmt"

	"github.com/stutra/sdb/internal/record"
)

// Stats summarizes the tree: record counts per collection and student
// counts per section. Students whose records cannot be read as either
// shape are counted under Malformed.
type Stats struct {
	Students  int            `json:"students" yaml:"students"`
	Teachers  int            `json:"teachers" yaml:"teachers"`
	Sections  int            `json:"sections" yaml:"sections"`
	Malformed int            `json:"malformed,omitempty" yaml:"malformed,omitempty"`
	BySection map[string]int `json:"by_section" yaml:"by_section"`
}

// Stats walks the three collections and tallies membership. Section
// buckets are keyed by slug; students referencing only the placeholder
// section land in its bucket like any other.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{BySection: make(map[string]int)}

	raw, err := s.tree.Get(ctx, "students")
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	students, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}
	for id, body := range students {
		rec := record.ClassifyStudent(id, body)
		if rec.Shape == record.ShapeMalformed {
			st.Malformed++
			continue
		}
		st.Students++
		for _, ref := range rec.Student().Sections {
			st.BySection[record.Slug(ref)]++
		}
	}

	raw, err = s.tree.Get(ctx, "teachers")
	if err != nil {
		return nil, fmt.Errorf("failed to read teachers: %w", err)
	}
	teachers, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode teachers: %w", err)
	}
	st.Teachers = len(teachers)

	raw, err = s.tree.Get(ctx, "sections")
	if err != nil {
		return nil, fmt.Errorf("failed to read sections: %w", err)
	}
	sections, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sections: %w", err)
	}
	st.Sections = len(sections)

	return st, nil
}
