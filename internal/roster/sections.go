package roster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stutra/sdb/internal/record"
)

// CreateSection stores a new section under its derived slug. An
// occupied slug is refused rather than overwritten: a blind write would
// wipe the existing section's membership lists.
func (s *Service) CreateSection(ctx context.Context, name string) (*record.Section, error) {
	sec := record.NewSection(name)
	if err := sec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid section: %w", err)
	}
	_, found, err := s.getSection(ctx, sec.ID)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, fmt.Errorf("%w: %s", ErrSectionExists, sec.ID)
	}
	if err := s.tree.Put(ctx, "sections/"+sec.ID, sec); err != nil {
		return nil, fmt.Errorf("failed to create section %s: %w", sec.ID, err)
	}
	return sec, nil
}

// EnsureSection creates the section for name when its slug is absent.
// Returns the section id and whether a record was created.
func (s *Service) EnsureSection(ctx context.Context, name string) (string, bool, error) {
	id := record.Slug(name)
	if id == "" {
		return "", false, fmt.Errorf("empty section name")
	}
	_, found, err := s.getSection(ctx, id)
	if err != nil {
		return "", false, err
	}
	if found {
		return id, false, nil
	}
	sec := record.NewSection(name)
	if err := s.tree.Put(ctx, "sections/"+id, sec); err != nil {
		return "", false, fmt.Errorf("failed to create section %s: %w", id, err)
	}
	return id, true, nil
}

// GetSection fetches one section by id or display name.
func (s *Service) GetSection(ctx context.Context, ref string) (*record.Section, error) {
	id := record.Slug(ref)
	sec, found, err := s.getSection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	return sec, nil
}

// ListSections returns all sections sorted by id. Records that fail to
// decode are skipped with a warning.
func (s *Service) ListSections(ctx context.Context) ([]*record.Section, error) {
	raw, err := s.tree.Get(ctx, "sections")
	if err != nil {
		return nil, fmt.Errorf("failed to read sections: %w", err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sections: %w", err)
	}
	out := make([]*record.Section, 0, len(coll))
	for _, id := range record.SortedIDs(coll) {
		var sec record.Section
		if err := json.Unmarshal(coll[id], &sec); err != nil {
			s.logger.Printf("WARNING: skipping section %s: %v", id, err)
			continue
		}
		sec.ID = id
		out = append(out, &sec)
	}
	return out, nil
}
