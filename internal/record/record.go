// Package record defines the typed records stored in the Stutra tree and
// the shape codec that decodes them from their raw stored forms.
//
// Records are stored under three top-level collections: students/,
// teachers/, and sections/. A record's id is its tree key and is never
// duplicated inside the stored value. Student records exist in two
// stored shapes: the legacy form with a singular "section" string, and
// the migrated form with a "sections" list. Shape classification lives
// in shape.go.
package record

import (
	"fmt"
	"strings"
	"time"
)

// SentinelSection is the reserved section id meaning "no real section
// assigned". Legacy records carrying it migrate without producing a
// Section record, and integrity checks skip references to it.
const SentinelSection = "default"

// Timestamp returns the RFC 3339 UTC stamp written into createdAt and
// updatedAt fields.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Slug derives the deterministic section id from a display name:
// lower-cased with spaces turned into underscores, so "XI Amartya"
// becomes "xi_amartya". Applying Slug to an id returns it unchanged,
// which lets section references hold either form.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Student is a student record in its migrated shape. Timestamps are
// stored as strings because the tree holds stamps from several writers
// and not all of them carry a zone.
type Student struct {
	ID              string   `json:"-"`
	Name            string   `json:"name"`
	AdmissionNumber string   `json:"admissionNumber,omitempty"`
	Sections        []string `json:"sections"`
	PhotoURL        string   `json:"photoUrl,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
}

// Validate checks the record before it is written.
func (s *Student) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.AdmissionNumber == "" {
		return fmt.Errorf("admission number is required")
	}
	if len(s.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}
	seen := make(map[string]bool, len(s.Sections))
	for _, ref := range s.Sections {
		if ref == "" {
			return fmt.Errorf("section reference cannot be empty")
		}
		id := Slug(ref)
		if seen[id] {
			return fmt.Errorf("duplicate section reference: %s", ref)
		}
		seen[id] = true
	}
	return nil
}

// SetDefaults fills timestamps and normalizes nil lists. Lists are kept
// non-nil so they serialize as [] rather than null; the store treats
// null as a delete.
func (s *Student) SetDefaults() {
	if s.Sections == nil {
		s.Sections = []string{}
	}
	now := Timestamp()
	if s.CreatedAt == "" {
		s.CreatedAt = now
	}
	if s.UpdatedAt == "" {
		s.UpdatedAt = now
	}
}

// UpdateTimestamp stamps the record as just modified.
func (s *Student) UpdateTimestamp() {
	s.UpdatedAt = Timestamp()
}

// InSection reports whether the student references the section, matching
// by slug so display names and ids compare equal.
func (s *Student) InSection(ref string) bool {
	want := Slug(ref)
	for _, r := range s.Sections {
		if Slug(r) == want {
			return true
		}
	}
	return false
}

// Teacher is a teacher record.
type Teacher struct {
	ID               string   `json:"-"`
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	AssignedSections []string `json:"assignedSections"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
}

// Validate checks the record before it is written.
func (t *Teacher) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.Email == "" {
		return fmt.Errorf("email is required")
	}
	for _, ref := range t.AssignedSections {
		if ref == "" {
			return fmt.Errorf("section reference cannot be empty")
		}
	}
	return nil
}

// SetDefaults fills timestamps and normalizes nil lists.
func (t *Teacher) SetDefaults() {
	if t.AssignedSections == nil {
		t.AssignedSections = []string{}
	}
	now := Timestamp()
	if t.CreatedAt == "" {
		t.CreatedAt = now
	}
	if t.UpdatedAt == "" {
		t.UpdatedAt = now
	}
}

// UpdateTimestamp stamps the record as just modified.
func (t *Teacher) UpdateTimestamp() {
	t.UpdatedAt = Timestamp()
}

// AssignedTo reports whether the teacher references the section,
// matching by slug.
func (t *Teacher) AssignedTo(ref string) bool {
	want := Slug(ref)
	for _, r := range t.AssignedSections {
		if Slug(r) == want {
			return true
		}
	}
	return false
}

// Section is a section record. Its id is the slug of its name, which
// makes creation idempotent by construction.
type Section struct {
	ID        string   `json:"-"`
	Name      string   `json:"name"`
	Teachers  []string `json:"teachers"`
	Students  []string `json:"students"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

// NewSection builds an empty section shell for a display name.
func NewSection(name string) *Section {
	sec := &Section{
		ID:   Slug(name),
		Name: name,
	}
	sec.SetDefaults()
	return sec
}

// Validate checks the record before it is written.
func (s *Section) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.ID != Slug(s.Name) {
		return fmt.Errorf("id %q does not match slug of name %q", s.ID, s.Name)
	}
	return nil
}

// SetDefaults fills timestamps and normalizes nil lists.
func (s *Section) SetDefaults() {
	if s.Teachers == nil {
		s.Teachers = []string{}
	}
	if s.Students == nil {
		s.Students = []string{}
	}
	now := Timestamp()
	if s.CreatedAt == "" {
		s.CreatedAt = now
	}
	if s.UpdatedAt == "" {
		s.UpdatedAt = now
	}
}

// UpdateTimestamp stamps the record as just modified.
func (s *Section) UpdateTimestamp() {
	s.UpdatedAt = Timestamp()
}

// HasStudent reports whether the section's students list contains id.
func (s *Section) HasStudent(id string) bool {
	for _, m := range s.Students {
		if m == id {
			return true
		}
	}
	return false
}

// HasTeacher reports whether the section's teachers list contains id.
func (s *Section) HasTeacher(id string) bool {
	for _, m := range s.Teachers {
		if m == id {
			return true
		}
	}
	return false
}
