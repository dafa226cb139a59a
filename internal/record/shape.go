package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Shape identifies which stored form a raw student record uses.
type Shape int

const (
	// ShapeLegacy is the pre-migration form: a singular "section" string.
	ShapeLegacy Shape = iota
	// ShapeMigrated is the current form: a "sections" list.
	ShapeMigrated
	// ShapeMalformed is anything else: a non-object value, neither field
	// present, or a field of the wrong type. Malformed records are
	// reported and skipped, never coerced.
	ShapeMalformed
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeLegacy:
		return "legacy"
	case ShapeMigrated:
		return "migrated"
	case ShapeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// RawStudent is a student record as read from the store: classified but
// not reshaped. Fields preserves every stored key, so a migration
// rewrite carries fields this engine does not manage.
type RawStudent struct {
	ID            string
	Shape         Shape
	LegacySection string // the singular section value, when ShapeLegacy
	Problem       string // what is wrong, when ShapeMalformed
	Fields        map[string]json.RawMessage
}

// ClassifyStudent decodes one stored student value and classifies its
// shape. Classification happens once, here, at the store boundary;
// nothing downstream sniffs raw shapes again.
func ClassifyStudent(id string, raw json.RawMessage) *RawStudent {
	rec := &RawStudent{ID: id}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		rec.Shape = ShapeMalformed
		rec.Problem = "value is not an object"
		return rec
	}
	rec.Fields = fields

	// A "sections" list wins even if a stale "section" string is still
	// present: the record is already migrated and must not be rewritten.
	if secs, ok := fields["sections"]; ok {
		if isJSONArray(secs) {
			rec.Shape = ShapeMigrated
		} else {
			rec.Shape = ShapeMalformed
			rec.Problem = "'sections' is not a list"
		}
		return rec
	}

	if sec, ok := fields["section"]; ok {
		var s string
		if err := json.Unmarshal(sec, &s); err != nil {
			rec.Shape = ShapeMalformed
			rec.Problem = "'section' is not a string"
			return rec
		}
		rec.Shape = ShapeLegacy
		rec.LegacySection = s
		return rec
	}

	rec.Shape = ShapeMalformed
	rec.Problem = "missing both 'section' and 'sections' fields"
	return rec
}

// MigratedFields returns the record's fields reshaped to the migrated
// form: sections set to the given list, the legacy field dropped, and
// updatedAt stamped. Every unmanaged field carries through untouched.
func (r *RawStudent) MigratedFields(sections []string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	delete(out, "section")
	secs, _ := json.Marshal(sections)
	out["sections"] = secs
	stamp, _ := json.Marshal(Timestamp())
	out["updatedAt"] = stamp
	return out
}

// Student builds the typed view of the record. Legacy records surface
// their singular section as a one-element Sections list; an empty legacy
// value maps to the sentinel. Only fields that decode cleanly are
// populated.
func (r *RawStudent) Student() *Student {
	st := &Student{
		ID:              r.ID,
		Name:            stringField(r.Fields, "name"),
		AdmissionNumber: admissionField(r.Fields),
		PhotoURL:        stringField(r.Fields, "photoUrl"),
		CreatedAt:       stringField(r.Fields, "createdAt"),
		UpdatedAt:       stringField(r.Fields, "updatedAt"),
	}
	switch r.Shape {
	case ShapeLegacy:
		if r.LegacySection != "" {
			st.Sections = []string{r.LegacySection}
		} else {
			st.Sections = []string{SentinelSection}
		}
	case ShapeMigrated:
		st.Sections = stringListField(r.Fields, "sections")
	}
	if st.Sections == nil {
		st.Sections = []string{}
	}
	return st
}

// DecodeCollection decodes a collection read into id-keyed raw records.
// The store compacts integer-like keys into JSON arrays, so a collection
// may arrive as an object or as an array; array indices become string
// ids and null holes are dropped.
func DecodeCollection(raw json.RawMessage) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return out, nil
	}
	switch trimmed[0] {
	case '{':
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("failed to decode collection object: %w", err)
		}
		return out, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode collection array: %w", err)
		}
		for i, item := range items {
			if isJSONNull(item) {
				continue
			}
			out[strconv.Itoa(i)] = item
		}
		return out, nil
	default:
		return nil, fmt.Errorf("collection is neither an object nor an array")
	}
}

// SortedIDs returns the collection's ids with numeric ids first in
// numeric order, so array-shaped collections keep their stored order.
func SortedIDs(coll map[string]json.RawMessage) []string {
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ni, errI := strconv.Atoi(ids[i])
		nj, errJ := strconv.Atoi(ids[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

func isJSONArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isJSONNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null"
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// admissionField tolerates the number-vs-string drift the store has
// accumulated for admission numbers, and the snake_case key older
// importer runs wrote.
func admissionField(fields map[string]json.RawMessage) string {
	raw, ok := fields["admissionNumber"]
	if !ok {
		raw, ok = fields["admission_number"]
	}
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func stringListField(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}
