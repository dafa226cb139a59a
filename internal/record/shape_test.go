package record

import (
	"encoding/json"
	"testing"
)

// TestClassifyStudent_Legacy tests recognition of the singular-section form
func TestClassifyStudent_Legacy(t *testing.T) {
	rec := ClassifyStudent("s1", json.RawMessage(`{"name":"Asha","section":"A"}`))

	if rec.Shape != ShapeLegacy {
		t.Fatalf("Shape = %v, want legacy", rec.Shape)
	}
	if rec.LegacySection != "A" {
		t.Errorf("LegacySection = %q, want 'A'", rec.LegacySection)
	}
}

// TestClassifyStudent_Migrated tests recognition of the sections-list form
func TestClassifyStudent_Migrated(t *testing.T) {
	rec := ClassifyStudent("s1", json.RawMessage(`{"name":"Asha","sections":["A","B"]}`))

	if rec.Shape != ShapeMigrated {
		t.Fatalf("Shape = %v, want migrated", rec.Shape)
	}
}

// TestClassifyStudent_MigratedWinsOverStaleLegacy tests that a record with
// both fields counts as migrated and is never rewritten
func TestClassifyStudent_MigratedWinsOverStaleLegacy(t *testing.T) {
	rec := ClassifyStudent("s1", json.RawMessage(`{"section":"A","sections":["A"]}`))

	if rec.Shape != ShapeMigrated {
		t.Errorf("Shape = %v, want migrated when sections list present", rec.Shape)
	}
}

// TestClassifyStudent_Malformed tests every malformed variant
func TestClassifyStudent_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"neither field", `{"name":"Asha"}`},
		{"sections not a list", `{"sections":"A"}`},
		{"sections is an object", `{"sections":{"0":"A"}}`},
		{"section not a string", `{"section":42}`},
		{"not an object", `"just a string"`},
	}
	for _, tc := range cases {
		rec := ClassifyStudent("s1", json.RawMessage(tc.raw))
		if rec.Shape != ShapeMalformed {
			t.Errorf("%s: Shape = %v, want malformed", tc.name, rec.Shape)
		}
		if rec.Problem == "" {
			t.Errorf("%s: Problem is empty, want a reason", tc.name)
		}
	}
}

// TestMigratedFields_DropsLegacyAndPreservesUnmanaged tests the rewrite shape
func TestMigratedFields_DropsLegacyAndPreservesUnmanaged(t *testing.T) {
	raw := json.RawMessage(`{"name":"Asha","section":"A","rollNo":17,"house":"red"}`)
	rec := ClassifyStudent("s1", raw)
	if rec.Shape != ShapeLegacy {
		t.Fatalf("Shape = %v, want legacy", rec.Shape)
	}

	out := rec.MigratedFields([]string{"A"})

	if _, ok := out["section"]; ok {
		t.Error("legacy 'section' field survived the rewrite")
	}
	var sections []string
	if err := json.Unmarshal(out["sections"], &sections); err != nil {
		t.Fatalf("failed to decode sections: %v", err)
	}
	if len(sections) != 1 || sections[0] != "A" {
		t.Errorf("sections = %v, want [A]", sections)
	}
	if _, ok := out["updatedAt"]; !ok {
		t.Error("updatedAt not stamped")
	}
	// fields this engine does not manage must carry through untouched
	if string(out["rollNo"]) != "17" {
		t.Errorf("rollNo = %s, want 17", out["rollNo"])
	}
	if string(out["house"]) != `"red"` {
		t.Errorf("house = %s, want \"red\"", out["house"])
	}
}

// TestRawStudent_StudentView tests the typed projection of each shape
func TestRawStudent_StudentView(t *testing.T) {
	legacy := ClassifyStudent("s1", json.RawMessage(`{"name":"Asha","admissionNumber":42,"section":"A"}`)).Student()
	if len(legacy.Sections) != 1 || legacy.Sections[0] != "A" {
		t.Errorf("legacy view sections = %v, want [A]", legacy.Sections)
	}
	if legacy.AdmissionNumber != "42" {
		t.Errorf("numeric admission number = %q, want '42'", legacy.AdmissionNumber)
	}

	emptyLegacy := ClassifyStudent("s2", json.RawMessage(`{"name":"Ravi","section":""}`)).Student()
	if len(emptyLegacy.Sections) != 1 || emptyLegacy.Sections[0] != SentinelSection {
		t.Errorf("empty legacy section view = %v, want [%s]", emptyLegacy.Sections, SentinelSection)
	}

	migrated := ClassifyStudent("s3", json.RawMessage(`{"name":"Meena","admission_number":"77","sections":["A","B"]}`)).Student()
	if len(migrated.Sections) != 2 {
		t.Errorf("migrated view sections = %v, want two entries", migrated.Sections)
	}
	if migrated.AdmissionNumber != "77" {
		t.Errorf("snake_case admission number = %q, want '77'", migrated.AdmissionNumber)
	}
}

// TestDecodeCollection_ObjectAndArrayAgree tests that both stored shapes
// of a collection produce the same record set
func TestDecodeCollection_ObjectAndArrayAgree(t *testing.T) {
	asObject := json.RawMessage(`{"0":{"name":"Asha"},"1":{"name":"Ravi"}}`)
	asArray := json.RawMessage(`[{"name":"Asha"},{"name":"Ravi"}]`)

	fromObject, err := DecodeCollection(asObject)
	if err != nil {
		t.Fatalf("DecodeCollection(object) failed: %v", err)
	}
	fromArray, err := DecodeCollection(asArray)
	if err != nil {
		t.Fatalf("DecodeCollection(array) failed: %v", err)
	}

	if len(fromObject) != len(fromArray) {
		t.Fatalf("sizes differ: object %d, array %d", len(fromObject), len(fromArray))
	}
	for id, raw := range fromObject {
		if string(fromArray[id]) != string(raw) {
			t.Errorf("id %s: object %s, array %s", id, raw, fromArray[id])
		}
	}
}

// TestDecodeCollection_ArrayWithHoles tests that null holes are dropped
func TestDecodeCollection_ArrayWithHoles(t *testing.T) {
	coll, err := DecodeCollection(json.RawMessage(`[null,{"name":"Ravi"},null,{"name":"Meena"}]`))
	if err != nil {
		t.Fatalf("DecodeCollection() failed: %v", err)
	}
	if len(coll) != 2 {
		t.Fatalf("len = %d, want 2", len(coll))
	}
	if _, ok := coll["1"]; !ok {
		t.Error("index 1 missing from decoded collection")
	}
	if _, ok := coll["0"]; ok {
		t.Error("null hole at index 0 was kept")
	}
}

// TestDecodeCollection_Empty tests absent and null collections
func TestDecodeCollection_Empty(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
		coll, err := DecodeCollection(raw)
		if err != nil {
			t.Fatalf("DecodeCollection(%q) failed: %v", raw, err)
		}
		if len(coll) != 0 {
			t.Errorf("DecodeCollection(%q) = %d records, want 0", raw, len(coll))
		}
	}
}

// TestDecodeCollection_Scalar tests rejection of non-collection values
func TestDecodeCollection_Scalar(t *testing.T) {
	if _, err := DecodeCollection(json.RawMessage(`"oops"`)); err == nil {
		t.Error("DecodeCollection(scalar) succeeded, want error")
	}
}

// TestSortedIDs_NumericOrder tests that array-shaped ids keep store order
func TestSortedIDs_NumericOrder(t *testing.T) {
	coll := map[string]json.RawMessage{
		"10":    nil,
		"2":     nil,
		"1":     nil,
		"-Nabc": nil,
	}
	got := SortedIDs(coll)
	want := []string{"1", "2", "10", "-Nabc"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedIDs() = %v, want %v", got, want)
		}
	}
}
