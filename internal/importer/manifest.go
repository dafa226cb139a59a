package importer

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultSkip lists the sections that are already in the store and must
// not be imported again. The comparison is case-insensitive.
var DefaultSkip = []string{"XI Raman"}

// Manifest carries per-run import overrides:
//
//	skip = ["XI Tagore"]
//
//	[sections]
//	"odd-name.csv" = "XI Curie"
//
// Section entries are keyed by base filename and replace the name
// derivation for that file. Skip entries extend the built-in list.
type Manifest struct {
	Skip     []string          `toml:"skip"`
	Sections map[string]string `toml:"sections"`
}

// LoadManifest reads a TOML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", path, err)
	}
	return &m, nil
}

// SectionFor returns the section name for a roster file: the manifest
// entry when present, otherwise the derived name. A nil manifest always
// derives.
func (m *Manifest) SectionFor(file string) string {
	if m != nil {
		if name, ok := m.Sections[filepath.Base(file)]; ok {
			return name
		}
	}
	return DeriveSectionName(file)
}

// SkipList returns the built-in skip entries plus the manifest's.
func (m *Manifest) SkipList() []string {
	out := append([]string(nil), DefaultSkip...)
	if m != nil {
		out = append(out, m.Skip...)
	}
	return out
}
