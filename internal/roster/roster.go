// Package roster implements the lifecycle and membership operations over
// the student, teacher, and section collections.
//
// # Overview
//
// Every mutation here is a sequence of independent single-path round
// trips with nothing guarding the gaps between them: the store has no
// transactions and this package adds no locking. Membership maintenance
// in particular is a read-modify-write (see AddStudentToSection) that
// can lose an update when two clients race on the same section. The
// integrity validator is the safety net that finds the resulting drift;
// nothing here prevents it.
//
// Section references are resolved by slug: a reference may be a display
// name ("XI Amartya") or an id ("xi_amartya") and both land on the same
// section record.
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/stutra/sdb/internal/record"
	"github.com/stutra/sdb/internal/store"
)

// Options configures a Service.
type Options struct {
	// Logger receives per-record diagnostics. Defaults to stderr.
	Logger *log.Logger
}

// Service executes roster operations against one store.
type Service struct {
	tree   store.Tree
	logger *log.Logger
}

// New builds a Service over the given tree.
func New(tree store.Tree, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[roster] ", log.LstdFlags)
	}
	return &Service{tree: tree, logger: logger}
}

// getSection reads one section by id, reporting whether it exists.
func (s *Service) getSection(ctx context.Context, id string) (*record.Section, bool, error) {
	raw, err := s.tree.Get(ctx, "sections/"+id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read section %s: %w", id, err)
	}
	if raw == nil {
		return nil, false, nil
	}
	var sec record.Section
	if err := json.Unmarshal(raw, &sec); err != nil {
		return nil, false, fmt.Errorf("failed to decode section %s: %w", id, err)
	}
	sec.ID = id
	return &sec, true, nil
}
