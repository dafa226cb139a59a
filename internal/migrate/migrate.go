// Package migrate converts legacy single-section student records to the
// multi-section form.
//
// # Overview
//
// A run moves through a fixed sequence: snapshot the whole tree, rewrite
// each legacy record in place, then ensure every referenced section
// exists and lists its members. The snapshot comes first because the
// store has no rollback; restoring it is the only way to undo a run
// judged to have gone wrong.
//
// Records already in the multi-section form are left untouched, so a
// second run over the same tree writes nothing. Per-record failures are
// logged, counted, and skipped; the run always finishes and reports
// partial success rather than aborting. Cancellation takes effect
// between records, never mid-write.
package migrate

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/stutra/sdb/internal/backup"
	"github.com/stutra/sdb/internal/record"
	"github.com/stutra/sdb/internal/roster"
	"github.com/stutra/sdb/internal/store"
)

// Phase tracks a run through its fixed sequence.
type Phase int

const (
	// PhaseNotStarted means Run has not been called.
	PhaseNotStarted Phase = iota
	// PhaseBackedUp means the pre-run snapshot exists.
	PhaseBackedUp
	// PhaseMigrating means records are being rewritten.
	PhaseMigrating
	// PhaseDone means the run finished, possibly with per-record
	// failures in the result.
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not started"
	case PhaseBackedUp:
		return "backed up"
	case PhaseMigrating:
		return "migrating"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Options configures a run.
type Options struct {
	// DryRun reports what would change without taking a backup or
	// writing anything.
	DryRun bool

	// BackupDir is where the pre-run snapshot lands. Defaults to the
	// current directory.
	BackupDir string

	// Logger receives per-record diagnostics. Defaults to stderr.
	Logger *log.Logger
}

// Result summarizes one run.
type Result struct {
	// RunID labels the run in logs and reports.
	RunID string
	// Scanned is the number of student records examined.
	Scanned int
	// Migrated is the number of legacy records rewritten (or, in a dry
	// run, that would be rewritten).
	Migrated int
	// AlreadyMigrated is the number of records skipped as converted.
	AlreadyMigrated int
	// Malformed is the number of records that are neither shape.
	Malformed int
	// Failed is the number of records whose rewrite failed.
	Failed int
	// SectionsCreated is the number of section records created (or, in
	// a dry run, that would be created).
	SectionsCreated int
	// BackupPath is the pre-run snapshot artifact. Empty in a dry run.
	BackupPath string
	// Errors holds one message per malformed or failed record.
	Errors []string
}

// Migrator drives the conversion over one tree.
type Migrator struct {
	tree  store.Tree
	ros   *roster.Service
	opts  Options
	phase Phase
}

// New builds a Migrator. The zero Options give a real run backed up
// into the current directory.
func New(tree store.Tree, opts Options) *Migrator {
	if opts.BackupDir == "" {
		opts.BackupDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[migrate] ", log.LstdFlags)
	}
	return &Migrator{
		tree:  tree,
		ros:   roster.New(tree, roster.Options{Logger: opts.Logger}),
		opts:  opts,
		phase: PhaseNotStarted,
	}
}

// Phase returns where the current or last run got to.
func (m *Migrator) Phase() Phase {
	return m.phase
}

// Run executes the conversion and reports what happened. The returned
// error is non-nil only for failures that stop the whole run: a failed
// backup, an unreadable students collection, or cancellation. Individual
// record failures land in the result instead.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}

	if m.opts.DryRun {
		m.opts.Logger.Printf("dry run %s: no backup taken, no writes will happen", res.RunID)
	} else {
		info, err := backup.Snapshot(ctx, m.tree, m.opts.BackupDir)
		if err != nil {
			return nil, fmt.Errorf("failed to back up before migration: %w", err)
		}
		res.BackupPath = info.Path
		m.phase = PhaseBackedUp
		m.opts.Logger.Printf("run %s: backed up tree to %s (%d bytes)", res.RunID, info.Path, info.Size)
	}

	raw, err := m.tree.Get(ctx, "students")
	if err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	coll, err := record.DecodeCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}
	m.phase = PhaseMigrating

	// Section references from converted records, in first-seen order,
	// with the ids that belong in each membership list.
	var order []string
	members := make(map[string][]string)

	for _, id := range record.SortedIDs(coll) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++

		rec := record.ClassifyStudent(id, coll[id])
		switch rec.Shape {
		case record.ShapeMigrated:
			// Converted records are never rewritten; reruns are no-ops.
			res.AlreadyMigrated++
			continue
		case record.ShapeMalformed:
			res.Malformed++
			msg := fmt.Sprintf("student %s: %s", id, rec.Problem)
			res.Errors = append(res.Errors, msg)
			m.opts.Logger.Printf("WARNING: skipping %s", msg)
			continue
		}

		name := rec.LegacySection
		if name == "" {
			name = record.SentinelSection
		}
		if !m.opts.DryRun {
			if err := m.tree.Put(ctx, "students/"+id, rec.MigratedFields([]string{name})); err != nil {
				res.Failed++
				msg := fmt.Sprintf("student %s: %v", id, err)
				res.Errors = append(res.Errors, msg)
				m.opts.Logger.Printf("WARNING: failed to rewrite %s", msg)
				continue
			}
		}
		res.Migrated++
		if _, ok := members[name]; !ok {
			order = append(order, name)
		}
		members[name] = append(members[name], id)
	}

	m.ensureSections(ctx, res, order, members)
	m.phase = PhaseDone
	return res, nil
}

// ensureSections creates a record for every referenced section that
// lacks one and backfills its students list. The sentinel never gets a
// record; references to it stay dangling on purpose.
func (m *Migrator) ensureSections(ctx context.Context, res *Result, order []string, members map[string][]string) {
	for _, name := range order {
		if record.Slug(name) == record.SentinelSection {
			continue
		}
		if m.opts.DryRun {
			raw, err := m.tree.Get(ctx, "sections/"+record.Slug(name))
			if err != nil {
				m.opts.Logger.Printf("WARNING: failed to check section %q: %v", name, err)
				continue
			}
			if raw == nil {
				res.SectionsCreated++
			}
			continue
		}

		_, created, err := m.ros.EnsureSection(ctx, name)
		if err != nil {
			msg := fmt.Sprintf("section %q: %v", name, err)
			res.Errors = append(res.Errors, msg)
			m.opts.Logger.Printf("WARNING: failed to ensure %s", msg)
			continue
		}
		if created {
			res.SectionsCreated++
		}
		for _, id := range members[name] {
			if _, _, err := m.ros.AddStudentToSection(ctx, id, name); err != nil {
				m.opts.Logger.Printf("WARNING: failed to index student %s into %q: %v", id, name, err)
			}
		}
	}
}
