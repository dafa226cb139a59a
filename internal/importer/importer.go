// Package importer bulk-loads section rosters into the student
// collection.
//
// # Overview
//
// An import is planned before it is applied. Planning reads one CSV
// roster per section, binds each file to a section name (derived from
// the filename or overridden by a manifest), drops files on the skip
// list, and partitions the combined batch against the students already
// in the store. Applying uploads the plan: by default any conflict
// aborts the whole upload with zero writes, and the caller may opt into
// continuing with the non-conflicting remainder instead.
//
// Uploaded students are keyed by admission number, so re-importing the
// same roster conflicts on every row rather than duplicating records.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/stutra/sdb/internal/record"
	"github.com/stutra/sdb/internal/roster"
	"github.com/stutra/sdb/internal/store"
)

// ErrConflictsFound aborts a default-policy apply: the batch had
// collisions and nothing was uploaded.
var ErrConflictsFound = errors.New("conflicts found")

// Options configures an Importer.
type Options struct {
	// ContinueWithNew uploads the non-conflicting partition instead of
	// aborting when conflicts exist.
	ContinueWithNew bool

	// DryRun reports what would be uploaded without writing anything.
	DryRun bool

	// Manifest overrides section names and extends the skip list. Nil
	// means derive everything.
	Manifest *Manifest

	// Logger receives per-row diagnostics. Defaults to stderr.
	Logger *log.Logger
}

// Result summarizes one import run.
type Result struct {
	// RunID labels the run in logs and reports.
	RunID string
	// Files is the number of roster files read.
	Files int
	// Rows is the number of data rows parsed across all files.
	Rows int
	// SkippedRows is the number of rows dropped during parsing.
	SkippedRows int
	// SkippedSections names the sections dropped by the skip list.
	SkippedSections []string
	// Conflicts holds the candidates rejected by partitioning.
	Conflicts []Conflict
	// Uploaded is the number of students written (or, in a dry run,
	// that would be written).
	Uploaded int
	// SectionsCreated is the number of section records created.
	SectionsCreated int
	// Failed is the number of uploads that errored.
	Failed int
	// Errors holds one message per failed upload.
	Errors []string
}

// Plan is a parsed, partitioned import ready to apply.
type Plan struct {
	// Files is the roster files read, in order.
	Files []string
	// SkippedSections names the sections dropped by the skip list.
	SkippedSections []string
	// Rows is the number of data rows parsed.
	Rows int
	// SkippedRows is the number of rows dropped during parsing.
	SkippedRows int
	// Fresh is the uploadable partition.
	Fresh []Candidate
	// Conflicts is the rejected partition.
	Conflicts []Conflict
}

// Importer bulk-loads rosters into one tree.
type Importer struct {
	tree store.Tree
	ros  *roster.Service
	opts Options
}

// New builds an Importer.
func New(tree store.Tree, opts Options) *Importer {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[import] ", log.LstdFlags)
	}
	return &Importer{
		tree: tree,
		ros:  roster.New(tree, roster.Options{Logger: opts.Logger}),
		opts: opts,
	}
}

// BuildPlan parses the roster files, applies the skip list, and
// partitions the batch against existing students. Unreadable files are
// fatal; bad rows are skipped and counted.
func (im *Importer) BuildPlan(ctx context.Context, files []string) (*Plan, error) {
	plan := &Plan{}
	var batch []Candidate

	for _, file := range files {
		section := im.opts.Manifest.SectionFor(file)
		if im.skip(section) {
			im.opts.Logger.Printf("skipping %s: section %q is on the skip list", file, section)
			plan.SkippedSections = append(plan.SkippedSections, section)
			continue
		}

		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open roster: %w", err)
		}
		rows, skipped, err := ParseRoster(f, im.opts.Logger)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}

		plan.Files = append(plan.Files, file)
		plan.Rows += len(rows) + skipped
		plan.SkippedRows += skipped
		for _, row := range rows {
			batch = append(batch, Candidate{ID: row.Admission, Row: row, Section: section})
		}
	}

	fresh, conflicts, err := im.Partition(ctx, batch)
	if err != nil {
		return nil, err
	}
	plan.Fresh = fresh
	plan.Conflicts = conflicts
	return plan, nil
}

// Apply uploads a plan. Under the default policy any conflict aborts
// with ErrConflictsFound and zero uploads; with ContinueWithNew the
// fresh partition is uploaded and conflicts are reported as skipped.
// Individual upload failures are counted and the loop continues.
func (im *Importer) Apply(ctx context.Context, plan *Plan) (*Result, error) {
	res := &Result{
		RunID:           uuid.NewString(),
		Files:           len(plan.Files),
		Rows:            plan.Rows,
		SkippedRows:     plan.SkippedRows,
		SkippedSections: plan.SkippedSections,
		Conflicts:       plan.Conflicts,
	}

	if len(plan.Conflicts) > 0 && !im.opts.ContinueWithNew {
		return res, fmt.Errorf("%w: %d collisions, nothing uploaded", ErrConflictsFound, len(plan.Conflicts))
	}

	// Uploads grouped by section, in first-seen order, so each section
	// record is ensured once.
	var order []string
	groups := make(map[string][]Candidate)
	for _, c := range plan.Fresh {
		if _, ok := groups[c.Section]; !ok {
			order = append(order, c.Section)
		}
		groups[c.Section] = append(groups[c.Section], c)
	}

	for _, section := range order {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if im.opts.DryRun {
			raw, err := im.tree.Get(ctx, "sections/"+record.Slug(section))
			if err == nil && raw == nil {
				res.SectionsCreated++
			}
			res.Uploaded += len(groups[section])
			continue
		}

		_, created, err := im.ros.EnsureSection(ctx, section)
		if err != nil {
			msg := fmt.Sprintf("section %q: %v", section, err)
			res.Errors = append(res.Errors, msg)
			im.opts.Logger.Printf("WARNING: failed to ensure %s", msg)
		} else if created {
			res.SectionsCreated++
		}

		for _, c := range groups[section] {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			st := &record.Student{
				Name:            c.Row.Name,
				AdmissionNumber: c.Row.Admission,
				Sections:        []string{section},
			}
			st.SetDefaults()
			if err := im.tree.Put(ctx, "students/"+c.ID, st); err != nil {
				res.Failed++
				msg := fmt.Sprintf("student %s (%s): %v", c.ID, c.Row.Name, err)
				res.Errors = append(res.Errors, msg)
				im.opts.Logger.Printf("WARNING: failed to upload %s", msg)
				continue
			}
			res.Uploaded++
			if _, _, err := im.ros.AddStudentToSection(ctx, c.ID, section); err != nil {
				im.opts.Logger.Printf("WARNING: student %s uploaded but not indexed into %q: %v", c.ID, section, err)
			}
		}
	}
	return res, nil
}

// Run plans and applies in one call.
func (im *Importer) Run(ctx context.Context, files []string) (*Result, error) {
	plan, err := im.BuildPlan(ctx, files)
	if err != nil {
		return nil, err
	}
	return im.Apply(ctx, plan)
}

func (im *Importer) skip(section string) bool {
	for _, entry := range im.opts.Manifest.SkipList() {
		if strings.EqualFold(entry, section) {
			return true
		}
	}
	return false
}
