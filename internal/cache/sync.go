package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/stutra/sdb/internal/roster"
)

// SyncResult summarizes one pull.
type SyncResult struct {
	// Students, Teachers, and Sections count the rows written.
	Students int
	Teachers int
	Sections int
	// Failed counts records that could not be cached.
	Failed int
}

// Syncer pulls the remote collections into the cache.
type Syncer struct {
	db     *DB
	ros    *roster.Service
	logger *log.Logger
}

// NewSyncer builds a Syncer. A nil logger goes to stderr.
func NewSyncer(db *DB, ros *roster.Service, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[cache] ", log.LstdFlags)
	}
	return &Syncer{db: db, ros: ros, logger: logger}
}

// FullSync replaces the cache contents with the remote tree's current
// state. A collection that cannot be read at all is fatal; individual
// rows that fail to store are logged, counted, and skipped.
func (s *Syncer) FullSync(ctx context.Context) (*SyncResult, error) {
	students, err := s.ros.ListStudents(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to pull students: %w", err)
	}
	teachers, err := s.ros.ListTeachers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pull teachers: %w", err)
	}
	sections, err := s.ros.ListSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pull sections: %w", err)
	}

	if err := s.db.Clear(ctx); err != nil {
		return nil, err
	}

	res := &SyncResult{}
	for _, st := range students {
		if err := s.db.UpsertStudent(ctx, st); err != nil {
			res.Failed++
			s.logger.Printf("WARNING: failed to cache student %s: %v", st.ID, err)
			continue
		}
		res.Students++
	}
	for _, tr := range teachers {
		if err := s.db.UpsertTeacher(ctx, tr); err != nil {
			res.Failed++
			s.logger.Printf("WARNING: failed to cache teacher %s: %v", tr.ID, err)
			continue
		}
		res.Teachers++
	}
	for _, sec := range sections {
		if err := s.db.UpsertSection(ctx, sec); err != nil {
			res.Failed++
			s.logger.Printf("WARNING: failed to cache section %s: %v", sec.ID, err)
			continue
		}
		res.Sections++
	}

	if err := s.db.SetLastSync(ctx, time.Now()); err != nil {
		return res, err
	}
	return res, nil
}
