// Package backup snapshots the whole tree to timestamped JSON files and
// restores from them.
//
// # Overview
//
// A snapshot is one GET of the tree root written to
// backup_YYYYMMDD_HHMMSS.json, pretty-printed so the artifact is
// diffable and hand-inspectable. A restore is the inverse: one PUT of
// the file's contents over the root, replacing everything. Restore has
// no partial mode; the tree after a successful restore is exactly the
// file.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/stutra/sdb/internal/store"
)

const (
	filePrefix  = "backup_"
	fileSuffix  = ".json"
	stampLayout = "20060102_150405"
)

// ErrInvalidBackup indicates the named file does not hold valid JSON
// and cannot be restored.
var ErrInvalidBackup = errors.New("invalid backup file")

// Info describes one backup artifact on disk.
type Info struct {
	// Path is the file's location.
	Path string
	// Size is the file's length in bytes.
	Size int64
	// CreatedAt is the snapshot time parsed from the filename.
	CreatedAt time.Time
}

// Snapshot reads the entire tree and writes it to a timestamped file in
// dir, creating dir if needed. An empty tree snapshots as JSON null.
// The file appears atomically: a write that fails partway leaves no
// artifact behind.
func Snapshot(ctx context.Context, tree store.Tree, dir string) (*Info, error) {
	raw, err := tree.Get(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("failed to read tree: %w", err)
	}
	if raw == nil {
		raw = json.RawMessage("null")
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	now := time.Now()
	path := filepath.Join(dir, filePrefix+now.Format(stampLayout)+fileSuffix)

	tmp, err := os.CreateTemp(dir, filePrefix+"*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(pretty.String()); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to finalize backup file: %w", err)
	}

	return &Info{
		Path:      path,
		Size:      int64(pretty.Len()),
		CreatedAt: now,
	}, nil
}

// Restore replaces the entire tree with the contents of the backup file
// at path. The file is validated before anything is sent; after the
// single write succeeds the previous tree contents are gone.
func Restore(ctx context.Context, tree store.Tree, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: %s", ErrInvalidBackup, path)
	}
	if err := tree.Put(ctx, "/", json.RawMessage(data)); err != nil {
		return fmt.Errorf("failed to restore tree: %w", err)
	}
	return nil
}

// List returns the backup artifacts in dir, newest first. Files not
// matching the backup naming pattern are ignored. A missing directory
// lists as empty.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		created, err := time.ParseInLocation(stampLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Path:      filepath.Join(dir, name),
			Size:      fi.Size(),
			CreatedAt: created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
