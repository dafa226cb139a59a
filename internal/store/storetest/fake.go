// Package storetest provides an in-memory store.Tree for package tests:
// a JSON tree with the same path semantics as the remote store, plus
// fault injection and an operation log for assertions.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-memory JSON tree implementing store.Tree. The zero value
// is not usable; construct with New.
type Fake struct {
	mu     sync.Mutex
	root   any
	pushN  int
	faults map[string]error
	ops    []string
}

// New returns an empty tree.
func New() *Fake {
	return &Fake{faults: make(map[string]error)}
}

// Seed sets the value at path without logging an operation.
func (f *Fake) Seed(path string, v any) {
	decoded, err := toAny(v)
	if err != nil {
		panic(fmt.Sprintf("storetest: cannot seed %s: %v", path, err))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(segments(path), decoded)
}

// SeedJSON sets the value at path from a JSON literal.
func (f *Fake) SeedJSON(path, data string) {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		panic(fmt.Sprintf("storetest: bad JSON for %s: %v", path, err))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(segments(path), v)
}

// Fail makes every subsequent call with the given op (GET, PUT, POST,
// DELETE) and path return err.
func (f *Fake) Fail(op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op+" "+normalize(path)] = err
}

// Ops returns the operations performed so far, oldest first, each as
// "VERB path".
func (f *Fake) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

// OpCount returns how many logged operations start with prefix.
func (f *Fake) OpCount(prefix string) int {
	n := 0
	for _, op := range f.Ops() {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

// Get implements store.Tree.
func (f *Fake) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GET", path); err != nil {
		return nil, err
	}
	node, ok := f.walk(segments(path))
	if !ok || node == nil {
		return nil, nil
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Put implements store.Tree.
func (f *Fake) Put(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	decoded, err := toAny(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("PUT", path); err != nil {
		return err
	}
	f.set(segments(path), decoded)
	return nil
}

// Push implements store.Tree.
func (f *Fake) Push(ctx context.Context, path string, v any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	decoded, err := toAny(v)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("POST", path); err != nil {
		return "", err
	}
	f.pushN++
	key := fmt.Sprintf("-N%06d", f.pushN)
	f.set(append(segments(path), key), decoded)
	return key, nil
}

// Delete implements store.Tree.
func (f *Fake) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DELETE", path); err != nil {
		return err
	}
	segs := segments(path)
	if len(segs) == 0 {
		f.root = nil
		return nil
	}
	parent, ok := f.walk(segs[:len(segs)-1])
	if !ok {
		return nil
	}
	if m, ok := parent.(map[string]any); ok {
		delete(m, segs[len(segs)-1])
	}
	return nil
}

func (f *Fake) record(op, path string) error {
	key := op + " " + normalize(path)
	f.ops = append(f.ops, key)
	if err, ok := f.faults[key]; ok {
		return err
	}
	return nil
}

func (f *Fake) walk(segs []string) (any, bool) {
	node := f.root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

func (f *Fake) set(segs []string, v any) {
	if len(segs) == 0 {
		f.root = v
		return
	}
	m, ok := f.root.(map[string]any)
	if !ok {
		m = make(map[string]any)
		f.root = m
	}
	for _, seg := range segs[:len(segs)-1] {
		child, ok := m[seg].(map[string]any)
		if !ok {
			child = make(map[string]any)
			m[seg] = child
		}
		m = child
	}
	m[segs[len(segs)-1]] = v
}

func normalize(path string) string {
	return strings.Trim(path, "/")
}

func segments(path string) []string {
	p := normalize(path)
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func toAny(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
