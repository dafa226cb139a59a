package roster

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/stutra/sdb/internal/store/storetest"
)

// newTestService builds a Service over a fresh in-memory tree with
// logging silenced.
func newTestService(t *testing.T) (*Service, *storetest.Fake) {
	t.Helper()
	f := storetest.New()
	svc := New(f, Options{Logger: log.New(io.Discard, "", 0)})
	return svc, f
}

// getJSON decodes the value stored at path into v, failing the test on
// absence or decode errors.
func getJSON(t *testing.T, f *storetest.Fake, path string, v any) {
	t.Helper()
	raw, err := f.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", path, err)
	}
	if raw == nil {
		t.Fatalf("Get(%s) returned nothing", path)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
}
