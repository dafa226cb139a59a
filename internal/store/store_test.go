package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient starts a test server with the given handler and returns
// a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return client
}

// TestNew_MissingURL tests that an empty base URL is rejected
func TestNew_MissingURL(t *testing.T) {
	_, err := New("")
	if !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("New(\"\") error = %v, want ErrMissingBaseURL", err)
	}
}

// TestNew_InvalidURL tests that a non-absolute URL is rejected
func TestNew_InvalidURL(t *testing.T) {
	for _, bad := range []string{"not-a-url", "://missing-scheme", "relative/path"} {
		if _, err := New(bad); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("New(%q) error = %v, want ErrInvalidBaseURL", bad, err)
		}
	}
}

// TestNew_TrimsTrailingSlash tests base URL normalization
func TestNew_TrimsTrailingSlash(t *testing.T) {
	client, err := New("https://example.firebaseio.com/")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if got := client.BaseURL(); got != "https://example.firebaseio.com" {
		t.Errorf("BaseURL() = %q, want trailing slash removed", got)
	}
}

// TestGet_Success tests reading a present path
func TestGet_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/students/s1.json" {
			t.Errorf("path = %s, want /students/s1.json", r.URL.Path)
		}
		io.WriteString(w, `{"name":"Asha"}`)
	})

	raw, err := client.Get(context.Background(), "students/s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got["name"] != "Asha" {
		t.Errorf("name = %q, want 'Asha'", got["name"])
	}
}

// TestGet_Absent tests that a null body reads as (nil, nil)
func TestGet_Absent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "null")
	})

	raw, err := client.Get(context.Background(), "students/missing")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if raw != nil {
		t.Errorf("Get() = %s, want nil for absent path", raw)
	}
}

// TestGet_Root tests that the tree root is addressed as /.json
func TestGet_Root(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.json" {
			t.Errorf("path = %s, want /.json", r.URL.Path)
		}
		io.WriteString(w, `{"students":{}}`)
	})

	if _, err := client.Get(context.Background(), "/"); err != nil {
		t.Fatalf("Get(\"/\") failed: %v", err)
	}
}

// TestGetInto_Decodes tests the typed read helper
func TestGetInto_Decodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"XI Curie"}`)
	})

	var sec struct {
		Name string `json:"name"`
	}
	found, err := client.GetInto(context.Background(), "sections/xi_curie", &sec)
	if err != nil {
		t.Fatalf("GetInto() failed: %v", err)
	}
	if !found {
		t.Fatal("GetInto() found = false, want true")
	}
	if sec.Name != "XI Curie" {
		t.Errorf("name = %q, want 'XI Curie'", sec.Name)
	}
}

// TestPut_SendsJSONBody tests that Put serializes the payload
func TestPut_SendsJSONBody(t *testing.T) {
	var gotMethod, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		io.WriteString(w, `{"name":"Asha"}`)
	})

	err := client.Put(context.Background(), "students/s1", map[string]string{"name": "Asha"})
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if gotBody != `{"name":"Asha"}` {
		t.Errorf("body = %s, want {\"name\":\"Asha\"}", gotBody)
	}
}

// TestPush_ReturnsGeneratedKey tests POST key extraction
func TestPush_ReturnsGeneratedKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		io.WriteString(w, `{"name":"-Nabc123"}`)
	})

	key, err := client.Push(context.Background(), "students", map[string]string{"name": "Ravi"})
	if err != nil {
		t.Fatalf("Push() failed: %v", err)
	}
	if key != "-Nabc123" {
		t.Errorf("key = %q, want '-Nabc123'", key)
	}
}

// TestDelete_UsesDeleteMethod tests the DELETE verb
func TestDelete_UsesDeleteMethod(t *testing.T) {
	var gotMethod string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		io.WriteString(w, "null")
	})

	if err := client.Delete(context.Background(), "students/s1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
}

// TestStatusError_Surfaces tests that non-2xx responses become StatusError
func TestStatusError_Surfaces(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Permission denied"}`)
	})

	_, err := client.Get(context.Background(), "students")
	if err == nil {
		t.Fatal("Get() succeeded, want StatusError")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T, want *StatusError", err)
	}
	if se.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", se.StatusCode)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Error("IsStatus(err, 401) = false, want true")
	}
}
