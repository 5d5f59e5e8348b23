package pathstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeServer is an in-memory pathstore.
type fakeServer struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
	auth  []string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	key := r.URL.Path[len("/kv/"):]
	switch r.Method {
	case http.MethodPut:
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFake(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	f := &fakeServer{nodes: map[string]json.RawMessage{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/", "secret")
	t.Cleanup(c.Close)
	return f, c
}

func TestClient_PutThenGet(t *testing.T) {
	f, c := newFake(t)
	ctx := context.Background()

	if err := c.PutNode(ctx, "barcoder/last", NodeRequest{Value: map[string]string{"last": "24512003"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	node, err := c.GetNode(ctx, "barcoder/last")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node == nil {
		t.Fatal("expected node, got nil")
	}
	var v struct {
		Last string `json:"last"`
	}
	if err := json.Unmarshal(node.Value, &v); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if v.Last != "24512003" {
		t.Errorf("expected %q, got %q", "24512003", v.Last)
	}
	for _, a := range f.auth {
		if a != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", a)
		}
	}
}

func TestClient_GetMissing(t *testing.T) {
	_, c := newFake(t)
	node, err := c.GetNode(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node != nil {
		t.Errorf("expected nil node, got %+v", node)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "")

	if err := c.PutNode(context.Background(), "k", NodeRequest{Value: 1}); err == nil {
		t.Error("expected error from PutNode")
	}
	if _, err := c.GetNode(context.Background(), "k"); err == nil {
		t.Error("expected error from GetNode")
	}
}

func TestClientTransientStatusIsRetryable(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		c := NewClient(srv.URL, "")

		err := c.PutNode(context.Background(), "k", NodeRequest{Value: 1})
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("put status %d: expected retryable=%v, got %v (%v)", tt.status, tt.retryable, got, err)
		}
		_, err = c.GetNode(context.Background(), "k")
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("get status %d: expected retryable=%v, got %v (%v)", tt.status, tt.retryable, got, err)
		}
		srv.Close()
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		d := Backoff(attempt)
		if d < base || d >= base+base/2 {
			t.Errorf("attempt %d: expected [%s, %s), got %s", attempt, base, base+base/2, d)
		}
	}
	if d := Backoff(10); d < 30*time.Second || d >= 45*time.Second {
		t.Errorf("expected capped backoff, got %s", d)
	}
}
