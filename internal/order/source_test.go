package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestHTTPSourceGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/42" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("missing auth header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(Order{ID: 42, Status: "processing", Total: 12.5})
	}))
	defer srv.Close()

	s := &HTTPSource{Endpoint: srv.URL, APIKey: "key"}
	o, err := s.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID != 42 || o.Status != "processing" || o.Total != 12.5 {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestHTTPSourceRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(Order{ID: 1})
	}))
	defer srv.Close()

	s := &HTTPSource{Endpoint: srv.URL}
	if _, err := s.Get(context.Background(), 1); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected a retry, saw %d calls", calls.Load())
	}
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := &HTTPSource{Endpoint: srv.URL}
	if _, err := s.Get(context.Background(), 1); err == nil {
		t.Fatal("expected an error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, saw %d calls", calls.Load())
	}
}

func TestEffectiveProductID(t *testing.T) {
	if got := (Item{ProductID: 10}).EffectiveProductID(); got != 10 {
		t.Fatalf("expected parent id, got %d", got)
	}
	if got := (Item{ProductID: 10, VariationID: 11}).EffectiveProductID(); got != 11 {
		t.Fatalf("expected variation id, got %d", got)
	}
}
