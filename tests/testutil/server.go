// Package testutil provides helpers shared by package tests: a fake
// backend speaking the envelope wire format and an in-memory cache store.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tkoh/bookstore-tui/internal/store"
)

// WriteEnvelope writes a successful envelope response wrapping data.
func WriteEnvelope(t *testing.T, w http.ResponseWriter, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshaling envelope data: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"message":   "ok",
		"data":      json.RawMessage(raw),
		"timestamp": "2025-01-01T00:00:00Z",
	}); err != nil {
		t.Fatalf("writing envelope: %v", err)
	}
}

// WriteEnvelopeError writes an envelope-level failure with the given HTTP
// status and message.
func WriteEnvelopeError(t *testing.T, w http.ResponseWriter, status int, message string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   false,
		"message":   message,
		"data":      nil,
		"timestamp": "2025-01-01T00:00:00Z",
	}); err != nil {
		t.Fatalf("writing envelope: %v", err)
	}
}

// NewBackend starts a fake backend server and registers cleanup.
func NewBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// NewTestCache creates an in-memory cache store with migrations applied.
func NewTestCache(t *testing.T) *store.CacheStore {
	t.Helper()
	s, err := store.NewCacheStore(":memory:")
	if err != nil {
		t.Fatalf("creating in-memory cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
