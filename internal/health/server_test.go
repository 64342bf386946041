package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func probe(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s: invalid JSON %q: %v", path, rr.Body.String(), err)
	}
	return rr.Code, body
}

func TestHealthAndReady(t *testing.T) {
	s := NewServer(":0", nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		if code, _ := probe(t, s, path); code != http.StatusOK {
			t.Fatalf("%s status=%d", path, code)
		}
	}
}

func TestReadyReportsFailingCheck(t *testing.T) {
	s := NewServer(":0", nil)
	s.AddCheck("storage", func(context.Context) error { return nil })
	s.AddCheck("amqp", func(context.Context) error { return errors.New("connection refused") })

	code, body := probe(t, s, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", code)
	}
	if body["status"] != "not_ready" {
		t.Fatalf("status field = %v", body["status"])
	}
	checks := body["checks"].(map[string]any)
	if checks["storage"] != "ok" || checks["amqp"] != "failed: connection refused" {
		t.Fatalf("unexpected checks %v", checks)
	}

	// Liveness does not depend on checks.
	if code, _ := probe(t, s, "/healthz"); code != http.StatusOK {
		t.Fatalf("healthz status=%d", code)
	}
}
