package compose

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fusion-gw/fusion/internal/domain"
)

func TestDoAppliesParamsHeadersAndParamAuth(t *testing.T) {
	var gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("X-Test")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	source := &domain.Source{
		Code:    "s1",
		URL:     srv.URL,
		Params:  map[string]string{"a": "1"},
		Headers: map[string]string{"X-Test": "yes"},
		Auth:    domain.ParamAuth("key", "secret"),
		Body:    domain.NoBody,
	}

	body, err := New().Do(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("expected valid json body, got %q: %v", body, err)
	}
	if gotHeader != "yes" {
		t.Fatalf("expected header to be forwarded, got %q", gotHeader)
	}
	if gotQuery == "" {
		t.Fatalf("expected query params to be set")
	}
}

func TestDoReturnsErrorOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	source := &domain.Source{Code: "s1", URL: srv.URL}
	if _, err := New().Do(context.Background(), source); err == nil {
		t.Fatalf("expected error for non-OK upstream status")
	}
}

func TestDoRespectsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	timeout := 5 * time.Millisecond
	source := &domain.Source{Code: "s1", URL: srv.URL, Timeout: &timeout}

	if _, err := New().Do(context.Background(), source); err == nil {
		t.Fatalf("expected timeout error")
	}
}
