package configloader

import (
	"testing"
	"time"
)

func TestRequiredStringMissing(t *testing.T) {
	if _, err := requiredString(yamlMap{}, "code"); err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestOptionalStringAbsentVsPresent(t *testing.T) {
	s, ok, err := optionalString(yamlMap{}, "x")
	if err != nil || ok || s != "" {
		t.Fatalf("got %q, %v, %v", s, ok, err)
	}

	s, ok, err = optionalString(yamlMap{"x": "hi"}, "x")
	if err != nil || !ok || s != "hi" {
		t.Fatalf("got %q, %v, %v", s, ok, err)
	}
}

func TestOptionalBoolDefault(t *testing.T) {
	if !optionalBoolDefault(yamlMap{}, "active", true) {
		t.Fatal("expected default true when key absent")
	}
	if optionalBoolDefault(yamlMap{"active": false}, "active", true) {
		t.Fatal("expected explicit false to override default")
	}
}

func TestOptionalStringMapCoercesScalars(t *testing.T) {
	m := optionalStringMap(yamlMap{"headers": yamlMap{"x-id": "1", "n": 2}}, "headers")
	if m["x-id"] != "1" || m["n"] != "2" {
		t.Fatalf("got %+v", m)
	}
}

func TestOptionalDurationFromSeconds(t *testing.T) {
	d, err := optionalDuration(yamlMap{"timeout": 5}, "timeout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil || *d != 5*time.Second {
		t.Fatalf("got %v", d)
	}
}

func TestOptionalDateTimeParsesRFC3339(t *testing.T) {
	ts, err := optionalDateTime(yamlMap{"expiration": "2026-01-01T00:00:00Z"}, "expiration")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts == nil || ts.Year() != 2026 {
		t.Fatalf("got %v", ts)
	}
}

func TestOptionalDateTimeRejectsMalformed(t *testing.T) {
	if _, err := optionalDateTime(yamlMap{"expiration": "not-a-date"}, "expiration"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestMultilineFilterCollapsesWhitespace(t *testing.T) {
	got := multilineFilter("  .a  \n   |  .b\n\n")
	if got != ".a | .b" {
		t.Fatalf("got %q", got)
	}
}

func TestStringSliceRejectsNonStringItems(t *testing.T) {
	if _, err := stringSlice([]any{"a", 2}); err == nil {
		t.Fatal("expected error for non-string sequence item")
	}
}

func TestStringSliceHappyPath(t *testing.T) {
	got, err := stringSlice([]any{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v", got)
	}
}
