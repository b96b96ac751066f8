package faults_test

import (
	"errors"
	"strings"
	"testing"

	"partcat/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrStructure, "part XYZ123", "extract", "missing footprint", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrStructure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"part XYZ123", "extract", "missing footprint", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := faults.Wrap(faults.ErrMigration, "", "", "", nil)
	if got := err.Error(); got != "migration error: catalog failure" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := faults.Wrap(nil, "scope", "op", "msg", nil)
	if !errors.Is(err, faults.ErrStructure) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{faults.Wrap(faults.ErrSchema, "", "", "x", nil), "schema"},
		{faults.Wrap(faults.ErrDuplicate, "", "", "x", nil), "duplicate"},
		{faults.Wrap(faults.ErrMigration, "", "", "x", nil), "migration"},
		{faults.Wrap(faults.ErrNotFound, "", "", "x", nil), "not_found"},
		{errors.New("plain"), "error"},
	}
	for _, tc := range cases {
		if got := faults.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
