package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/sqve/tandem/internal/errors"
)

// AssertErrorContains fails if err is nil or doesn't contain substring.
func AssertErrorContains(t *testing.T, err error, substring string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substring)
	}
	if !strings.Contains(err.Error(), substring) {
		t.Fatalf("expected error containing %q, got: %v", substring, err)
	}
}

// AssertErrorCode fails unless err carries a TandemError with code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := errors.GetErrorCode(err); got != code {
		t.Fatalf("expected %s error, got code %q: %v", code, got, err)
	}
}

// AssertPathExists fails if path doesn't exist. Works for files and directories.
func AssertPathExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected path %s to exist: %v", path, err)
	}
}

// AssertFileContent fails if file content doesn't match expected byte for byte.
func AssertFileContent(t *testing.T, path, expected string) {
	t.Helper()
	if got := ReadFile(t, path); got != expected {
		t.Fatalf("file %s: expected %q, got %q", path, expected, got)
	}
}
