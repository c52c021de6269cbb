// Package testutil provides shared test helpers for pkgguard packages:
// JSON field-name assertions for the report formats and fixture writers
// for repositories on disk.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ============================================================================
// JSON Field Assertions
// ============================================================================

// AssertJSONContainsField verifies a field is present in marshalled JSON output.
func AssertJSONContainsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"`+fieldName+`"`) {
		t.Errorf("expected field %q to be present in JSON output, got:\n%s", fieldName, string(data))
	}
}

// AssertJSONOmitsField verifies a field is not present in marshalled JSON output.
func AssertJSONOmitsField(t *testing.T, v any, fieldName string) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"`+fieldName+`"`) {
		t.Errorf("expected field %q to be omitted from JSON output, got:\n%s", fieldName, string(data))
	}
}

// ============================================================================
// Fixture Writers
// ============================================================================

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
