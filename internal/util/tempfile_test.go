package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDirectoryWritable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "zones.json")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"writable dir", dir, false},
		{"missing", filepath.Join(dir, "missing"), true},
		{"regular file", file, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := EnsureDirectoryWritable(c.path)
			if (err != nil) != c.wantErr {
				t.Errorf("EnsureDirectoryWritable(%s) error = %v, wantErr %v", c.path, err, c.wantErr)
			}
		})
	}
}

func TestGetAvailableSpace(t *testing.T) {
	if got := GetAvailableSpace(filepath.Join(t.TempDir(), "missing")); got != 0 {
		t.Errorf("GetAvailableSpace(missing) = %d, want 0", got)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	// Unknown space is treated as sufficient.
	if !CheckDiskSpace("/nonexistent/path", nil) {
		t.Error("CheckDiskSpace on unknown path should return true")
	}

	called := false
	logger := func(format string, args ...any) { called = true }
	ok := CheckDiskSpace(t.TempDir(), logger)
	if ok == called {
		t.Error("logger should be called exactly when space is low")
	}
}
