package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCores(t *testing.T) {
	logical, physical := LogicalCores(), PhysicalCores()
	if logical < 1 || physical < 1 || physical > logical {
		t.Errorf("logical=%d physical=%d", logical, physical)
	}
	info := GetSystemInfo()
	if info.LogicalCores != logical || info.PhysicalCores != physical {
		t.Errorf("GetSystemInfo() = %+v", info)
	}
}

func TestCountSysfsCores(t *testing.T) {
	dir := t.TempDir()
	topo := []struct {
		cpu, pkg, core string
	}{
		{"cpu0", "0", "0"},
		{"cpu1", "0", "0"}, // SMT sibling
		{"cpu2", "0", "1"},
		{"cpu3", "1", "0"}, // second socket
	}
	for _, c := range topo {
		d := filepath.Join(dir, c.cpu, "topology")
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(d, "physical_package_id"), c.pkg+"\n")
		writeFile(t, filepath.Join(d, "core_id"), c.core+"\n")
	}
	// Entries that are not cpuN directories are ignored.
	for _, name := range []string{"cpufreq", "online"} {
		if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if got := countSysfsCores(dir); got != 3 {
		t.Errorf("countSysfsCores() = %d, want 3", got)
	}
	if got := countSysfsCores(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("countSysfsCores(missing) = %d, want 0", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
