package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// SystemInfo describes the host a run executes on.
type SystemInfo struct {
	Hostname      string
	LogicalCores  int
	PhysicalCores int
}

// GetSystemInfo collects host information for the hardware report.
func GetSystemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname:      hostname,
		LogicalCores:  LogicalCores(),
		PhysicalCores: PhysicalCores(),
	}
}

// LogicalCores returns the number of CPUs usable by the process.
func LogicalCores() int {
	return runtime.NumCPU()
}

// PhysicalCores returns the number of physical cores, or half the logical
// count when the topology is unknown.
func PhysicalCores() int {
	logical := LogicalCores()
	if n := physicalCores(); n > 0 && n <= logical {
		return n
	}
	return max(1, logical/2)
}

// countSysfsCores counts distinct (package, core) pairs under a sysfs cpu
// directory such as /sys/devices/system/cpu. It returns 0 when no topology
// is readable.
func countSysfsCores(cpuDir string) int {
	entries, err := os.ReadDir(cpuDir)
	if err != nil {
		return 0
	}

	cores := make(map[string]struct{})
	for _, e := range entries {
		n, ok := strings.CutPrefix(e.Name(), "cpu")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(n); err != nil {
			continue
		}
		topo := filepath.Join(cpuDir, e.Name(), "topology")
		core, err := readTrimmed(filepath.Join(topo, "core_id"))
		if err != nil {
			continue
		}
		pkg, _ := readTrimmed(filepath.Join(topo, "physical_package_id"))
		cores[pkg+"/"+core] = struct{}{}
	}
	return len(cores)
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
