package util

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// EnsureDirectoryWritable checks that path is an existing directory the
// process can create files in.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%s is not writable: %w", path, err)
	}
	return nil
}

// GetAvailableSpace returns the bytes available to unprivileged users on the
// filesystem holding path, or 0 if it cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0
	}
	return st.Bavail * uint64(st.Bsize)
}

// minFreeSpace is the free space below which CheckDiskSpace warns.
const minFreeSpace = 2 * GiB

// CheckDiskSpace reports whether path has at least 2 GiB free and logs a
// warning through logf when it does not.
func CheckDiskSpace(path string, logf func(format string, args ...any)) bool {
	avail := GetAvailableSpace(path)
	if avail == 0 || avail >= minFreeSpace {
		return true
	}
	if logf != nil {
		logf("low disk space in %s: %s available", path, FormatBytes(avail))
	}
	return false
}
