//go:build !windows

package workspace

import (
	"golang.org/x/sys/unix"
)

// isProcessRunning probes pid with signal 0. EPERM means the process exists
// but belongs to someone else.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
