//go:build windows

package workspace

import (
	"golang.org/x/sys/windows"
)

// isProcessRunning reports whether pid still names a live process. A handle
// that cannot be opened counts as dead, which lets a stale lock be reclaimed.
func isProcessRunning(pid int) bool {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid)) //nolint:gosec // PIDs fit in uint32
	if err != nil {
		return false
	}
	_ = windows.CloseHandle(handle)
	return true
}
