//go:build windows

package disk

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isConnRefused reports whether nothing listens on the daemon address.
// Winsock reports WSAECONNREFUSED, not the syscall.ECONNREFUSED placeholder.
func isConnRefused(err error) bool {
	return errors.Is(err, windows.WSAECONNREFUSED)
}
