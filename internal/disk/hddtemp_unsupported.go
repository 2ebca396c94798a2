//go:build !linux && !windows

package disk

import (
	"errors"
	"syscall"
)

// isConnRefused reports whether nothing listens on the daemon address.
func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
