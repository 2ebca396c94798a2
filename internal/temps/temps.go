// Package temps provides the lm-sensors backend: the temperatures and fan
// speeds of every hardware monitoring chip.
package temps

import "context"

// Reading is the temperature of one chip input.
type Reading struct {
	Key         string // unique per chip, e.g. "coretemp_core_0"
	Label       string
	Chip        string
	Temperature float64
	// Device tells two identical chips apart, e.g. "nvme0". Empty when Key
	// is unique on its own.
	Device string
	// High is psensor.Unbounded when the chip reports no limit.
	High float64
}

// Reader reads every temperature input the platform reports.
type Reader interface {
	Temperatures(ctx context.Context) ([]Reading, error)
}

// NewReader creates a temperature reader for the current platform. root is
// the sysfs mount point and is ignored where there is no sysfs.
func NewReader(root string) Reader {
	return newPlatformReader(root)
}
