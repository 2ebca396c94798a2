// Package fan reads fan speeds from the platform hardware monitor.
package fan

import "context"

// Reading is the speed of one fan.
type Reading struct {
	Key   string // unique per chip, e.g. "nct6775_fan2"
	Label string
	Chip  string
	// Device tells two identical chips apart, e.g. "nct6775.656". Empty
	// when Key is unique on its own.
	Device string
	RPM    float64
	// Min and Max are psensor.Unbounded when the driver exposes no limit.
	Min float64
	Max float64
}

// Reader reads every fan the platform reports.
type Reader interface {
	Fans(ctx context.Context) ([]Reading, error)
}

// NewReader creates a fan reader for the current platform. root is the sysfs
// mount point and is ignored where there is no sysfs.
func NewReader(root string) Reader {
	return newPlatformReader(root)
}
