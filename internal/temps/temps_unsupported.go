//go:build !linux && !windows

package temps

import (
	"context"
	"fmt"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// UnsupportedReader is a fallback for unsupported platforms
type UnsupportedReader struct{}

// newPlatformReader creates a fallback temperature reader for unsupported platforms
func newPlatformReader(string) Reader {
	return &UnsupportedReader{}
}

// Temperatures always reports the backend as unavailable.
func (r *UnsupportedReader) Temperatures(context.Context) ([]Reading, error) {
	return nil, fmt.Errorf("temperature monitoring: %w", psensor.ErrUnavailable)
}
