//go:build !linux && !windows

package fan

import (
	"context"
	"fmt"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// UnsupportedReader is a fallback for unsupported platforms
type UnsupportedReader struct{}

func newPlatformReader(string) Reader {
	return &UnsupportedReader{}
}

// Fans always reports the backend as unavailable.
func (r *UnsupportedReader) Fans(context.Context) ([]Reading, error) {
	return nil, fmt.Errorf("fan monitoring: %w", psensor.ErrUnavailable)
}
