//go:build windows

package fan

import (
	"context"
	"fmt"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/StackExchange/wmi"
)

// WindowsReader reads fans through WMI Win32_Fan.
type WindowsReader struct{}

func newPlatformReader(string) Reader {
	return &WindowsReader{}
}

// Win32_Fan represents WMI Win32_Fan class
type Win32_Fan struct {
	DeviceID     string
	Name         string
	DesiredSpeed uint64
}

// Fans returns one reading per Win32_Fan instance. Most firmwares report no
// fan at all, which is not an error.
func (r *WindowsReader) Fans(ctx context.Context) ([]Reading, error) {
	var wmiFans []Win32_Fan
	if err := wmi.Query("SELECT DeviceID, Name, DesiredSpeed FROM Win32_Fan", &wmiFans); err != nil {
		return nil, fmt.Errorf("%w: %v", psensor.ErrUnavailable, err)
	}

	fans := make([]Reading, 0, len(wmiFans))
	for _, wmiFan := range wmiFans {
		label := wmiFan.Name
		if label == "" {
			label = fmt.Sprintf("Fan %s", wmiFan.DeviceID)
		}
		fans = append(fans, Reading{
			Key:   "wmi_" + wmiFan.DeviceID,
			Label: label,
			Chip:  "WMI",
			RPM:   float64(wmiFan.DesiredSpeed),
			Min:   psensor.Unbounded,
			Max:   psensor.Unbounded,
		})
	}
	return fans, nil
}
