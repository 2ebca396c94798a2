//go:build windows

package temps

import (
	"context"
	"fmt"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/StackExchange/wmi"
)

// WindowsReader implements temperature monitoring for Windows
type WindowsReader struct{}

// newPlatformReader creates a new Windows temperature reader
func newPlatformReader(string) Reader {
	return &WindowsReader{}
}

// Win32_PerfRawData_Counters_ThermalZoneInformation represents thermal zone data
type Win32_PerfRawData_Counters_ThermalZoneInformation struct {
	Name        string
	Temperature uint64
}

// Temperatures reads the ACPI thermal zones.
func (r *WindowsReader) Temperatures(ctx context.Context) ([]Reading, error) {
	var zones []Win32_PerfRawData_Counters_ThermalZoneInformation
	if err := wmi.Query("SELECT Name, Temperature FROM Win32_PerfRawData_Counters_ThermalZoneInformation", &zones); err != nil {
		return nil, fmt.Errorf("%w: %v", psensor.ErrUnavailable, err)
	}

	readings := make([]Reading, 0, len(zones))
	for _, zone := range zones {
		// Kelvin
		celsius := float64(zone.Temperature) - 273.15

		// Skip unrealistic temperatures
		if celsius < -50 || celsius > 150 {
			continue
		}

		readings = append(readings, Reading{
			Key:         "acpitz_" + zone.Name,
			Label:       fmt.Sprintf("Thermal Zone %s", zone.Name),
			Chip:        "acpitz",
			Temperature: celsius,
			High:        psensor.Unbounded,
		})
	}
	return readings, nil
}
