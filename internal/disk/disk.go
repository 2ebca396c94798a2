// Package disk provides the disk temperature backends: udisks2 over D-Bus,
// smartctl and the hddtemp daemon. Only one of them is used at a time.
package disk

import (
	"math"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// drive is the temperature of one disk as reported by a single query.
type drive struct {
	source string // backend specific device key
	name   string
	chip   string
	temp   float64 // degrees Celsius, NaN when the drive did not report one
	max    float64
}

func newDrive(source, name string) drive {
	return drive{source: source, name: name, chip: name, temp: math.NaN(), max: psensor.Unbounded}
}

// appendDrives appends one sensor per drive. The sensor id is prefix followed
// by the drive source.
func appendDrives(list *psensor.List, provenance psensor.Type, prefix string, drives []drive, enabled bool, now time.Time) error {
	sensors := make([]*psensor.Sensor, 0, len(drives))
	for _, d := range drives {
		s := psensor.New(prefix+" "+d.source, d.name, d.chip, provenance|psensor.HDDTemperature, d.source)
		s.SetBounds(psensor.Unbounded, d.max)
		s.SetEnabled(enabled)
		s.SetValue(d.temp, now)
		sensors = append(sensors, s)
	}
	return list.Append(sensors...)
}

// updateDrives sets the temperature of every sensor carrying the provenance
// bit. Drives missing from the query keep their previous value.
func updateDrives(list *psensor.List, provenance psensor.Type, drives []drive, now time.Time) {
	bySource := make(map[string]drive, len(drives))
	for _, d := range drives {
		bySource[d.source] = d
	}
	list.Each(func(s *psensor.Sensor) {
		if !s.Type().Has(provenance) {
			return
		}
		if d, ok := bySource[s.Source()]; ok {
			s.SetValue(d.temp, now)
		}
	})
}
