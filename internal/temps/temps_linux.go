//go:build linux

package temps

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CristiGvl/picoSensors/internal/hwmon"
	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/shirou/gopsutil/v3/common"
	"github.com/shirou/gopsutil/v3/host"
)

// LinuxReader reads the hwmon temperature inputs under a sysfs root.
type LinuxReader struct {
	root string
}

// newPlatformReader creates a new Linux temperature reader
func newPlatformReader(root string) Reader {
	return &LinuxReader{root: root}
}

// Temperatures returns every hwmon temp*_input, ordered by chip then input
// index. Without hwmon inputs it falls back to gopsutil, which also knows the
// legacy thermal zone layout.
func (r *LinuxReader) Temperatures(ctx context.Context) ([]Reading, error) {
	matches, err := filepath.Glob(filepath.Join(r.root, "class", "hwmon", "hwmon*", "temp*_input"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return r.fallback(ctx)
	}
	sort.Slice(matches, func(i, j int) bool { return hwmon.Less(matches[i], matches[j]) })

	readings := make([]Reading, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		milli, err := hwmon.ReadValue(path)
		if err != nil {
			continue
		}

		dir := filepath.Dir(path)
		base := strings.TrimSuffix(filepath.Base(path), "_input")
		chip := hwmon.ReadString(filepath.Join(dir, "name"))
		if chip == "" {
			chip = filepath.Base(dir)
		}
		// Same key format as gopsutil: "Package id 0" -> "package_id_0".
		label := hwmon.ReadString(filepath.Join(dir, base+"_label"))
		suffix := strings.Join(strings.Fields(strings.ToLower(label)), "_")
		if label == "" {
			label, suffix = base, base
		}

		reading := Reading{
			Key:         chip + "_" + suffix,
			Label:       label,
			Chip:        chip,
			Temperature: milli / 1000,
			Device:      hwmon.Device(dir),
			High:        psensor.Unbounded,
		}
		if v, err := hwmon.ReadValue(filepath.Join(dir, base+"_max")); err == nil && v != 0 {
			reading.High = v / 1000
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// fallback reads through gopsutil with HOST_SYS pointed at the reader root.
// Thermal zones carry no device, their keys are the zone types.
func (r *LinuxReader) fallback(ctx context.Context) ([]Reading, error) {
	ctx = context.WithValue(ctx, common.EnvKey, common.EnvMap{common.HostSysEnvKey: r.root})
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return nil, err
	}
	// gopsutil returns partial results along with a warning for the inputs it
	// could not read.

	readings := make([]Reading, 0, len(temps))
	for _, temp := range temps {
		chip, label, ok := strings.Cut(temp.SensorKey, "_")
		if !ok {
			label = chip
		}
		high := temp.High
		if high == 0 {
			high = psensor.Unbounded
		}
		readings = append(readings, Reading{
			Key:         temp.SensorKey,
			Label:       label,
			Chip:        chip,
			Temperature: temp.Temperature,
			High:        high,
		})
	}
	return readings, nil
}
