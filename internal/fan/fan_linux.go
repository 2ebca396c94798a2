//go:build linux

package fan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CristiGvl/picoSensors/internal/hwmon"
	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// LinuxReader reads fan*_input attributes of every hwmon device.
type LinuxReader struct {
	root string
}

func newPlatformReader(root string) Reader {
	return &LinuxReader{root: root}
}

// Fans returns the fans of every hwmon chip, ordered by chip then fan index.
func (r *LinuxReader) Fans(ctx context.Context) ([]Reading, error) {
	hwmonRoot := filepath.Join(r.root, "class", "hwmon")
	if _, err := os.Stat(hwmonRoot); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", hwmonRoot, psensor.ErrUnavailable)
		}
		return nil, err
	}

	// Look for fan input files
	matches, err := filepath.Glob(filepath.Join(hwmonRoot, "hwmon*", "fan*_input"))
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool { return hwmon.Less(matches[i], matches[j]) })

	var fans []Reading
	for _, fanPath := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rpm, err := hwmon.ReadValue(fanPath)
		if err != nil {
			continue
		}

		dir := filepath.Dir(fanPath)
		base := strings.TrimSuffix(filepath.Base(fanPath), "_input")
		chip := hwmon.ReadString(filepath.Join(dir, "name"))
		if chip == "" {
			chip = filepath.Base(dir)
		}
		label := hwmon.ReadString(filepath.Join(dir, base+"_label"))
		if label == "" {
			label = base
		}

		fan := Reading{
			Key:    chip + "_" + base,
			Label:  label,
			Chip:   chip,
			Device: hwmon.Device(dir),
			RPM:    rpm,
			Min:    psensor.Unbounded,
			Max:    psensor.Unbounded,
		}
		if v, err := hwmon.ReadValue(filepath.Join(dir, base+"_min")); err == nil {
			fan.Min = v
		}
		if v, err := hwmon.ReadValue(filepath.Join(dir, base+"_max")); err == nil {
			fan.Max = v
		}
		fans = append(fans, fan)
	}
	return fans, nil
}
