// Package hwmon holds the sysfs helpers shared by the hwmon readers.
package hwmon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Device names the hardware behind a hwmon directory, e.g. "nvme0" or
// "0000:01:00.0". Unlike the hwmonN index it does not depend on the order
// drivers registered in. Devices without a "device" link fall back to the
// directory name.
func Device(dir string) string {
	target, err := filepath.EvalSymlinks(filepath.Join(dir, "device"))
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(target)
}

// Less orders input attribute paths by directory, then by input index, so
// hwmon2/fan10_input sorts after hwmon2/fan9_input.
func Less(a, b string) bool {
	da, db := filepath.Dir(a), filepath.Dir(b)
	if da != db {
		return da < db
	}
	return index(a) < index(b)
}

func index(path string) int {
	s := strings.TrimSuffix(filepath.Base(path), "_input")
	n, _ := strconv.Atoi(strings.TrimLeftFunc(s, unicode.IsLetter))
	return n
}

// ReadValue parses an integer or decimal attribute.
func ReadValue(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}

// ReadString returns the trimmed attribute, or "" when it cannot be read.
func ReadString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
