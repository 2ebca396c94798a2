// Package gpu provides the NVIDIA and AMD GPU sensor backends.
package gpu

import (
	"os"
	"strconv"
	"strings"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// Vendor represents GPU vendor
type Vendor string

const (
	NVIDIA Vendor = "nvidia"
	AMD    Vendor = "amd"
)

// metric is one value a GPU exposes during a single query.
type metric struct {
	key   string // stable per GPU and metric, used as sensor source
	name  string
	chip  string
	typ   psensor.Type
	value float64
	max   float64
	ok    bool
}

// parseUnit parses values such as "54 C" or "31 %". "N/A" and other
// non-numeric values report false.
func parseUnit(s, unit string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), unit))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// readNumber reads a sysfs attribute holding a single number.
func readNumber(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}

// Helper function to check if file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
