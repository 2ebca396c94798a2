package gpu

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

const amdVendorID = "0x1002"

// AMDGPU is the AMD GPU backend, fed by the amdgpu sysfs attributes.
type AMDGPU struct {
	root string
	now  func() time.Time
}

// NewAMD creates the backend. root is the sysfs mount point, usually "/sys".
func NewAMD(root string) *AMDGPU {
	return &AMDGPU{root: root, now: time.Now}
}

func (a *AMDGPU) Name() string { return string(AMD) }

// cards returns the device directories of every AMD card.
func (a *AMDGPU) cards() ([]string, error) {
	// Look for AMD GPUs in /sys/class/drm/
	drmPath := filepath.Join(a.root, "class", "drm")
	entries, err := os.ReadDir(drmPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", drmPath, psensor.ErrUnavailable)
		}
		return nil, fmt.Errorf("failed to read DRM directory: %w", err)
	}

	var cards []string
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "card") || strings.Contains(entry.Name(), "-") {
			continue
		}

		cardPath := filepath.Join(drmPath, entry.Name(), "device")

		// Check if it's an AMD GPU by reading vendor ID
		vendorData, err := os.ReadFile(filepath.Join(cardPath, "vendor"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(vendorData)) != amdVendorID {
			continue
		}
		cards = append(cards, cardPath)
	}
	sort.Strings(cards)
	return cards, nil
}

// Find hwmon path for AMD GPU
func findAMDHwmonPath(cardPath string) string {
	hwmonBasePath := filepath.Join(cardPath, "hwmon")
	entries, err := os.ReadDir(hwmonBasePath)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "hwmon") {
			return filepath.Join(hwmonBasePath, entry.Name())
		}
	}
	return ""
}

func (a *AMDGPU) cardMetrics(cardPath string) []metric {
	card := filepath.Base(filepath.Dir(cardPath))
	chip := "GPU (AMD) " + card
	base := psensor.ATIADL | psensor.GPU

	// The source of a sysfs sensor is the attribute it is read from.
	read := func(name, path string, typ psensor.Type, scale float64, maxPath string) metric {
		m := metric{key: path, name: name, chip: chip, typ: typ, max: psensor.Unbounded}
		v, err := readNumber(path)
		if err != nil {
			return m
		}
		m.value, m.ok = v/scale, true
		if maxPath != "" {
			if hi, err := readNumber(maxPath); err == nil {
				m.max = hi / scale
			}
		}
		return m
	}

	var metrics []metric
	if hwmonPath := findAMDHwmonPath(cardPath); hwmonPath != "" {
		// millidegrees
		metrics = append(metrics, read(card+" temperature", filepath.Join(hwmonPath, "temp1_input"),
			base|psensor.Temp, 1000, filepath.Join(hwmonPath, "temp1_crit")))
		metrics = append(metrics, read(card+" fan", filepath.Join(hwmonPath, "fan1_input"),
			base|psensor.Fan|psensor.RPM, 1, filepath.Join(hwmonPath, "fan1_max")))
	}
	if busyPath := filepath.Join(cardPath, "gpu_busy_percent"); fileExists(busyPath) {
		m := read(card+" usage", busyPath, base|psensor.Percent, 1, "")
		m.max = 100
		metrics = append(metrics, m)
	}
	return metrics
}

func (a *AMDGPU) metrics() ([]metric, error) {
	cards, err := a.cards()
	if err != nil {
		return nil, err
	}
	var metrics []metric
	for _, card := range cards {
		metrics = append(metrics, a.cardMetrics(card)...)
	}
	return metrics, nil
}

// ListAppend adds the temperature, fan and usage sensors of every AMD card.
func (a *AMDGPU) ListAppend(_ context.Context, list *psensor.List, enabled bool) error {
	metrics, err := a.metrics()
	if err != nil {
		return err
	}
	return appendMetrics(list, metrics, enabled, a.now())
}

// ListUpdate re-reads the sysfs attribute of every AMD sensor.
func (a *AMDGPU) ListUpdate(_ context.Context, list *psensor.List) error {
	now := a.now()
	var errs []error
	list.Each(func(s *psensor.Sensor) {
		if !s.Type().Has(psensor.ATIADL) {
			return
		}
		v, err := readNumber(s.Source())
		if err != nil {
			errs = append(errs, err)
			return
		}
		if s.Type().Has(psensor.Temp) {
			v /= 1000
		}
		s.SetValue(v, now)
	})
	return errors.Join(errs...)
}
