// Package platform checks the host OS and assembles the sensor backends it
// can serve.
package platform

import (
	"fmt"
	"runtime"

	"github.com/CristiGvl/picoSensors/internal/config"
	"github.com/CristiGvl/picoSensors/internal/cpu"
	"github.com/CristiGvl/picoSensors/internal/disk"
	"github.com/CristiGvl/picoSensors/internal/gpu"
	"github.com/CristiGvl/picoSensors/internal/memory"
	"github.com/CristiGvl/picoSensors/internal/registry"
	"github.com/CristiGvl/picoSensors/internal/temps"
)

// SupportedOS represents supported operating systems
type SupportedOS string

const (
	Linux   SupportedOS = "linux"
	Windows SupportedOS = "windows"
)

// GetOS returns the current operating system
func GetOS() SupportedOS {
	return SupportedOS(runtime.GOOS)
}

// IsSupported returns true if the current OS is supported
func IsSupported() bool {
	os := GetOS()
	return os == Linux || os == Windows
}

// ValidateSupport returns an error if the current OS is not supported
func ValidateSupport() error {
	if !IsSupported() {
		return fmt.Errorf("unsupported operating system: %s. Supported: linux, windows", runtime.GOOS)
	}
	return nil
}

// NewBackends builds the enabled backends for the current OS. sysfs and
// D-Bus backends are left out on Windows.
func NewBackends(cfg *config.Config) registry.Backends {
	return newBackends(cfg, GetOS())
}

func newBackends(cfg *config.Config, os SupportedOS) registry.Backends {
	var b registry.Backends
	c := cfg.Backends

	if c.Nvidia.Enabled {
		b.NvidiaGPU = gpu.NewNvidia(c.Nvidia.Path, c.Nvidia.Timeout)
	}
	if c.AMD.Enabled && os == Linux {
		b.AMDGPU = gpu.NewAMD(cfg.SysfsRoot)
	}
	if c.UDisks2.Enabled && os == Linux {
		b.UDisks2 = disk.NewUDisks2(c.UDisks2.Timeout)
	}
	if c.ATASmart.Enabled {
		b.ATASmart = disk.NewATASmart(c.ATASmart.Path, c.ATASmart.Timeout)
	}
	if c.HDDTemp.Enabled {
		b.HDDTemp = disk.NewHDDTemp(c.HDDTemp.Address, c.HDDTemp.Timeout)
	}
	if c.LMSensors.Enabled {
		b.LMSensors = temps.NewLMSensors(cfg.SysfsRoot)
	}
	if c.CPU.Enabled {
		b.Extra = append(b.Extra, cpu.NewUsage())
	}
	if c.Memory.Enabled {
		b.Extra = append(b.Extra, memory.NewUsage())
	}
	return b
}
