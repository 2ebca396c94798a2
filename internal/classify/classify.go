// Package classify maps raw backend capability bitmasks to semantic sensor types.
package classify

import (
	"fmt"
	"strings"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// Type is the semantic category of a sensor.
type Type int

const (
	Other Type = iota
	OtherTemp
	HDD
	CPU
	GPU
	Fan
)

var typeNames = map[Type]string{
	Other:     "other",
	OtherTemp: "other_temp",
	HDD:       "hdd",
	CPU:       "cpu",
	GPU:       "gpu",
	Fan:       "fan",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsTemp reports whether sensors of this type measure a temperature.
func (t Type) IsTemp() bool {
	switch t {
	case OtherTemp, HDD, CPU, GPU:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Parse returns the Type named s, case-insensitively.
func Parse(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return Other, fmt.Errorf("unknown sensor type %q", s)
}

// rule is one tier of the classification table.
type rule struct {
	name  string
	match func(raw psensor.Type) bool
	kind  func(raw psensor.Type) Type
}

func is(t Type) func(psensor.Type) Type {
	return func(psensor.Type) Type { return t }
}

func anyBit(mask psensor.Type) func(psensor.Type) bool {
	return func(raw psensor.Type) bool { return raw.Has(mask) }
}

// exactly matches when the capability bits equal mask, ignoring which
// library reported the sensor.
func exactly(mask psensor.Type) func(psensor.Type) bool {
	return func(raw psensor.Type) bool { return raw.Capabilities() == mask }
}

func vendorGPU(raw psensor.Type) Type {
	switch {
	case raw.Has(psensor.Temp):
		return GPU
	case raw.Has(psensor.RPM):
		return Fan
	}
	// graphics, video, memory, PCIe or plain usage
	return Other
}

// rules are evaluated top to bottom, the first match wins. The last rule
// matches everything.
var rules = []rule{
	{name: "nvidia", match: anyBit(psensor.NVCtrl), kind: vendorGPU},
	{name: "amd", match: anyBit(psensor.ATIADL), kind: vendorGPU},
	{name: "hdd temperature", match: exactly(psensor.HDDTemperature), kind: is(HDD)},
	{name: "cpu usage", match: exactly(psensor.CPUUsage), kind: is(Other)},
	{name: "rpm", match: anyBit(psensor.RPM), kind: is(Fan)},
	{name: "cpu", match: anyBit(psensor.CPU), kind: is(CPU)},
	{name: "temperature", match: anyBit(psensor.Temp), kind: is(OtherTemp)},
	{name: "remote", match: anyBit(psensor.Remote), kind: is(Other)},
	{name: "memory", match: anyBit(psensor.Memory), kind: is(Other)},
	{name: "default", match: func(psensor.Type) bool { return true }, kind: is(Other)},
}

// FromRaw classifies a capability bitmask. It never fails: unknown
// combinations fall through to Other.
func FromRaw(raw psensor.Type) Type {
	for _, r := range rules {
		if r.match(raw) {
			return r.kind(raw)
		}
	}
	return Other
}

// ByChip refines an unclassified temperature sensor using its chip name.
// Any other type is returned unchanged.
func ByChip(t Type, chip string) Type {
	if t != OtherTemp {
		return t
	}
	switch {
	case strings.Contains(chip, "CPU"):
		return CPU
	case strings.Contains(chip, "GPU"):
		return GPU
	}
	return t
}

// Classify runs FromRaw followed by the chip name override.
func Classify(raw psensor.Type, chip string) Type {
	return ByChip(FromRaw(raw), chip)
}
