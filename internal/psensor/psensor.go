// Package psensor is the native sensor layer shared by every backend: raw
// capability bitmasks, sensor handles and the list they are appended to.
package psensor

import (
	"context"
	"errors"
	"math"
	"time"
)

// Type is a backend-reported capability bitmask.
type Type uint32

const (
	// Kind of value
	Temp    Type = 0x00001
	RPM     Type = 0x00002
	Percent Type = 0x00004

	Remote Type = 0x00008

	// Library the sensor was discovered through
	LMSensor Type = 0x00100
	NVCtrl   Type = 0x00200
	GTop     Type = 0x00400
	ATIADL   Type = 0x00800
	ATASmart Type = 0x01000
	Hddtemp  Type = 0x02000
	UDisks2  Type = 0x800000

	// Hardware component
	HDD Type = 0x04000
	CPU Type = 0x08000
	GPU Type = 0x10000
	Fan Type = 0x20000

	Graphics Type = 0x40000
	Video    Type = 0x80000
	PCIe     Type = 0x100000
	Memory   Type = 0x200000
	Ambient  Type = 0x400000

	HDDTemperature = HDD | Temp
	CPUUsage       = CPU | Percent

	// Provenance holds every library bit.
	Provenance = LMSensor | NVCtrl | GTop | ATIADL | ATASmart | Hddtemp | UDisks2
)

// Has reports whether any bit of mask is set.
func (t Type) Has(mask Type) bool {
	return t&mask != 0
}

// Capabilities returns the bitmask without provenance bits.
func (t Type) Capabilities() Type {
	return t &^ Provenance
}

// Unbounded is the min/max value backends use for "no bound configured".
const Unbounded = 0x1p-1022

var (
	// ErrUnavailable marks a backend whose device source is not present.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrFreed is returned by a List after Free.
	ErrFreed = errors.New("sensor list already freed")
)

// Backend discovers sensors into a List and refreshes them in place.
type Backend interface {
	Name() string
	ListAppend(ctx context.Context, list *List, enabled bool) error
	ListUpdate(ctx context.Context, list *List) error
}

// Prober is a Backend that must be probed before it is used.
type Prober interface {
	Backend
	Supported(ctx context.Context) (bool, error)
}

// Sensor is a single native sensor handle.
type Sensor struct {
	id      string
	name    string
	chip    string
	typ     Type
	source  string
	min     float64
	max     float64
	enabled bool

	value float64
	at    time.Time
}

// New creates a sensor handle without bounds and without a sampled value.
// source is private to the backend that creates the handle, typically a file
// path or device name used to refresh it.
func New(id, name, chip string, typ Type, source string) *Sensor {
	return &Sensor{
		id:      id,
		name:    name,
		chip:    chip,
		typ:     typ,
		source:  source,
		min:     Unbounded,
		max:     Unbounded,
		enabled: true,
		value:   math.NaN(),
	}
}

func (s *Sensor) ID() string     { return s.id }
func (s *Sensor) Name() string   { return s.name }
func (s *Sensor) Chip() string   { return s.chip }
func (s *Sensor) Type() Type     { return s.typ }
func (s *Sensor) Source() string { return s.source }
func (s *Sensor) Min() float64   { return s.min }
func (s *Sensor) Max() float64   { return s.max }
func (s *Sensor) Enabled() bool  { return s.enabled }

// SetBounds sets min and max, either may be Unbounded.
func (s *Sensor) SetBounds(min, max float64) {
	s.min = min
	s.max = max
}

// SetEnabled toggles whether the sensor is monitored.
func (s *Sensor) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// SetValue records a sampled value.
func (s *Sensor) SetValue(v float64, at time.Time) {
	s.value = v
	s.at = at
}

// Value returns the last sampled value, NaN if never sampled.
func (s *Sensor) Value() float64 {
	return s.value
}

// SampledAt returns when the current value was sampled.
func (s *Sensor) SampledAt() time.Time {
	return s.at
}
