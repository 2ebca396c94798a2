package registry

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/CristiGvl/picoSensors/internal/classify"
	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// Bound is an optional min or max value.
type Bound struct {
	value float64
	valid bool
}

// boundFrom translates a native bound, mapping the psensor.Unbounded sentinel
// to an absent Bound.
func boundFrom(v float64) Bound {
	if v == psensor.Unbounded || math.IsNaN(v) {
		return Bound{}
	}
	return Bound{value: v, valid: true}
}

// Some returns a present Bound.
func Some(v float64) Bound {
	return Bound{value: v, valid: true}
}

// Get returns the value and whether it is present.
func (b Bound) Get() (float64, bool) {
	return b.value, b.valid
}

// Valid reports whether the bound is present.
func (b Bound) Valid() bool {
	return b.valid
}

// Float returns the bound, NaN when absent.
func (b Bound) Float() float64 {
	if !b.valid {
		return math.NaN()
	}
	return b.value
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if !b.valid {
		return []byte("null"), nil
	}
	return json.Marshal(b.value)
}

// Sensor is the semantic view of one native sensor. It never changes after
// the owning Registry is built. Two sensors are equal iff their ids are.
type Sensor struct {
	name    string
	id      string
	chip    string
	kind    classify.Type
	min     Bound
	max     Bound
	enabled bool
}

func newSensor(h *psensor.Sensor) *Sensor {
	return &Sensor{
		name:    h.Name(),
		id:      h.ID(),
		chip:    h.Chip(),
		kind:    classify.Classify(h.Type(), h.Chip()),
		min:     boundFrom(h.Min()),
		max:     boundFrom(h.Max()),
		enabled: h.Enabled(),
	}
}

func (s *Sensor) Name() string        { return s.name }
func (s *Sensor) ID() string          { return s.id }
func (s *Sensor) Chip() string        { return s.chip }
func (s *Sensor) Kind() classify.Type { return s.kind }
func (s *Sensor) Min() Bound          { return s.min }
func (s *Sensor) Max() Bound          { return s.max }
func (s *Sensor) Enabled() bool       { return s.enabled }

// Key is the hash key of the sensor.
func (s *Sensor) Key() string {
	return s.id
}

// Equal reports whether both sensors have the same id.
func (s *Sensor) Equal(other *Sensor) bool {
	return s.id == other.id
}

// Compare orders sensors lexicographically by id.
func (s *Sensor) Compare(other *Sensor) int {
	return strings.Compare(s.id, other.id)
}

// Out reports whether v lies outside a present bound. Absent bounds and NaN
// values never report.
func (s *Sensor) Out(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if lo, ok := s.min.Get(); ok && v < lo {
		return true
	}
	if hi, ok := s.max.Get(); ok && v > hi {
		return true
	}
	return false
}

func (s *Sensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string        `json:"name"`
		ID      string        `json:"id"`
		Chip    string        `json:"chip"`
		Type    classify.Type `json:"type"`
		Min     Bound         `json:"min"`
		Max     Bound         `json:"max"`
		Enabled bool          `json:"enabled"`
	}{s.name, s.id, s.chip, s.kind, s.min, s.max, s.enabled})
}

// Sort orders sensors by id in place.
func Sort(sensors []*Sensor) {
	slices.SortFunc(sensors, (*Sensor).Compare)
}

// Bounded returns the sensors that have both a min and a max.
func Bounded(sensors []*Sensor) []*Sensor {
	var out []*Sensor
	for _, s := range sensors {
		if s.min.Valid() && s.max.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// SortByMax orders sensors by max bound, sensors without a max last.
func SortByMax(sensors []*Sensor) {
	slices.SortStableFunc(sensors, func(a, b *Sensor) int {
		av, aok := a.max.Get()
		bv, bok := b.max.Get()
		switch {
		case aok && bok:
			return cmp.Compare(av, bv)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
}
