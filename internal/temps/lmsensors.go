package temps

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/CristiGvl/picoSensors/internal/fan"
	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// LMSensors is the chip backend. It reports every temperature input first,
// then every fan.
type LMSensors struct {
	temps Reader
	fans  fan.Reader
	now   func() time.Time
}

// NewLMSensors creates the backend. root is the sysfs mount point the chips
// are read from.
func NewLMSensors(root string) *LMSensors {
	return &LMSensors{
		temps: NewReader(root),
		fans:  fan.NewReader(root),
		now:   time.Now,
	}
}

func (l *LMSensors) Name() string { return "lmsensors" }

// input is one temperature or fan reading with its sensor identity.
type input struct {
	id    string
	name  string
	chip  string
	typ   psensor.Type
	value float64
	min   float64
	max   float64
}

// read queries both readers. The backend is unavailable only when neither
// of them is.
func (l *LMSensors) read(ctx context.Context) ([]input, error) {
	temps, terr := l.temps.Temperatures(ctx)
	fans, ferr := l.fans.Fans(ctx)
	if terr != nil && ferr != nil {
		return nil, errors.Join(terr, ferr)
	}

	var inputs []input
	for _, t := range temps {
		inputs = append(inputs, input{
			id:    inputID(t.Key, t.Device),
			name:  t.Label,
			chip:  FriendlyName(t.Chip),
			typ:   psensor.LMSensor | psensor.Temp,
			value: t.Temperature,
			min:   psensor.Unbounded,
			max:   t.High,
		})
	}
	for _, f := range fans {
		inputs = append(inputs, input{
			id:    inputID(f.Key, f.Device),
			name:  f.Label,
			chip:  FriendlyName(f.Chip),
			typ:   psensor.LMSensor | psensor.Fan | psensor.RPM,
			value: f.RPM,
			min:   f.Min,
			max:   f.Max,
		})
	}
	dedupe(inputs)
	return inputs, nil
}

// inputID builds the sensor id. The device keeps the ids of two identical
// chips apart and stable when one of them goes away.
func inputID(key, device string) string {
	if device == "" {
		return "lmsensors " + key
	}
	return "lmsensors " + key + "@" + device
}

// dedupe suffixes ids that are still repeated. Only inputs without a device,
// such as thermal zones of the same type, can collide.
func dedupe(inputs []input) {
	seen := make(map[string]int, len(inputs))
	for i := range inputs {
		id := inputs[i].id
		seen[id]++
		if n := seen[id]; n > 1 {
			inputs[i].id = id + "#" + strconv.Itoa(n)
		}
	}
}

// ListAppend adds one sensor per chip input.
func (l *LMSensors) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	inputs, err := l.read(ctx)
	if err != nil {
		return err
	}
	now := l.now()
	sensors := make([]*psensor.Sensor, 0, len(inputs))
	for _, in := range inputs {
		s := psensor.New(in.id, in.name, in.chip, in.typ, in.id)
		s.SetBounds(in.min, in.max)
		s.SetEnabled(enabled)
		s.SetValue(in.value, now)
		sensors = append(sensors, s)
	}
	return list.Append(sensors...)
}

// ListUpdate refreshes every lm-sensors sensor of the list. Inputs that
// disappeared keep their previous value.
func (l *LMSensors) ListUpdate(ctx context.Context, list *psensor.List) error {
	inputs, err := l.read(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]input, len(inputs))
	for _, in := range inputs {
		byID[in.id] = in
	}
	now := l.now()
	list.Each(func(s *psensor.Sensor) {
		if !s.Type().Has(psensor.LMSensor) {
			return
		}
		if in, ok := byID[s.Source()]; ok {
			s.SetValue(in.value, now)
		}
	})
	return nil
}
