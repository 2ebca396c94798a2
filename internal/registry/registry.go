// Package registry aggregates the sensors of every backend into one ordered,
// classified list and re-samples them on demand.
//
// A Registry is owned by a single caller: New, Update and Close must not run
// concurrently. Backends mutate the native list in place while they refresh.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/sirupsen/logrus"
)

var (
	// ErrClosed is returned by Update and Close once the registry is closed.
	ErrClosed = errors.New("sensor registry closed")
	// ErrShapeChanged is returned when a backend resized the native list
	// during an update.
	ErrShapeChanged = errors.New("native sensor list changed size")
)

// Backends lists the collaborators a Registry queries. They are always
// queried in field order; nil backends are skipped. Exactly one disk
// temperature backend is used: UDisks2 if supported, else ATASmart if
// supported, else HDDTemp.
type Backends struct {
	NvidiaGPU psensor.Backend
	AMDGPU    psensor.Backend
	UDisks2   psensor.Prober
	ATASmart  psensor.Prober
	HDDTemp   psensor.Backend
	LMSensors psensor.Backend
	// Extra backends are queried after LMSensors, in order.
	Extra []psensor.Backend
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger backend failures are reported to.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// WithEnabled sets the enabled flag passed to every backend on discovery.
func WithEnabled(enabled bool) Option {
	return func(r *Registry) {
		r.enabled = enabled
	}
}

// noCopy makes go vet flag copies of the struct that embeds it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// nativeList owns the psensor list and its length. Only New creates one and
// only Close frees it.
type nativeList struct {
	_    noCopy
	list *psensor.List
	size int
}

// entry pairs a native handle with its semantic sensor.
type entry struct {
	handle *psensor.Sensor
	sensor *Sensor
}

// Registry owns every discovered sensor for one polling session.
type Registry struct {
	backends Backends
	log      *logrus.Entry
	enabled  bool

	native *nativeList
	table  []entry
}

// Reading is a sensor paired with the value sampled by an Update.
type Reading struct {
	Sensor *Sensor
	Value  float64
	Time   time.Time
}

// Alarm reports whether the value lies outside the sensor bounds.
func (r Reading) Alarm() bool {
	return r.Sensor.Out(r.Value)
}

func (r Reading) MarshalJSON() ([]byte, error) {
	var value *float64
	if !math.IsNaN(r.Value) {
		value = &r.Value
	}
	var at *time.Time
	if !r.Time.IsZero() {
		at = &r.Time
	}
	return json.Marshal(struct {
		ID    string     `json:"id"`
		Value *float64   `json:"value"`
		Time  *time.Time `json:"time,omitempty"`
		Alarm bool       `json:"alarm"`
	}{r.Sensor.ID(), value, at, r.Alarm()})
}

// New queries every backend once and builds the sensor list. It fails only
// when the disk temperature backend cannot be selected or its discovery
// fails; other backends that fail contribute no sensors.
func New(ctx context.Context, backends Backends, opts ...Option) (*Registry, error) {
	r := &Registry{
		backends: backends,
		log:      logrus.NewEntry(logrus.StandardLogger()).WithField("component", "registry"),
		enabled:  true,
	}
	for _, opt := range opts {
		opt(r)
	}

	list := psensor.NewList()
	if err := r.discover(ctx, list); err != nil {
		_ = list.Free()
		return nil, err
	}

	r.native = &nativeList{list: list, size: list.Size()}
	r.table = make([]entry, 0, r.native.size)
	for i := 0; i < r.native.size; i++ {
		h, err := list.At(i)
		if err != nil {
			_ = list.Free()
			return nil, err
		}
		r.table = append(r.table, entry{handle: h, sensor: newSensor(h)})
	}

	r.log.Debugf("discovered %d sensors", len(r.table))
	return r, nil
}

func (r *Registry) discover(ctx context.Context, list *psensor.List) error {
	for _, b := range r.gpuBackends() {
		r.softAppend(ctx, b, list)
	}

	disk, err := r.diskBackend(ctx)
	if err != nil {
		return err
	}
	if disk != nil {
		if err := appendTo(ctx, disk, list, r.enabled); err != nil {
			if !errors.Is(err, psensor.ErrUnavailable) {
				return fmt.Errorf("disk backend %s: %w", disk.Name(), err)
			}
			r.log.WithField("backend", disk.Name()).Debugf("skipped: %v", err)
		}
	}

	for _, b := range r.chipBackends() {
		r.softAppend(ctx, b, list)
	}
	return nil
}

// softAppend runs a discovery whose failure must not abort the registry.
func (r *Registry) softAppend(ctx context.Context, b psensor.Backend, list *psensor.List) {
	err := appendTo(ctx, b, list, r.enabled)
	r.report(b, "discovery", err)
}

// appendTo runs a backend discovery and rolls the list back if it fails.
func appendTo(ctx context.Context, b psensor.Backend, list *psensor.List, enabled bool) error {
	mark := list.Size()
	if err := b.ListAppend(ctx, list, enabled); err != nil {
		if terr := list.Truncate(mark); terr != nil {
			return errors.Join(err, terr)
		}
		return err
	}
	return nil
}

func (r *Registry) report(b psensor.Backend, op string, err error) {
	if err == nil {
		return
	}
	l := r.log.WithField("backend", b.Name())
	if errors.Is(err, psensor.ErrUnavailable) {
		l.Debugf("%s skipped: %v", op, err)
		return
	}
	l.WithError(err).Warnf("%s failed", op)
}

func (r *Registry) gpuBackends() []psensor.Backend {
	var out []psensor.Backend
	for _, b := range []psensor.Backend{r.backends.NvidiaGPU, r.backends.AMDGPU} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (r *Registry) chipBackends() []psensor.Backend {
	var out []psensor.Backend
	if r.backends.LMSensors != nil {
		out = append(out, r.backends.LMSensors)
	}
	for _, b := range r.backends.Extra {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

// diskBackend selects the disk temperature backend. The probes are not
// cached and must keep answering the same way for the registry lifetime.
func (r *Registry) diskBackend(ctx context.Context) (psensor.Backend, error) {
	for _, p := range []psensor.Prober{r.backends.UDisks2, r.backends.ATASmart} {
		if p == nil {
			continue
		}
		ok, err := p.Supported(ctx)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", p.Name(), err)
		}
		if ok {
			return p, nil
		}
	}
	if r.backends.HDDTemp == nil {
		return nil, nil
	}
	return r.backends.HDDTemp, nil
}

// Len returns the number of sensors, 0 once closed.
func (r *Registry) Len() int {
	return len(r.table)
}

// Sensors returns every sensor in discovery order.
func (r *Registry) Sensors() []*Sensor {
	if r.native == nil {
		return nil
	}
	out := make([]*Sensor, len(r.table))
	for i, e := range r.table {
		out[i] = e.sensor
	}
	return out
}

// Lookup returns the sensor with the given id.
func (r *Registry) Lookup(id string) (*Sensor, bool) {
	if r.native == nil {
		return nil, false
	}
	for _, e := range r.table {
		if e.sensor.id == id {
			return e.sensor, true
		}
	}
	return nil, false
}

// Update refreshes every backend and returns one reading per sensor, in
// discovery order. A backend that fails to refresh keeps its previous
// values. Update blocks for as long as the slowest backend; callers bound
// it through ctx.
func (r *Registry) Update(ctx context.Context) ([]Reading, error) {
	if r.native == nil {
		return nil, ErrClosed
	}
	list := r.native.list

	for _, b := range r.gpuBackends() {
		r.report(b, "update", b.ListUpdate(ctx, list))
	}

	disk, err := r.diskBackend(ctx)
	if err != nil {
		return nil, err
	}
	if disk != nil {
		r.report(disk, "update", disk.ListUpdate(ctx, list))
	}

	for _, b := range r.chipBackends() {
		r.report(b, "update", b.ListUpdate(ctx, list))
	}

	if list.Size() != r.native.size {
		return nil, fmt.Errorf("%w: %d sensors, expected %d", ErrShapeChanged, list.Size(), r.native.size)
	}

	readings := make([]Reading, len(r.table))
	for i, e := range r.table {
		readings[i] = Reading{
			Sensor: e.sensor,
			Value:  e.handle.Value(),
			Time:   e.handle.SampledAt(),
		}
	}
	return readings, nil
}

// Close releases the native list. The registry is unusable afterwards.
func (r *Registry) Close() error {
	if r.native == nil {
		return ErrClosed
	}
	err := r.native.list.Free()
	r.native = nil
	r.table = nil
	return err
}
