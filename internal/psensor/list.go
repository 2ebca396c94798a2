package psensor

import "fmt"

// List is the array of sensor handles every backend appends to. A List is
// not safe for concurrent use.
type List struct {
	sensors []*Sensor
	freed   bool
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// Append adds handles at the end of the list.
func (l *List) Append(sensors ...*Sensor) error {
	if l.freed {
		return ErrFreed
	}
	l.sensors = append(l.sensors, sensors...)
	return nil
}

// Size returns the number of handles, 0 once freed.
func (l *List) Size() int {
	return len(l.sensors)
}

// At returns the handle at position i.
func (l *List) At(i int) (*Sensor, error) {
	if l.freed {
		return nil, ErrFreed
	}
	if i < 0 || i >= len(l.sensors) {
		return nil, fmt.Errorf("sensor index %d out of range [0,%d)", i, len(l.sensors))
	}
	return l.sensors[i], nil
}

// Each calls fn for every handle in order. Nothing is visited once freed.
func (l *List) Each(fn func(*Sensor)) {
	for _, s := range l.sensors {
		fn(s)
	}
}

// Lookup returns the first handle with the given id.
func (l *List) Lookup(id string) (*Sensor, bool) {
	for _, s := range l.sensors {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// Truncate drops every handle at position n and beyond.
func (l *List) Truncate(n int) error {
	if l.freed {
		return ErrFreed
	}
	if n < 0 || n > len(l.sensors) {
		return fmt.Errorf("truncate to %d out of range [0,%d]", n, len(l.sensors))
	}
	clear(l.sensors[n:])
	l.sensors = l.sensors[:n]
	return nil
}

// Free releases every handle. It may only be called once.
func (l *List) Free() error {
	if l.freed {
		return ErrFreed
	}
	clear(l.sensors)
	l.sensors = nil
	l.freed = true
	return nil
}

// Freed reports whether Free was called.
func (l *List) Freed() bool {
	return l.freed
}
