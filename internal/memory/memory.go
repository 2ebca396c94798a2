// Package memory provides the memory usage backend.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/shirou/gopsutil/v3/mem"
)

const sensorID = "gtop2 mem usage"

// Usage reports the share of physical memory in use.
type Usage struct {
	percent func(ctx context.Context) (float64, error)
	now     func() time.Time
}

func NewUsage() *Usage {
	return &Usage{percent: percent, now: time.Now}
}

func percent(ctx context.Context) (float64, error) {
	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return memInfo.UsedPercent, nil
}

func (u *Usage) Name() string { return "memory" }

// ListAppend adds the memory usage sensor.
func (u *Usage) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	v, err := u.percent(ctx)
	if err != nil {
		return fmt.Errorf("memory usage: %w", err)
	}
	s := psensor.New(sensorID, "Memory usage", "Memory", psensor.GTop|psensor.Memory|psensor.Percent, sensorID)
	s.SetBounds(0, 100)
	s.SetEnabled(enabled)
	s.SetValue(v, u.now())
	return list.Append(s)
}

// ListUpdate refreshes the memory usage sensor.
func (u *Usage) ListUpdate(ctx context.Context, list *psensor.List) error {
	s, ok := list.Lookup(sensorID)
	if !ok {
		return nil
	}
	v, err := u.percent(ctx)
	if err != nil {
		return fmt.Errorf("memory usage: %w", err)
	}
	s.SetValue(v, u.now())
	return nil
}
