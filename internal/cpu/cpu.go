// Package cpu provides the CPU usage backend.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/shirou/gopsutil/v3/cpu"
)

const sensorID = "gtop2 cpu usage"

// Usage reports the total CPU usage since the previous query.
type Usage struct {
	percent func(ctx context.Context) (float64, error)
	model   func(ctx context.Context) string
	now     func() time.Time
}

func NewUsage() *Usage {
	return &Usage{percent: percent, model: model, now: time.Now}
}

func percent(ctx context.Context) (float64, error) {
	// interval 0 compares against the previous call
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(usage) == 0 {
		return 0, errors.New("no cpu usage reported")
	}
	return usage[0], nil
}

func model(ctx context.Context) string {
	info, err := cpu.InfoWithContext(ctx)
	if err != nil || len(info) == 0 || info[0].ModelName == "" {
		return "CPU"
	}
	return info[0].ModelName
}

func (u *Usage) Name() string { return "cpu" }

// ListAppend adds the CPU usage sensor.
func (u *Usage) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	v, err := u.percent(ctx)
	if err != nil {
		return fmt.Errorf("cpu usage: %w", err)
	}
	s := psensor.New(sensorID, "CPU usage", u.model(ctx), psensor.GTop|psensor.CPUUsage, sensorID)
	s.SetBounds(0, 100)
	s.SetEnabled(enabled)
	s.SetValue(v, u.now())
	return list.Append(s)
}

// ListUpdate refreshes the CPU usage sensor.
func (u *Usage) ListUpdate(ctx context.Context, list *psensor.List) error {
	s, ok := list.Lookup(sensorID)
	if !ok {
		return nil
	}
	v, err := u.percent(ctx)
	if err != nil {
		return fmt.Errorf("cpu usage: %w", err)
	}
	s.SetValue(v, u.now())
	return nil
}
