package cpu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUsage(values ...float64) *Usage {
	i := 0
	return &Usage{
		percent: func(context.Context) (float64, error) {
			if i >= len(values) {
				return 0, errors.New("no more values")
			}
			v := values[i]
			i++
			return v, nil
		},
		model: func(context.Context) string { return "AMD Ryzen 7 5800X" },
		now:   func() time.Time { return time.Unix(3, 0) },
	}
}

func TestUsage(t *testing.T) {
	u := newTestUsage(12.5, 80)
	list := psensor.NewList()
	require.NoError(t, u.ListAppend(context.Background(), list, true))

	s, ok := list.Lookup(sensorID)
	require.True(t, ok)
	assert.Equal(t, psensor.GTop|psensor.CPU|psensor.Percent, s.Type())
	assert.Equal(t, "AMD Ryzen 7 5800X", s.Chip())
	assert.Equal(t, 12.5, s.Value())
	assert.Equal(t, 0.0, s.Min())
	assert.Equal(t, 100.0, s.Max())

	require.NoError(t, u.ListUpdate(context.Background(), list))
	assert.Equal(t, 80.0, s.Value())

	assert.Error(t, u.ListUpdate(context.Background(), list))
	assert.Equal(t, 80.0, s.Value())
}

func TestUsage_AppendFails(t *testing.T) {
	list := psensor.NewList()
	assert.Error(t, newTestUsage().ListAppend(context.Background(), list, true))
	assert.Zero(t, list.Size())
}
