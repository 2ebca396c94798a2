package main

import (
	"bytes"
	"context"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/CristiGvl/picoSensors/internal/config"
	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/CristiGvl/picoSensors/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diskBackend struct{}

func (diskBackend) Name() string { return "hddtemp" }

func (diskBackend) ListAppend(_ context.Context, list *psensor.List, enabled bool) error {
	s := psensor.New("hddtemp /dev/sda", "WDC WD10EZEX", "WDC WD10EZEX", psensor.Hddtemp|psensor.HDDTemperature, "/dev/sda")
	s.SetBounds(psensor.Unbounded, 50)
	s.SetEnabled(enabled)
	return list.Append(s)
}

func (diskBackend) ListUpdate(_ context.Context, list *psensor.List) error {
	list.Each(func(s *psensor.Sensor) { s.SetValue(61, time.Now()) })
	return nil
}

func TestPrintSensors(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	reg, err := registry.New(context.Background(), registry.Backends{HDDTemp: diskBackend{}},
		registry.WithLogger(logrus.NewEntry(l)))
	require.NoError(t, err)
	defer reg.Close()

	var buf bytes.Buffer
	require.NoError(t, printSensors(&buf, reg, config.Default()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NAME", "CHIP", "TYPE", "VALUE", "MIN", "MAX", "ALARM"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "hddtemp /dev/sda")
	assert.Contains(t, lines[1], "hdd")
	assert.Contains(t, lines[1], "61.0")
	assert.True(t, strings.HasSuffix(lines[1], "true"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "-", formatValue(math.NaN()))
	assert.Equal(t, "42.5", formatValue(42.5))
}
