package disk

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var (
	dataScan, _        = os.ReadFile("testdata/scan.json")
	dataDeviceSDA, _   = os.ReadFile("testdata/device-sda.json")
	dataDeviceSDB, _   = os.ReadFile("testdata/device-sdb.json")
	dataDeviceNVMe0, _ = os.ReadFile("testdata/device-nvme0.json")
)

func Test_testDataIsValid(t *testing.T) {
	for name, data := range map[string][]byte{
		"dataScan":        dataScan,
		"dataDeviceSDA":   dataDeviceSDA,
		"dataDeviceSDB":   dataDeviceSDB,
		"dataDeviceNVMe0": dataDeviceNVMe0,
	} {
		require.NotNil(t, data, name)
		require.True(t, gjson.ValidBytes(data), name)
	}
}

type mockSmartctl struct {
	mu        sync.Mutex
	scanData  []byte
	devices   map[string][]byte
	errOnScan bool
	infoCalls map[string]string
}

func (m *mockSmartctl) scan(context.Context) (*gjson.Result, error) {
	if m.errOnScan {
		return nil, fmt.Errorf("mock.scan() error")
	}
	return parseSmartctl("smartctl --scan", m.scanData)
}

func (m *mockSmartctl) deviceInfo(_ context.Context, name, typ string) (*gjson.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.infoCalls == nil {
		m.infoCalls = make(map[string]string)
	}
	m.infoCalls[name] = typ
	data, ok := m.devices[name]
	if !ok {
		return nil, fmt.Errorf("mock.deviceInfo(%s) unknown device", name)
	}
	return parseSmartctl("smartctl "+name, data)
}

func prepareSmartctl() *mockSmartctl {
	return &mockSmartctl{
		scanData: dataScan,
		devices: map[string][]byte{
			"/dev/sda":   dataDeviceSDA,
			"/dev/sdb":   dataDeviceSDB,
			"/dev/nvme0": dataDeviceNVMe0,
		},
	}
}

func newTestATASmart(cli smartctlCli) *ATASmart {
	a := NewATASmart("smartctl", time.Second)
	a.cli = cli
	a.now = func() time.Time { return time.Unix(7, 0) }
	return a
}

func TestATASmart_ListAppend(t *testing.T) {
	tests := map[string]struct {
		prepare   func() *mockSmartctl
		wantErr   bool
		wantNames []string
	}{
		"drives with a temperature": {
			prepare:   prepareSmartctl,
			wantNames: []string{"WDC WD10EZEX-08WN4A0", "Samsung SSD 980 PRO 1TB"},
		},
		"scan fails": {
			prepare: func() *mockSmartctl {
				m := prepareSmartctl()
				m.errOnScan = true
				return m
			},
			wantErr: true,
		},
		"invalid scan output": {
			prepare: func() *mockSmartctl {
				m := prepareSmartctl()
				m.scanData = []byte("not json")
				return m
			},
			wantErr: true,
		},
		"no devices": {
			prepare: func() *mockSmartctl {
				m := prepareSmartctl()
				m.scanData = []byte(`{"smartctl":{"exit_status":0},"devices":[]}`)
				return m
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := newTestATASmart(test.prepare())
			list := psensor.NewList()

			err := a.ListAppend(context.Background(), list, true)
			if test.wantErr {
				assert.Error(t, err)
				assert.Zero(t, list.Size())
				return
			}
			require.NoError(t, err)

			var names []string
			list.Each(func(s *psensor.Sensor) { names = append(names, s.Name()) })
			assert.Equal(t, test.wantNames, names)
		})
	}
}

func TestATASmart_Sensors(t *testing.T) {
	cli := prepareSmartctl()
	a := newTestATASmart(cli)
	list := psensor.NewList()
	require.NoError(t, a.ListAppend(context.Background(), list, true))

	sda, ok := list.Lookup("atasmart /dev/sda")
	require.True(t, ok)
	assert.Equal(t, psensor.ATASmart|psensor.HDD|psensor.Temp, sda.Type())
	assert.Equal(t, 36.0, sda.Value())
	assert.Equal(t, 60.0, sda.Max())
	assert.Equal(t, "/dev/sda", sda.Source())

	nvme, ok := list.Lookup("atasmart /dev/nvme0")
	require.True(t, ok)
	assert.Equal(t, 41.0, nvme.Value())
	assert.Equal(t, psensor.Unbounded, nvme.Max())

	assert.Equal(t, "sat", cli.infoCalls["/dev/sda"])
	assert.Equal(t, "nvme", cli.infoCalls["/dev/nvme0"])
}

func TestATASmart_ListUpdate(t *testing.T) {
	cli := prepareSmartctl()
	a := newTestATASmart(cli)
	list := psensor.NewList()
	require.NoError(t, a.ListAppend(context.Background(), list, true))

	cli.devices["/dev/sda"] = []byte(`{"smartctl":{"exit_status":0},"model_name":"WDC WD10EZEX-08WN4A0","temperature":{"current":39}}`)
	// a drive in standby reports no temperature
	cli.devices["/dev/nvme0"] = []byte(`{"smartctl":{"exit_status":2}}`)

	require.NoError(t, a.ListUpdate(context.Background(), list))

	sda, _ := list.Lookup("atasmart /dev/sda")
	nvme, _ := list.Lookup("atasmart /dev/nvme0")
	assert.Equal(t, 39.0, sda.Value())
	assert.Equal(t, 41.0, nvme.Value())

	delete(cli.devices, "/dev/sda")
	assert.Error(t, a.ListUpdate(context.Background(), list))
	assert.Equal(t, 39.0, sda.Value())
}

func TestParseSmartctl(t *testing.T) {
	_, err := parseSmartctl("smartctl", dataDeviceSDB)
	assert.Error(t, err)

	_, err = parseSmartctl("smartctl", []byte(`{"devices":[]}`))
	assert.Error(t, err)

	res, err := parseSmartctl("smartctl", dataDeviceSDA)
	require.NoError(t, err)
	assert.Equal(t, int64(36), res.Get("temperature.current").Int())
}
