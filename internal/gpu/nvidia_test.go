package gpu

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dataNvidiaSMI, _ = os.ReadFile("testdata/nvidia-smi-q-x.xml")

func Test_testDataIsValid(t *testing.T) {
	require.NotNil(t, dataNvidiaSMI)
}

type mockSMI struct {
	data []byte
	err  error
}

func (m *mockSMI) query(context.Context) ([]byte, error) {
	return m.data, m.err
}

func newTestNvidia(smi smiRunner) *Nvidia {
	return &Nvidia{smi: smi, now: func() time.Time { return time.Unix(1700000000, 0) }}
}

func TestNvidia_ListAppend(t *testing.T) {
	nv := newTestNvidia(&mockSMI{data: dataNvidiaSMI})
	list := psensor.NewList()

	require.NoError(t, nv.ListAppend(context.Background(), list, true))
	require.Equal(t, 8, list.Size())

	temp, ok := list.Lookup("nvidia/GPU-6f3d2a1c-8b7e-4c11-9a0e-3d2f1b7c5e90/temp")
	require.True(t, ok)
	assert.Equal(t, psensor.NVCtrl|psensor.GPU|psensor.Temp, temp.Type())
	assert.Equal(t, "NVIDIA GeForce RTX 3080", temp.Chip())
	assert.Equal(t, 54.0, temp.Value())
	assert.Equal(t, 95.0, temp.Max())
	assert.Equal(t, psensor.Unbounded, temp.Min())

	fan, ok := list.Lookup("nvidia/GPU-6f3d2a1c-8b7e-4c11-9a0e-3d2f1b7c5e90/fan")
	require.True(t, ok)
	assert.Equal(t, 42.0, fan.Value())
	assert.Equal(t, 0.0, fan.Min())
	assert.Equal(t, 100.0, fan.Max())

	tesla, ok := list.Lookup("nvidia/00000000:02:00.0/temp")
	require.True(t, ok)
	assert.Equal(t, psensor.Unbounded, tesla.Max())

	_, ok = list.Lookup("nvidia/00000000:02:00.0/fan")
	assert.False(t, ok, "N/A values are not discovered")
	_, ok = list.Lookup("nvidia/00000000:02:00.0/video")
	assert.False(t, ok)
}

func TestNvidia_ListUpdate(t *testing.T) {
	smi := &mockSMI{data: dataNvidiaSMI}
	nv := newTestNvidia(smi)
	list := psensor.NewList()
	require.NoError(t, nv.ListAppend(context.Background(), list, true))

	other := psensor.New("lm/temp1", "temp1", "acpitz", psensor.LMSensor|psensor.Temp, "nvidia/00000000:02:00.0/temp")
	require.NoError(t, list.Append(other))

	smi.data = []byte(`<nvidia_smi_log><gpu id="00000000:02:00.0"><product_name>Tesla T4</product_name><uuid>N/A</uuid>` +
		`<temperature><gpu_temp>80 C</gpu_temp></temperature></gpu></nvidia_smi_log>`)
	require.NoError(t, nv.ListUpdate(context.Background(), list))

	tesla, _ := list.Lookup("nvidia/00000000:02:00.0/temp")
	assert.Equal(t, 80.0, tesla.Value())
	assert.True(t, other.SampledAt().IsZero(), "sensors of other backends are untouched")
	assert.Equal(t, 9, list.Size())
}

func TestNvidia_ListUpdate_GPUDropsOut(t *testing.T) {
	smi := &mockSMI{data: []byte(`<nvidia_smi_log>` +
		`<gpu id="00000000:03:00.0"><product_name>Tesla A</product_name><uuid>N/A</uuid><temperature><gpu_temp>40 C</gpu_temp></temperature></gpu>` +
		`<gpu id="00000000:04:00.0"><product_name>Tesla B</product_name><uuid>N/A</uuid><temperature><gpu_temp>90 C</gpu_temp></temperature></gpu>` +
		`</nvidia_smi_log>`)}
	nv := newTestNvidia(smi)
	list := psensor.NewList()
	require.NoError(t, nv.ListAppend(context.Background(), list, true))
	require.Equal(t, 2, list.Size())

	smi.data = []byte(`<nvidia_smi_log>` +
		`<gpu id="00000000:04:00.0"><product_name>Tesla B</product_name><uuid>N/A</uuid><temperature><gpu_temp>92 C</gpu_temp></temperature></gpu>` +
		`</nvidia_smi_log>`)
	require.NoError(t, nv.ListUpdate(context.Background(), list))

	a, ok := list.Lookup("nvidia/00000000:03:00.0/temp")
	require.True(t, ok)
	b, ok := list.Lookup("nvidia/00000000:04:00.0/temp")
	require.True(t, ok)
	assert.Equal(t, "Tesla A", a.Chip())
	assert.Equal(t, 40.0, a.Value(), "a GPU missing from the report keeps its value")
	assert.Equal(t, 92.0, b.Value())
}

func TestGPUKey(t *testing.T) {
	tests := map[string]struct {
		gpu  NvidiaSMIGPU
		want string
	}{
		"uuid":          {gpu: NvidiaSMIGPU{UUID: "GPU-1234", BusID: "00000000:01:00.0"}, want: "GPU-1234"},
		"bus id":        {gpu: NvidiaSMIGPU{UUID: "N/A", BusID: "00000000:01:00.0"}, want: "00000000:01:00.0"},
		"report index":  {gpu: NvidiaSMIGPU{UUID: "N/A"}, want: "3"},
		"empty strings": {gpu: NvidiaSMIGPU{UUID: " ", BusID: ""}, want: "3"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, gpuKey(3, test.gpu))
		})
	}
}

func TestNvidia_Errors(t *testing.T) {
	tests := map[string]struct {
		smi         *mockSMI
		unavailable bool
	}{
		"not installed": {smi: &mockSMI{err: errors.Join(psensor.ErrUnavailable, errors.New("exec: not found"))}, unavailable: true},
		"exec failure":  {smi: &mockSMI{err: errors.New("exit status 9")}},
		"garbage":       {smi: &mockSMI{data: []byte("<nvidia_smi_log><gpu>")}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			list := psensor.NewList()
			err := newTestNvidia(test.smi).ListAppend(context.Background(), list, true)
			require.Error(t, err)
			assert.Equal(t, test.unavailable, errors.Is(err, psensor.ErrUnavailable))
			assert.Zero(t, list.Size())
		})
	}
}

func TestSMIExec_MissingBinary(t *testing.T) {
	e := &smiExec{path: "nvidia-smi-does-not-exist", timeout: time.Second}
	_, err := e.query(context.Background())
	assert.ErrorIs(t, err, psensor.ErrUnavailable)
}

func TestParseUnit(t *testing.T) {
	tests := map[string]struct {
		in, unit string
		want     float64
		ok       bool
	}{
		"celsius": {in: "54 C", unit: "C", want: 54, ok: true},
		"percent": {in: " 31 % ", unit: "%", want: 31, ok: true},
		"n/a":     {in: "N/A", unit: "%", ok: false},
		"empty":   {in: "", unit: "C", ok: false},
		"no unit": {in: "12.5", unit: "W", want: 12.5, ok: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := parseUnit(test.in, test.unit)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.want, v)
		})
	}
}
