package gpu

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// smiRunner runs nvidia-smi and returns its XML report.
type smiRunner interface {
	query(ctx context.Context) ([]byte, error)
}

type smiExec struct {
	path    string
	timeout time.Duration
}

func (e *smiExec) query(ctx context.Context) ([]byte, error) {
	bin, err := exec.LookPath(e.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.path, errors.Join(psensor.ErrUnavailable, err))
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, bin, "-q", "-x").Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi not available: %w", err)
	}
	return output, nil
}

// NvidiaSMIOutput represents nvidia-smi XML output structure
type NvidiaSMIOutput struct {
	GPUs []NvidiaSMIGPU `xml:"gpu"`
}

// NvidiaSMIGPU is one <gpu> element of the nvidia-smi report.
type NvidiaSMIGPU struct {
	BusID       string `xml:"id,attr"`
	ProductName string `xml:"product_name"`
	UUID        string `xml:"uuid"`
	FanSpeed    string `xml:"fan_speed"`
	Utilization struct {
		GPU     string `xml:"gpu_util"`
		Memory  string `xml:"memory_util"`
		Encoder string `xml:"encoder_util"`
	} `xml:"utilization"`
	Temperature struct {
		Current  string `xml:"gpu_temp"`
		Slowdown string `xml:"gpu_temp_slow_threshold"`
	} `xml:"temperature"`
}

// Nvidia is the NVIDIA GPU backend, fed by nvidia-smi.
type Nvidia struct {
	smi smiRunner
	now func() time.Time
}

// NewNvidia creates the backend. path is the nvidia-smi binary, looked up in
// PATH when not absolute.
func NewNvidia(path string, timeout time.Duration) *Nvidia {
	return &Nvidia{
		smi: &smiExec{path: path, timeout: timeout},
		now: time.Now,
	}
}

func (n *Nvidia) Name() string { return string(NVIDIA) }

func (n *Nvidia) metrics(ctx context.Context) ([]metric, error) {
	output, err := n.smi.query(ctx)
	if err != nil {
		return nil, err
	}

	var smiOutput NvidiaSMIOutput
	if err := xml.Unmarshal(output, &smiOutput); err != nil {
		return nil, fmt.Errorf("failed to parse nvidia-smi output: %w", err)
	}

	var metrics []metric
	for i, gpu := range smiOutput.GPUs {
		metrics = append(metrics, nvidiaMetrics(i, gpu)...)
	}
	return metrics, nil
}

func nvidiaMetrics(index int, gpu NvidiaSMIGPU) []metric {
	id := gpuKey(index, gpu)
	prefix := string(NVIDIA) + "/" + id + "/"
	chip := gpu.ProductName
	if chip == "" {
		chip = fmt.Sprintf("NVIDIA GPU %d", index)
	}
	base := psensor.NVCtrl | psensor.GPU

	temp, tempOK := parseUnit(gpu.Temperature.Current, "C")
	slowdown, slowdownOK := parseUnit(gpu.Temperature.Slowdown, "C")
	if !slowdownOK {
		slowdown = psensor.Unbounded
	}
	fan, fanOK := parseUnit(gpu.FanSpeed, "%")
	graphics, graphicsOK := parseUnit(gpu.Utilization.GPU, "%")
	memory, memoryOK := parseUnit(gpu.Utilization.Memory, "%")
	video, videoOK := parseUnit(gpu.Utilization.Encoder, "%")

	return []metric{
		{key: prefix + "temp", name: "GPU temperature", chip: chip, typ: base | psensor.Temp, value: temp, max: slowdown, ok: tempOK},
		{key: prefix + "fan", name: "GPU fan speed", chip: chip, typ: base | psensor.Fan | psensor.Percent, value: fan, max: 100, ok: fanOK},
		{key: prefix + "graphics", name: "GPU graphics usage", chip: chip, typ: base | psensor.Percent | psensor.Graphics, value: graphics, max: 100, ok: graphicsOK},
		{key: prefix + "memory", name: "GPU memory usage", chip: chip, typ: base | psensor.Percent | psensor.Memory, value: memory, max: 100, ok: memoryOK},
		{key: prefix + "video", name: "GPU video usage", chip: chip, typ: base | psensor.Percent | psensor.Video, value: video, max: 100, ok: videoOK},
	}
}

// gpuKey identifies a GPU across queries: its UUID, else its PCI bus id. The
// report position is only used when nvidia-smi gives neither.
func gpuKey(index int, gpu NvidiaSMIGPU) string {
	for _, id := range []string{gpu.UUID, gpu.BusID} {
		if id = strings.TrimSpace(id); id != "" && id != "N/A" {
			return id
		}
	}
	return strconv.Itoa(index)
}

// ListAppend adds one sensor per metric nvidia-smi reports a value for.
func (n *Nvidia) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	metrics, err := n.metrics(ctx)
	if err != nil {
		return err
	}
	return appendMetrics(list, metrics, enabled, n.now())
}

// ListUpdate refreshes every NVIDIA sensor of the list.
func (n *Nvidia) ListUpdate(ctx context.Context, list *psensor.List) error {
	metrics, err := n.metrics(ctx)
	if err != nil {
		return err
	}
	updateMetrics(list, psensor.NVCtrl, metrics, n.now())
	return nil
}

// appendMetrics appends every usable metric at once so a failing backend
// never leaves a partial set behind.
func appendMetrics(list *psensor.List, metrics []metric, enabled bool, now time.Time) error {
	var sensors []*psensor.Sensor
	for _, m := range metrics {
		if !m.ok {
			continue
		}
		s := psensor.New(m.key, m.name, m.chip, m.typ, m.key)
		s.SetBounds(0, m.max)
		if !m.typ.Has(psensor.Percent) {
			s.SetBounds(psensor.Unbounded, m.max)
		}
		s.SetEnabled(enabled)
		s.SetValue(m.value, now)
		sensors = append(sensors, s)
	}
	return list.Append(sensors...)
}

// updateMetrics sets the value of every sensor carrying the provenance bit.
func updateMetrics(list *psensor.List, provenance psensor.Type, metrics []metric, now time.Time) {
	byKey := make(map[string]metric, len(metrics))
	for _, m := range metrics {
		byKey[m.key] = m
	}
	list.Each(func(s *psensor.Sensor) {
		if !s.Type().Has(provenance) {
			return
		}
		if m, ok := byKey[s.Source()]; ok && m.ok {
			s.SetValue(m.value, now)
		}
	})
}
