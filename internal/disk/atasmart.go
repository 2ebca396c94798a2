package disk

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/sourcegraph/conc/pool"
	"github.com/tidwall/gjson"
)

// smartctlCli runs smartctl and returns its JSON report.
type smartctlCli interface {
	scan(ctx context.Context) (*gjson.Result, error)
	deviceInfo(ctx context.Context, name, typ string) (*gjson.Result, error)
}

type smartctlExec struct {
	path    string
	timeout time.Duration
}

func (e *smartctlExec) scan(ctx context.Context) (*gjson.Result, error) {
	return e.execute(ctx, "--json", "--scan")
}

func (e *smartctlExec) deviceInfo(ctx context.Context, name, typ string) (*gjson.Result, error) {
	// standby drives are not spun up just to read a temperature
	return e.execute(ctx, "--json", "--info", "--attributes", "--nocheck", "standby", "--device", typ, name)
}

func (e *smartctlExec) execute(ctx context.Context, args ...string) (*gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.path, args...)
	bs, err := cmd.Output()
	if err != nil {
		// smartctl reports drive problems through the exit status bits, only
		// a failed command line parse or an empty answer is fatal.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isExecExitCode(err, 1) || len(bs) == 0 {
			return nil, fmt.Errorf("'%s' execution failed: %v", cmd, err)
		}
	}
	return parseSmartctl(cmd.String(), bs)
}

func parseSmartctl(cmdStr string, bs []byte) (*gjson.Result, error) {
	if !gjson.ValidBytes(bs) {
		return nil, fmt.Errorf("'%s' returned invalid JSON output", cmdStr)
	}

	res := gjson.ParseBytes(bs)
	if !res.Get("smartctl.exit_status").Exists() {
		return nil, fmt.Errorf("'%s' returned unexpected data", cmdStr)
	}

	for _, msg := range res.Get("smartctl.messages").Array() {
		if msg.Get("severity").String() == "error" {
			return &res, fmt.Errorf("'%s' reported an error: %s", cmdStr, msg.Get("string"))
		}
	}
	return &res, nil
}

func isExecExitCode(err error, exitCode int) bool {
	var v *exec.ExitError
	return errors.As(err, &v) && v.ExitCode() == exitCode
}

// ATASmart reads drive temperatures from the SMART attributes smartctl
// decodes.
type ATASmart struct {
	path string
	cli  smartctlCli
	now  func() time.Time

	// concurrency bounds the smartctl processes run at once
	concurrency int
	// device types found by the last scan, keyed by device name
	types map[string]string
}

// NewATASmart creates the backend. path is the smartctl binary, looked up in
// PATH when not absolute.
func NewATASmart(path string, timeout time.Duration) *ATASmart {
	return &ATASmart{
		path:        path,
		cli:         &smartctlExec{path: path, timeout: timeout},
		now:         time.Now,
		concurrency: 4,
		types:       make(map[string]string),
	}
}

func (a *ATASmart) Name() string { return "atasmart" }

// Supported reports whether smartctl is installed.
func (a *ATASmart) Supported(context.Context) (bool, error) {
	_, err := exec.LookPath(a.path)
	return err == nil, nil
}

type scanDevice struct {
	name string
	typ  string
}

type deviceInfoResult struct {
	scanDevice
	info *gjson.Result
	err  error
}

// queryDevices reads the info of every device. Results keep the order of
// devs.
func (a *ATASmart) queryDevices(ctx context.Context, devs []scanDevice) []deviceInfoResult {
	results := make([]deviceInfoResult, len(devs))
	p := pool.New().WithMaxGoroutines(max(a.concurrency, 1))
	for i, dev := range devs {
		i, dev := i, dev
		p.Go(func() {
			info, err := a.cli.deviceInfo(ctx, dev.name, dev.typ)
			results[i] = deviceInfoResult{scanDevice: dev, info: info, err: err}
		})
	}
	p.Wait()
	return results
}

// ListAppend scans for drives and adds one sensor per drive reporting a
// temperature. Drives smartctl cannot query are skipped.
func (a *ATASmart) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	scan, err := a.cli.scan(ctx)
	if err != nil {
		return err
	}

	var devs []scanDevice
	for _, dev := range scan.Get("devices").Array() {
		if name := dev.Get("name").String(); name != "" {
			devs = append(devs, scanDevice{name: name, typ: dev.Get("type").String()})
		}
	}

	var drives []drive
	for _, r := range a.queryDevices(ctx, devs) {
		if r.err != nil {
			continue
		}
		d, ok := smartDrive(r.name, r.info)
		if !ok {
			continue
		}
		a.types[r.name] = r.typ
		drives = append(drives, d)
	}
	return appendDrives(list, psensor.ATASmart, "atasmart", drives, enabled, a.now())
}

// ListUpdate re-reads the temperature of every atasmart sensor.
func (a *ATASmart) ListUpdate(ctx context.Context, list *psensor.List) error {
	var devs []scanDevice
	list.Each(func(s *psensor.Sensor) {
		if s.Type().Has(psensor.ATASmart) {
			devs = append(devs, scanDevice{name: s.Source(), typ: a.types[s.Source()]})
		}
	})

	var drives []drive
	var errs []error
	for _, r := range a.queryDevices(ctx, devs) {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if d, ok := smartDrive(r.name, r.info); ok {
			drives = append(drives, d)
		}
	}
	updateDrives(list, psensor.ATASmart, drives, a.now())
	return errors.Join(errs...)
}

// smartDrive extracts the temperature of a device info report. Drives that
// expose no temperature at all are not reported.
func smartDrive(name string, info *gjson.Result) (drive, bool) {
	temp := info.Get("temperature.current")
	if !temp.Exists() {
		return drive{}, false
	}

	label := name
	if model := info.Get("model_name").String(); model != "" {
		label = model
	}
	d := newDrive(name, label)
	d.temp = temp.Float()
	if hi := info.Get("temperature.op_limit_max"); hi.Exists() {
		d.max = hi.Float()
	}
	return d, true
}
