package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
)

// HDDTemp reads drive temperatures from a hddtemp daemon.
type HDDTemp struct {
	address string
	timeout time.Duration
	now     func() time.Time
}

// NewHDDTemp creates the backend. address is the daemon host:port, hddtemp
// listens on 127.0.0.1:7634 by default.
func NewHDDTemp(address string, timeout time.Duration) *HDDTemp {
	return &HDDTemp{address: address, timeout: timeout, now: time.Now}
}

func (h *HDDTemp) Name() string { return "hddtemp" }

// fetch reads the whole daemon answer. The daemon writes its report and
// closes the connection.
func (h *HDDTemp) fetch(ctx context.Context) (string, error) {
	d := net.Dialer{Timeout: h.timeout}
	conn, err := d.DialContext(ctx, "tcp", h.address)
	if err != nil {
		if isConnRefused(err) {
			return "", fmt.Errorf("hddtemp at %s: %w", h.address, errors.Join(psensor.ErrUnavailable, err))
		}
		return "", fmt.Errorf("hddtemp at %s: %w", h.address, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(h.timeout)); err != nil {
		return "", err
	}
	bs, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("hddtemp at %s: %w", h.address, err)
	}
	return string(bs), nil
}

// parseHDDTemp parses records such as |/dev/sda|WDC WD10EZEX|35|C| that the
// daemon concatenates. A sleeping or unknown drive reports a non numeric
// temperature and the unit '*'.
func parseHDDTemp(data string) ([]drive, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, nil
	}
	if !strings.HasPrefix(data, "|") || !strings.HasSuffix(data, "|") {
		return nil, fmt.Errorf("unexpected hddtemp answer %q", data)
	}

	var drives []drive
	for _, rec := range strings.Split(strings.Trim(data, "|"), "||") {
		fields := strings.Split(rec, "|")
		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected hddtemp record %q", rec)
		}
		dev, model, value, unit := fields[0], strings.TrimSpace(fields[1]), fields[2], fields[3]

		name := dev
		if model != "" && model != "???" {
			name = model
		}
		d := newDrive(dev, name)
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			switch unit {
			case "C":
				d.temp = v
			case "F":
				d.temp = (v - 32) * 5 / 9
			}
		}
		drives = append(drives, d)
	}
	return drives, nil
}

func (h *HDDTemp) drives(ctx context.Context) ([]drive, error) {
	data, err := h.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return parseHDDTemp(data)
}

// ListAppend adds one sensor per drive the daemon monitors.
func (h *HDDTemp) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	drives, err := h.drives(ctx)
	if err != nil {
		return err
	}
	return appendDrives(list, psensor.Hddtemp, "hddtemp", drives, enabled, h.now())
}

// ListUpdate refreshes the hddtemp sensors of the list.
func (h *HDDTemp) ListUpdate(ctx context.Context, list *psensor.List) error {
	drives, err := h.drives(ctx)
	if err != nil {
		return err
	}
	updateDrives(list, psensor.Hddtemp, drives, h.now())
	return nil
}
