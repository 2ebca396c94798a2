package disk

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/CristiGvl/picoSensors/internal/psensor"
	"github.com/godbus/dbus/v5"
)

const (
	udisksService = "org.freedesktop.UDisks2"
	udisksPath    = dbus.ObjectPath("/org/freedesktop/UDisks2")
	driveIface    = "org.freedesktop.UDisks2.Drive"
	ataIface      = "org.freedesktop.UDisks2.Drive.Ata"
	kelvin        = 273.15
)

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// udisksConn is the part of the system bus the backend talks to.
type udisksConn interface {
	names(ctx context.Context) ([]string, error)
	objects(ctx context.Context) (managedObjects, error)
	Close() error
}

type systemBus struct {
	conn *dbus.Conn
}

func dialSystemBus() (udisksConn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return &systemBus{conn: conn}, nil
}

func (b *systemBus) names(ctx context.Context) ([]string, error) {
	var names, activatable []string
	if err := b.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, err
	}
	if err := b.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err != nil {
		return nil, err
	}
	return append(names, activatable...), nil
}

func (b *systemBus) objects(ctx context.Context) (managedObjects, error) {
	var objs managedObjects
	obj := b.conn.Object(udisksService, udisksPath)
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&objs); err != nil {
		return nil, err
	}
	return objs, nil
}

func (b *systemBus) Close() error {
	return b.conn.Close()
}

// UDisks2 reads the SMART temperature udisksd exposes for every ATA drive.
type UDisks2 struct {
	dial    func() (udisksConn, error)
	timeout time.Duration
	now     func() time.Time
}

// NewUDisks2 creates the backend. Every call opens its own system bus
// connection bounded by timeout.
func NewUDisks2(timeout time.Duration) *UDisks2 {
	return &UDisks2{dial: dialSystemBus, timeout: timeout, now: time.Now}
}

func (u *UDisks2) Name() string { return "udisks2" }

// Supported reports whether udisksd is running or can be activated. A host
// without a system bus is not an error, it just has no udisks2.
func (u *UDisks2) Supported(ctx context.Context) (bool, error) {
	conn, err := u.dial()
	if err != nil {
		return false, nil
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	names, err := conn.names(ctx)
	if err != nil {
		return false, fmt.Errorf("list bus names: %w", err)
	}
	return slices.Contains(names, udisksService), nil
}

func (u *UDisks2) drives(ctx context.Context) ([]drive, error) {
	conn, err := u.dial()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	objs, err := conn.objects(ctx)
	if err != nil {
		return nil, fmt.Errorf("udisks2 managed objects: %w", err)
	}
	return smartDrives(objs), nil
}

// smartDrives returns the drives with SMART enabled, ordered by object path.
func smartDrives(objs managedObjects) []drive {
	paths := make([]dbus.ObjectPath, 0, len(objs))
	for path := range objs {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	var drives []drive
	for _, path := range paths {
		ata, ok := objs[path][ataIface]
		if !ok {
			continue
		}
		if enabled, _ := variant[bool](ata, "SmartEnabled"); !enabled {
			continue
		}

		name := string(path)
		if model, _ := variant[string](objs[path][driveIface], "Model"); model != "" {
			name = model
		}
		d := newDrive(string(path), name)
		// zero means the drive never reported a temperature
		if k, ok := variant[float64](ata, "SmartTemperature"); ok && k > 0 {
			d.temp = k - kelvin
		}
		drives = append(drives, d)
	}
	return drives
}

func variant[T any](props map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := props[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

// ListAppend adds one sensor per SMART capable drive.
func (u *UDisks2) ListAppend(ctx context.Context, list *psensor.List, enabled bool) error {
	drives, err := u.drives(ctx)
	if err != nil {
		return err
	}
	return appendDrives(list, psensor.UDisks2, "udisks2", drives, enabled, u.now())
}

// ListUpdate refreshes the udisks2 sensors of the list.
func (u *UDisks2) ListUpdate(ctx context.Context, list *psensor.List) error {
	drives, err := u.drives(ctx)
	if err != nil {
		return err
	}
	updateDrives(list, psensor.UDisks2, drives, u.now())
	return nil
}
