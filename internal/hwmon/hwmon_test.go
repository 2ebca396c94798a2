package hwmon

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice(t *testing.T) {
	root := t.TempDir()
	pci := filepath.Join(root, "devices", "pci0000:00", "0000:01:00.0")
	require.NoError(t, os.MkdirAll(pci, 0o755))

	linked := filepath.Join(root, "class", "hwmon", "hwmon3")
	require.NoError(t, os.MkdirAll(linked, 0o755))
	require.NoError(t, os.Symlink(pci, filepath.Join(linked, "device")))

	virtual := filepath.Join(root, "class", "hwmon", "hwmon0")
	require.NoError(t, os.MkdirAll(virtual, 0o755))

	assert.Equal(t, "0000:01:00.0", Device(linked))
	assert.Equal(t, "hwmon0", Device(virtual))
}

func TestLess(t *testing.T) {
	paths := []string{
		"/sys/class/hwmon/hwmon2/fan10_input",
		"/sys/class/hwmon/hwmon2/fan9_input",
		"/sys/class/hwmon/hwmon1/temp3_input",
		"/sys/class/hwmon/hwmon2/fan1_input",
		"/sys/class/hwmon/hwmon1/temp12_input",
	}
	sort.Slice(paths, func(i, j int) bool { return Less(paths[i], paths[j]) })

	assert.Equal(t, []string{
		"/sys/class/hwmon/hwmon1/temp3_input",
		"/sys/class/hwmon/hwmon1/temp12_input",
		"/sys/class/hwmon/hwmon2/fan1_input",
		"/sys/class/hwmon/hwmon2/fan9_input",
		"/sys/class/hwmon/hwmon2/fan10_input",
	}, paths)
}

func TestReadValue(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp1_input"), []byte("42000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fan3_input"), []byte("garbage\n"), 0o644))

	v, err := ReadValue(filepath.Join(dir, "temp1_input"))
	require.NoError(t, err)
	assert.Equal(t, 42000.0, v)

	_, err = ReadValue(filepath.Join(dir, "fan3_input"))
	assert.Error(t, err)
	_, err = ReadValue(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	assert.Equal(t, "", ReadString(filepath.Join(dir, "missing")))
}
