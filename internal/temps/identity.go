package temps

import "strings"

// chipIdentityMap maps chip name prefixes to friendly component names.
var chipIdentityMap = []struct {
	prefix string
	name   string
}{
	{"coretemp", "CPU"},
	{"k10temp", "CPU"},
	{"k8temp", "CPU"},
	{"zenpower", "CPU"},
	{"amdgpu", "GPU (AMD)"},
	{"radeon", "GPU (AMD)"},
	{"nouveau", "GPU (NVIDIA)"},
	{"nvidia", "GPU (NVIDIA)"},
	{"i915", "GPU (Intel)"},
	{"nvme", "NVMe SSD"},
	{"drivetemp", "HDD/SSD"},
	{"iwlwifi", "WiFi"},
	{"pch", "PCH (Chipset)"},
	{"acpitz", "ACPI Thermal"},
	{"it87", "Motherboard"},
	{"nct", "Motherboard"},
	{"w83", "Motherboard"},
	{"f71", "Motherboard"},
	{"asus", "Motherboard"},
	{"thinkpad", "Laptop EC"},
	{"dell", "Laptop EC"},
}

// FriendlyName returns a human-readable chip name, e.g. "CPU (coretemp)".
// Unknown chips keep their driver name.
func FriendlyName(chip string) string {
	lower := strings.ToLower(chip)
	for _, entry := range chipIdentityMap {
		if strings.HasPrefix(lower, entry.prefix) {
			return entry.name + " (" + chip + ")"
		}
	}
	return chip
}
