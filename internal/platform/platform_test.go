package platform

import (
	"testing"

	"github.com/CristiGvl/picoSensors/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewBackends(t *testing.T) {
	tests := map[string]struct {
		os        SupportedOS
		configure func(*config.Config)
		check     func(t *testing.T, cfg *config.Config, os SupportedOS)
	}{
		"linux defaults": {
			os: Linux,
			check: func(t *testing.T, cfg *config.Config, os SupportedOS) {
				b := newBackends(cfg, os)
				assert.NotNil(t, b.NvidiaGPU)
				assert.NotNil(t, b.AMDGPU)
				assert.NotNil(t, b.UDisks2)
				assert.NotNil(t, b.ATASmart)
				assert.NotNil(t, b.HDDTemp)
				assert.NotNil(t, b.LMSensors)
				assert.Len(t, b.Extra, 2)
			},
		},
		"windows skips sysfs and dbus": {
			os: Windows,
			check: func(t *testing.T, cfg *config.Config, os SupportedOS) {
				b := newBackends(cfg, os)
				assert.NotNil(t, b.NvidiaGPU)
				assert.Nil(t, b.AMDGPU)
				assert.Nil(t, b.UDisks2)
				assert.NotNil(t, b.ATASmart)
			},
		},
		"disabled backends": {
			os: Linux,
			configure: func(cfg *config.Config) {
				cfg.Backends.Nvidia.Enabled = false
				cfg.Backends.HDDTemp.Enabled = false
				cfg.Backends.Memory.Enabled = false
			},
			check: func(t *testing.T, cfg *config.Config, os SupportedOS) {
				b := newBackends(cfg, os)
				assert.Nil(t, b.NvidiaGPU)
				assert.Nil(t, b.HDDTemp)
				assert.Len(t, b.Extra, 1)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			if test.configure != nil {
				test.configure(cfg)
			}
			test.check(t, cfg, test.os)
		})
	}
}
