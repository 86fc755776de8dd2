package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/veridian/veridianctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "veridianctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func resetArgs(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	os.Args = append([]string{"veridianctl"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
gpu_id = 1
temp_thresholds = [45, 55, 65, 75]
fan_speeds = [40, 50, 70, 100]
fan_speed_floor = 35
fan_speed_ceiling = 100
hysteresis = 5
sampling_window_size = 8
global_delay = 3
fan_dwell_time = 15
smooth_mode = false
telemetry = true
database = "/tmp/veridianctl-test.db"
`)
	resetArgs(t)
	t.Setenv("VERIDIANCTL_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.GPUID)
	assert.Equal(t, []int{45, 55, 65, 75}, cfg.TempThresholds)
	assert.Equal(t, []int{40, 50, 70, 100}, cfg.FanSpeeds)
	assert.Equal(t, 35, cfg.FanSpeedFloor)
	assert.Equal(t, 100, cfg.FanSpeedCeiling)
	assert.Equal(t, 5, cfg.Hysteresis)
	assert.Equal(t, 8, cfg.SamplingWindowSize)
	assert.Equal(t, 3, cfg.GlobalDelay)
	assert.Equal(t, 15, cfg.FanDwellTime)
	assert.False(t, cfg.SmoothMode)
	assert.True(t, cfg.Telemetry)
	assert.Equal(t, "/tmp/veridianctl-test.db", cfg.TelemetryDB)
}

func TestLoadDefaults(t *testing.T) {
	resetArgs(t)
	t.Setenv("VERIDIANCTL_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []int{40, 50, 60, 78, 84}, cfg.TempThresholds)
	assert.Equal(t, []int{46, 55, 62, 80, 100}, cfg.FanSpeeds)
	assert.Equal(t, 46, cfg.FanSpeedFloor)
	assert.Equal(t, 100, cfg.FanSpeedCeiling)
	assert.Equal(t, 3, cfg.Hysteresis)
	assert.Equal(t, 10, cfg.SamplingWindowSize)
	assert.Equal(t, 2, cfg.GlobalDelay)
	assert.Equal(t, 10, cfg.FanDwellTime)
	assert.True(t, cfg.SmoothMode)
	assert.InDelta(t, 1.0, cfg.SmoothModeIncrWeight, 0.001)
	assert.InDelta(t, 4.0, cfg.SmoothModeDecrWeight, 0.001)
	assert.Equal(t, 5, cfg.SmoothModeMaxFanStep)
	assert.False(t, cfg.Monitor)
	assert.False(t, cfg.Telemetry)
}

func TestLoadRejectsNonIncreasingThresholds(t *testing.T) {
	path := writeConfigFile(t, `
temp_thresholds = [40, 30]
fan_speeds = [46, 55]
`)
	resetArgs(t)
	t.Setenv("VERIDIANCTL_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly increasing")
}

func TestLoadRejectsMismatchedTables(t *testing.T) {
	path := writeConfigFile(t, `
temp_thresholds = [40, 50, 60]
fan_speeds = [46, 55]
`)
	resetArgs(t)
	t.Setenv("VERIDIANCTL_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	path := writeConfigFile(t, "this is not TOML")
	resetArgs(t)
	t.Setenv("VERIDIANCTL_CONFIG", path)

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidScalars(t *testing.T) {
	cases := map[string]string{
		"zero window":     "sampling_window_size = 0",
		"zero delay":      "global_delay = 0",
		"negative dwell":  "fan_dwell_time = -1",
		"zero max step":   "smooth_mode_max_fan_step = 0",
		"zero decr":       "smooth_mode_decr_weight = 0.0",
		"negative gpu id": "gpu_id = -1",
	}

	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfigFile(t, line+"\n")
			resetArgs(t)
			t.Setenv("VERIDIANCTL_CONFIG", path)

			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, "monitor = false\n")
	resetArgs(t, "--monitor", "--verbose")
	t.Setenv("VERIDIANCTL_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.Monitor)
	assert.True(t, cfg.Verbose)
}
