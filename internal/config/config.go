package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/veridian/veridianctl/internal/curve"
	"codeberg.org/veridian/veridianctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "veridianctl"
	envPrefix  = "VERIDIANCTL"
)

// Config holds the validated controller configuration. Immutable after
// Load; the control loop only ever reads it.
type Config struct {
	GPUID int `mapstructure:"gpu_id"`

	TempThresholds  []int `mapstructure:"temp_thresholds"`
	FanSpeeds       []int `mapstructure:"fan_speeds"`
	FanSpeedFloor   int   `mapstructure:"fan_speed_floor"`
	FanSpeedCeiling int   `mapstructure:"fan_speed_ceiling"`
	Hysteresis      int   `mapstructure:"hysteresis"`

	SamplingWindowSize int `mapstructure:"sampling_window_size"`
	GlobalDelay        int `mapstructure:"global_delay"`
	FanDwellTime       int `mapstructure:"fan_dwell_time"`

	SmoothMode           bool    `mapstructure:"smooth_mode"`
	SmoothModeIncrWeight float64 `mapstructure:"smooth_mode_incr_weight"`
	SmoothModeDecrWeight float64 `mapstructure:"smooth_mode_decr_weight"`
	SmoothModeMaxFanStep int     `mapstructure:"smooth_mode_max_fan_step"`

	Monitor bool `mapstructure:"monitor"`
	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`

	Telemetry   bool   `mapstructure:"telemetry"`
	TelemetryDB string `mapstructure:"database"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gpu_id", 0)
	v.SetDefault("temp_thresholds", []int{40, 50, 60, 78, 84})
	v.SetDefault("fan_speeds", []int{46, 55, 62, 80, 100})
	v.SetDefault("fan_speed_floor", 46)
	v.SetDefault("fan_speed_ceiling", 100)
	v.SetDefault("hysteresis", 3)
	v.SetDefault("sampling_window_size", 10)
	v.SetDefault("global_delay", 2)
	v.SetDefault("fan_dwell_time", 10)
	v.SetDefault("smooth_mode", true)
	v.SetDefault("smooth_mode_incr_weight", 1.0)
	v.SetDefault("smooth_mode_decr_weight", 4.0)
	v.SetDefault("smooth_mode_max_fan_step", 5)
	v.SetDefault("monitor", false)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("telemetry", false)
	v.SetDefault("database", "/var/lib/veridianctl/telemetry.db")
}

// Load reads configuration from file, environment and flags, then
// validates it. Precedence: flags over environment over file over
// defaults. The config file is TOML, looked up at the path given by
// --config or VERIDIANCTL_CONFIG, then /etc and ~/.config.
func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	configPath := flags.String("config", "", "Path of the config file to load")
	flags.Bool("monitor", false, "Only monitor; run the control math without actuating")
	flags.Bool("debug", false, "Enable debug logging")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Bool("telemetry", false, "Record per-tick telemetry snapshots")
	flags.Int("gpu_id", 0, "Index of the GPU to control")

	if err := flags.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	switch {
	case *configPath != "":
		v.SetConfigFile(*configPath)
	case os.Getenv(envPrefix+"_CONFIG") != "":
		v.SetConfigFile(os.Getenv(envPrefix + "_CONFIG"))
	default:
		v.SetConfigName(configName)
		v.AddConfigPath("/etc")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file in the search path means defaults; an
		// unreadable or explicitly named missing file is fatal
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Explicit flags override everything
	flags.Visit(func(f *pflag.Flag) {
		if f.Name != "config" {
			v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
		}
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate enforces the startup invariants. Any violation here is
// fatal: the controller must never run with an ambiguous curve or a
// nonsensical cadence.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if _, err := curve.New(c.TempThresholds, c.FanSpeeds, c.FanSpeedFloor, c.FanSpeedCeiling); err != nil {
		return err
	}

	checks := []struct {
		ok      bool
		problem string
	}{
		{c.GPUID >= 0, fmt.Sprintf("gpu_id must not be negative, got %d", c.GPUID)},
		{c.Hysteresis >= 0, fmt.Sprintf("hysteresis must not be negative, got %d", c.Hysteresis)},
		{c.SamplingWindowSize >= 1, fmt.Sprintf("sampling_window_size must be at least 1, got %d", c.SamplingWindowSize)},
		{c.GlobalDelay >= 1, fmt.Sprintf("global_delay must be at least 1 second, got %d", c.GlobalDelay)},
		{c.FanDwellTime >= 0, fmt.Sprintf("fan_dwell_time must not be negative, got %d", c.FanDwellTime)},
		{!c.SmoothMode || c.SmoothModeIncrWeight > 0,
			fmt.Sprintf("smooth_mode_incr_weight must be positive, got %g", c.SmoothModeIncrWeight)},
		{!c.SmoothMode || c.SmoothModeDecrWeight > 0,
			fmt.Sprintf("smooth_mode_decr_weight must be positive, got %g", c.SmoothModeDecrWeight)},
		{!c.SmoothMode || c.SmoothModeMaxFanStep >= 1,
			fmt.Sprintf("smooth_mode_max_fan_step must be at least 1, got %d", c.SmoothModeMaxFanStep)},
		{!c.Telemetry || c.TelemetryDB != "", "database path required when telemetry is enabled"},
	}

	for _, check := range checks {
		if !check.ok {
			return errFactory.WithMessage(errors.ErrInvalidConfig, check.problem)
		}
	}

	return nil
}
