package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/veridian/veridianctl/internal/config"
	"codeberg.org/veridian/veridianctl/internal/control"
	"codeberg.org/veridian/veridianctl/internal/curve"
	"codeberg.org/veridian/veridianctl/internal/gpu"
	"codeberg.org/veridian/veridianctl/internal/logger"
	"codeberg.org/veridian/veridianctl/internal/pid"
	"codeberg.org/veridian/veridianctl/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("Exiting with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := pid.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	fanCurve, err := curve.New(cfg.TempThresholds, cfg.FanSpeeds, cfg.FanSpeedFloor, cfg.FanSpeedCeiling)
	if err != nil {
		return err
	}

	device, err := gpu.New(cfg.GPUID)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Shutdown(); err != nil {
			logger.Warn().Err(err).Msg("Failed to shut down GPU handle")
		}
	}()

	collector, err := telemetry.NewService(telemetry.Config{
		DBPath:       cfg.TelemetryDB,
		Enabled:      cfg.Telemetry,
		BatchSize:    telemetry.DefaultConfig().BatchSize,
		BatchTimeout: telemetry.DefaultConfig().BatchTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close telemetry")
		}
	}()

	// Seed convergence from the fan's actual speed so the first ticks
	// ramp from reality instead of from the curve floor
	initialSpeed := fanCurve.Floor()
	if speed, err := device.CurrentFanSpeed(); err == nil {
		initialSpeed = speed
	} else {
		logger.Warn().Err(err).Msg("Failed to read initial fan speed, using curve floor")
	}

	loop, err := control.NewLoop(control.Options{
		Curve:        fanCurve,
		Source:       device,
		Actuator:     device,
		Recorder:     collector,
		Delay:        time.Duration(cfg.GlobalDelay) * time.Second,
		DwellTime:    time.Duration(cfg.FanDwellTime) * time.Second,
		WindowSize:   cfg.SamplingWindowSize,
		Hysteresis:   cfg.Hysteresis,
		SmoothMode:   cfg.SmoothMode,
		IncrWeight:   cfg.SmoothModeIncrWeight,
		DecrWeight:   cfg.SmoothModeDecrWeight,
		MaxFanStep:   cfg.SmoothModeMaxFanStep,
		Monitor:      cfg.Monitor,
		InitialSpeed: initialSpeed,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Monitor {
		logger.Info().Msg("Monitor mode activated, fan speed will not be changed")
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}

	cleanup(device)

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// cleanup returns the GPU to firmware fan control so it is never left
// pinned at the last commanded speed.
func cleanup(device *gpu.Device) {
	if err := device.EnableAutoFanControl(); err != nil {
		logger.Error().Err(err).Msg("Failed to enable auto fan control")
	}
	logger.Info().Msg("Exiting...")
}
