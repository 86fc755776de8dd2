package control

import (
	"context"
	"time"

	"codeberg.org/veridian/veridianctl/internal/curve"
	"codeberg.org/veridian/veridianctl/internal/errors"
	"codeberg.org/veridian/veridianctl/internal/logger"
)

// Options configures a control Loop.
type Options struct {
	Curve      *curve.Curve
	Source     TemperatureSource
	Actuator   SpeedActuator
	Recorder   Recorder
	Delay      time.Duration
	DwellTime  time.Duration
	WindowSize int
	Hysteresis int

	// SmoothMode bounds the per-tick change of the emitted speed.
	// When disabled the mapped target is used directly; the smoother
	// is bypassed entirely rather than run with neutral weights.
	SmoothMode bool
	IncrWeight float64
	DecrWeight float64
	MaxFanStep int

	// Monitor runs the full control math but never actuates.
	Monitor bool

	// InitialSpeed seeds the convergence state, normally the fan
	// speed read from the device at startup. Clamped to the curve
	// bounds; zero falls back to the curve floor.
	InitialSpeed int
}

// Loop runs the closed control loop: sample, average, map, smooth,
// gate, actuate. Single-threaded by design; every tick completes (or is
// skipped) before the next one starts, and cancellation is observed
// between ticks.
type Loop struct {
	opts     Options
	window   *SampleWindow
	mapper   *ThresholdMapper
	smoother *Smoother
	gate     *DwellGate
	state    State
}

// NewLoop validates options and assembles the loop components.
func NewLoop(opts Options) (*Loop, error) {
	errFactory := errors.New()

	if opts.Curve == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "curve is required")
	}
	if opts.Source == nil || opts.Actuator == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "temperature source and speed actuator are required")
	}
	if opts.Delay <= 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "polling delay must be positive")
	}

	initialSpeed := opts.InitialSpeed
	if initialSpeed == 0 {
		initialSpeed = opts.Curve.Floor()
	}
	initialSpeed = clamp(initialSpeed, opts.Curve.Floor(), opts.Curve.Ceiling())

	l := &Loop{
		opts:   opts,
		window: NewSampleWindow(opts.WindowSize),
		mapper: NewThresholdMapper(opts.Curve, opts.Hysteresis),
		gate:   NewDwellGate(opts.DwellTime),
		state: State{
			ActiveBand:   curve.BandBelow,
			CurrentSpeed: initialSpeed,
		},
	}

	if opts.SmoothMode {
		l.smoother = NewSmoother(opts.IncrWeight, opts.DecrWeight, opts.MaxFanStep,
			opts.Curve.Floor(), opts.Curve.Ceiling())
	}

	return l, nil
}

// Run polls until ctx is cancelled. Per-tick IO failures are absorbed
// and logged; keeping the device cooled outranks strict propagation.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.Delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			l.Tick(ctx, now)
		}
	}
}

// Tick executes one full control cycle: read, average, map, smooth,
// gate, actuate. Exported so tests can drive the loop with synthetic
// clocks instead of a live ticker.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	temp, err := l.opts.Source.Temperature()
	if err != nil {
		// Recoverable: keep prior state untouched and retry after the
		// next polling delay.
		logger.Warn().Err(err).Msg("Temperature read failed, skipping tick")
		return
	}

	l.window.Push(temp)
	avg := l.window.Average()

	target := l.mapper.Target(avg)

	emitted := target
	if l.smoother != nil {
		emitted = l.smoother.Next(l.state.CurrentSpeed, target)
	}

	// Convergence state advances every tick; only the hardware command
	// below is throttled by the dwell gate.
	l.state.ActiveBand = l.mapper.ActiveBand()
	l.state.CurrentSpeed = emitted

	actuated := false
	if !l.opts.Monitor && l.gate.ShouldActuate(now) {
		if err := l.opts.Actuator.SetSpeed(emitted); err != nil {
			// Dwell timestamp stays untouched so the retry happens on
			// the next tick rather than after a full dwell period.
			logger.Warn().Err(err).Int("speed", emitted).Msg("Actuation failed")
		} else {
			l.gate.Commit(now)
			l.state.LastActuation = now
			actuated = true
		}
	}

	logger.Debug().
		Int("temperature", temp).
		Int("avg_temperature", avg).
		Int("band", l.state.ActiveBand).
		Int("target_speed", target).
		Int("emitted_speed", emitted).
		Bool("actuated", actuated).
		Msg("Tick")

	if l.opts.Recorder != nil {
		snapshot := &Snapshot{
			Timestamp:          now,
			Temperature:        temp,
			AverageTemperature: avg,
			Band:               l.state.ActiveBand,
			TargetSpeed:        target,
			EmittedSpeed:       emitted,
			Actuated:           actuated,
		}
		if err := l.opts.Recorder.Record(ctx, snapshot); err != nil {
			logger.Debug().Err(err).Msg("Failed to record telemetry snapshot")
		}
	}
}

// State returns a copy of the controller state after the last tick.
func (l *Loop) State() State {
	return l.state
}

// CurrentSpeed returns the last emitted (internal) fan speed.
func (l *Loop) CurrentSpeed() int {
	return l.state.CurrentSpeed
}
