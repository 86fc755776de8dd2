package control

import (
	"context"
	"time"
)

// TemperatureSource reads the current GPU temperature. Implementations
// return a sensor_unavailable error when the read cannot be completed;
// the loop treats that as recoverable and skips the tick.
type TemperatureSource interface {
	Temperature() (int, error)
}

// SpeedActuator applies a commanded fan speed in percent.
// Implementations return an actuation_failed error when the command
// could not be applied; the loop logs it and retries on the next tick.
type SpeedActuator interface {
	SetSpeed(percent int) error
}

// Recorder receives one snapshot per completed tick.
type Recorder interface {
	Record(ctx context.Context, snapshot *Snapshot) error
}

// Snapshot captures the controller's view of a single tick.
type Snapshot struct {
	Timestamp          time.Time
	Temperature        int
	AverageTemperature int
	Band               int
	TargetSpeed        int
	EmittedSpeed       int
	Actuated           bool
}

// State is the only runtime state persisted across ticks. It is owned
// and mutated exclusively by the Loop; tests may inspect it between
// explicit Tick calls.
type State struct {
	ActiveBand    int
	CurrentSpeed  int
	LastActuation time.Time
}
