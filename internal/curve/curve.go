package curve

import (
	"fmt"

	"codeberg.org/veridian/veridianctl/internal/errors"
)

// Curve is a validated, immutable threshold-to-speed lookup table.
// Band i covers temperatures in [thresholds[i], thresholds[i+1]); the
// implicit band -1 covers everything below thresholds[0] and maps to
// the fan speed floor.
type Curve struct {
	thresholds []int
	speeds     []int
	floor      int
	ceiling    int
}

// BandBelow is the implicit band for temperatures under the first threshold.
const BandBelow = -1

// New validates the threshold/speed table and returns a Curve.
// The controller must never run with an ambiguous curve, so any
// violation is returned as an invalid_curve error for the caller
// to treat as fatal.
func New(thresholds, speeds []int, floor, ceiling int) (*Curve, error) {
	errFactory := errors.New()

	if len(thresholds) == 0 || len(speeds) == 0 {
		return nil, errFactory.WithMessage(errors.ErrInvalidCurve, "curve table must not be empty")
	}

	if len(thresholds) != len(speeds) {
		return nil, errFactory.WithData(errors.ErrInvalidCurve, struct {
			Thresholds int
			Speeds     int
		}{
			Thresholds: len(thresholds),
			Speeds:     len(speeds),
		})
	}

	if floor > ceiling {
		return nil, errFactory.WithMessage(errors.ErrInvalidCurve,
			fmt.Sprintf("fan speed floor (%d) above ceiling (%d)", floor, ceiling))
	}

	if err := checkStrictlyIncreasing(thresholds, "temp_thresholds"); err != nil {
		return nil, err
	}

	if err := checkStrictlyIncreasing(speeds, "fan_speeds"); err != nil {
		return nil, err
	}

	for _, speed := range speeds {
		if speed < floor || speed > ceiling {
			return nil, errFactory.WithMessage(errors.ErrInvalidCurve,
				fmt.Sprintf("fan speed %d outside bounds [%d, %d]", speed, floor, ceiling))
		}
	}

	c := &Curve{
		thresholds: make([]int, len(thresholds)),
		speeds:     make([]int, len(speeds)),
		floor:      floor,
		ceiling:    ceiling,
	}
	copy(c.thresholds, thresholds)
	copy(c.speeds, speeds)

	return c, nil
}

func checkStrictlyIncreasing(values []int, name string) error {
	errFactory := errors.New()

	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return errFactory.WithMessage(errors.ErrInvalidCurve,
				fmt.Sprintf("%s must be strictly increasing: %d followed by %d", name, values[i-1], values[i]))
		}
	}

	return nil
}

// BandFor returns the highest band whose threshold avgTemp has reached,
// or BandBelow when avgTemp is under every threshold. Pure lookup; no
// hysteresis is applied here.
func (c *Curve) BandFor(avgTemp int) int {
	band := BandBelow
	for i, threshold := range c.thresholds {
		if avgTemp < threshold {
			break
		}
		band = i
	}

	return band
}

// SpeedFor returns the fan speed for a band; the floor for BandBelow.
func (c *Curve) SpeedFor(band int) int {
	if band <= BandBelow {
		return c.floor
	}
	if band >= len(c.speeds) {
		return c.speeds[len(c.speeds)-1]
	}

	return c.speeds[band]
}

// Threshold returns the lower temperature bound of a band.
func (c *Curve) Threshold(band int) int {
	return c.thresholds[band]
}

// Bands returns the number of explicit bands in the table.
func (c *Curve) Bands() int {
	return len(c.thresholds)
}

// Floor returns the lowest speed the controller may command.
func (c *Curve) Floor() int {
	return c.floor
}

// Ceiling returns the highest speed the controller may command.
func (c *Curve) Ceiling() int {
	return c.ceiling
}
