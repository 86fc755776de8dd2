package control

import "math"

// Smoother bounds how fast the emitted speed approaches the mapped
// target, with separate weights for warming and cooling and a hard
// per-tick step cap.
type Smoother struct {
	incrWeight float64
	decrWeight float64
	maxStep    int
	floor      int
	ceiling    int
}

// NewSmoother creates a smoother. Weights divide the remaining delta
// per tick (a weight of 4 closes a quarter of the gap); maxStep caps
// the per-tick change regardless of weight.
func NewSmoother(incrWeight, decrWeight float64, maxStep, floor, ceiling int) *Smoother {
	return &Smoother{
		incrWeight: incrWeight,
		decrWeight: decrWeight,
		maxStep:    maxStep,
		floor:      floor,
		ceiling:    ceiling,
	}
}

// Next returns the speed to emit this tick while converging from
// current toward target. Within maxStep of the target it snaps exactly
// onto it, so convergence terminates without overshoot or dither.
func (s *Smoother) Next(current, target int) int {
	delta := target - current
	if delta == 0 {
		return clamp(current, s.floor, s.ceiling)
	}

	if abs(delta) <= s.maxStep {
		return clamp(target, s.floor, s.ceiling)
	}

	weight := s.incrWeight
	if delta < 0 {
		weight = s.decrWeight
	}

	step := int(math.Round(float64(delta) / weight))
	if step == 0 {
		// A heavy weight must slow convergence, never stall it.
		if delta > 0 {
			step = 1
		} else {
			step = -1
		}
	}
	step = clamp(step, -s.maxStep, s.maxStep)

	return clamp(current+step, s.floor, s.ceiling)
}

func clamp(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}

	return value
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
