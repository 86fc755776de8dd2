package control

import "codeberg.org/veridian/veridianctl/internal/curve"

// ThresholdMapper converts an averaged temperature into a target fan
// speed. Rising temperatures switch bands immediately; falling
// temperatures must clear each band's threshold minus the hysteresis
// margin before the mapper drops out of it, so oscillation around a
// boundary never flaps the fan.
type ThresholdMapper struct {
	curve      *curve.Curve
	hysteresis int
	activeBand int
}

// NewThresholdMapper creates a mapper starting below every band; the
// first evaluation establishes the active band via rising logic alone.
func NewThresholdMapper(c *curve.Curve, hysteresis int) *ThresholdMapper {
	return &ThresholdMapper{
		curve:      c,
		hysteresis: hysteresis,
		activeBand: curve.BandBelow,
	}
}

// Target evaluates avgTemp against the curve and returns the fan speed
// of the resulting active band.
func (m *ThresholdMapper) Target(avgTemp int) int {
	if band := m.curve.BandFor(avgTemp); band > m.activeBand {
		// No hysteresis resists upward moves: cooling responsiveness
		// wins over quiet-fan preference.
		m.activeBand = band
	} else {
		// Descend one band at a time; each band is only left once the
		// temperature has fallen below its own threshold minus the
		// hysteresis margin, so a sharp drop cannot skip a band
		// without satisfying that band's margin.
		for m.activeBand > curve.BandBelow && avgTemp < m.curve.Threshold(m.activeBand)-m.hysteresis {
			m.activeBand--
		}
	}

	return m.curve.SpeedFor(m.activeBand)
}

// ActiveBand returns the band the mapper currently sits in.
func (m *ThresholdMapper) ActiveBand() int {
	return m.activeBand
}
