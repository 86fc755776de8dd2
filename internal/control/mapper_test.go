package control_test

import (
	"testing"

	"codeberg.org/veridian/veridianctl/internal/control"
	"codeberg.org/veridian/veridianctl/internal/curve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCurve(t *testing.T, thresholds, speeds []int, floor, ceiling int) *curve.Curve {
	t.Helper()
	c, err := curve.New(thresholds, speeds, floor, ceiling)
	require.NoError(t, err)
	return c
}

func TestMapperFirstEvaluationEstablishesBand(t *testing.T) {
	c := newTestCurve(t, []int{40, 50, 60, 78, 84}, []int{46, 55, 62, 80, 100}, 46, 100)
	m := control.NewThresholdMapper(c, 3)

	assert.Equal(t, 80, m.Target(82))
	assert.Equal(t, 3, m.ActiveBand())
}

func TestMapperBelowAllThresholds(t *testing.T) {
	c := newTestCurve(t, []int{40, 50, 60, 78, 84}, []int{46, 55, 62, 80, 100}, 46, 100)
	m := control.NewThresholdMapper(c, 3)

	assert.Equal(t, 46, m.Target(39))
	assert.Equal(t, curve.BandBelow, m.ActiveBand())
}

func TestMapperRisesImmediately(t *testing.T) {
	c := newTestCurve(t, []int{40, 50, 60, 78, 84}, []int{46, 55, 62, 80, 100}, 46, 100)
	m := control.NewThresholdMapper(c, 3)

	assert.Equal(t, 46, m.Target(35))
	// A sharp spike jumps straight to the top band, no intermediate steps
	assert.Equal(t, 100, m.Target(90))
	assert.Equal(t, 4, m.ActiveBand())
}

func TestMapperHysteresisPreventsFlutter(t *testing.T) {
	c := newTestCurve(t, []int{40, 50}, []int{46, 55}, 46, 100)
	m := control.NewThresholdMapper(c, 3)

	// Enter band 1
	assert.Equal(t, 55, m.Target(51))
	assert.Equal(t, 1, m.ActiveBand())

	// Oscillation between 48 and 51 must not drop the band: 48 is
	// still above 50-3
	for i := 0; i < 5; i++ {
		assert.Equal(t, 55, m.Target(48))
		assert.Equal(t, 1, m.ActiveBand())
		assert.Equal(t, 55, m.Target(51))
		assert.Equal(t, 1, m.ActiveBand())
	}

	// 46 clears the margin (46 < 50-3) and drops to band 0
	assert.Equal(t, 46, m.Target(46))
	assert.Equal(t, 0, m.ActiveBand())
}

func TestMapperSharpDropDescendsBandByBand(t *testing.T) {
	c := newTestCurve(t, []int{40, 50, 60, 78, 84}, []int{46, 55, 62, 80, 100}, 46, 100)
	m := control.NewThresholdMapper(c, 3)

	m.Target(90)
	require.Equal(t, 4, m.ActiveBand())

	// 55 clears the margin of bands 4 (84-3), 3 (78-3) and 2 (60-3)
	// but not band 1 (50-3=47), so the descent stops there
	assert.Equal(t, 55, m.Target(55))
	assert.Equal(t, 1, m.ActiveBand())

	// 30 clears every remaining margin and lands below all bands
	assert.Equal(t, 46, m.Target(30))
	assert.Equal(t, curve.BandBelow, m.ActiveBand())
}

func TestMapperHoldsBandInsideMargin(t *testing.T) {
	c := newTestCurve(t, []int{40, 50, 60, 78, 84}, []int{46, 55, 62, 80, 100}, 46, 100)
	m := control.NewThresholdMapper(c, 3)

	m.Target(82)
	require.Equal(t, 3, m.ActiveBand())

	// 76 is within the margin of band 3 (78-3=75), so the band holds
	assert.Equal(t, 80, m.Target(76))
	assert.Equal(t, 3, m.ActiveBand())

	// 74 clears band 3's margin but sits inside band 2
	assert.Equal(t, 62, m.Target(74))
	assert.Equal(t, 2, m.ActiveBand())
}
