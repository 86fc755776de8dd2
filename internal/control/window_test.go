package control_test

import (
	"testing"

	"codeberg.org/veridian/veridianctl/internal/control"
	"github.com/stretchr/testify/assert"
)

func TestSampleWindowAveragesBeforeFull(t *testing.T) {
	w := control.NewSampleWindow(5)

	w.Push(60)
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 60, w.Average())

	w.Push(70)
	assert.Equal(t, 65, w.Average())
}

func TestSampleWindowEvictsOldest(t *testing.T) {
	w := control.NewSampleWindow(3)

	for _, temp := range []int{10, 20, 30} {
		w.Push(temp)
	}
	assert.Equal(t, 20, w.Average())

	// 10 falls out of the window
	w.Push(60)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, (20+30+60)/3, w.Average())

	// 20 falls out of the window
	w.Push(60)
	assert.Equal(t, 50, w.Average())
}

func TestSampleWindowSizeOne(t *testing.T) {
	w := control.NewSampleWindow(1)

	w.Push(42)
	assert.Equal(t, 42, w.Average())

	w.Push(87)
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 87, w.Average())
}

func TestSampleWindowMinimumCapacity(t *testing.T) {
	w := control.NewSampleWindow(0)
	assert.Equal(t, 1, w.Cap())
}
