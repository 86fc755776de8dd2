package control

// SampleWindow keeps the last N temperature readings in a fixed-size
// ring and exposes their arithmetic mean. The oldest sample is evicted
// on insert once the window is full.
type SampleWindow struct {
	samples []int
	head    int
	count   int
	sum     int
}

// NewSampleWindow creates a window averaging the last size samples.
func NewSampleWindow(size int) *SampleWindow {
	if size < 1 {
		size = 1
	}

	return &SampleWindow{
		samples: make([]int, size),
	}
}

// Push inserts a sample, evicting the oldest one when full. O(1).
func (w *SampleWindow) Push(sample int) {
	if w.count == len(w.samples) {
		w.sum -= w.samples[w.head]
		w.count--
	}

	w.samples[w.head] = sample
	w.head = (w.head + 1) % len(w.samples)
	w.sum += sample
	w.count++
}

// Average returns the mean of the current samples. Valid for any fill
// level of at least one sample; callers must not invoke it on an empty
// window.
func (w *SampleWindow) Average() int {
	return w.sum / w.count
}

// Len returns the number of samples currently held.
func (w *SampleWindow) Len() int {
	return w.count
}

// Cap returns the configured window size.
func (w *SampleWindow) Cap() int {
	return len(w.samples)
}
