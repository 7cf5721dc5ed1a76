package upload

import "time"

// Default and configuration values.
const (
	DefaultMinDelay    = 5 * time.Second
	DefaultMaxDelay    = 5 * time.Minute
	DefaultDelayFactor = 1.5
)

// Delay is the adaptive interval between upload attempts. It widens on any
// unproductive tick (blocked, empty queue, failed upload) and narrows on
// confirmed delivery, clamped to [min, max].
//
// Delay is intentionally unsynchronized: it is owned by the worker's
// serialized loop, which is its single writer.
type Delay struct {
	current time.Duration
	min     time.Duration
	max     time.Duration
	factor  float64
}

// NewDelay creates a Delay starting at min. Invalid arguments fall back to
// the package defaults.
func NewDelay(min, max time.Duration, factor float64) *Delay {
	if min <= 0 {
		min = DefaultMinDelay
	}
	if max < min {
		max = DefaultMaxDelay
		if max < min {
			max = min
		}
	}
	if factor <= 1 {
		factor = DefaultDelayFactor
	}
	return &Delay{current: min, min: min, max: max, factor: factor}
}

// Current returns the present inter-attempt interval.
func (d *Delay) Current() time.Duration { return d.current }

// Increase widens the delay multiplicatively, saturating at max.
func (d *Delay) Increase() {
	next := time.Duration(float64(d.current) * d.factor)
	if next > d.max {
		next = d.max
	}
	d.current = next
}

// Decrease narrows the delay multiplicatively, saturating at min.
func (d *Delay) Decrease() {
	next := time.Duration(float64(d.current) / d.factor)
	if next < d.min {
		next = d.min
	}
	d.current = next
}
