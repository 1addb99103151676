package tenmactl

import (
	"errors"
	"time"
)

var ErrInvalidRamp = errors.New("invalid ramp")

// A Ramp is the staircase followed by an auto-step: the value moves from
// Start toward Stop by Step every Interval, the last stair being clamped on Stop.
type Ramp struct {
	Start    int
	Stop     int
	Step     int
	Interval time.Duration
}

func NewRamp(start, stop, step int, interval time.Duration) (Ramp, error) {
	r := Ramp{
		Start:    start,
		Stop:     stop,
		Step:     step,
		Interval: interval,
	}

	if step <= 0 || interval <= 0 {
		return r, ErrInvalidRamp
	}
	return r, nil
}

// Points returns every stair, Start and Stop included.
func (r Ramp) Points() []int {
	if r.Step <= 0 {
		return []int{r.Start}
	}

	step := r.Step
	if r.Stop < r.Start {
		step = -step
	}

	points := []int{r.Start}
	for v := r.Start + step; ; v += step {
		if (step > 0 && v >= r.Stop) || (step < 0 && v <= r.Stop) {
			if points[len(points)-1] != r.Stop {
				points = append(points, r.Stop)
			}
			return points
		}
		points = append(points, v)
	}
}

// Duration is the time needed to reach Stop.
func (r Ramp) Duration() time.Duration {
	return time.Duration(len(r.Points())-1) * r.Interval
}

// At returns the value reached after elapsed.
func (r Ramp) At(elapsed time.Duration) int {
	if elapsed <= 0 || r.Interval <= 0 {
		return r.Start
	}

	points := r.Points()
	i := int(elapsed / r.Interval)
	return points[min(i, len(points)-1)]
}

// Done reports whether Stop is reached after elapsed.
func (r Ramp) Done(elapsed time.Duration) bool {
	return elapsed >= r.Duration()
}
