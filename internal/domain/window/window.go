// Package window provides an incremental sliding-window accumulator.
package window

import "math"

// Rolling keeps the sum and count of the finite values among the last
// size pushes. Non-finite values occupy a slot but do not contribute.
type Rolling struct {
	buf    []float64
	pos    int
	pushed int
	sum    float64
	finite int
}

// New returns a Rolling window of the given size (minimum 1).
func New(size int) *Rolling {
	if size < 1 {
		size = 1
	}
	return &Rolling{buf: make([]float64, size)}
}

// Size returns the window capacity.
func (r *Rolling) Size() int { return len(r.buf) }

// Push adds v and evicts the oldest value once the window is full.
func (r *Rolling) Push(v float64) {
	if r.pushed >= len(r.buf) {
		old := r.buf[r.pos]
		if isFinite(old) {
			r.sum -= old
			r.finite--
		}
	}
	r.buf[r.pos] = v
	if isFinite(v) {
		r.sum += v
		r.finite++
	}
	r.pos = (r.pos + 1) % len(r.buf)
	r.pushed++
}

// Full reports whether size values have been pushed.
func (r *Rolling) Full() bool { return r.pushed >= len(r.buf) }

// Count returns the number of finite values currently in the window.
func (r *Rolling) Count() int { return r.finite }

// Mean returns the mean of the finite values, or NaN when the window is not
// full or holds no finite value.
func (r *Rolling) Mean() float64 {
	if !r.Full() || r.finite == 0 {
		return math.NaN()
	}
	return r.sum / float64(r.finite)
}

// Reset empties the window.
func (r *Rolling) Reset() {
	for i := range r.buf {
		r.buf[i] = 0
	}
	r.pos, r.pushed, r.sum, r.finite = 0, 0, 0, 0
}

// Trailing returns out[i] = mean(series[i-size+1..i]); the first size-1
// entries are NaN.
func Trailing(series []float64, size int) []float64 {
	r := New(size)
	out := make([]float64, len(series))
	for i, v := range series {
		r.Push(v)
		out[i] = r.Mean()
	}
	return out
}

// Centered returns the moving average centered on each index, with NaN at the
// edges where the window does not fit. For even sizes the window extends one
// sample further forward than backward.
func Centered(series []float64, size int) []float64 {
	if size < 1 {
		size = 1
	}
	trail := Trailing(series, size)
	half := size / 2
	out := make([]float64, len(series))
	for i := range out {
		j := i + half
		if j < len(trail) {
			out[i] = trail[j]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
