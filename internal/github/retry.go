package github

import (
	"time"

	"github.com/cenkalti/backoff"
)

// fibonacciBackOff waits unit, unit, 2*unit, 3*unit, 5*unit, ... capped
// at max.
type fibonacciBackOff struct {
	unit time.Duration
	max  time.Duration

	prev, cur time.Duration
}

var _ backoff.BackOff = (*fibonacciBackOff)(nil)

func newFibonacciBackOff(unit, max time.Duration) *fibonacciBackOff {
	b := &fibonacciBackOff{unit: unit, max: max}
	b.Reset()
	return b
}

func (b *fibonacciBackOff) Reset() {
	b.prev, b.cur = 0, b.unit
}

func (b *fibonacciBackOff) NextBackOff() time.Duration {
	next := b.cur
	b.prev, b.cur = b.cur, b.prev+b.cur
	if b.max > 0 && next > b.max {
		return b.max
	}
	return next
}
