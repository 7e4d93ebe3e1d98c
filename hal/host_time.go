package hal

import "time"

// hostClock turns wall time observed by the runners into TickDuration ticks.
type hostClock struct {
	ch  chan uint64
	seq uint64

	last time.Time
	rem  time.Duration
	now  func() time.Time
}

func newHostClock() *hostClock {
	return &hostClock{ch: make(chan uint64, 1024), now: time.Now}
}

func (c *hostClock) Ticks() <-chan uint64 { return c.ch }

// advance is called once per runner frame. The first frame counts as one tick.
func (c *hostClock) advance() {
	now := c.now()
	if c.last.IsZero() {
		c.last = now
		c.emit(1)
		return
	}
	c.rem += now.Sub(c.last)
	c.last = now

	n := uint64(c.rem / TickDuration)
	c.rem %= TickDuration
	c.emit(n)
}

func (c *hostClock) emit(n uint64) {
	for ; n > 0; n-- {
		c.seq++
		select {
		case c.ch <- c.seq:
		default:
		}
	}
}
