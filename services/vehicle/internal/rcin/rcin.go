// Package rcin decodes RC receiver PWM channels from edge timestamps into
// normalized axis values with signal-loss detection.
//
// Edge runs in interrupt context; the (width, acceptance-time) pair per
// channel is the only state shared with the control task and is read as an
// atomic snapshot under the channel mutex.
package rcin

import (
	"sync"

	"vehiclecode-go/services/vehicle/internal/pulse"
)

// Channel captures one RC input line. Create with NewChannel; one instance
// per physical pin.
type Channel struct {
	mu  sync.Mutex
	geo pulse.Map

	timeoutUs uint32

	riseUs      uint32 // last rising-edge timestamp
	risePending bool   // a rise was seen, the matching fall is outstanding
	widthUs     uint32 // last accepted pulse width
	acceptUs    uint32 // timestamp of the last accepted pulse
	seen        bool   // at least one pulse accepted since creation
}

// NewChannel builds a channel with the given pulse geometry and freshness
// window.
func NewChannel(geo pulse.Map, timeoutMs int64) *Channel {
	return &Channel{geo: geo, timeoutUs: uint32(timeoutMs) * 1000}
}

// Edge records one input transition. level=true is a rising edge. nowUs is
// a monotonic microsecond timestamp; arithmetic is wrap-safe. Safe to call
// from interrupt context: no allocation, bounded critical section.
func (c *Channel) Edge(level bool, nowUs uint32) {
	c.mu.Lock()
	if level {
		c.riseUs = nowUs
		c.risePending = true
	} else if c.risePending {
		width := nowUs - c.riseUs
		if c.geo.InRange(width) {
			c.widthUs = width
			c.acceptUs = nowUs
			c.seen = true
		}
		c.risePending = false
	}
	c.mu.Unlock()
}

// Read returns the normalized axis value for the most recent accepted
// pulse, or ok=false when no pulse has been accepted within the freshness
// window ("no signal").
func (c *Channel) Read(nowUs uint32) (axis float32, ok bool) {
	c.mu.Lock()
	width, acceptAt, seen := c.widthUs, c.acceptUs, c.seen
	c.mu.Unlock()

	if !seen || nowUs-acceptAt >= c.timeoutUs {
		return 0, false
	}
	return c.geo.ToAxis(uint16(width)), true
}

// Fresh reports whether the channel has an accepted pulse inside the window.
func (c *Channel) Fresh(nowUs uint32) bool {
	c.mu.Lock()
	acceptAt, seen := c.acceptUs, c.seen
	c.mu.Unlock()
	return seen && nowUs-acceptAt < c.timeoutUs
}

// Input couples the throttle and steering channels of one receiver.
type Input struct {
	Throttle *Channel
	Steering *Channel
}

// NewInput builds both channels over a shared geometry.
func NewInput(geo pulse.Map, timeoutMs int64) *Input {
	return &Input{
		Throttle: NewChannel(geo, timeoutMs),
		Steering: NewChannel(geo, timeoutMs),
	}
}

// Active reports whether RC currently owns the vehicle: both channels must
// be simultaneously fresh.
func (in *Input) Active(nowUs uint32) bool {
	return in.Throttle.Fresh(nowUs) && in.Steering.Fresh(nowUs)
}
