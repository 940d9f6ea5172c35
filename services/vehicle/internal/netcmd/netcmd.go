// Package netcmd holds the most recent network-originated drive command.
// A single-slot overwrite mailbox is sufficient: only the newest sample is
// ever meaningful, so there is no queue and no backpressure.
package netcmd

import (
	"sync"

	"vehiclecode-go/types"
)

// Sample is the latest received command with its receipt time.
type Sample struct {
	Throttle float32
	Steering float32
	AtMs     int64
}

// Slot is the producer(link)/consumer(control loop) mailbox.
type Slot struct {
	mu        sync.Mutex
	s         Sample
	has       bool
	timeoutMs int64
}

// NewSlot builds a slot with the given freshness window.
func NewSlot(timeoutMs int64) *Slot {
	return &Slot{timeoutMs: timeoutMs}
}

// Store overwrites the slot with a new command. Axes are clamped on write.
func (sl *Slot) Store(throttle, steering float32, nowMs int64) {
	sl.mu.Lock()
	sl.s = Sample{
		Throttle: types.ClampAxis(throttle),
		Steering: types.ClampAxis(steering),
		AtMs:     nowMs,
	}
	sl.has = true
	sl.mu.Unlock()
}

// Latest returns the stored sample if it is inside the freshness window.
func (sl *Slot) Latest(nowMs int64) (Sample, bool) {
	sl.mu.Lock()
	s, has := sl.s, sl.has
	sl.mu.Unlock()
	if !has || nowMs-s.AtMs >= sl.timeoutMs {
		return Sample{}, false
	}
	return s, true
}

// Drop discards any stored sample. The arbiter calls this while RC is
// active so a stale network value cannot leak in the instant RC releases
// control.
func (sl *Slot) Drop() {
	sl.mu.Lock()
	sl.has = false
	sl.mu.Unlock()
}
