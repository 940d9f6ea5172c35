// Package pulse maps normalized axis values to servo pulse widths and back.
// The mapping is affine and piecewise-symmetric about the neutral width:
// [MinUs,NeutralUs] -> [-1,0] and [NeutralUs,MaxUs] -> [0,1].
package pulse

import (
	"vehiclecode-go/types"
	"vehiclecode-go/x/mathx"
)

// Map holds the pulse geometry for one class of channel. RC capture and the
// actuation output share the same geometry in this vehicle.
type Map struct {
	MinUs     uint16
	NeutralUs uint16
	MaxUs     uint16
}

// FromConfig extracts the pulse geometry.
func FromConfig(cfg types.Config) Map {
	return Map{MinUs: cfg.PulseMinUs, NeutralUs: cfg.PulseNeutralUs, MaxUs: cfg.PulseMaxUs}
}

// ToAxis converts a pulse width to a normalized axis value, clamped to
// [-1, 1]. Widths outside [MinUs, MaxUs] saturate.
func (m Map) ToAxis(widthUs uint16) float32 {
	w := mathx.Clamp(widthUs, m.MinUs, m.MaxUs)
	if w < m.NeutralUs {
		span := float32(m.NeutralUs - m.MinUs)
		if span == 0 {
			return 0
		}
		return -float32(m.NeutralUs-w) / span
	}
	span := float32(m.MaxUs - m.NeutralUs)
	if span == 0 {
		return 0
	}
	return float32(w-m.NeutralUs) / span
}

// ToPulse converts a normalized axis value to a pulse width. The input is
// clamped to [-1, 1] first; the result is always within [MinUs, MaxUs] and
// axis 0 maps to NeutralUs exactly.
func (m Map) ToPulse(axis float32) uint16 {
	a := types.ClampAxis(axis)
	if a < 0 {
		return m.NeutralUs - uint16(-a*float32(m.NeutralUs-m.MinUs)+0.5)
	}
	return m.NeutralUs + uint16(a*float32(m.MaxUs-m.NeutralUs)+0.5)
}

// InRange reports whether a captured width is a plausible servo pulse.
func (m Map) InRange(widthUs uint32) bool {
	return mathx.Between(widthUs, uint32(m.MinUs), uint32(m.MaxUs))
}
