// Package actuation maps normalized axis values to PWM pulse widths and
// programs the hardware output through a small capability interface, so the
// control core never touches platform specifics.
package actuation

import "vehiclecode-go/services/vehicle/internal/pulse"

// Channel selects one physical output.
type Channel uint8

const (
	Throttle Channel = iota
	Steering
)

// Output is implemented once per platform (ESP32 LEDC, STM32 timer, RP2040
// PWM slice) and is the only hardware dependency of the control core.
type Output interface {
	Init() error
	SetPulseWidth(ch Channel, us uint16) error
}

// DutyForPulse converts a pulse width to a duty value in [0, top] for a
// carrier of periodUs, with 64-bit intermediates. Platform implementations
// share this so the pulse-to-duty arithmetic is tested off-target.
func DutyForPulse(us uint16, periodUs uint32, top uint32) uint32 {
	if periodUs == 0 {
		return 0
	}
	duty := uint64(us) * uint64(top) / uint64(periodUs)
	if duty > uint64(top) {
		return top
	}
	return uint32(duty)
}

// Driver applies normalized axes to the output.
type Driver struct {
	out Output
	geo pulse.Map
}

// NewDriver wires a platform output with a pulse geometry.
func NewDriver(out Output, geo pulse.Map) *Driver {
	return &Driver{out: out, geo: geo}
}

// Init prepares the hardware and parks both channels at neutral.
func (d *Driver) Init() error {
	if err := d.out.Init(); err != nil {
		return err
	}
	d.SetNeutral()
	return nil
}

// Apply programs one channel from a normalized axis value.
func (d *Driver) Apply(ch Channel, axis float32) error {
	return d.out.SetPulseWidth(ch, d.geo.ToPulse(axis))
}

// SetNeutral writes the neutral width to both channels directly, bypassing
// the axis mapping. It must stay safe to call from any state.
func (d *Driver) SetNeutral() {
	_ = d.out.SetPulseWidth(Throttle, d.geo.NeutralUs)
	_ = d.out.SetPulseWidth(Steering, d.geo.NeutralUs)
}
