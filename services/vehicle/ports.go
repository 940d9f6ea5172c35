package vehicle

import "vehiclecode-go/services/vehicle/internal/actuation"

// Platform-facing surface of the actuation stage, re-exported so board
// wiring outside this package can implement it.
type (
	Output     = actuation.Output
	OutChannel = actuation.Channel
)

const (
	ChannelThrottle = actuation.Throttle
	ChannelSteering = actuation.Steering
)

// DutyForPulse converts a pulse width to a duty value in [0, top] for a
// carrier of periodUs.
func DutyForPulse(us uint16, periodUs uint32, top uint32) uint32 {
	return actuation.DutyForPulse(us, periodUs, top)
}
