package vehicle

import "vehiclecode-go/types"

// arbitrate combines the two command sources each cycle under the fixed
// priority RC > NETWORK > HOLD. It reads only the sources' current state
// plus the previous commanded value; it keeps no other memory.
func (s *Service) arbitrate(nowMs int64) {
	if s.rcActive {
		// Any queued network sample is discarded without effect.
		s.net.Drop()
		s.netActive = false
		cmd := s.rcSample
		cmd.TSms = nowMs
		s.commanded = cmd
		return
	}
	if sm, ok := s.net.Latest(nowMs); ok {
		s.netActive = true
		s.commanded = types.CommandSample{
			Throttle: sm.Throttle,
			Steering: sm.Steering,
			TSms:     nowMs,
			Source:   types.SourceNetwork,
		}
		return
	}
	// HOLD: neither source fresh, keep the previous commanded value.
	s.netActive = false
}
