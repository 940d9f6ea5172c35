package vehicle

import (
	"vehiclecode-go/link"
	"vehiclecode-go/x/mathx"
)

// statusBits packs the link status bitfield for one telemetry tick.
func (s *Service) statusBits() uint8 {
	var b uint8
	if s.rcActive {
		b |= link.StatusRCActive
	}
	if s.netActive {
		b |= link.StatusNetActive
	}
	if s.fs.Active() {
		b |= link.StatusFailsafe
	}
	if s.sensor == nil || s.sensorFault {
		b |= link.StatusSensorFault
	}
	return b
}

// wire scales one reading x1000 and saturates at the int16 limits. The
// gyro full scale is +-250 deg/s, well past what +-32.767 can carry, so
// saturation is the normal case during a hard turn, not an edge case.
func wire(v float32) int16 {
	return int16(mathx.Clamp(v*1000, -32768, 32767))
}

// imuToWire packs the snapshot into the six int16 wire fields:
// milli-g for acceleration, milli-deg/s for angular rate.
func (s *Service) imuToWire() [6]int16 {
	return [6]int16{
		wire(s.imu.AX),
		wire(s.imu.AY),
		wire(s.imu.AZ),
		wire(s.imu.GX),
		wire(s.imu.GY),
		wire(s.imu.GZ),
	}
}

// sendTelemetry builds a fresh TELEM message and transmits it once.
func (s *Service) sendTelemetry() {
	if s.port == nil {
		return
	}
	t := link.Telemetry{
		Seq:      s.seq,
		Status:   s.statusBits(),
		Imu:      s.imuToWire(),
		Throttle: s.appliedThrottle,
		Steering: s.appliedSteering,
	}
	s.seq++
	payload := link.AppendTelemetry(s.telemBuf[:0], t)
	_ = link.Send(s.port, link.TypeTelem, payload)
}
