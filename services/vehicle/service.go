// Package vehicle runs the real-time actuation control loop: it arbitrates
// between the RC receiver and network-originated commands, enforces the
// failsafe, slews actuation changes onto the PWM output, and exchanges
// frames with the wireless gateway over the serial link.
package vehicle

import (
	"context"
	"time"

	"vehiclecode-go/link"
	"vehiclecode-go/services/vehicle/internal/actuation"
	"vehiclecode-go/services/vehicle/internal/failsafe"
	"vehiclecode-go/services/vehicle/internal/netcmd"
	"vehiclecode-go/services/vehicle/internal/pulse"
	"vehiclecode-go/services/vehicle/internal/rcin"
	"vehiclecode-go/types"
	"vehiclecode-go/x/slew"
	"vehiclecode-go/x/timex"
)

// Port is the serial byte stream carrying link frames. Read must be
// non-blocking: it returns whatever is buffered, possibly (0, nil).
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// Sensor is the IMU data source. Implementations fill one scaled sample;
// a read failure degrades telemetry but never blocks the loop.
type Sensor interface {
	Read(*types.ImuSample) error
}

// Deps carries the injected collaborators. Sensor and the clocks are
// optional; clocks default to the wall monotonic time.
type Deps struct {
	Port   Port
	Output actuation.Output
	Sensor Sensor

	NowMs func() int64
	NowUs func() uint32
}

// Service is the single control task. All mutable state is preallocated
// and owned here; the only cross-context sharing is inside rcin and netcmd.
type Service struct {
	cfg   types.Config
	nowMs func() int64
	nowUs func() uint32

	rc     *rcin.Input
	net    *netcmd.Slot
	fs     *failsafe.Monitor
	drv    *actuation.Driver
	sensor Sensor
	port   Port
	dec    link.Decoder

	// Arbitration state.
	rcSample  types.CommandSample
	rcActive  bool
	netActive bool
	commanded types.CommandSample

	// Actuation state, mutated once per PWM cycle.
	appliedThrottle float32
	appliedSteering float32

	// Sensor snapshot, degraded to last-good on failure.
	imu         types.ImuSample
	sensorFault bool
	faultLogged bool

	seq     uint16
	pongs   uint32
	unknown uint32

	lastPWM, lastRC, lastIMU, lastTelem, lastFS int64

	rxBuf    [64]byte
	telemBuf [32]byte
}

// New builds the service. Call Init before stepping.
func New(cfg types.Config, deps Deps) *Service {
	s := &Service{
		cfg:    cfg,
		nowMs:  deps.NowMs,
		nowUs:  deps.NowUs,
		port:   deps.Port,
		sensor: deps.Sensor,
	}
	if s.nowMs == nil {
		s.nowMs = timex.NowMs
	}
	if s.nowUs == nil {
		s.nowUs = func() uint32 { return uint32(timex.NowUs()) }
	}
	geo := pulse.FromConfig(cfg)
	s.rc = rcin.NewInput(geo, cfg.RCTimeoutMs)
	s.net = netcmd.NewSlot(cfg.NetworkTimeoutMs)
	s.drv = actuation.NewDriver(deps.Output, geo)
	return s
}

// RC exposes the pulse-capture input so the platform can route edge
// interrupts into it.
func (s *Service) RC() *rcin.Input { return s.rc }

// Init prepares the output (parked at neutral) and arms the failsafe clock.
func (s *Service) Init() error {
	if err := s.drv.Init(); err != nil {
		return err
	}
	now := s.nowMs()
	s.fs = failsafe.NewMonitor(s.cfg.FailsafeTimeoutMs, now)
	s.lastPWM, s.lastRC, s.lastIMU, s.lastTelem, s.lastFS = now, now, now, now, now
	return nil
}

// Run drives the loop until the context is cancelled (in the field: until
// power-off). No step blocks; the loop yields briefly each pass.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.Step(s.nowMs())
		time.Sleep(time.Millisecond)
	}
}

// Step executes at most one instance of each step whose interval has
// elapsed. Link frames are polled every pass to minimize command latency.
func (s *Service) Step(nowMs int64) {
	s.pollLink(nowMs)

	if nowMs-s.lastRC >= s.cfg.RCPollIntervalMs {
		s.lastRC = nowMs
		s.pollRC()
	}
	s.arbitrate(nowMs)

	if s.sensor != nil && nowMs-s.lastIMU >= s.cfg.IMUReadIntervalMs {
		s.lastIMU = nowMs
		s.readSensor()
	}

	if nowMs-s.lastFS >= s.cfg.FailsafeCheckMs {
		s.lastFS = nowMs
		s.fs.Update(nowMs, s.rcActive, s.netActive)
	}
	if s.fs.Active() {
		// Forced neutral ahead of the slew stage: both entry into and
		// recovery out of failsafe ramp smoothly instead of snapping.
		s.commanded = types.CommandSample{TSms: nowMs}
	}

	if nowMs-s.lastPWM >= s.cfg.PWMUpdateIntervalMs {
		dt := nowMs - s.lastPWM
		s.lastPWM = nowMs
		s.updateActuation(dt)
	}

	if nowMs-s.lastTelem >= s.cfg.TelemSendIntervalMs {
		s.lastTelem = nowMs
		s.sendTelemetry()
	}
}

// pollLink drains buffered serial bytes and dispatches decoded frames.
func (s *Service) pollLink(nowMs int64) {
	if s.port == nil {
		return
	}
	n, err := s.port.Read(s.rxBuf[:])
	if err != nil || n == 0 {
		return
	}
	s.dec.Feed(s.rxBuf[:n])
	for {
		f, ok := s.dec.Next()
		if !ok {
			return
		}
		s.handleFrame(f, nowMs)
	}
}

func (s *Service) handleFrame(f link.Frame, nowMs int64) {
	switch f.Type {
	case link.TypeCommand:
		thr, str, err := link.DecodeCommand(f.Payload)
		if err != nil {
			s.unknown++
			return
		}
		// Ignored outright while RC owns the vehicle, not merely
		// overridden, so no stale value can leak when RC releases.
		if !s.rcActive {
			s.net.Store(thr, str, nowMs)
		}
	case link.TypePing:
		_ = link.Send(s.port, link.TypePong, nil)
	case link.TypePong:
		s.pongs++
	default:
		s.unknown++
	}
}

func (s *Service) pollRC() {
	nowUs := s.nowUs()
	thr, thrOK := s.rc.Throttle.Read(nowUs)
	str, strOK := s.rc.Steering.Read(nowUs)
	s.rcActive = thrOK && strOK
	if s.rcActive {
		s.rcSample = types.CommandSample{
			Throttle: thr,
			Steering: str,
			Source:   types.SourceRC,
		}
	}
}

func (s *Service) readSensor() {
	var d types.ImuSample
	if err := s.sensor.Read(&d); err != nil {
		s.sensorFault = true
		if !s.faultLogged {
			s.faultLogged = true
			println("[vehicle] imu read failed:", err.Error())
		}
		return
	}
	s.imu = d
	s.sensorFault = false
}

func (s *Service) updateActuation(dtMs int64) {
	s.appliedThrottle = slew.Apply(s.commanded.Throttle, s.appliedThrottle, s.cfg.ThrottleSlewPerSec, dtMs)
	s.appliedSteering = slew.Apply(s.commanded.Steering, s.appliedSteering, s.cfg.SteeringSlewPerSec, dtMs)
	_ = s.drv.Apply(actuation.Throttle, s.appliedThrottle)
	_ = s.drv.Apply(actuation.Steering, s.appliedSteering)
}

// Applied returns the actuation state, for telemetry and tests.
func (s *Service) Applied() (throttle, steering float32) {
	return s.appliedThrottle, s.appliedSteering
}

// FailsafeActive reports the current failsafe state.
func (s *Service) FailsafeActive() bool { return s.fs.Active() }

// LinkStats returns the decoder diagnostics counters.
func (s *Service) LinkStats() link.Stats { return s.dec.Stats() }
