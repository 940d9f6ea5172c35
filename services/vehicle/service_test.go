package vehicle

import (
	"errors"
	"testing"

	"vehiclecode-go/link"
	"vehiclecode-go/services/vehicle/internal/actuation"
	"vehiclecode-go/types"
)

// fakePort is an in-memory serial port: pushed bytes appear on Read, written
// bytes accumulate for inspection.
type fakePort struct {
	in  []byte
	out []byte
}

func (p *fakePort) Read(b []byte) (int, error) {
	n := copy(b, p.in)
	p.in = p.in[n:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.out = append(p.out, b...)
	return len(b), nil
}

func (p *fakePort) push(t *testing.T, typ link.Type, payload []byte) {
	t.Helper()
	b, err := link.AppendFrame(nil, typ, payload)
	if err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	p.in = append(p.in, b...)
}

// frames decodes and drains everything the service wrote so far.
func (p *fakePort) frames(t *testing.T) []link.Frame {
	t.Helper()
	var dec link.Decoder
	dec.Feed(p.out)
	p.out = p.out[:0]
	var out []link.Frame
	for {
		f, ok := dec.Next()
		if !ok {
			return out
		}
		f.Payload = append([]byte(nil), f.Payload...)
		out = append(out, f)
	}
}

// fakeOut records the last pulse width programmed per channel.
type fakeOut struct {
	widths map[actuation.Channel]uint16
}

func (o *fakeOut) Init() error { return nil }

func (o *fakeOut) SetPulseWidth(ch actuation.Channel, us uint16) error {
	o.widths[ch] = us
	return nil
}

// fakeSensor returns a fixed sample, or an error when failing is set.
type fakeSensor struct {
	sample  types.ImuSample
	failing bool
	reads   int
}

func (s *fakeSensor) Read(out *types.ImuSample) error {
	s.reads++
	if s.failing {
		return errors.New("imu nak")
	}
	*out = s.sample
	return nil
}

type clock struct{ ms int64 }

func (c *clock) NowMs() int64  { return c.ms }
func (c *clock) NowUs() uint32 { return uint32(c.ms * 1000) }

type harness struct {
	clk  clock
	port fakePort
	out  fakeOut
	svc  *Service
}

func newHarness(t *testing.T, sensor Sensor) *harness {
	t.Helper()
	h := &harness{out: fakeOut{widths: map[actuation.Channel]uint16{}}}
	h.svc = New(types.Defaults(), Deps{
		Port:   &h.port,
		Output: &h.out,
		Sensor: sensor,
		NowMs:  h.clk.NowMs,
		NowUs:  h.clk.NowUs,
	})
	if err := h.svc.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return h
}

// runTo advances the clock one millisecond at a time, stepping the loop.
func (h *harness) runTo(ms int64) {
	for h.clk.ms < ms {
		h.clk.ms++
		h.svc.Step(h.clk.ms)
	}
}

// rcPulse plays one pulse of the given width on both RC channels, ending now.
func (h *harness) rcPulse(widthUs uint32) {
	now := h.clk.NowUs()
	rc := h.svc.RC()
	rc.Throttle.Edge(true, now-widthUs)
	rc.Throttle.Edge(false, now)
	rc.Steering.Edge(true, now-widthUs)
	rc.Steering.Edge(false, now)
}

func near(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestInitParksNeutral(t *testing.T) {
	h := newHarness(t, nil)
	if h.out.widths[actuation.Throttle] != 1500 || h.out.widths[actuation.Steering] != 1500 {
		t.Fatalf("widths after init = %v, want both 1500", h.out.widths)
	}
	thr, str := h.svc.Applied()
	if thr != 0 || str != 0 {
		t.Fatalf("applied after init = (%v, %v)", thr, str)
	}
}

func TestNetworkCommandSlewsToTarget(t *testing.T) {
	h := newHarness(t, nil)
	// Refresh the command every 100 ms so the network stays the owner.
	for h.clk.ms < 1100 {
		if h.clk.ms%100 == 0 {
			h.port.push(t, link.TypeCommand, link.AppendCommand(nil, 0.5, -1))
		}
		prevThr, prevStr := h.svc.Applied()
		h.runTo(h.clk.ms + 20)
		thr, str := h.svc.Applied()
		// 0.5 units/s throttle and 1.0 units/s steering over 20 ms.
		if d := thr - prevThr; d < 0 || d > 0.0101 {
			t.Fatalf("throttle step %v at %d ms", d, h.clk.ms)
		}
		if d := prevStr - str; d < 0 || d > 0.0201 {
			t.Fatalf("steering step %v at %d ms", d, h.clk.ms)
		}
	}
	thr, str := h.svc.Applied()
	if thr != 0.5 || str != -1 {
		t.Fatalf("applied = (%v, %v), want exactly (0.5, -1)", thr, str)
	}
	if h.out.widths[actuation.Throttle] != 1750 || h.out.widths[actuation.Steering] != 1000 {
		t.Fatalf("widths = %v, want 1750/1000", h.out.widths)
	}
}

func TestRCOverridesNetwork(t *testing.T) {
	h := newHarness(t, nil)
	for h.clk.ms < 300 {
		h.rcPulse(1750) // RC asks for +0.5 on both axes
		if h.clk.ms == 0 || h.clk.ms == 100 || h.clk.ms == 200 {
			h.port.push(t, link.TypeCommand, link.AppendCommand(nil, -1, -1))
		}
		h.runTo(h.clk.ms + 20)
		thr, str := h.svc.Applied()
		if thr < 0 || str < 0 {
			t.Fatalf("network command leaked through at %d ms: (%v, %v)", h.clk.ms, thr, str)
		}
	}
	thr, str := h.svc.Applied()
	if !near(thr, 0.15) || !near(str, 0.3) {
		t.Fatalf("applied = (%v, %v), want RC ramp (~0.15, ~0.3)", thr, str)
	}
}

func TestPingPong(t *testing.T) {
	h := newHarness(t, nil)
	h.port.push(t, link.TypePing, nil)
	h.runTo(5)
	fs := h.port.frames(t)
	if len(fs) != 1 || fs[0].Type != link.TypePong {
		t.Fatalf("frames = %v, want one pong", fs)
	}
}

func TestTelemetryCadenceAndStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.runTo(110)
	fs := h.port.frames(t)
	if len(fs) != 2 {
		t.Fatalf("telemetry frames in 110 ms = %d, want 2", len(fs))
	}
	for i, f := range fs {
		if f.Type != link.TypeTelem {
			t.Fatalf("frame %d type = %v", i, f.Type)
		}
		tm, err := link.DecodeTelemetry(f.Payload)
		if err != nil {
			t.Fatalf("DecodeTelemetry: %v", err)
		}
		if tm.Seq != uint16(i) {
			t.Fatalf("frame %d seq = %d", i, tm.Seq)
		}
		// No sources yet and no IMU fitted.
		if tm.Status != link.StatusSensorFault {
			t.Fatalf("frame %d status = %#02x, want only sensor fault", i, tm.Status)
		}
	}
}

func TestTelemetryCarriesSensorData(t *testing.T) {
	sensor := &fakeSensor{sample: types.ImuSample{AX: 0.5, AY: -1, GZ: 30.5}}
	h := newHarness(t, sensor)
	h.runTo(60)
	fs := h.port.frames(t)
	if len(fs) == 0 {
		t.Fatal("no telemetry")
	}
	tm, err := link.DecodeTelemetry(fs[0].Payload)
	if err != nil {
		t.Fatalf("DecodeTelemetry: %v", err)
	}
	if tm.Status&link.StatusSensorFault != 0 {
		t.Fatal("sensor fault flagged with a healthy sensor")
	}
	want := [6]int16{500, -1000, 0, 0, 0, 30500}
	if tm.Imu != want {
		t.Fatalf("imu wire = %v, want %v", tm.Imu, want)
	}
	if sensor.reads == 0 {
		t.Fatal("sensor never read")
	}
}

func TestTelemetrySaturatesImuWireValues(t *testing.T) {
	// A 100 deg/s turn is inside the gyro's +-250 deg/s range but far past
	// what the x1000 int16 wire format can carry; it must pin at the
	// limits, never wrap.
	sensor := &fakeSensor{sample: types.ImuSample{AX: 40, GX: 100, GY: -100}}
	h := newHarness(t, sensor)
	h.runTo(60)
	fs := h.port.frames(t)
	if len(fs) == 0 {
		t.Fatal("no telemetry")
	}
	tm, err := link.DecodeTelemetry(fs[0].Payload)
	if err != nil {
		t.Fatalf("DecodeTelemetry: %v", err)
	}
	if tm.Imu[0] != 32767 {
		t.Fatalf("ax wire = %d for 40 g, want saturated 32767", tm.Imu[0])
	}
	if tm.Imu[3] != 32767 {
		t.Fatalf("gx wire = %d for 100 deg/s, want saturated 32767", tm.Imu[3])
	}
	if tm.Imu[4] != -32768 {
		t.Fatalf("gy wire = %d for -100 deg/s, want saturated -32768", tm.Imu[4])
	}
}

func TestSensorFailureFlagsTelemetry(t *testing.T) {
	sensor := &fakeSensor{failing: true}
	h := newHarness(t, sensor)
	h.runTo(60)
	fs := h.port.frames(t)
	if len(fs) == 0 {
		t.Fatal("no telemetry")
	}
	tm, err := link.DecodeTelemetry(fs[0].Payload)
	if err != nil {
		t.Fatalf("DecodeTelemetry: %v", err)
	}
	if tm.Status&link.StatusSensorFault == 0 {
		t.Fatal("sensor fault not flagged")
	}
}

func TestFailsafeRampsToNeutral(t *testing.T) {
	h := newHarness(t, nil)
	// Network drives full throttle, then falls silent after 200 ms.
	for _, at := range []int64{0, 100, 200} {
		h.runTo(at)
		h.port.push(t, link.TypeCommand, link.AppendCommand(nil, 1, 0))
	}
	// The monitor's activity clock last advances at the 450 ms check, the
	// final one where the 201 ms sample is still fresh, so the trip lands
	// one timeout later at 700 ms.
	h.runTo(690)
	if h.svc.FailsafeActive() {
		t.Fatal("failsafe tripped early")
	}
	peak, _ := h.svc.Applied()
	if peak <= 0.3 {
		t.Fatalf("throttle never ramped up, applied = %v", peak)
	}
	h.runTo(700)
	if !h.svc.FailsafeActive() {
		t.Fatal("failsafe not tripped one timeout after last activity")
	}
	// The ramp down is slew-limited, never a snap to neutral.
	prev, _ := h.svc.Applied()
	for h.clk.ms < 1500 {
		h.runTo(h.clk.ms + 20)
		thr, _ := h.svc.Applied()
		if d := prev - thr; d < 0 || d > 0.0101 {
			t.Fatalf("throttle step %v during failsafe ramp at %d ms", d, h.clk.ms)
		}
		prev = thr
	}
	thr, str := h.svc.Applied()
	if thr != 0 || str != 0 {
		t.Fatalf("applied = (%v, %v), want neutral", thr, str)
	}
	if h.out.widths[actuation.Throttle] != 1500 {
		t.Fatalf("throttle width = %d, want 1500", h.out.widths[actuation.Throttle])
	}
}

func TestFailsafeRecoversOnNewCommand(t *testing.T) {
	h := newHarness(t, nil)
	h.runTo(300)
	if !h.svc.FailsafeActive() {
		t.Fatal("setup: failsafe should have tripped with no sources")
	}
	h.port.push(t, link.TypeCommand, link.AppendCommand(nil, 0.5, 0))
	h.runTo(340)
	if h.svc.FailsafeActive() {
		t.Fatal("failsafe did not recover on a fresh command")
	}
	thr, _ := h.svc.Applied()
	if thr <= 0 {
		t.Fatalf("throttle = %v, want ramping up after recovery", thr)
	}
}

func TestCorruptLinkBytesAreCounted(t *testing.T) {
	h := newHarness(t, nil)
	h.port.in = append(h.port.in, 0xDE, 0xAD, 0xBE, 0xEF)
	h.port.push(t, link.TypePing, nil)
	h.runTo(5)
	fs := h.port.frames(t)
	if len(fs) != 1 || fs[0].Type != link.TypePong {
		t.Fatalf("frames = %v, want one pong after garbage", fs)
	}
	if st := h.svc.LinkStats(); st.Resync == 0 || st.Frames != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
