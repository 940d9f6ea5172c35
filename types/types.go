package types

// Source identifies where a command sample came from.
type Source uint8

const (
	SourceNone Source = iota
	SourceRC
	SourceNetwork
)

func (s Source) String() string {
	switch s {
	case SourceRC:
		return "rc"
	case SourceNetwork:
		return "network"
	default:
		return "none"
	}
}

// CommandSample is one (throttle, steering) pair produced by a command
// source during a polling cycle. Axes are normalized to [-1, 1].
type CommandSample struct {
	Throttle float32
	Steering float32
	TSms     int64
	Source   Source
}

// ImuSample holds one scaled IMU reading: acceleration in g, angular rate
// in degrees/second.
type ImuSample struct {
	AX, AY, AZ float32
	GX, GY, GZ float32
}

// Config carries every timing and limit of the control core.
// All durations are milliseconds on the monotonic clock the loop runs on.
type Config struct {
	// Pulse geometry shared by RC capture and PWM output.
	PulseMinUs     uint16
	PulseNeutralUs uint16
	PulseMaxUs     uint16

	PWMFreqHz uint32

	// Freshness windows.
	RCTimeoutMs       int64
	NetworkTimeoutMs  int64
	FailsafeTimeoutMs int64

	// Step intervals.
	PWMUpdateIntervalMs int64
	RCPollIntervalMs    int64
	IMUReadIntervalMs   int64
	TelemSendIntervalMs int64
	FailsafeCheckMs     int64

	// Slew limits, normalized units per second.
	ThrottleSlewPerSec float32
	SteeringSlewPerSec float32
}

// Defaults returns the production configuration: 1.0–2.0 ms pulses about a
// 1.5 ms neutral, 50 Hz actuation, 250 ms freshness windows.
func Defaults() Config {
	return Config{
		PulseMinUs:     1000,
		PulseNeutralUs: 1500,
		PulseMaxUs:     2000,

		PWMFreqHz: 50,

		RCTimeoutMs:       250,
		NetworkTimeoutMs:  250,
		FailsafeTimeoutMs: 250,

		PWMUpdateIntervalMs: 20,
		RCPollIntervalMs:    20,
		IMUReadIntervalMs:   20,
		TelemSendIntervalMs: 50,
		FailsafeCheckMs:     10,

		ThrottleSlewPerSec: 0.5,
		SteeringSlewPerSec: 1.0,
	}
}

// ClampAxis limits a normalized axis value to [-1, 1].
func ClampAxis(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
