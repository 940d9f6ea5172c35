// Package link implements the framed serial protocol spoken between the
// vehicle MCU and the wireless gateway.
//
// Wire layout, all multi-byte fields little-endian:
//
//	0xAA 0x55 | version(1) | type(1) | length(2) | payload | crc16(2)
//
// The CRC covers version..payload. There is no ACK or retransmission at
// this layer; loss is absorbed by freshness timeouts above it.
package link

import (
	"encoding/binary"
	"io"
	"math"

	"vehiclecode-go/errcode"
)

// Preamble bytes open every frame.
const (
	Preamble0 = 0xAA
	Preamble1 = 0x55
)

// Version is the only protocol version in the field.
const Version = 0x01

// Type is the frame type byte.
type Type byte

const (
	TypeCommand Type = 0x01
	TypeTelem   Type = 0x02
	TypePing    Type = 0x03
	TypePong    Type = 0x04
)

func (t Type) String() string {
	switch t {
	case TypeCommand:
		return "command"
	case TypeTelem:
		return "telem"
	case TypePing:
		return "ping"
	case TypePong:
		return "pong"
	default:
		return "unknown"
	}
}

// Size limits.
const (
	MaxPayload   = 64
	headerSize   = 6 // preamble(2) + version(1) + type(1) + length(2)
	crcSize      = 2
	MaxFrameSize = headerSize + MaxPayload + crcSize
)

// Frame is one decoded unit. Payload aliases the decoder's internal buffer
// and is valid only until the next Feed or Next call; copy it to retain.
type Frame struct {
	Type    Type
	Payload []byte
}

// AppendFrame serializes a frame onto dst and returns the extended slice.
func AppendFrame(dst []byte, t Type, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, errcode.PayloadSize
	}
	start := len(dst)
	dst = append(dst, Preamble0, Preamble1, Version, byte(t))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(payload)))
	dst = append(dst, payload...)
	crc := Checksum(dst[start+2:])
	return binary.LittleEndian.AppendUint16(dst, crc), nil
}

// Send writes one frame to w from a stack buffer.
func Send(w io.Writer, t Type, payload []byte) error {
	var buf [MaxFrameSize]byte
	b, err := AppendFrame(buf[:0], t, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ---- COMMAND payload: two float32 axes in [-1, 1] ----

const commandPayloadSize = 8

// AppendCommand serializes a COMMAND payload.
func AppendCommand(dst []byte, throttle, steering float32) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(throttle))
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(steering))
}

// DecodeCommand parses a COMMAND payload.
func DecodeCommand(p []byte) (throttle, steering float32, err error) {
	if len(p) != commandPayloadSize {
		return 0, 0, errcode.InvalidPayload
	}
	throttle = math.Float32frombits(binary.LittleEndian.Uint32(p[0:4]))
	steering = math.Float32frombits(binary.LittleEndian.Uint32(p[4:8]))
	return throttle, steering, nil
}

// ---- TELEM payload ----

// Telemetry status bits.
const (
	StatusRCActive    = 0x01
	StatusNetActive   = 0x02
	StatusFailsafe    = 0x04
	StatusSensorFault = 0x08
)

// Telemetry is the decoded TELEM payload. IMU readings are scaled x1000:
// milli-g for acceleration, milli-deg/s for angular rate.
type Telemetry struct {
	Seq      uint16
	Status   uint8
	Imu      [6]int16 // ax ay az gx gy gz
	Throttle float32  // applied, not commanded
	Steering float32
}

const telemetryPayloadSize = 2 + 1 + 6*2 + 4 + 4

// AppendTelemetry serializes a TELEM payload.
func AppendTelemetry(dst []byte, t Telemetry) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, t.Seq)
	dst = append(dst, t.Status)
	for _, v := range t.Imu {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(v))
	}
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(t.Throttle))
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(t.Steering))
}

// DecodeTelemetry parses a TELEM payload.
func DecodeTelemetry(p []byte) (Telemetry, error) {
	var t Telemetry
	if len(p) != telemetryPayloadSize {
		return t, errcode.InvalidPayload
	}
	t.Seq = binary.LittleEndian.Uint16(p[0:2])
	t.Status = p[2]
	for i := range t.Imu {
		t.Imu[i] = int16(binary.LittleEndian.Uint16(p[3+2*i:]))
	}
	t.Throttle = math.Float32frombits(binary.LittleEndian.Uint32(p[15:19]))
	t.Steering = math.Float32frombits(binary.LittleEndian.Uint32(p[19:23]))
	return t, nil
}
