// Package mpu6050 provides a minimal driver for the MPU-6050/MPU-6500
// inertial unit used only as a telemetry data source: raw burst read in,
// scaled sample out. Register semantics beyond that are datasheet detail.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package mpu6050

import (
	"errors"

	"tinygo.org/x/drivers"
)

// I2C address with AD0 low.
const Address = 0x68

// Registers.
const (
	regPwrMgmt1   = 0x6B
	regAccelXOutH = 0x3B
	regWhoAmI     = 0x75
)

// WHO_AM_I values for the two parts found on these boards.
const (
	whoAmI6050 = 0x68
	whoAmI6500 = 0x70
)

// Full-scale defaults after reset: +-2 g, +-250 deg/s.
const (
	accelScale = 16384.0 // LSB per g
	gyroScale  = 131.0   // LSB per deg/s
)

// Errors returned by the driver.
var (
	ErrBadDevice = errors.New("mpu6050: unexpected WHO_AM_I")
	ErrNotInit   = errors.New("mpu6050: not configured")
)

// Data is one scaled sample: acceleration in g, angular rate in deg/s.
type Data struct {
	AX, AY, AZ float32
	GX, GY, GZ float32
}

// Device wraps an I2C connection to the sensor.
type Device struct {
	bus     drivers.I2C
	Address uint16

	buf    [14]byte // accel(6) + temp(2) + gyro(6), reused to avoid allocs
	inited bool
	whoAmI uint8
}

// New creates the device object without touching the hardware.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure verifies WHO_AM_I and wakes the part out of sleep.
func (d *Device) Configure() error {
	var id [1]byte
	if err := d.bus.Tx(d.Address, []byte{regWhoAmI}, id[:]); err != nil {
		return err
	}
	d.whoAmI = id[0]
	if id[0] != whoAmI6050 && id[0] != whoAmI6500 {
		return ErrBadDevice
	}
	if err := d.bus.Tx(d.Address, []byte{regPwrMgmt1, 0x00}, nil); err != nil {
		return err
	}
	d.inited = true
	return nil
}

// WhoAmI returns the last identity byte read, for diagnostics.
func (d *Device) WhoAmI() uint8 { return d.whoAmI }

// Read fetches one sample with a single burst transfer.
func (d *Device) Read(out *Data) error {
	if !d.inited {
		return ErrNotInit
	}
	if err := d.bus.Tx(d.Address, []byte{regAccelXOutH}, d.buf[:]); err != nil {
		return err
	}
	be := func(i int) int16 { return int16(uint16(d.buf[i])<<8 | uint16(d.buf[i+1])) }
	out.AX = float32(be(0)) / accelScale
	out.AY = float32(be(2)) / accelScale
	out.AZ = float32(be(4)) / accelScale
	// buf[6:8] is the die temperature; not part of vehicle telemetry.
	out.GX = float32(be(8)) / gyroScale
	out.GY = float32(be(10)) / gyroScale
	out.GZ = float32(be(12)) / gyroScale
	return nil
}
