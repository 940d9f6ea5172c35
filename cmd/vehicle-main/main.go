//go:build rp2040

// vehicle-main wires the control core to an RP2040 board: PWM slices for
// the ESC and steering servo, edge interrupts for the RC receiver, UART0
// for the gateway link, and I2C0 for the IMU.
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"vehiclecode-go/drivers/mpu6050"
	"vehiclecode-go/services/vehicle"
	"vehiclecode-go/types"
	"vehiclecode-go/x/timex"
)

// Board wiring. Both actuation pins sit on one PWM slice.
const (
	pinThrottlePWM = 2 // slice 1 channel A
	pinSteeringPWM = 3 // slice 1 channel B
	pinRCThrottle  = 4
	pinRCSteering  = 5
	pinLinkTX      = 0
	pinLinkRX      = 1
	pinI2CSDA      = 8
	pinI2CSCL      = 9

	linkBaud = 115200
)

// pwmSlice matches the machine.PWMx API without naming its concrete type.
type pwmSlice interface {
	Configure(cfg machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Ensure the wiring satisfies the control-core contracts at compile time.
var (
	_ vehicle.Output = (*rp2Output)(nil)
	_ vehicle.Port   = (*linkPort)(nil)
	_ vehicle.Sensor = (*imuSource)(nil)
)

// rp2Output drives both servo channels from one 50 Hz PWM slice.
type rp2Output struct {
	pwm      pwmSlice
	freqHz   uint32
	periodUs uint32
	top      uint32
	throttle uint8
	steering uint8
}

func (o *rp2Output) Init() error {
	err := o.pwm.Configure(machine.PWMConfig{Period: timex.PeriodFromHz(o.freqHz)})
	if err != nil {
		return err
	}
	o.periodUs = timex.PeriodUsFromHz(o.freqHz)
	o.top = o.pwm.Top()
	if o.throttle, err = o.pwm.Channel(machine.Pin(pinThrottlePWM)); err != nil {
		return err
	}
	if o.steering, err = o.pwm.Channel(machine.Pin(pinSteeringPWM)); err != nil {
		return err
	}
	return nil
}

func (o *rp2Output) SetPulseWidth(ch vehicle.OutChannel, us uint16) error {
	duty := vehicle.DutyForPulse(us, o.periodUs, o.top)
	if ch == vehicle.ChannelThrottle {
		o.pwm.Set(o.throttle, duty)
	} else {
		o.pwm.Set(o.steering, duty)
	}
	return nil
}

// linkPort adapts the uartx UART to the non-blocking vehicle.Port contract.
type linkPort struct{ u *uartx.UART }

func (p *linkPort) Read(b []byte) (int, error) {
	if p.u.Buffered() == 0 {
		return 0, nil
	}
	return p.u.Read(b)
}

func (p *linkPort) Write(b []byte) (int, error) { return p.u.Write(b) }

// imuSource adapts the MPU-6050 driver to the vehicle.Sensor contract.
type imuSource struct{ dev *mpu6050.Device }

func (s *imuSource) Read(out *types.ImuSample) error {
	var d mpu6050.Data
	if err := s.dev.Read(&d); err != nil {
		return err
	}
	out.AX, out.AY, out.AZ = d.AX, d.AY, d.AZ
	out.GX, out.GY, out.GZ = d.GX, d.GY, d.GZ
	return nil
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[boot] vehicle control starting")

	cfg := types.Defaults()

	// Gateway link on UART0.
	uart := uartx.UART0
	_ = uart.Configure(uartx.UARTConfig{
		BaudRate: linkBaud,
		TX:       machine.Pin(pinLinkTX),
		RX:       machine.Pin(pinLinkRX),
	})

	// IMU is optional: a missing or miswired sensor degrades telemetry,
	// never actuation.
	var sensor vehicle.Sensor
	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		SDA:       machine.Pin(pinI2CSDA),
		SCL:       machine.Pin(pinI2CSCL),
		Frequency: 400 * machine.KHz,
	})
	if err != nil {
		println("[boot] i2c config failed:", err.Error())
	} else {
		dev := mpu6050.New(i2c)
		if err := dev.Configure(); err != nil {
			println("[boot] imu init failed, continuing without:", err.Error())
			if id := dev.WhoAmI(); id != 0 {
				println("[boot] imu WHO_AM_I:", id)
			}
		} else {
			sensor = &imuSource{dev: &dev}
		}
	}

	svc := vehicle.New(cfg, vehicle.Deps{
		Port: &linkPort{u: uart},
		Output: &rp2Output{
			pwm:    machine.PWM1,
			freqHz: cfg.PWMFreqHz,
		},
		Sensor: sensor,
	})
	if err := svc.Init(); err != nil {
		// Without a working PWM peripheral there is nothing safe to do.
		for {
			println("[boot] pwm init failed:", err.Error())
			time.Sleep(time.Second)
		}
	}

	// RC receiver edges straight into the capture channels.
	rc := svc.RC()
	thrPin := machine.Pin(pinRCThrottle)
	strPin := machine.Pin(pinRCSteering)
	thrPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	strPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	err = thrPin.SetInterrupt(machine.PinRising|machine.PinFalling, func(p machine.Pin) {
		rc.Throttle.Edge(p.Get(), uint32(timex.NowUs()))
	})
	if err != nil {
		println("[boot] rc throttle irq failed:", err.Error())
	}
	err = strPin.SetInterrupt(machine.PinRising|machine.PinFalling, func(p machine.Pin) {
		rc.Steering.Edge(p.Get(), uint32(timex.NowUs()))
	})
	if err != nil {
		println("[boot] rc steering irq failed:", err.Error())
	}

	println("[boot] control loop running")
	svc.Run(context.Background())
}
