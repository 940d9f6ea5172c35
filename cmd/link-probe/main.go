// link-probe is a host-side stand-in for the wireless gateway, used on the
// bench: it opens the serial device, pings the MCU, streams COMMAND frames
// from the flags, and prints every TELEM frame it decodes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.bug.st/serial"

	"vehiclecode-go/link"
)

func main() {
	var (
		portName = flag.String("port", "/dev/ttyUSB0", "serial device")
		baud     = flag.Int("baud", 115200, "baud rate")
		throttle = flag.Float64("throttle", 0, "commanded throttle [-1..1]")
		steering = flag.Float64("steering", 0, "commanded steering [-1..1]")
		interval = flag.Duration("interval", 20*time.Millisecond, "command send interval")
		ping     = flag.Duration("ping", 5*time.Second, "ping interval")
	)
	flag.Parse()

	port, err := serial.Open(*portName, &serial.Mode{BaudRate: *baud})
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer port.Close()
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		fmt.Fprintln(os.Stderr, "read timeout:", err)
		os.Exit(1)
	}

	go receive(port)

	var payload [link.MaxPayload]byte
	cmdTick := time.NewTicker(*interval)
	pingTick := time.NewTicker(*ping)
	defer cmdTick.Stop()
	defer pingTick.Stop()

	if err := link.Send(port, link.TypePing, nil); err != nil {
		fmt.Fprintln(os.Stderr, "send ping:", err)
		os.Exit(1)
	}
	for {
		select {
		case <-cmdTick.C:
			p := link.AppendCommand(payload[:0], float32(*throttle), float32(*steering))
			if err := link.Send(port, link.TypeCommand, p); err != nil {
				fmt.Fprintln(os.Stderr, "send command:", err)
				os.Exit(1)
			}
		case <-pingTick.C:
			_ = link.Send(port, link.TypePing, nil)
		}
	}
}

func receive(port serial.Port) {
	var dec link.Decoder
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			return
		}
		if n == 0 {
			continue // timeout tick
		}
		dec.Feed(buf[:n])
		for {
			f, ok := dec.Next()
			if !ok {
				break
			}
			show(f)
		}
	}
}

func show(f link.Frame) {
	switch f.Type {
	case link.TypeTelem:
		t, err := link.DecodeTelemetry(f.Payload)
		if err != nil {
			fmt.Println("telem: bad payload:", err)
			return
		}
		fmt.Printf("telem seq=%d rc=%t net=%t failsafe=%t sensor_fault=%t imu=%v applied=(%.2f, %.2f)\n",
			t.Seq,
			t.Status&link.StatusRCActive != 0,
			t.Status&link.StatusNetActive != 0,
			t.Status&link.StatusFailsafe != 0,
			t.Status&link.StatusSensorFault != 0,
			t.Imu, t.Throttle, t.Steering)
	case link.TypePong:
		fmt.Println("pong")
	default:
		fmt.Printf("frame type=%s len=%d\n", f.Type, len(f.Payload))
	}
}
