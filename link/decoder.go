package link

import "encoding/binary"

// Stats counts decoder outcomes for diagnostics. Corrupt input is never
// fatal; every counter increment corresponds to a silent drop or a frame.
type Stats struct {
	Frames   uint32 // valid frames surfaced
	Resync   uint32 // bytes skipped hunting for a preamble
	BadVer   uint32 // preamble found but version unknown
	Oversize uint32 // declared length above MaxPayload
	BadCRC   uint32 // checksum mismatch
	Overflow uint32 // bytes dropped because the buffer filled
}

// Decoder is a streaming parser over a raw byte sequence. It keeps a fixed
// preallocated window; on any mismatch it drops exactly one byte and
// rescans, so a corrupt frame never desynchronizes the ones that follow.
// The zero value is ready to use.
type Decoder struct {
	buf  [2 * MaxFrameSize]byte
	n    int
	pend int // bytes of the last surfaced frame, consumed lazily
	stat Stats
}

// Stats returns a snapshot of the diagnostic counters.
func (d *Decoder) Stats() Stats { return d.stat }

// Feed appends raw bytes to the window. If the window is full the oldest
// bytes are discarded (counted in Stats.Overflow); callers should drain
// with Next between reads to avoid that.
func (d *Decoder) Feed(p []byte) {
	d.consumePending()
	for _, b := range p {
		if d.n == len(d.buf) {
			d.drop(1)
			d.stat.Overflow++
		}
		d.buf[d.n] = b
		d.n++
	}
}

// Next scans for the next valid frame. The returned payload aliases the
// internal buffer and is invalidated by the following Feed or Next call.
func (d *Decoder) Next() (Frame, bool) {
	d.consumePending()
	for {
		if d.n < 1 {
			return Frame{}, false
		}
		if d.buf[0] != Preamble0 {
			d.drop(1)
			d.stat.Resync++
			continue
		}
		if d.n < 2 {
			return Frame{}, false
		}
		if d.buf[1] != Preamble1 {
			d.drop(1)
			d.stat.Resync++
			continue
		}
		if d.n < headerSize {
			return Frame{}, false
		}
		if d.buf[2] != Version {
			d.drop(1)
			d.stat.BadVer++
			continue
		}
		length := int(binary.LittleEndian.Uint16(d.buf[4:6]))
		if length > MaxPayload {
			d.drop(1)
			d.stat.Oversize++
			continue
		}
		total := headerSize + length + crcSize
		if d.n < total {
			return Frame{}, false
		}
		want := binary.LittleEndian.Uint16(d.buf[headerSize+length:])
		if Checksum(d.buf[2:headerSize+length]) != want {
			d.drop(1)
			d.stat.BadCRC++
			continue
		}
		d.stat.Frames++
		d.pend = total
		return Frame{
			Type:    Type(d.buf[3]),
			Payload: d.buf[headerSize : headerSize+length],
		}, true
	}
}

func (d *Decoder) consumePending() {
	if d.pend > 0 {
		d.drop(d.pend)
		d.pend = 0
	}
}

func (d *Decoder) drop(k int) {
	copy(d.buf[:], d.buf[k:d.n])
	d.n -= k
}
