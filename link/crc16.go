package link

// CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no reflection, no final XOR.
// Both endpoints of the serial link must agree bit-for-bit; the gateway
// imports this package, so the variant is fixed here.

// Checksum returns the CRC over p.
func Checksum(p []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range p {
		crc = crcUpdate(crc, b)
	}
	return crc
}

func crcUpdate(crc uint16, b byte) uint16 {
	crc ^= uint16(b) << 8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ 0x1021
		} else {
			crc <<= 1
		}
	}
	return crc
}
