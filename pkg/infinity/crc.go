// SPDX-License-Identifier: Apache-2.0

package infinity

// CalculateCRC computes the CRC-16/ARC checksum used by the bus
// (polynomial 0x8005 reflected, initial value 0). Frames append it to
// the header+payload bytes LSB first.
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}
