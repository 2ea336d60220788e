// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

// CRC-16/MODBUS configuration (0x8005 reflected)
const (
	crcPolynomial = 0xA001
	crcInitial    = 0xFFFF
)

// CRC16Modbus computes the CRC-16/MODBUS checksum of data[offset:offset+length].
// An offset or length outside data is a programming error and panics.
func CRC16Modbus(data []byte, offset, length int) uint16 {
	if offset < 0 || length < 0 || offset+length > len(data) {
		panic("nexxtender: crc range out of bounds")
	}
	crc := uint16(crcInitial)
	for _, b := range data[offset : offset+length] {
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

// CalculateCRC computes the CRC-16/MODBUS checksum of all of data
func CalculateCRC(data []byte) uint16 {
	return CRC16Modbus(data, 0, len(data))
}

// checkCRC validates the trailing little-endian checksum of a fixed-length record
func checkCRC(record string, b []byte) error {
	n := len(b) - 2
	expected := getUint16(b, n)
	calculated := CRC16Modbus(b, 0, n)
	if expected != calculated {
		return newDecodeError(ErrorChecksumMismatch, record,
			"CRC mismatch: expected 0x%04X, got 0x%04X", calculated, expected)
	}
	return nil
}

// appendCRC fills the last two bytes of b with the checksum of the rest
func appendCRC(b []byte) []byte {
	n := len(b) - 2
	putUint16(b, n, CRC16Modbus(b, 0, n))
	return b
}
