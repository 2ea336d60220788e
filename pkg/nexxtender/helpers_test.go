// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import "testing"

// withCRC appends the little-endian CRC-16/MODBUS of body
func withCRC(body ...byte) []byte {
	crc := CalculateCRC(body)
	return append(body, byte(crc), byte(crc>>8))
}

// corrupt returns a copy of b with one bit of byte i flipped
func corrupt(b []byte, i int) []byte {
	out := append([]byte(nil), b...)
	out[i] ^= 0x01
	return out
}

// expectKind fails unless err is a DecodeError of the given kind
func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

// lengthVariants returns buffers one byte shorter and longer than b
func lengthVariants(b []byte) [][]byte {
	return [][]byte{
		{},
		b[:len(b)-1],
		append(append([]byte(nil), b...), 0x00),
	}
}
