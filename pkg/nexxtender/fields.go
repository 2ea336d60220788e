// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import "encoding/binary"

// Little-endian accessors at fixed offsets

func getUint16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

func getUint32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off:])
}

func getInt16(b []byte, off int) int16 {
	return int16(getUint16(b, off))
}

func getInt32(b []byte, off int) int32 {
	return int32(getUint32(b, off))
}

func putUint16(b []byte, off int, v uint16) []byte {
	binary.LittleEndian.PutUint16(b[off:], v)
	return b
}

func putUint32(b []byte, off int, v uint32) []byte {
	binary.LittleEndian.PutUint32(b[off:], v)
	return b
}

// allZero reports whether b[off:off+n] holds only zero bytes
func allZero(b []byte, off, n int) bool {
	for _, v := range b[off : off+n] {
		if v != 0 {
			return false
		}
	}
	return true
}

// fieldCursor walks a record field by field so that layouts with optional
// fields share one decode path.
type fieldCursor struct {
	buf []byte
	off int
}

func (c *fieldCursor) u8() uint8 {
	v := c.buf[c.off]
	c.off++
	return v
}

func (c *fieldCursor) u16() uint16 {
	v := getUint16(c.buf, c.off)
	c.off += 2
	return v
}

func (c *fieldCursor) putU8(v uint8) {
	c.buf[c.off] = v
	c.off++
}

func (c *fieldCursor) putU16(v uint16) {
	putUint16(c.buf, c.off, v)
	c.off += 2
}
