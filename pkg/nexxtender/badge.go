// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package nexxtender

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// MaxBadgeIDSize is the largest identifier the length prefix can describe
const MaxBadgeIDSize = 255

// Badge is an RFID badge known to the charger
type Badge struct {
	ID []byte
}

// ParseBadge decodes a length-prefixed badge. There is no checksum.
func ParseBadge(b []byte) (Badge, error) {
	if len(b) == 0 {
		return Badge{}, newDecodeError(ErrorLengthMismatch, "badge", "empty frame")
	}
	n := int(b[0])
	if len(b) != 1+n {
		return Badge{}, newDecodeError(ErrorLengthMismatch, "badge",
			"length prefix %d does not match %d remaining bytes", n, len(b)-1)
	}
	id := make([]byte, n)
	copy(id, b[1:])
	return Badge{ID: id}, nil
}

// Encode returns the length-prefixed wire form of the badge
func (b Badge) Encode() ([]byte, error) {
	if len(b.ID) > MaxBadgeIDSize {
		return nil, fmt.Errorf("badge id too long: %d bytes (max %d)", len(b.ID), MaxBadgeIDSize)
	}
	out := make([]byte, 0, 1+len(b.ID))
	out = append(out, uint8(len(b.ID)))
	return append(out, b.ID...), nil
}

// Equal reports whether both badges carry the same identifier
func (b Badge) Equal(other Badge) bool {
	return bytes.Equal(b.ID, other.ID)
}

// String returns the identifier as colon-separated hex, e.g. "11:22:33:44"
func (b Badge) String() string {
	parts := make([]string, len(b.ID))
	for i, v := range b.ID {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}

// ParseBadgeID parses a hex identifier, with or without ':' separators
func ParseBadgeID(s string) (Badge, error) {
	id, err := hex.DecodeString(strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return Badge{}, fmt.Errorf("invalid badge id %q: %w", s, err)
	}
	if len(id) == 0 || len(id) > MaxBadgeIDSize {
		return Badge{}, fmt.Errorf("invalid badge id %q: need 1-%d bytes", s, MaxBadgeIDSize)
	}
	return Badge{ID: id}, nil
}
