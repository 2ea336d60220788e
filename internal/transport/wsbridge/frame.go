// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

// Package wsbridge carries characteristic operations over a WebSocket to a
// remote BLE bridge.
//
// Every binary message is one CBOR array [op, id, characteristic, payload].
// Requests (read, write, subscribe) are answered by a reply or an error
// frame with the same id; notifications flow from the bridge with id 0.
package wsbridge

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

// Op is the frame operation
type Op uint8

// Frame operations
const (
	OpRead      Op = 0
	OpWrite     Op = 1
	OpSubscribe Op = 2
	OpNotify    Op = 3
	OpReply     Op = 4
	OpError     Op = 5
)

// String returns the operation name
func (o Op) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpSubscribe:
		return "subscribe"
	case OpNotify:
		return "notify"
	case OpReply:
		return "reply"
	case OpError:
		return "error"
	}
	return fmt.Sprintf("op_%d", uint8(o))
}

// Frame is one bridge message
type Frame struct {
	_              struct{} `cbor:",toarray"`
	Op             Op
	ID             uint32
	Characteristic transport.Characteristic
	Payload        []byte
}

// EncodeFrame serializes f
func EncodeFrame(f Frame) ([]byte, error) {
	data, err := cbor.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

// DecodeFrame parses one bridge message
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := cbor.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	if f.Op > OpError {
		return Frame{}, fmt.Errorf("unknown frame op %d", uint8(f.Op))
	}
	if !f.Characteristic.Valid() {
		return Frame{}, fmt.Errorf("unknown characteristic %d", uint8(f.Characteristic))
	}
	return f, nil
}
