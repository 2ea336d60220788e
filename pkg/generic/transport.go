// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package generic

import (
	"context"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// Transport is the view of the generic GATT service a Session drives.
//
// SubscribeStatus delivers decoded Status notifications in arrival order
// and closes the channel when the link goes away. Timeouts and retries
// belong to the implementation; a Session never retries.
type Transport interface {
	// WriteCommand writes a 2-byte little-endian OperationCode to Command
	WriteCommand(ctx context.Context, op []byte) error

	// ReadData reads the current payload of the Data characteristic
	ReadData(ctx context.Context) ([]byte, error)

	// WriteData writes a payload to the Data characteristic
	WriteData(ctx context.Context, data []byte) error

	// SubscribeStatus enables Status notifications
	SubscribeStatus(ctx context.Context) (<-chan nexxtender.StatusCode, error)
}
