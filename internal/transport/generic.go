// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package transport

import (
	"context"
	"log"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/nexxtender"
)

// GenericTransport adapts a Link to the generic.Transport interface
type GenericTransport struct {
	link   Link
	logger *log.Logger
}

// NewGenericTransport creates a GenericTransport on link. Malformed Status
// notifications are dropped and reported to logger when it is not nil.
func NewGenericTransport(link Link, logger *log.Logger) *GenericTransport {
	return &GenericTransport{link: link, logger: logger}
}

// WriteCommand writes an encoded OperationCode to the Command characteristic
func (g *GenericTransport) WriteCommand(ctx context.Context, op []byte) error {
	return g.link.Write(ctx, GenericCommand, op)
}

// ReadData reads the Data characteristic
func (g *GenericTransport) ReadData(ctx context.Context) ([]byte, error) {
	return g.link.Read(ctx, GenericData)
}

// WriteData writes the Data characteristic
func (g *GenericTransport) WriteData(ctx context.Context, data []byte) error {
	return g.link.Write(ctx, GenericData, data)
}

// SubscribeStatus subscribes to the Status characteristic and decodes each
// notification to a StatusCode
func (g *GenericTransport) SubscribeStatus(ctx context.Context) (<-chan nexxtender.StatusCode, error) {
	raw, err := g.link.Subscribe(ctx, GenericStatus)
	if err != nil {
		return nil, err
	}

	codes := make(chan nexxtender.StatusCode, 16)
	go func() {
		defer close(codes)
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-raw:
				if !ok {
					return
				}
				code, err := nexxtender.ParseStatusCode(data)
				if err != nil {
					if g.logger != nil {
						g.logger.Printf("Dropping status notification % X: %v", data, err)
					}
					continue
				}
				select {
				case codes <- code:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return codes, nil
}
