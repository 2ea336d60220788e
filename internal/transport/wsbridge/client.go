// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package wsbridge

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

// Options configures a bridge connection
type Options struct {
	Username         string
	Password         string
	SkipSSLVerify    bool
	HandshakeTimeout time.Duration
	Logger           *log.Logger
}

// RemoteError is an error frame returned by the bridge
type RemoteError struct {
	Op             Op
	Characteristic transport.Characteristic
	Message        string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("bridge %s %s: %s", e.Op, e.Characteristic, e.Message)
}

// Link is a transport.Link backed by a WebSocket bridge
type Link struct {
	conn   *websocket.Conn
	logger *log.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint32
	pending map[uint32]chan Frame
	subs    map[transport.Characteristic][]chan []byte
	closed  bool
	err     error
	done    chan struct{}
}

// Dial connects to a bridge with HTTP Basic auth
func Dial(ctx context.Context, wsURL string, opts Options) (*Link, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	timeout := opts.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newLink(conn, opts.Logger), nil
}

func newLink(conn *websocket.Conn, logger *log.Logger) *Link {
	l := &Link{
		conn:    conn,
		logger:  logger,
		pending: make(map[uint32]chan Frame),
		subs:    make(map[transport.Characteristic][]chan []byte),
		done:    make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// Read reads a characteristic through the bridge
func (l *Link) Read(ctx context.Context, c transport.Characteristic) ([]byte, error) {
	reply, err := l.request(ctx, Frame{Op: OpRead, Characteristic: c})
	if err != nil {
		return nil, err
	}
	return reply.Payload, nil
}

// Write writes a characteristic through the bridge
func (l *Link) Write(ctx context.Context, c transport.Characteristic, data []byte) error {
	_, err := l.request(ctx, Frame{Op: OpWrite, Characteristic: c, Payload: data})
	return err
}

// Subscribe enables notifications of c on the bridge
func (l *Link) Subscribe(ctx context.Context, c transport.Characteristic) (<-chan []byte, error) {
	sub := make(chan []byte, 64)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, transport.ErrClosed
	}
	l.subs[c] = append(l.subs[c], sub)
	l.mu.Unlock()

	if _, err := l.request(ctx, Frame{Op: OpSubscribe, Characteristic: c}); err != nil {
		l.unsubscribe(c, sub)
		return nil, err
	}

	go func() {
		select {
		case <-ctx.Done():
			l.unsubscribe(c, sub)
		case <-l.done:
		}
	}()
	return sub, nil
}

// Close closes the WebSocket and every subscription
func (l *Link) Close() error {
	l.shutdown(transport.ErrClosed)
	return l.conn.Close()
}

func (l *Link) unsubscribe(c transport.Characteristic, sub chan []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	subs := l.subs[c]
	for i, s := range subs {
		if s == sub {
			l.subs[c] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// request sends f with a fresh id and waits for the matching reply
func (l *Link) request(ctx context.Context, f Frame) (Frame, error) {
	replies := make(chan Frame, 1)

	l.mu.Lock()
	if l.closed {
		err := l.err
		l.mu.Unlock()
		return Frame{}, err
	}
	l.nextID++
	if l.nextID == 0 {
		l.nextID++
	}
	f.ID = l.nextID
	l.pending[f.ID] = replies
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.pending, f.ID)
		l.mu.Unlock()
	}()

	if err := l.send(f); err != nil {
		return Frame{}, err
	}

	select {
	case reply := <-replies:
		if reply.Op == OpError {
			return Frame{}, &RemoteError{Op: f.Op, Characteristic: f.Characteristic, Message: string(reply.Payload)}
		}
		return reply, nil
	case <-l.done:
		l.mu.Lock()
		err := l.err
		l.mu.Unlock()
		return Frame{}, err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (l *Link) send(f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if err := l.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to send %s frame: %w", f.Op, err)
	}
	return nil
}

func (l *Link) readLoop() {
	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			l.shutdown(fmt.Errorf("bridge connection lost: %w", err))
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}

		f, err := DecodeFrame(data)
		if err != nil {
			l.logf("Ignoring bridge message: %v", err)
			continue
		}
		l.dispatch(f)
	}
}

func (l *Link) dispatch(f Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch f.Op {
	case OpNotify:
		for _, sub := range l.subs[f.Characteristic] {
			select {
			case sub <- f.Payload:
			default:
				l.logf("Dropping %s notification, subscriber is full", f.Characteristic)
			}
		}
	case OpReply, OpError:
		if replies, ok := l.pending[f.ID]; ok {
			replies <- f
			delete(l.pending, f.ID)
		}
	default:
		l.logf("Ignoring unexpected %s frame from bridge", f.Op)
	}
}

// shutdown fails pending requests with err and closes subscriptions
func (l *Link) shutdown(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.err = err
	close(l.done)
	for c, subs := range l.subs {
		for _, sub := range subs {
			close(sub)
		}
		delete(l.subs, c)
	}
}

func (l *Link) logf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Printf(format, args...)
	}
}
