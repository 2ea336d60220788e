// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Frank HJ Cuypers

package wsbridge

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/FrankHJCuypers/gaai-sub000/internal/transport"
)

// Server exposes a transport.Link to bridge clients over WebSocket
type Server struct {
	link     transport.Link
	username string
	password string
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a bridge server for link. Clients must present the
// given Basic auth credentials when username is not empty.
func NewServer(link transport.Link, username, password string, logger *log.Logger) *Server {
	return &Server{
		link:     link,
		username: username,
		password: password,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP upgrades the request and serves bridge frames until the client
// disconnects
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.username != "" && !s.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="gaai"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sc := &serverConn{conn: conn, server: s}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		f, err := DecodeFrame(data)
		if err != nil {
			s.logf("Ignoring client message: %v", err)
			continue
		}
		sc.handle(ctx, f)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) == 1
	return userOK && passOK
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// serverConn is one client connection
type serverConn struct {
	conn    *websocket.Conn
	server  *Server
	writeMu sync.Mutex
}

func (sc *serverConn) handle(ctx context.Context, f Frame) {
	switch f.Op {
	case OpRead:
		data, err := sc.server.link.Read(ctx, f.Characteristic)
		sc.reply(f, data, err)

	case OpWrite:
		err := sc.server.link.Write(ctx, f.Characteristic, f.Payload)
		sc.reply(f, nil, err)

	case OpSubscribe:
		notifications, err := sc.server.link.Subscribe(ctx, f.Characteristic)
		if err == nil {
			go sc.forward(f.Characteristic, notifications)
		}
		sc.reply(f, nil, err)

	default:
		sc.reply(f, nil, &RemoteError{Op: f.Op, Characteristic: f.Characteristic, Message: "unsupported operation"})
	}
}

// forward relays notifications of c to the client
func (sc *serverConn) forward(c transport.Characteristic, notifications <-chan []byte) {
	for data := range notifications {
		if err := sc.send(Frame{Op: OpNotify, Characteristic: c, Payload: data}); err != nil {
			return
		}
	}
}

func (sc *serverConn) reply(req Frame, data []byte, err error) {
	f := Frame{Op: OpReply, ID: req.ID, Characteristic: req.Characteristic, Payload: data}
	if err != nil {
		f.Op = OpError
		f.Payload = []byte(err.Error())
	}
	if err := sc.send(f); err != nil {
		sc.server.logf("Failed to reply to %s: %v", req.Op, err)
	}
}

func (sc *serverConn) send(f Frame) error {
	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.conn.WriteMessage(websocket.BinaryMessage, data)
}
