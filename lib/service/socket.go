// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/dinstaller/lib/codec"
)

// ActionFunc handles one request. raw is the complete CBOR request,
// including the action field; handlers decode their own fields from it.
// A nil result produces {ok: true}; a non-nil result is placed in data.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope of every reply.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

const (
	// readTimeout bounds how long a client may take to send its
	// request after connecting.
	readTimeout = 10 * time.Second

	// writeTimeout bounds writing the response.
	writeTimeout = 10 * time.Second

	// maxRequestSize caps a single request. Question texts are short;
	// this only guards against runaway clients.
	maxRequestSize = 256 * 1024
)

// SocketServer serves registered actions on a Unix socket.
type SocketServer struct {
	socketPath string
	logger     *slog.Logger
	handlers   map[string]ActionFunc
	allowUIDs  []uint32

	ready     chan struct{}
	readyOnce sync.Once

	active sync.WaitGroup
}

// NewSocketServer creates a server for socketPath. Register actions
// with Handle before calling Serve.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		logger:     logger,
		handlers:   make(map[string]ActionFunc),
		allowUIDs:  []uint32{0, uint32(os.Getuid())},
		ready:      make(chan struct{}),
	}
}

// Handle registers the handler for action. Registering an action twice
// is a programming error and panics.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// AllowUIDs replaces the set of peer UIDs allowed to connect.
func (s *SocketServer) AllowUIDs(uids ...uint32) {
	s.allowUIDs = slices.Clone(uids)
}

// Ready is closed once the socket is listening.
func (s *SocketServer) Ready() <-chan struct{} { return s.ready }

// Serve listens on the socket and dispatches requests until ctx is
// cancelled, then waits for in-flight handlers. A stale socket file is
// replaced; the socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()
	// The socket carries passphrases; keep it away from other users
	// even before the peer check.
	if err := os.Chmod(s.socketPath, 0o660); err != nil {
		return fmt.Errorf("restricting %s: %w", s.socketPath, err)
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("control socket listening", "path", s.socketPath)
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if unixConn, ok := conn.(*net.UnixConn); ok {
		uid, err := PeerUID(unixConn)
		if err != nil {
			s.logger.Warn("reading peer credentials failed", "error", err)
			s.writeError(conn, "peer credentials unavailable")
			return
		}
		if !slices.Contains(s.allowUIDs, uid) {
			s.logger.Warn("rejected connection", "uid", uid)
			s.writeError(conn, fmt.Sprintf("uid %d is not allowed", uid))
			return
		}
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	// Long-running handlers (wait) must not trip the read deadline.
	conn.SetReadDeadline(time.Time{})

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}
	handler, exists := s.handlers[header.Action]
	if !exists {
		s.writeError(conn, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed", "action", header.Action, "error", err)
		s.writeError(conn, err.Error())
		return
	}
	s.writeSuccess(conn, result)
}

func (s *SocketServer) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{OK: false, Error: message}); err != nil {
		s.logger.Debug("writing error response failed", "error", err)
	}
}

func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: encoding response: %v", err))
			return
		}
		response.Data = data
	}
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("writing response failed", "error", err)
	}
}
