// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultReadTimeout     = 60 * time.Second
	readHeaderTimeout      = 10 * time.Second
	idleTimeout            = 60 * time.Second
	maxHeaderBytes         = 64 << 10
)

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// Address is the TCP listen address, for example "127.0.0.1:8040".
	// Port 0 picks a free port; read it back from Addr. Required.
	Address string

	// Handler serves every request. Required.
	Handler http.Handler

	// ShutdownTimeout bounds how long Serve waits for in-flight
	// responses after its context is cancelled. Streams still running
	// at the deadline are cut. Default 10s.
	ShutdownTimeout time.Duration

	// ReadTimeout bounds reading a whole request, body included.
	// Default 60s.
	ReadTimeout time.Duration

	// Logger is required. The server's internal errors (TLS
	// handshakes, malformed requests) are logged through it at Warn.
	Logger *slog.Logger
}

// HTTPServer owns a TCP listener and the http.Server on it.
type HTTPServer struct {
	config HTTPServerConfig
	ready  chan struct{}
	addr   net.Addr
}

// NewHTTPServer validates config and fills in defaults. It panics on a
// missing required field.
func NewHTTPServer(config HTTPServerConfig) *HTTPServer {
	switch {
	case config.Address == "":
		panic("service.HTTPServer: Address is required")
	case config.Handler == nil:
		panic("service.HTTPServer: Handler is required")
	case config.Logger == nil:
		panic("service.HTTPServer: Logger is required")
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaultReadTimeout
	}
	return &HTTPServer{config: config, ready: make(chan struct{})}
}

// Ready is closed once the listener is bound.
func (s *HTTPServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the bound address. Valid after Ready is closed.
func (s *HTTPServer) Addr() net.Addr {
	return s.addr
}

func (s *HTTPServer) newServer() *http.Server {
	return &http.Server{
		Handler:           s.config.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		// No WriteTimeout: a batch response streams for as long as
		// its items keep resolving.
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.config.Logger.Handler(), slog.LevelWarn),
	}
}

// Serve listens and serves until ctx is cancelled, then stops
// accepting connections and drains in-flight responses for up to
// ShutdownTimeout. It returns nil after a clean drain.
func (s *HTTPServer) Serve(ctx context.Context) error {
	logger := s.config.Logger
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := s.newServer()
	logger.Info("http server listening", "address", s.addr.String())

	failed := make(chan error, 1)
	go func() {
		err := server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
	}

	logger.Info("http server draining", "timeout", s.config.ShutdownTimeout)
	drainCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logger.Error("http server drain incomplete, closing remaining connections", "error", err)
		server.Close()
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
