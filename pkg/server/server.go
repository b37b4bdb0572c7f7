// Copyright 2016 TiKV Project Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AutoMQ/collection-store/pkg/server/api"
	"github.com/AutoMQ/collection-store/pkg/server/collection"
	"github.com/AutoMQ/collection-store/pkg/server/config"
	"github.com/AutoMQ/collection-store/pkg/server/handler"
	"github.com/AutoMQ/collection-store/pkg/server/watch"
	"github.com/AutoMQ/collection-store/pkg/util/logutil"
)

// Server serves the collections held in memory over HTTP.
type Server struct {
	started atomic.Bool // server status, true for started

	cfg *config.Config // Server configuration

	ctx context.Context // main context

	registry   *collection.Registry
	hub        *watch.Hub
	httpServer *http.Server
	listener   net.Listener
	serveWg    sync.WaitGroup

	lg *zap.Logger // logger
}

// NewServer creates the UNSTARTED server with given configuration.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		ctx: ctx,
		lg:  logger,
	}

	s.hub = watch.NewHub(cfg.Watch.BufferSize, logger)
	s.registry = collection.NewRegistry(s.hub)
	service := handler.Logger{LogAble: handler.NewHandler(s.registry, s.hub, logger)}
	a := api.New(service, api.Param{Name: cfg.Name, MaxBodySize: cfg.HTTP.MaxBodySize}, logger)

	errorLog, err := zap.NewStdLogAt(logger.With(zap.String("component", "http-server")), zapcore.WarnLevel)
	if err != nil {
		return nil, errors.Wrap(err, "create http error logger")
	}
	s.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		ErrorLog:     errorLog,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	return s, nil
}

// Start starts listening on the configured address and serving requests in the background.
func (s *Server) Start() error {
	if s.started.Load() {
		s.lg.Warn("server already started")
		return nil
	}

	listener, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.HTTP.Addr)
	}
	s.listener = listener

	s.serveWg.Add(1)
	go s.serve(listener)

	s.started.Store(true)
	return nil
}

func (s *Server) serve(listener net.Listener) {
	logger := s.lg.With(zap.String("listener-addr", listener.Addr().String()))
	defer logutil.LogPanicAndExit(logger)
	defer s.serveWg.Done()

	logger.Info("http server started", zap.String("server-name", s.Name()))
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		logger.Error("http server failed", zap.Error(err))
	}
}

// Name returns the name of this server.
func (s *Server) Name() string {
	return s.cfg.Name
}

// Context returns the context of server.
func (s *Server) Context() context.Context {
	return s.ctx
}

// Addr returns the address the server listens on. It is nil before the server starts.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Registry returns the collections of the server.
func (s *Server) Registry() *collection.Registry {
	return s.registry
}

// IsClosed checks whether server is closed or not.
func (s *Server) IsClosed() bool {
	return !s.started.Load()
}

// Close closes the server. Subscriptions are ended first, then in-flight requests are given
// http.shutdownTimeout to complete before their connections are closed.
func (s *Server) Close() {
	if !s.started.Swap(false) {
		// server is already closed
		return
	}

	logger := s.lg
	logger.Info("closing server")

	s.hub.Close()
	s.stopHTTPServer()
	s.serveWg.Wait()

	logger.Info("server closed")
}

func (s *Server) stopHTTPServer() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.lg.Warn("failed to shutdown http server gracefully, close it", zap.Error(err))
		_ = s.httpServer.Close()
	}
}
