package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"ride-relay/internal/config"
	"ride-relay/internal/mylogger"
	"ride-relay/internal/relay-service/adapters/driven/bm"
	"ride-relay/internal/relay-service/adapters/driven/mirror"
	"ride-relay/internal/relay-service/adapters/driver/myhttp/ws"
	"ride-relay/internal/relay-service/core/ports"
	"ride-relay/internal/relay-service/core/services"
)

const WaitTime = 10

type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	srv       *http.Server
	mylog     mylogger.Logger
	mb        ports.IRelayBroker
	mirror    *mirror.Mirror
	wsHandler *ws.Handler
	addr      net.Addr
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
}

func NewServer(ctx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(ctx)
	return &Server{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}
}

// Run wires the relay, starts listening and returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	if s.cfg.RabbitMq.Enabled {
		mb, err := bm.New(s.ctx, *s.cfg.RabbitMq, s.mylog)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		s.mb = mb
		s.mirror = mirror.New(s.mylog, mb, bm.RelayExchangeName, mirror.DefaultBuffer)
		s.mirror.Run(s.ctx)
		mylog.Info("Successful message broker connection")
	}

	s.Configure()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.WS.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.addr = ln.Addr()
	s.mu.Unlock()

	mylog.WithGroup("details").With("port", s.cfg.WS.Port).Info("server is running")
	return s.serve(ln)
}

// Addr returns the bound listen address, or nil before Run has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Configure builds the dispatcher and mounts the websocket endpoint.
func (s *Server) Configure() {
	opts := services.Options{
		UniformNotFound: s.cfg.Relay.UniformNotFound,
	}
	if s.mirror != nil {
		opts.Mirror = s.mirror
	}
	dispatcher := services.NewDispatcher(s.mylog, opts)

	s.wsHandler = ws.NewHandler(s.mylog, dispatcher, s.cfg.WS.EgressBuffer)

	// every path upgrades, as clients connect to the bare host
	s.mux.Handle("/", s.wsHandler.WsHandler())
}

// Stop shuts the listener down, closes every participant connection and
// releases the broker. ctx bounds the HTTP shutdown.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down relay server...")

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.wsHandler != nil {
		s.wsHandler.CloseAll()
	}

	s.cancel()
	if s.mirror != nil {
		s.mirror.Wait()
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
			return fmt.Errorf("broker close: %w", err)
		}
		s.mylog.Info("Message broker closed")
	}

	s.mylog.Info("Relay server shut down gracefully")
	return nil
}

func (s *Server) serve(ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
