package http

import (
	"context"
	"errors"
	"net"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// NewApp wires the status routes.
func NewApp(provider ports.StatusProvider) *fiber.App {
	handler := NewStatusHandler(provider)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/healthz", handler.Health)

	api := app.Group("/api")
	v1 := api.Group("/v1")
	v1.Get("/relay", handler.GetStatus)

	return app
}

// Server runs the status app in the background for the duration of a relay.
type Server struct {
	app    *fiber.App
	addr   net.Addr
	logger *zap.Logger
}

func NewServer(provider ports.StatusProvider, logger *zap.Logger) *Server {
	return &Server{app: NewApp(provider), logger: logger}
}

// Start binds addr and serves until Shutdown. Binding errors are returned
// synchronously so a bad address fails before the relay starts.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()

	go func() {
		if err := s.app.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("status server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("status server listening", zap.Stringer("addr", s.addr))
	return nil
}

// Addr is the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
