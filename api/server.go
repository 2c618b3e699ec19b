package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/niyastp88/zayancart/pkg/config"
	"github.com/niyastp88/zayancart/pkg/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	httpServer *http.Server
	logg       *logger.Logger
}

func NewServer(cfg *config.Config, handler http.Handler, logg *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logg: logg,
	}
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start blocks until the listener stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if s.logg != nil {
		s.logg.Info(ctx, "shutting down api server")
	}
	return s.httpServer.Shutdown(ctx)
}
