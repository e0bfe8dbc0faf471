package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"nano-decode-go/internal/logger"
)

// NewEcho creates an echo instance with the API routes and middleware
func NewEcho(s *Server) *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

// ListenAndServe serves the API on addr until ctx is canceled
func ListenAndServe(ctx context.Context, s *Server, addr string, readTimeout time.Duration) error {
	e := NewEcho(s)
	logger.Log.Info("starting server", "address", addr)
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = readTimeout
			return nil
		},
	}
	return sc.Start(ctx, e)
}
