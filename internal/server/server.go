// Package server exposes the REST surface: upload-and-certify, the three
// verification entry points, record lookup, artifact download and liveness.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"docproof/internal/config"
	"docproof/internal/registry"
	"docproof/internal/stamper"
	"docproof/internal/verify"
)

// maxUploadBytes caps accepted uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type Server struct {
	cfg        config.Config
	log        *logrus.Entry
	reg        registry.Registry
	stamper    *stamper.Stamper
	reconciler *verify.Reconciler
	echo       *echo.Echo
}

func New(cfg config.Config, reg registry.Registry, log *logrus.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log.WithField("component", "server"),
		reg:        reg,
		stamper:    stamper.New(cfg.CertifiedDir, cfg.QRDir, log),
		reconciler: verify.New(reg, log),
		echo:       echo.New(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(requestLogger(log))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.BodyLimit("11M")) // headroom for multipart framing around a 10 MiB file
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.POST("/api/upload", s.handleUpload)
	s.echo.POST("/api/verify", s.handleVerify)
	s.echo.POST("/api/verify-upload", s.handleVerifyUpload)
	s.echo.POST("/api/verify-qr", s.handleVerifyQR)
	s.echo.GET("/api/document/:certificateNumber", s.handleGetDocument)
	s.echo.GET("/download/:filename", s.handleDownload)
	s.echo.GET("/api/download/:filename", s.handleDownload)
	s.echo.GET("/api/health", s.handleHealth)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	s.log.WithField("addr", s.cfg.ListenAddr).Info("http server listening")
	err := s.echo.Start(s.cfg.ListenAddr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
