package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// requestLogger logs one line per request with method, path, status and latency.
func requestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	entry := log.WithField("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			entry.WithFields(logrus.Fields{
				"remote":  c.RealIP(),
				"method":  req.Method,
				"path":    req.RequestURI,
				"status":  res.Status,
				"bytes":   res.Size,
				"latency": time.Since(start).String(),
			}).Info("request")

			return err
		}
	}
}
