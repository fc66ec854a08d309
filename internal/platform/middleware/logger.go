package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/platform/auth"
)

// Logger emits one structured line per request: info for success, warn for
// client errors, error for handler failures and 5xx. Successful hits on public
// routes such as health checks log at debug.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			status, he := responseStatus(c, err)

			evt := logger.Info()
			switch {
			case status < http.StatusBadRequest && auth.IsPublicPath(c.Path()):
				evt = logger.Debug()
			case status >= http.StatusInternalServerError:
				evt = logger.Error().Err(err)
			case status >= http.StatusBadRequest:
				evt = logger.Warn()
				if he != nil {
					evt = evt.Interface("reason", he.Message)
				}
			}

			rid, _ := c.Get("request_id").(string)
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

// responseStatus is the code the client receives for a handler result. An
// error is rendered by the HTTPErrorHandler after the middleware chain
// returns, so its code comes from the error rather than the response.
func responseStatus(c echo.Context, err error) (int, *echo.HTTPError) {
	if err == nil || c.Response().Committed {
		return c.Response().Status, nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, he
	}
	return http.StatusInternalServerError, nil
}
