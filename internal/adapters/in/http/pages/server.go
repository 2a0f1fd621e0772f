package pages

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/acoshift/neppage/internal/logging"
)

// NewServer builds the echo instance serving h.
func NewServer(h *Handler, log zerolog.Logger) *echo.Echo {
	log = log.With().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "http").
		Logger()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(AccessLogger(log))
	// Frame and CSP policies are left to tenants.
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	h.Register(e)
	return e
}

// AccessLogger logs every request at debug level and server errors at
// error level.
func AccessLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:        true,
		LogStatus:     true,
		LogMethod:     true,
		LogHost:       true,
		LogRemoteIP:   true,
		LogLatency:    true,
		LogError:      true,
		HandleError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Debug()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str(logging.FieldMethod, v.Method).
				Str(logging.FieldHost, v.Host).
				Str(logging.FieldPath, v.URI).
				Str("remote_ip", v.RemoteIP).
				Int(logging.FieldStatus, v.Status).
				Dur(logging.FieldDuration, v.Latency).
				Msg("request")
			return nil
		},
	})
}

// errorHandler writes plain status text; tenants never see internal errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.String(code, http.StatusText(code))
}
