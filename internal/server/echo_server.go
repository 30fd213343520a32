package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoapi "go.pilab.hu/indexer/api/echo"
	"go.pilab.hu/indexer/log"
)

// NewEchoRouter is the echo counterpart of NewRouter.
func NewEchoRouter(appLogger log.Logger, api *echoapi.IndexingAPI, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := log.Fields{
				"method":     v.Method,
				"path":       v.URIPath,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"ip":         v.RemoteIP,
				"user_agent": v.UserAgent,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				appLogger.Warn(c.Request().Context(), "HTTP Request", fields)
				return nil
			}
			appLogger.Info(c.Request().Context(), "HTTP Request", fields)
			return nil
		},
	}))
	e.Pre(echoapi.CORSMiddleware())

	e.GET("/healthz", func(c echo.Context) error {
		if err := opts.check(c.Request().Context()); err != nil {
			appLogger.Warn(c.Request().Context(), "health check failed", log.Fields{"error": err.Error()})
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.gatherer(), promhttp.HandlerOpts{})))

	if api == nil {
		appLogger.Error(context.Background(), "IndexingAPI not provided, relay routes are not registered", nil)
	} else {
		api.RegisterRoutes(e)
	}

	return e
}
