package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	ginapi "go.pilab.hu/indexer/api/gin"
	"go.pilab.hu/indexer/config"
	"go.pilab.hu/indexer/log"
	"go.pilab.hu/indexer/services"
)

const (
	healthTimeout = 2 * time.Second
	writeSlack    = 5 * time.Second
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Options configure the routers. Gatherer and Health are optional.
type Options struct {
	Gatherer prometheus.Gatherer
	Health   HealthCheck
}

func (o Options) gatherer() prometheus.Gatherer {
	if o.Gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return o.Gatherer
}

func (o Options) check(ctx context.Context) error {
	if o.Health == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return o.Health(ctx)
}

// NewHTTPServer wraps handler with the server timeouts.
func NewHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      WriteTimeout(cfg),
		IdleTimeout:       120 * time.Second,
	}
}

// WriteTimeout is the longest a request may take to answer. Every outbound
// call is bounded by UPSTREAM_TIMEOUT and the slowest request is a full bulk
// batch: identity, exchange, then BULK_MAX_URLS publishes back to back, plus
// the status write.
func WriteTimeout(cfg *config.ServerConfig) time.Duration {
	maxURLs := cfg.BulkMaxURLs
	if maxURLs <= 0 {
		maxURLs = services.DefaultBulkMaxURLs
	}
	return time.Duration(maxURLs+3)*cfg.UpstreamTimeout + writeSlack
}

// NewRouter builds the gin engine with logging, tracing and CORS middleware,
// the relay routes and the ops endpoints.
func NewRouter(cfg *config.ServerConfig, appLogger log.Logger, api *ginapi.IndexingAPI, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(appLogger))
	router.Use(otelgin.Middleware(cfg.OtelServiceName))
	router.Use(ginapi.CORSMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := opts.check(c.Request.Context()); err != nil {
			appLogger.Warn(c.Request.Context(), "health check failed", log.Fields{"error": err.Error()})
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.gatherer(), promhttp.HandlerOpts{})))

	if api == nil {
		appLogger.Error(context.Background(), "IndexingAPI not provided, relay routes are not registered", nil)
	} else {
		api.RegisterRoutes(router)
	}

	return router
}

func requestLogger(appLogger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.Last().Error()
			appLogger.Warn(c.Request.Context(), "HTTP Request", fields)
			return
		}
		appLogger.Info(c.Request.Context(), "HTTP Request", fields)
	}
}
