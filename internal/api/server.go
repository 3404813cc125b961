// Package api exposes the engine over HTTP: a batch JSON endpoint and a
// WebSocket stream of completed results. Grounded on the HydraDNS
// repo's internal/api Server/handler split (gin.New + gin.Recovery +
// a logging middleware, a Server wrapping *http.Server, handlers taking
// *gin.Context), the other gin-based repo in this retrieval pack.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"go.domaincheck.dev/checker/internal/engine"
)

// Server is the management/bulk-check HTTP API.
type Server struct {
	log        logr.Logger
	engine     *engine.Engine
	httpServer *http.Server
	ginEngine  *gin.Engine
}

// New builds a Server bound to host:port, backed by eng.
func New(eng *engine.Engine, log logr.Logger, host string, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.Use(requestLogger(log))

	h := &handler{engine: eng, log: log}
	registerRoutes(g, h)

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return &Server{
		log:    log,
		engine: eng,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           g,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		ginEngine: g,
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

func (s *Server) ListenAndServe() error { return s.httpServer.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.httpServer.Shutdown(ctx) }

func requestLogger(log logr.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.V(1).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).String(),
		)
	}
}
