package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Server is the liveness endpoint that keeps hosting platforms from idling the bot.
// It also exposes Prometheus metrics.
type Server struct {
	Addr    string
	Version string
	Log     *logrus.Entry

	started    time.Time
	httpServer *http.Server
}

// New creates a Server listening on addr.
func New(addr, version string, log *logrus.Entry) *Server {
	return &Server{Addr: addr, Version: version, Log: log, started: time.Now()}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is running!")
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": s.Version,
			"uptime":  time.Since(s.started).Round(time.Second).String(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.Log.WithField("addr", s.Addr).Info("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		s.Log.Info("http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
