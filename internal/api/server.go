// Package api exposes the recruiter endpoints over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	UserIDHeader = "x-user-id"

	defaultShutdownTimeout = 15 * time.Second
)

type Config struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow-origins"`
	// ComputeTimeout bounds a compute-matches run started over HTTP.
	ComputeTimeout time.Duration `mapstructure:"compute-timeout"`
}

// NewRouter wires the handler into a gin engine with CORS, recovery and
// request logging.
func NewRouter(h *Handler, cfg Config, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", UserIDHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)

	recruiter := r.Group("/recruiter", requireUser())
	{
		recruiter.POST("/parse-job", h.ParseJob)
		recruiter.POST("/compute-matches", h.ComputeMatches)
		recruiter.PUT("/update-match-status", h.UpdateMatchStatus)
		recruiter.GET("/matches", h.ListMatches)
		recruiter.POST("/matches/:matchId/viewed", h.MarkViewed)
	}

	return r
}

// Serve runs the router until ctx is done and then shuts down gracefully.
func Serve(ctx context.Context, router http.Handler, addr string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}
		if user := c.GetString(recruiterKey); user != "" {
			fields = append(fields, zap.String("recruiter_id", user))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}
