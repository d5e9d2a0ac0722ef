// Package server is the Remote Store Gateway: an authenticated HTTP/JSON
// service storing one aggregate document per user.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/agent"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/metrics"
	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/pkg/models"
)

// Documents stores whole user documents
type Documents interface {
	Load(ctx context.Context, userID string) (*models.UserDocument, error)
	Save(ctx context.Context, userID string, env models.SyncEnvelope, now time.Time) error
}

// Streaks stores streak counters with a server-side increment
type Streaks interface {
	Get(ctx context.Context, userID string) (models.StreakState, error)
	Increment(ctx context.Context, userID string, upd models.ProgressUpdate) (bool, error)
}

// Tokens resolves bearer tokens to user ids
type Tokens interface {
	UserID(ctx context.Context, token string) (string, error)
}

// Deps are the collaborators of the gateway
type Deps struct {
	Documents Documents
	Streaks   Streaks
	Tokens    Tokens
	// Agent may be nil, the /agent routes then answer 503
	Agent    *agent.Service
	Metrics  *metrics.GatewayMetrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Server serves the gateway routes
type Server struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
}

// New creates a gateway server
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Server{deps: deps, logger: logger, now: now}
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/health", s.health)
	r.HEAD("/health", s.health)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authed := r.Group("/", AuthMiddleware(s.deps.Tokens))
	authed.GET("/sync", s.getDocument)
	authed.POST("/sync", s.syncDocument)
	authed.GET("/progress/streaks", s.getStreaks)
	authed.POST("/progress/update", s.updateProgress)
	authed.POST("/agent/ask", s.agentAsk)
	authed.POST("/agent/flashcards", s.agentFlashcards)
	authed.POST("/agent/reward", s.agentReward)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("gateway listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down gateway")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown: %w", err)
	}
	return nil
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		s.deps.Metrics.ObserveRequest(c.FullPath(), status)
		s.logger.Debug("request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", status, "took", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now().UTC()})
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
}
