package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repo-clipboard/internal"
	"repo-clipboard/internal/catalog"
)

const shutdownTimeout = 10 * time.Second

// Service is the subset of the repository manager the API exposes
type Service interface {
	ListRepositories() ([]catalog.Repository, error)
	SyncRepository(ctx context.Context, name, branchOverride string) (*internal.SyncResult, error)
	UpdateBranch(ctx context.Context, name, branch string) (*internal.SyncResult, error)
	AddRepository(ctx context.Context, name, url, branch string) (*internal.SyncResult, error)
	AddPattern(name, label string, patterns []string) error
	Clip(ctx context.Context, name, label string) (*internal.ClipResult, error)
	Status(ctx context.Context, name string) (*internal.StatusResult, error)
}

var _ Service = (*internal.RepositoryManager)(nil)

// Server serves the JSON API over a Service
type Server struct {
	service Service
	engine  *gin.Engine
}

// NewServer registers every route against service
func NewServer(service Service) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(requestID(), logRequests(), gin.Recovery())

	s := &Server{service: service, engine: engine}

	engine.GET("/healthz", s.health)
	engine.GET("/api/repositories", s.listRepositories)
	engine.GET("/api/repositories/:repo_name/status", s.status)
	engine.POST("/api/update_repository/:repo_name", s.updateRepository)
	engine.POST("/api/run_clip_files/:repo_name/:pattern_name", s.runClip)
	engine.POST("/api/add_repository", s.addRepository)
	engine.POST("/api/add_pattern", s.addPattern)
	engine.POST("/api/update_branch/:repo_name", s.updateBranch)

	return s
}

// Handler returns the routes with request ID and logging middleware
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves handler on addr until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listRepositories(c *gin.Context) {
	repos, err := s.service.ListRepositories()
	if err != nil {
		writeError(c, statusFor(err), err.Error())
		return
	}
	if repos == nil {
		repos = []catalog.Repository{}
	}
	c.JSON(http.StatusOK, gin.H{"repositories": repos})
}

func (s *Server) updateRepository(c *gin.Context) {
	name := c.Param("repo_name")
	result, err := s.service.SyncRepository(operationContext(c), name, c.Query("branch"))
	if err != nil {
		syncFailed(c, err, name, "Failed to update repository "+name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

func (s *Server) updateBranch(c *gin.Context) {
	name := c.Param("repo_name")
	result, err := s.service.UpdateBranch(operationContext(c), name, c.PostForm("branch"))
	if err != nil {
		syncFailed(c, err, name, "Failed to update branch for "+name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

func (s *Server) addRepository(c *gin.Context) {
	name := c.PostForm("name")
	result, err := s.service.AddRepository(operationContext(c), name, c.PostForm("url"), c.PostForm("branch"))
	if err != nil {
		syncFailed(c, err, name, "Failed to clone repository "+name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message})
}

func (s *Server) addPattern(c *gin.Context) {
	name := c.PostForm("repo_name")
	label := c.PostForm("pattern_name")
	if err := s.service.AddPattern(name, label, catalog.ParsePatterns(c.PostForm("patterns"))); err != nil {
		writeError(c, statusFor(err), detailFor(err, name))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Pattern %s added to %s successfully", label, name),
	})
}

func (s *Server) runClip(c *gin.Context) {
	name, label := c.Param("repo_name"), c.Param("pattern_name")
	result, err := s.service.Clip(c.Request.Context(), name, label)
	if errors.Is(err, catalog.ErrPatternNotFound) {
		writeError(c, http.StatusNotFound, fmt.Sprintf("Pattern %s not found for repository %s", label, name))
		return
	}
	if err != nil {
		writeError(c, statusFor(err), detailFor(err, name))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) status(c *gin.Context) {
	name := c.Param("repo_name")
	result, err := s.service.Status(c.Request.Context(), name)
	if err != nil {
		writeError(c, statusFor(err), detailFor(err, name))
		return
	}
	c.JSON(http.StatusOK, result)
}

// syncFailed reports a failed sync with a fixed detail and any other error as mapped
func syncFailed(c *gin.Context, err error, name, syncDetail string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "repository", name, "error", err, "request_id", c.GetString(requestIDKey))
		writeError(c, status, syncDetail)
		return
	}
	writeError(c, status, detailFor(err, name))
}

// operationContext keeps a started git operation running when the client
// goes away, so a mirror is never left between steps.
func operationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func writeError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

const requestIDKey = "request_id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey))
	}
}
