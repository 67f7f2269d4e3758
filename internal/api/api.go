package api

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/basel-ax/museframe/internal/domain"
	"github.com/basel-ax/museframe/internal/service"
	"github.com/basel-ax/museframe/internal/widget"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	shutdownTimeout     = 5 * time.Second
)

// Buttons are the labels of the frame's four buttons. B refreshes the image.
var Buttons = []string{"A", "B", "C", "D"}

// Refresher is what the API needs from the refresh service
type Refresher interface {
	Refresh(ctx context.Context) (*domain.EntryRecord, error)
	History(ctx context.Context, limit int) ([]domain.EntryRecord, error)
	LatestImage() ([]byte, error)
}

type errorResponse struct {
	Message string `json:"message"`
}

type buttonResponse struct {
	Label  string              `json:"label"`
	Action string              `json:"action"`
	Entry  *domain.EntryRecord `json:"entry,omitempty"`
}

const page = `{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>muses</title>
  <style>
    body { margin: 0; background: #111; color: #eee; font-family: sans-serif; }
    .muse { display: flex; flex-direction: column; align-items: center; padding: 1rem; }
    .muse-image { max-width: 100%; }
    .muse-prompt { max-width: 40rem; text-align: center; }
  </style>
</head>
<body>{{template "widget" .}}</body>
</html>{{end}}`

// Server serves the widget page and the frame controls
type Server struct {
	widget    *widget.Widget
	refresher Refresher
	router    *gin.Engine
	addr      string
	log       *zap.SugaredLogger
}

// NewServer builds the router
func NewServer(addr string, w *widget.Widget, refresher Refresher, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		widget:    w,
		refresher: refresher,
		addr:      addr,
		log:       log,
	}
	s.router = s.generateRouter()
	return s
}

func (s *Server) generateRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.SetHTMLTemplate(template.Must(widget.NewTemplate().Parse(page)))

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "page", s.widget.Render())
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/image/latest", s.latestImage)

	api := router.Group("/api")
	api.GET("/entry", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.widget.Render())
	})
	api.GET("/history", s.history)
	api.POST("/refresh", s.refresh)
	api.POST("/buttons/:label", s.button)

	return router
}

// GetRouter exposes the router, mainly for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

func (s *Server) refresh(c *gin.Context) {
	rec, err := s.refresher.Refresh(c.Request.Context())
	if err != nil {
		s.writeRefreshError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) button(c *gin.Context) {
	label := strings.ToUpper(c.Param("label"))
	if !isButton(label) {
		c.JSON(http.StatusNotFound, errorResponse{Message: "unknown button " + c.Param("label")})
		return
	}

	s.log.Infow("button press detected", "label", label)

	if label != "B" {
		c.JSON(http.StatusOK, buttonResponse{Label: label, Action: "none"})
		return
	}

	s.log.Info("button B pressed, fetching new image")
	rec, err := s.refresher.Refresh(c.Request.Context())
	if err != nil {
		s.writeRefreshError(c, err)
		return
	}
	c.JSON(http.StatusOK, buttonResponse{Label: label, Action: "refresh", Entry: rec})
}

func (s *Server) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, errorResponse{Message: "limit must be between 1 and " + strconv.Itoa(maxHistoryLimit)})
			return
		}
		limit = n
	}

	records, err := s.refresher.History(c.Request.Context(), limit)
	if err != nil {
		s.log.Errorw("failed to load history", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		return
	}
	if records == nil {
		records = []domain.EntryRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) latestImage(c *gin.Context) {
	data, err := s.refresher.LatestImage()
	if errors.Is(err, service.ErrNothingToShow) {
		c.JSON(http.StatusNotFound, errorResponse{Message: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) writeRefreshError(c *gin.Context, err error) {
	s.log.Errorw("refresh failed", "error", err)
	if errors.Is(err, service.ErrNothingToShow) {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func isButton(label string) bool {
	for _, b := range Buttons {
		if b == label {
			return true
		}
	}
	return false
}

// Run serves until ctx is cancelled, then shuts the server down
func (s *Server) Run(ctx context.Context) error {
	if s.addr == "" {
		s.log.Info("listen address is empty, skipping server")
		<-ctx.Done()
		return nil
	}

	server := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("starting server", "address", s.addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
