package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/matching"
	"github.com/spigell/resume-screener/internal/store"
)

const (
	apiVersion        = "2.0"
	defaultListen     = ":5000"
	defaultUploadsDir = "uploads"
	defaultMaxUpload  = 16 << 20
	multipartOverhead = 1 << 20
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// DefaultCORSOrigins are the dashboard origins allowed when none are configured.
var DefaultCORSOrigins = []string{"http://localhost:8501", "http://127.0.0.1:8501"}

type Config struct {
	Listen         string
	UploadsDir     string
	CORSOrigins    []string
	MaxUploadBytes int64
}

// SetMode switches gin between debug and release mode. gin keeps the mode in
// package state, so call it once at startup before building a Server.
func SetMode(debug bool) {
	if debug {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// Server exposes the store and the matcher over HTTP.
type Server struct {
	cfg     Config
	store   store.Store
	matcher *matching.Matcher
	logger  *zap.Logger
	engine  *gin.Engine
}

func New(cfg Config, st store.Store, matcher *matching.Matcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Listen == "" {
		cfg.Listen = defaultListen
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = defaultUploadsDir
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = DefaultCORSOrigins
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}

	s := &Server{
		cfg:     cfg,
		store:   st,
		matcher: matcher,
		logger:  logger,
	}
	s.engine = s.routes()

	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.Use(requestID())
	r.Use(accessLog(s.logger))
	r.Use(gin.CustomRecovery(recovery(s.logger)))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", s.index)
	r.GET("/health", s.health)
	r.POST("/upload", s.upload)
	r.GET("/candidates", s.candidates)
	r.GET("/candidate/:id", s.candidate)
	r.POST("/match", s.match)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "Not found", nil)
	})

	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}
