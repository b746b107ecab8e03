package web

import (
	"context"
	"net/http"
	"time"

	"docchat/config"
	"docchat/web/handlers"
	"docchat/web/middleware"
	"docchat/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router      *gin.Engine
	workspaces  *services.WorkspaceService
	uploads     *services.UploadService
	rateLimiter *middleware.BrowserRateLimiter
	logger      *zap.Logger
	config      *config.Config
}

func NewServer(workspaces *services.WorkspaceService, logger *zap.Logger, cfg *config.Config) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(middleware.SessionMiddleware())

	// Leave room for the multipart envelope around a file at the ceiling.
	router.MaxMultipartMemory = cfg.MaxUploadBytes + 1<<20

	rateLimiter := middleware.NewBrowserRateLimiter(middleware.RateLimiterConfig{
		QuestionsPerMinute: cfg.RateLimitQuestionsPerMin,
		UploadsPerHour:     cfg.RateLimitUploadsPerHour,
		BurstSize:          cfg.RateLimitBurstSize,
		CleanupInterval:    10 * time.Minute,
	}, logger)

	server := &Server{
		router:      router,
		workspaces:  workspaces,
		uploads:     services.NewUploadService(cfg.MaxUploadBytes, logger),
		rateLimiter: rateLimiter,
		logger:      logger,
		config:      cfg,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	chatHandler := handlers.NewChatHandler(s.workspaces, s.uploads, s.config, s.logger)
	apiHandler := handlers.NewAPIHandler(s.workspaces, s.uploads, s.logger)
	healthHandler := handlers.NewHealthHandler(s.workspaces, s.config.APIBaseURL)

	uploadLimit := middleware.RateLimitMiddleware(s.rateLimiter, middleware.LimitUpload)
	questionLimit := middleware.RateLimitMiddleware(s.rateLimiter, middleware.LimitQuestion)
	formUploadLimit := middleware.FormRateLimitMiddleware(s.rateLimiter, middleware.LimitUpload, chatHandler.RateLimited)
	formQuestionLimit := middleware.FormRateLimitMiddleware(s.rateLimiter, middleware.LimitQuestion, chatHandler.RateLimited)

	// Web routes
	s.router.GET("/", chatHandler.Index)
	s.router.POST("/upload", formUploadLimit, chatHandler.Upload)
	s.router.POST("/ask", formQuestionLimit, chatHandler.Ask)
	s.router.POST("/new", chatHandler.NewDocument)

	// JSON API
	api := s.router.Group("/api")
	api.GET("/state", apiHandler.State)
	api.POST("/upload", uploadLimit, apiHandler.Upload)
	api.POST("/ask", questionLimit, apiHandler.Ask)
	api.POST("/new", apiHandler.NewDocument)

	s.router.GET("/healthz", healthHandler.Check)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.rateLimiter.Stop()
		return err
	}

	s.logger.Info("Shutting down web server")
	s.rateLimiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases background resources when Start was never called.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}
