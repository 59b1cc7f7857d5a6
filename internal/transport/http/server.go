package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studygenie/internal/bootstrap"
	"studygenie/internal/transport/http/handler"
	"studygenie/internal/transport/http/middleware"
	"studygenie/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	logger := app.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	router.Use(middleware.RequestID(), middleware.Logger(logger.Named("http")), middleware.Recovery(logger))
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "route not found")
	})

	svc := app.Services
	uploads := handler.NewUploads(cfg.App.UploadDir, cfg.MaxUploadBytes())
	healthHandler := handler.NewHealthHandler(app)
	sourceHandler := handler.NewSourceHandler(svc.Sources, uploads)
	chatHandler := handler.NewChatHandler(svc.Chat, uploads)
	roadmapHandler := handler.NewRoadmapHandler(svc.Roadmaps)
	toolsHandler := handler.NewToolsHandler(svc.Tools)
	statsHandler := handler.NewStatsHandler(svc.Stats)

	router.GET("/healthz", healthHandler.Check)

	api := router.Group("/api")
	if cfg.RateLimit.Enabled {
		window := time.Duration(cfg.RateLimit.APIWindowMinutes) * time.Minute
		api.Use(middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.APIRequests, window)))
	}
	api.Use(middleware.OptionalAuth(cfg.Auth.JWTSecret))
	api.GET("/health", healthHandler.Check)

	sources := api.Group("/sources")
	sources.POST("/upload", sourceHandler.Upload)
	sources.GET("/:sessionId", sourceHandler.Get)

	chat := api.Group("/chat")
	chat.POST("/chat", chatHandler.Chat)
	chat.POST("/message", chatHandler.Tutor)
	chat.POST("/session", chatHandler.Tutor)
	chat.GET("/history/:sessionId", chatHandler.History)

	roadmap := api.Group("/roadmap")
	roadmap.POST("/generate", roadmapHandler.Generate)
	roadmap.GET("/progress/:sessionId", roadmapHandler.Progress)

	tools := api.Group("/tools")
	tools.POST("/generate-quiz", toolsHandler.Quiz)
	tools.POST("/generate-flashcards", toolsHandler.Flashcards)
	tools.POST("/generate-problems", toolsHandler.Problems)
	tools.POST("/generate-rapidfire", toolsHandler.RapidFire)
	tools.POST("/generate-study-plan", toolsHandler.StudyPlan)

	api.POST("/gemini/generate", toolsHandler.StudyMaterial)
	api.GET("/stats/session/:id", statsHandler.Session)

	v1 := api.Group("/v1")
	v1.POST("/ai/chat", chatHandler.V1Chat)

	v2 := api.Group("/v2")
	v2.POST("/chat/basic", chatHandler.StudyChat)

	if svc.Auth != nil {
		authHandler := handler.NewAuthHandler(svc.Auth)
		authLimit := []gin.HandlerFunc{}
		if cfg.RateLimit.Enabled {
			window := time.Duration(cfg.RateLimit.AuthWindowMinutes) * time.Minute
			authLimit = append(authLimit, middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimit.AuthRequests, window)))
		}
		for _, group := range []*gin.RouterGroup{api.Group("/auth"), v1.Group("/auth")} {
			group.POST("/register", append(authLimit, authHandler.Register)...)
			group.POST("/login", append(authLimit, authHandler.Login)...)
			group.GET("/me", middleware.AuthJWT(cfg.Auth.JWTSecret), authHandler.Me)
		}
	}

	return router
}
