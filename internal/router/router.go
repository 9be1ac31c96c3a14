package router

import (
	"database/sql"
	"net/http"

	"llmrelay/internal/config"
	"llmrelay/internal/engine"
	"llmrelay/internal/handler"
	"llmrelay/internal/llm"
	"llmrelay/internal/middleware"
	"llmrelay/internal/repository"
	"llmrelay/internal/service"

	"github.com/gin-gonic/gin"
)

func Setup(db *sql.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(corsMiddleware())

	cfg := config.Get()

	repo := repository.NewCallLogRepository(db)
	genService := service.NewGenerationService(engine.New(llm.DefaultFactory), repo, cfg.Providers)
	logService := service.NewCallLogService(repo)

	generateHandler := handler.NewGenerateHandler(genService)
	callLogHandler := handler.NewCallLogHandler(logService)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "llmrelay"})
	})

	api := r.Group("/api")
	{
		api.POST("/generate", generateHandler.Generate)

		logs := api.Group("/logs")
		{
			logs.GET("", callLogHandler.ListCallLogs)
			logs.GET("/tags", callLogHandler.ListTags)
			logs.GET("/:id", callLogHandler.GetCallLog)
			logs.PATCH("/:id", callLogHandler.SetLocked)
			logs.DELETE("/:id", callLogHandler.DeleteCallLog)
			logs.DELETE("", callLogHandler.PurgeCallLogs)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Vary", "Origin")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
