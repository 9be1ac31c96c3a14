package main

import (
	"os"

	"llmrelay/internal/config"
	"llmrelay/internal/database"
	"llmrelay/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	gin.SetMode(gin.ReleaseMode)
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	if err := database.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	defer database.Close()

	r := router.Setup(database.GetDB())

	port := cfg.ServerPort
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	log.Infof("服务器启动在 http://0.0.0.0:%s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}
