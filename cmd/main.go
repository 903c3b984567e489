package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"split-bill/internal/config"
	"split-bill/internal/controllers"
	"split-bill/internal/metrics"
	"split-bill/internal/middleware"
	"split-bill/internal/routes"
	"split-bill/internal/service"
	"split-bill/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	db, err := config.InitDB(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	svc := service.New(db, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", metrics.Handler())
	r.POST("/login", controllers.LoginHandler(db, cfg.JWTSecret))
	r.POST("/register", controllers.RegisterHandler(db))

	authorized := r.Group("/")
	authorized.Use(middleware.AuthMiddleware(cfg.JWTSecret, db, logger))
	routes.SetupRoutes(authorized, svc, db, logger)

	logger.Info("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("error starting server", "error", err)
		os.Exit(1)
	}
}
