package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"products-api/internal/config"
	"products-api/internal/database"
	"products-api/internal/middleware"
	"products-api/internal/repository"
	"products-api/internal/routes"
)

func main() {
	cfg := config.LoadConfig()
	client := database.Connect(cfg.MongoURI)
	db := client.Database(cfg.MongoDB)

	repo := repository.NewProductRepository(db.Collection("products"))
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		log.Println("⚠️ Could not create indexes:", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), middleware.Recovery(), middleware.RequestID())
	routes.RegisterRoutes(router, repo, cfg)

	log.Println("🚀 Server running on port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("❌ Server stopped:", err)
	}
}
