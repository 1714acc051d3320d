package routes

import (
	"github.com/gin-gonic/gin"

	"products-api/internal/config"
	"products-api/internal/handlers"
	"products-api/internal/middleware"
)

// RegisterRoutes cuelga todos los endpoints. Las escrituras van detrás
// del chequeo de API key; las lecturas quedan abiertas.
func RegisterRoutes(router *gin.Engine, store handlers.ProductStore, cfg *config.Config) {
	h := handlers.NewProductHandler(store, cfg.IsProduction())

	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/v1")
	{
		products := v1.Group("/products")
		products.GET("", h.ListProducts)
		products.GET("/search", h.SearchProducts)
		products.GET("/stats", h.GetStats)
		products.GET("/:id", h.GetProduct)

		protected := products.Group("")
		protected.Use(middleware.APIKeyAuth(cfg.APIKey))
		{
			protected.POST("", h.CreateProduct)
			protected.PUT("/:id", h.UpdateProduct)
			protected.DELETE("/:id", h.DeleteProduct)
		}
	}
}
