package api

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/rivals-companion/internal/api/handlers"
	"github.com/codyseavey/rivals-companion/internal/services"
)

func SetupRouter(rivalsService *services.RivalsService, assistantService *services.AssistantService, favoritesService *services.FavoritesService) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:8081", "http://localhost:19006"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	heroHandler := handlers.NewHeroHandler(rivalsService)
	assistantHandler := handlers.NewAssistantHandler(assistantService, rivalsService)
	favoritesHandler := handlers.NewFavoritesHandler(favoritesService)

	api := router.Group("/api")
	{
		heroes := api.Group("/heroes")
		{
			heroes.GET("", heroHandler.GetHeroes)
			heroes.GET("/:id", heroHandler.GetHero)
		}

		api.GET("/players/:username", heroHandler.GetPlayerStats)

		assistant := api.Group("/assistant")
		{
			assistant.POST("/chat", assistantHandler.Chat)
			assistant.POST("/compare", assistantHandler.Compare)
			assistant.POST("/analyze", assistantHandler.Analyze)
			assistant.POST("/composition", assistantHandler.Composition)
			assistant.GET("/suggestions", assistantHandler.Suggestions)
			assistant.GET("/history", assistantHandler.History)
			assistant.DELETE("/history", assistantHandler.ClearHistory)
		}

		favorites := api.Group("/favorites")
		{
			favorites.GET("", favoritesHandler.GetFavorites)
			favorites.POST("", favoritesHandler.SaveFavorite)
			favorites.DELETE("/:id", favoritesHandler.DeleteFavorite)
			favorites.GET("/stats", favoritesHandler.GetStats)
			favorites.GET("/heroes", favoritesHandler.GetFavoriteHeroes)
			favorites.POST("/heroes", favoritesHandler.ToggleFavoriteHero)
			favorites.DELETE("/heroes/:name", favoritesHandler.RemoveFavoriteHero)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
