package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/rivals-companion/internal/models"
	"github.com/codyseavey/rivals-companion/internal/services"
)

type FavoritesHandler struct {
	favorites *services.FavoritesService
}

func NewFavoritesHandler(favorites *services.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites}
}

func (h *FavoritesHandler) GetFavorites(c *gin.Context) {
	favorites, err := h.favorites.GetFavorites()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites, "count": len(favorites)})
}

type saveFavoriteRequest struct {
	Content  string                  `json:"content" binding:"required"`
	Category models.FavoriteCategory `json:"category"`
}

func (h *FavoritesHandler) SaveFavorite(c *gin.Context) {
	var req saveFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	favorite, err := h.favorites.SaveFavorite(req.Content, req.Category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, favorite)
}

func (h *FavoritesHandler) DeleteFavorite(c *gin.Context) {
	err := h.favorites.DeleteFavorite(c.Param("id"))
	if errors.Is(err, services.ErrFavoriteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *FavoritesHandler) GetStats(c *gin.Context) {
	stats, err := h.favorites.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *FavoritesHandler) GetFavoriteHeroes(c *gin.Context) {
	heroes, err := h.favorites.GetFavoriteHeroes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"heroes": heroes, "count": len(heroes)})
}

type favoriteHeroRequest struct {
	HeroName string `json:"hero_name" binding:"required"`
}

// ToggleFavoriteHero flips a hero's favorite state and returns the new one.
func (h *FavoritesHandler) ToggleFavoriteHero(c *gin.Context) {
	var req favoriteHeroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hero_name is required"})
		return
	}

	favorite, err := h.favorites.ToggleFavoriteHero(req.HeroName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"hero_name": req.HeroName, "favorite": favorite})
}

func (h *FavoritesHandler) RemoveFavoriteHero(c *gin.Context) {
	name := c.Param("name")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hero name is required"})
		return
	}

	if err := h.favorites.RemoveFavoriteHero(name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
