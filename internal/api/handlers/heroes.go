package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/rivals-companion/internal/services"
)

type HeroHandler struct {
	rivalsService *services.RivalsService
}

func NewHeroHandler(rivals *services.RivalsService) *HeroHandler {
	return &HeroHandler{rivalsService: rivals}
}

func (h *HeroHandler) GetHeroes(c *gin.Context) {
	heroes, err := h.rivalsService.GetHeroes(c.Request.Context())
	if err != nil {
		upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"heroes": heroes,
		"count":  len(heroes),
	})
}

func (h *HeroHandler) GetHero(c *gin.Context) {
	id := c.Param("id")
	if strings.TrimSpace(id) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hero id is required"})
		return
	}

	hero, err := h.rivalsService.GetHero(c.Request.Context(), id)
	if err != nil {
		upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, hero)
}

func (h *HeroHandler) GetPlayerStats(c *gin.Context) {
	username := c.Param("username")
	if strings.TrimSpace(username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	stats, err := h.rivalsService.GetPlayerStats(c.Request.Context(), username)
	if err != nil {
		upstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// upstreamError translates game-data gateway errors so the UI can
// distinguish "no data" from "error" for its retry affordances.
func upstreamError(c *gin.Context, err error) {
	var httpErr *services.HTTPError

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &httpErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "upstream_status": httpErr.StatusCode})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
