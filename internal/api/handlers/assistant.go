package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/rivals-companion/internal/services"
)

type AssistantHandler struct {
	assistant     *services.AssistantService
	rivalsService *services.RivalsService
}

func NewAssistantHandler(assistant *services.AssistantService, rivals *services.RivalsService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, rivalsService: rivals}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat always answers 200 with a display-ready reply; degraded replies are
// still replies.
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply := h.assistant.SendMessage(c.Request.Context(), req.Message)
	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"online":  h.assistant.IsEnabled(),
		"history": h.assistant.History(),
	})
}

type compareRequest struct {
	Hero1 string `json:"hero1" binding:"required"`
	Hero2 string `json:"hero2" binding:"required"`
}

func (h *AssistantHandler) Compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hero1 and hero2 are required"})
		return
	}

	hero1, err := h.rivalsService.GetHero(c.Request.Context(), req.Hero1)
	if err != nil {
		upstreamError(c, err)
		return
	}
	hero2, err := h.rivalsService.GetHero(c.Request.Context(), req.Hero2)
	if err != nil {
		upstreamError(c, err)
		return
	}

	comparison := h.assistant.CompareHeroes(c.Request.Context(), *hero1, *hero2)
	c.JSON(http.StatusOK, comparison)
}

type analyzeRequest struct {
	Hero string `json:"hero" binding:"required"`
}

func (h *AssistantHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hero is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": h.assistant.AnalyzeHero(c.Request.Context(), req.Hero),
	})
}

type compositionRequest struct {
	Context string `json:"context"`
}

func (h *AssistantHandler) Composition(c *gin.Context) {
	var req compositionRequest
	_ = c.ShouldBindJSON(&req) // context is optional

	c.JSON(http.StatusOK, gin.H{
		"suggestion": h.assistant.SuggestComposition(c.Request.Context(), req.Context),
	})
}

func (h *AssistantHandler) Suggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": h.assistant.QuickSuggestions()})
}

func (h *AssistantHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.assistant.History()})
}

func (h *AssistantHandler) ClearHistory(c *gin.Context) {
	h.assistant.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
