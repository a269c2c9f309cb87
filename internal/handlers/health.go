package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

type HealthHandler struct {
	portfolio *services.PortfolioService
}

func NewHealthHandler(portfolio *services.PortfolioService) *HealthHandler {
	return &HealthHandler{portfolio: portfolio}
}

// Health godoc
// @Summary     Health check
// @Description Reports which storage backend serves the API
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	backend := h.portfolio.Backend()
	response := models.HealthResponse{
		Status: "ok",
		Driver: backend.Driver,
	}

	if !backend.Connected() {
		response.Message = "Using file-based storage"
		response.Database = "not connected"
		c.JSON(http.StatusOK, response)
		return
	}

	response.Message = "Database connected"
	response.Database = "connected"
	response.ImageStorage = backend.ImageStorage

	count, err := h.portfolio.CountImages(c.Request.Context())
	if err != nil {
		log.Printf("Warning: failed to count images: %v", err)
	} else {
		response.ImageCount = &count
	}
	c.JSON(http.StatusOK, response)
}
