package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/restock/backend-go/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// GetStockouts lists SKUs by projected stockout day. horizon_days=0 or absent uses the configured horizon.
func (h *ForecastHandler) GetStockouts(c *gin.Context) {
	horizon, err := parseIntQuery(c, "horizon_days", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	days, err := h.service.Stockouts(c.Request.Context(), horizon)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to forecast stockouts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}
