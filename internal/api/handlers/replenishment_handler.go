package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/export"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/service"
)

type ReplenishmentHandler struct {
	service  *service.ReplenishmentService
	defaults domain.PlanPolicy
}

func NewReplenishmentHandler(service *service.ReplenishmentService, defaults domain.PlanPolicy) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: service, defaults: defaults}
}

func (h *ReplenishmentHandler) GetPlan(c *gin.Context) {
	policy, err := parsePolicy(c, h.defaults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid policy", "details": err.Error()})
		return
	}

	plan, err := h.service.Plan(c.Request.Context(), policy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build replenishment plan", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"policy":  policy,
		"summary": replenishment.Summarize(plan),
		"items":   plan,
	})
}

// Export streams the procurement sheet as a file download.
func (h *ReplenishmentHandler) Export(c *gin.Context) {
	policy, format, ok := h.parseExportParams(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), policy, format, &buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export plan", "details": err.Error()})
		return
	}

	filename := fmt.Sprintf("procurement_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Publish uploads the procurement sheet to object storage.
func (h *ReplenishmentHandler) Publish(c *gin.Context) {
	policy, format, ok := h.parseExportParams(c)
	if !ok {
		return
	}

	published, err := h.service.Publish(c.Request.Context(), policy, format)
	if err != nil {
		if errors.Is(err, service.ErrStorageNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export storage unavailable", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish export", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, published)
}

func (h *ReplenishmentHandler) parseExportParams(c *gin.Context) (domain.PlanPolicy, export.Format, bool) {
	policy, err := parsePolicy(c, h.defaults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid policy", "details": err.Error()})
		return policy, "", false
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export format", "details": err.Error()})
		return policy, "", false
	}

	return policy, format, true
}
