package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/restock/backend-go/internal/domain"
	"github.com/andresuchdata/restock/backend-go/internal/ingest"
	"github.com/andresuchdata/restock/backend-go/internal/repository"
	"github.com/andresuchdata/restock/backend-go/internal/service"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) List(c *gin.Context) {
	includeDeleted, err := parseBoolQuery(c, "include_deleted", false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	views, err := h.service.List(c.Request.Context(), includeDeleted)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inventory", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": views,
		"total": len(views),
	})
}

func (h *InventoryHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		respondRecordError(c, err, "failed to fetch inventory record")
		return
	}

	c.JSON(http.StatusOK, view)
}

// Upsert stores the JSON body under the SKU from the path.
func (h *InventoryHandler) Upsert(c *gin.Context) {
	sku := c.Param("sku")

	var rec domain.InventoryRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if rec.SKU != "" && rec.SKU != sku {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku in body does not match path", "details": rec.SKU})
		return
	}
	rec.SKU = sku

	view, err := h.service.Upsert(c.Request.Context(), rec)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRecord) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inventory record", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save inventory record", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("sku")); err != nil {
		respondRecordError(c, err, "failed to delete inventory record")
		return
	}

	c.Status(http.StatusNoContent)
}

// Import ingests a multipart "file" upload (CSV or XLSX).
func (h *InventoryHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided", "details": err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload", "details": err.Error()})
		return
	}
	defer f.Close()

	result, err := h.service.Import(c.Request.Context(), fh.Filename, f)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrUnsupportedFormat) || errors.Is(err, ingest.ErrMissingSKUColumn) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "failed to import file", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondRecordError(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "inventory record not found", "details": c.Param("sku")})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
