// internal/api/handlers/ingest_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/gin-gonic/gin"
)

type IngestHandler struct {
	service *service.IngestService
}

func NewIngestHandler(service *service.IngestService) *IngestHandler {
	return &IngestHandler{service: service}
}

// UploadInventory replaces the owner inventory with an uploaded CSV or XLSX
// export sent as the multipart field "file".
func (h *IngestHandler) UploadInventory(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer src.Close()

	n, err := h.service.ImportInventory(c.Request.Context(), file.Filename, src)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "inventory imported", "count": n})
}

// UploadOffers replaces a supplier's catalog. The supplier comes from the
// path, or from each row when the path segment is "all".
func (h *IngestHandler) UploadOffers(c *gin.Context) {
	supplierID := strings.TrimSpace(c.Param("supplier"))
	if strings.EqualFold(supplierID, "all") {
		supplierID = ""
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file"})
		return
	}
	defer src.Close()

	n, err := h.service.ImportOffers(c.Request.Context(), supplierID, file.Filename, src)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "offers imported", "count": n})
}
