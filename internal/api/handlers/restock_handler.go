// internal/api/handlers/restock_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultTransactionLimit = 100

type RestockHandler struct {
	service *service.RestockService
}

func NewRestockHandler(service *service.RestockService) *RestockHandler {
	return &RestockHandler{service: service}
}

func (h *RestockHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "StockEasy restock agent running"})
}

// Preview evaluates a cycle without committing it or paying anyone.
func (h *RestockHandler) Preview(c *gin.Context) {
	report, err := h.service.Preview(c.Request.Context())
	if err != nil && !(errors.Is(err, restock.ErrEmptySnapshot) && report != nil) {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Run triggers a cycle. ?execute_payments=true pays for its decisions.
func (h *RestockHandler) Run(c *gin.Context) {
	execute, _ := strconv.ParseBool(c.DefaultQuery("execute_payments", "false"))

	result, err := h.service.Run(c.Request.Context(), execute)
	if err != nil {
		if errors.Is(err, restock.ErrEmptySnapshot) && result != nil && result.Report != nil {
			c.JSON(http.StatusOK, result)
			return
		}
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RestockHandler) LastReport(c *gin.Context) {
	report, err := h.service.LastReport(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *RestockHandler) CycleState(c *gin.Context) {
	state, err := h.service.CycleState(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *RestockHandler) Transactions(c *gin.Context) {
	limit := defaultTransactionLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}

	txs, err := h.service.Transactions(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "count": len(txs)})
}

func (h *RestockHandler) GetAgentConfig(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveAgentConfig accepts the control panel payload.
func (h *RestockHandler) SaveAgentConfig(c *gin.Context) {
	var cp restock.ControlPanelConfig
	if err := c.ShouldBindJSON(&cp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config payload"})
		return
	}

	settings, err := h.service.SaveControlPanel(c.Request.Context(), cp)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "config": settings})
}

// ReplaceSettings stores a full engine settings document.
func (h *RestockHandler) ReplaceSettings(c *gin.Context) {
	var settings restock.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	saved, err := h.service.SaveSettings(c.Request.Context(), settings)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *RestockHandler) DashboardStats(c *gin.Context) {
	stats, err := h.service.DashboardStats(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
