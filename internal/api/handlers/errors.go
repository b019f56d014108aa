package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/stockeasy/internal/ingest"
	"github.com/andresuchdata/stockeasy/internal/repository"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, restock.ErrCycleBusy):
		return http.StatusConflict
	case errors.Is(err, restock.ErrInvalidConfig), errors.Is(err, ingest.ErrMissingColumn):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
