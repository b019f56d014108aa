// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockeasy/internal/api/handlers"
	"github.com/andresuchdata/stockeasy/internal/api/middleware"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	RestockService *service.RestockService
	IngestService  *service.IngestService
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
}

// NewRouter serves the restock endpoints at the root paths the dashboard
// calls, and the operational endpoints under /api/v1.
func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	if services == nil {
		return router
	}

	if services.Metrics != nil {
		router.GET("/metrics", gin.WrapH(services.Metrics))
	}

	apiGroup := router.Group("/api/v1")

	if services.RestockService != nil {
		h := handlers.NewRestockHandler(services.RestockService)

		router.GET("/", h.Health)
		router.GET("/restock-items", h.Preview)
		router.POST("/run-restock", h.Run)
		router.GET("/transactions", h.Transactions)
		router.GET("/agent-config", h.GetAgentConfig)
		router.POST("/agent-config", h.SaveAgentConfig)
		router.GET("/api/dashboard/stats", h.DashboardStats)

		restockGroup := apiGroup.Group("/restock")
		{
			restockGroup.GET("/preview", h.Preview)
			restockGroup.POST("/run", h.Run)
			restockGroup.GET("/last", h.LastReport)
			restockGroup.GET("/state", h.CycleState)
			restockGroup.GET("/settings", h.GetAgentConfig)
			restockGroup.PUT("/settings", h.ReplaceSettings)
		}
	}

	if services.IngestService != nil {
		h := handlers.NewIngestHandler(services.IngestService)
		apiGroup.POST("/inventory/upload", h.UploadInventory)
		apiGroup.POST("/suppliers/:supplier/offers/upload", h.UploadOffers)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
