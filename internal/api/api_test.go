package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/stockeasy/internal/domain"
	"github.com/andresuchdata/stockeasy/internal/metrics"
	"github.com/andresuchdata/stockeasy/internal/payment"
	"github.com/andresuchdata/stockeasy/internal/repository/memory"
	"github.com/andresuchdata/stockeasy/internal/restock"
	"github.com/andresuchdata/stockeasy/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sup1Addr = "0x1111111111111111111111111111111111111111"

type fixedForecaster map[string]int64

func (f fixedForecaster) Forecast(ctx context.Context, records []domain.InventoryRecord) ([]int64, error) {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = f[r.ProductID]
	}
	return out, nil
}

func newTestRouter(t *testing.T, records ...domain.InventoryRecord) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := func() time.Time { return time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC) }
	inventory := memory.NewInventoryRepository(records...)
	catalog := memory.NewCatalogRepository(domain.SupplierOffer{
		SupplierID: "SUP1", ProductID: "p1", UnitCost: domain.FromUnits(10), AvailableStock: 1000,
	})
	txs := memory.NewTransactionRepository()
	engine := restock.NewEngine(inventory, fixedForecaster{"p1": 100}, catalog, restock.WithClock(now))

	defaults := restock.DefaultSettings()
	defaults.SupplierBudgetSplit = map[string]float64{"SUP1": 1}
	defaults.SupplierAddressMap = map[string]string{"SUP1": sup1Addr}

	recorder := metrics.NewRecorder()
	services := &Services{
		RestockService: service.NewRestockService(service.Deps{
			Engine:       engine,
			Configs:      memory.NewAgentConfigRepository(),
			Cycles:       memory.NewCycleRepository(),
			Transactions: txs,
			Payments:     payment.NewExecutor(payment.DemoTransferer{}, catalog, txs, payment.WithExecutorClock(now)),
			Metrics:      recorder,
			Defaults:     defaults,
			Now:          now,
		}),
		IngestService: service.NewIngestService(inventory, catalog, nil),
		Metrics:       recorder.Handler(),
	}
	return NewRouter(services, []string{"*"})
}

func p1() domain.InventoryRecord {
	return domain.InventoryRecord{ProductID: "p1", Category: "snacks", CurrentStock: 50, AvgDailySales: 5}
}

func do(router *gin.Engine, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPreviewAndRun(t *testing.T) {
	router := newTestRouter(t, p1())

	rec := do(router, http.MethodGet, "/restock-items", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var preview domain.CycleReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.True(t, preview.Preview)
	require.Len(t, preview.Decisions, 1)
	assert.Equal(t, int64(70), preview.Decisions[0].Quantity)

	rec = do(router, http.MethodPost, "/run-restock?execute_payments=true", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.CycleExecuted, result.Report.Status)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, domain.TransactionSent, result.Transactions[0].Status)

	rec = do(router, http.MethodPost, "/run-restock", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.CycleSkipped, result.Report.Status)

	rec = do(router, http.MethodGet, "/transactions?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = do(router, http.MethodGet, "/api/v1/restock/last", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stockeasy_restock_cycles_total{status="EXECUTED"} 1`)
}

func TestRun_EmptySnapshot(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, http.MethodPost, "/run-restock", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"EMPTY"`)
}

func TestLastReport_NotFound(t *testing.T) {
	router := newTestRouter(t, p1())
	rec := do(router, http.MethodGet, "/api/v1/restock/last", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgentConfig(t *testing.T) {
	router := newTestRouter(t, p1())

	payload := `{"monthlyBudget":100000,"bufferStock":3,"minDailyDemand":2,"suppliers":[
		{"id":"SUP1","address":"0x1111111111111111111111111111111111111111","allocation":100,"status":"Allowed"}]}`
	rec := do(router, http.MethodPost, "/agent-config", []byte(payload), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/agent-config", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settings restock.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, int64(100000), settings.MonthlyBudget)
	assert.Equal(t, 3, settings.BufferDays)

	rec = do(router, http.MethodPost, "/agent-config", []byte(`{"monthlyBudget":1,"suppliers":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/agent-config", []byte(`not json`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceSettings_Invalid(t *testing.T) {
	router := newTestRouter(t, p1())
	rec := do(router, http.MethodPut, "/api/v1/restock/settings", []byte(`{"monthly_budget":0}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "monthly_budget must be > 0")
}

func TestDashboardStats(t *testing.T) {
	router := newTestRouter(t, p1())
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/run-restock", nil, "").Code)

	rec := do(router, http.MethodGet, "/api/dashboard/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.StockHealth.Low)
	assert.Equal(t, 1, stats.TodayActivity.ActionsExecuted)
	assert.Len(t, stats.RecentDecisions, 1)
	assert.Contains(t, rec.Body.String(), `"aiStatus"`)
}

func TestUploadInventory(t *testing.T) {
	router := newTestRouter(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "owner.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("product_id,category,current_stock,avg_daily_sales\np1,snacks,50,5\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rec := do(router, http.MethodPost, "/api/v1/inventory/upload", body.Bytes(), w.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = do(router, http.MethodGet, "/restock-items", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product":"p1"`)
}

func TestUploadOffers_MissingFile(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, http.MethodPost, "/api/v1/suppliers/SUP1/offers/upload", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/restock-items", strings.NewReader(""))
	req.Header.Set("Origin", "http://dashboard.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://dashboard.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
