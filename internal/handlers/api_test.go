package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/models"
)

type stubSchemas struct{}

func (stubSchemas) Schemas() []models.ToolSchema {
	return []models.ToolSchema{
		{Name: "fetch_quarterly_data", Description: "Quarterly statements"},
		{Name: "assess_financial_health", Description: "Pillar scoring"},
	}
}

type stubProviders struct{ configured bool }

func (s stubProviders) Configured() bool { return s.configured }

func newAPIHandler(configured bool) *APIHandler {
	return NewAPIHandler(stubSchemas{}, stubProviders{configured: configured}, &stubCacheAdmin{}, arbor.NewLogger())
}

func TestHealthHandler(t *testing.T) {
	handler := newAPIHandler(true)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
	if resp["provider_configured"] != true {
		t.Errorf("provider_configured = %v, want true", resp["provider_configured"])
	}
	if _, ok := resp["cache"]; !ok {
		t.Error("missing cache stats")
	}
}

func TestToolsHandler(t *testing.T) {
	handler := newAPIHandler(false)

	req := httptest.NewRequest("GET", "/api/tools", nil)
	rec := httptest.NewRecorder()

	handler.ToolsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count int                `json:"count"`
		Tools []models.ToolSchema `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Tools) != 2 {
		t.Errorf("count = %d, tools = %d", resp.Count, len(resp.Tools))
	}
}

func TestNotFoundHandler(t *testing.T) {
	handler := newAPIHandler(false)

	req := httptest.NewRequest("GET", "/api/nonsense", nil)
	rec := httptest.NewRecorder()

	handler.NotFoundHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
