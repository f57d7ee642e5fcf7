package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aestimo/internal/marketdata"
)

type stubCacheAdmin struct {
	stats   marketdata.CacheStats
	cleared int
}

func (s *stubCacheAdmin) CacheStats() marketdata.CacheStats {
	return s.stats
}

func (s *stubCacheAdmin) ClearCache() int {
	return s.cleared
}

func TestCacheStatsHandler(t *testing.T) {
	admin := &stubCacheAdmin{stats: marketdata.CacheStats{
		Entries:  3,
		Capacity: 1000,
		Hits:     12,
		Misses:   5,
	}}
	handler := NewCacheHandler(admin, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/cache/stats", nil)
	rec := httptest.NewRecorder()

	handler.StatsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats marketdata.CacheStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.Entries != 3 || stats.Hits != 12 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheClearHandler(t *testing.T) {
	admin := &stubCacheAdmin{cleared: 7}
	handler := NewCacheHandler(admin, arbor.NewLogger())

	req := httptest.NewRequest("POST", "/api/cache/clear", nil)
	rec := httptest.NewRecorder()

	handler.ClearHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("status = %q", resp["status"])
	}

	// Clearing over GET is rejected
	req = httptest.NewRequest("GET", "/api/cache/clear", nil)
	rec = httptest.NewRecorder()
	handler.ClearHandler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
