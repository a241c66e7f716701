package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/leanlp/mirrorscan/internal/config"
	"github.com/leanlp/mirrorscan/internal/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleHealth(t *testing.T) {
	summary := report.RunSummary{}
	r := SetupRouter(config.Config{}, summary, t.TempDir(), NewHub())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleReport_UnknownCategory(t *testing.T) {
	r := SetupRouter(config.Config{}, report.RunSummary{}, t.TempDir(), NewHub())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/not-a-category", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleReport_NotYetAvailable(t *testing.T) {
	r := SetupRouter(config.Config{}, report.RunSummary{}, t.TempDir(), NewHub())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/copy", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleReport_StreamsExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "copy_trades.csv"), []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := SetupRouter(config.Config{}, report.RunSummary{}, dir, NewHub())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/copy", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "a,b\n1,2\n" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestAuthMiddleware_BlocksWithoutTokenWhenConfigured(t *testing.T) {
	r := SetupRouter(config.Config{AuthToken: "secret"}, report.RunSummary{}, t.TempDir(), NewHub())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_AllowsWithCorrectToken(t *testing.T) {
	r := SetupRouter(config.Config{AuthToken: "secret"}, report.RunSummary{}, t.TempDir(), NewHub())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/latest", nil)
	req.Header.Set("Authorization", "Bearer secret")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestReportRateLimit_IsPerCategory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"copy_trades.csv", "reversal_trades.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("a,b\n1,2\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Config{ReportRateLimitPerMin: 60}
	r := SetupRouter(cfg, report.RunSummary{}, dir, NewHub())

	// Exhaust the "copy" bucket (burst 2): two requests succeed, the third
	// should be rate-limited.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/reports/copy", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/reports/copy", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("third /reports/copy: status = %d, want 429", w.Code)
	}

	// A different category has its own bucket and is unaffected.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/reports/reversal", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("/reports/reversal: status = %d, want 200", w.Code)
	}
}
