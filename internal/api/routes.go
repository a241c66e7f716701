package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/leanlp/mirrorscan/internal/config"
	"github.com/leanlp/mirrorscan/internal/report"
)

// APIHandler serves a finished run's results: it only ever reads a
// RunSummary and a results directory handed to it after the core
// pipeline completes, per spec.md §5's no-shared-mutable-state rule.
type APIHandler struct {
	summary    report.RunSummary
	resultsDir string
	wsHub      *Hub
}

var categoryFiles = map[string]string{
	"copy":         "copy_trades.csv",
	"reversal":     "reversal_trades.csv",
	"partial-copy": "partial_copy_trades.csv",
}

// SetupRouter builds the gin.Engine serving a completed run.
func SetupRouter(cfg config.Config, summary report.RunSummary, resultsDir string, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		summary:    summary,
		resultsDir: resultsDir,
		wsHub:      wsHub,
	}

	pub := r.Group("/")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/ws", wsHub.Subscribe)
	}

	summaryRate, reportRate := cfg.RateLimits()
	reportLimiter := NewRateLimiter(reportRate, 2)

	protected := r.Group("/")
	protected.Use(AuthMiddleware(cfg.AuthToken))
	{
		protected.GET("/runs/latest", NewRateLimiter(summaryRate, 10).Middleware(), handler.handleLatestRun)
		protected.GET("/reports/:category", reportLimiter.MiddlewareKeyedBy(reportBucketKey), handler.handleReport)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"runId":  h.summary.RunID,
	})
}

func (h *APIHandler) handleLatestRun(c *gin.Context) {
	c.JSON(http.StatusOK, h.summary)
}

// handleReport streams the matching CSV file for one of the three categories.
func (h *APIHandler) handleReport(c *gin.Context) {
	category := c.Param("category")
	filename, ok := categoryFiles[category]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "unknown category",
			"categories": []string{"copy", "reversal", "partial-copy"},
		})
		return
	}

	path := filepath.Join(h.resultsDir, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not yet available for this run"})
		return
	}

	c.FileAttachment(path, filename)
}
