package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// ──────────────────────────────────────────────────────────────────
// Bearer Token Authentication Middleware
//
// A run's CSV reports and RunSummary are only as private as config.json's
// auth_token makes them: AuthMiddleware takes that token directly (rather
// than reading an ambient env var, since mirrorscan already centralizes
// per-run settings in the config file) and requires
// Authorization: Bearer <token> on every protected route.
//
// /health and /ws stay open: they're meant to be pollable by a dashboard
// without a token, and leak nothing beyond "a run with this ID exists".
// ──────────────────────────────────────────────────────────────────

// AuthMiddleware returns a Gin middleware that validates bearer tokens
// against token. An empty token disables auth (dev mode).
// WARNING: In GIN_MODE=release, serving with an empty auth_token exposes
// every protected route to the public internet. Set one in prod configs.
func AuthMiddleware(token string) gin.HandlerFunc {
	if token == "" && os.Getenv("GIN_MODE") == "release" {
		log.Println("[SECURITY WARNING] config.auth_token is empty in release mode. " +
			"All protected endpoints are publicly accessible. " +
			"Set auth_token in the run config to enforce authentication.")
	}

	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing Authorization header",
				"hint":  "Use: Authorization: Bearer <auth_token>",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid Authorization header format"})
			c.Abort()
			return
		}

		// Constant-time comparison to prevent timing-based token enumeration.
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
