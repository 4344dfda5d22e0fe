package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alkime/fictionbot/internal/config"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

const exportsPrefix = "/exports"

// setupSecurityMiddleware applies the response hardening headers. HSTS is
// only sent in production, where the bot runs behind TLS.
func setupSecurityMiddleware(router *gin.Engine, cfg *config.Config, logger *slog.Logger) {
	production := cfg.Env == config.EnvProduction

	stsSeconds := int64(0)
	if production {
		stsSeconds = int64(cfg.HSTSMaxAge)
	}

	//nolint:exhaustruct // Host and proxy checks are left to the platform
	router.Use(secure.New(secure.Config{
		STSSeconds:            stsSeconds,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: config.BuildCSP(cfg.CSPMode),
	}))

	logger.Debug("Configured security middleware",
		"hsts_enabled", production,
		"csp_mode", cfg.CSPMode,
	)
}

// setupExports serves manuscripts from dir under /exports to requests that
// carry the configured bearer token. Without a token or dir nothing is served
// and those paths fall through to 404.
func setupExports(router *gin.Engine, token, dir string, logger *slog.Logger) {
	if token == "" || dir == "" {
		logger.Debug("Exports endpoint disabled")
		return
	}

	serve := static.Serve(exportsPrefix, static.LocalFile(dir, false))
	router.Use(func(c *gin.Context) {
		path := c.Request.URL.Path
		if path != exportsPrefix && !strings.HasPrefix(path, exportsPrefix+"/") {
			c.Next()
			return
		}

		if !bearerMatches(c.GetHeader("Authorization"), token) {
			c.Header("WWW-Authenticate", `Bearer realm="exports"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Manuscripts must not linger in shared caches.
		c.Header("Cache-Control", "no-store")
		serve(c)
	})

	logger.Info("Exports endpoint enabled", "dir", dir)
}

func bearerMatches(header, token string) bool {
	got, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) == 1
}
