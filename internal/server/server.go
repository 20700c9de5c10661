// Package server exposes the attendance service over http.
package server

import (
	"attendtrack-backend/internal/attendance"
	"attendtrack-backend/internal/components/telemetry"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Config struct {
	// AllowOrigins are the origins allowed by CORS, empty or "*" allows all.
	AllowOrigins []string `json:"allow_origins"`
}

func corsConfig(config Config) cors.Config {
	result := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(config.AllowOrigins) == 0 || slices.Contains(config.AllowOrigins, "*") {
		result.AllowAllOrigins = true
		return result
	}
	result.AllowOrigins = config.AllowOrigins
	result.AllowCredentials = true
	return result
}

// NewRouter creates the http handler of the api.
func NewRouter(svc *attendance.Service, tel telemetry.API, config Config) *gin.Engine {
	tel = telemetry.NewScopedAPI("server", tel)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestReporter(tel))
	_ = r.SetTrustedProxies(nil)
	r.Use(cors.New(corsConfig(config)))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	RegisterRoutes(r, svc, tel)

	return r
}

func requestReporter(tel telemetry.API) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		tel.ReportDebug(
			"request",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).String(),
		)
	}
}
