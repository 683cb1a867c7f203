package http

import (
	"net/http"
	"time"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	"github.com/Miraines/videotube/internal/adapters/transport/http/middleware"
	"github.com/Miraines/videotube/internal/adapters/transport/ratelimit"
	"github.com/Miraines/videotube/internal/app/user/service"
	"github.com/Miraines/videotube/internal/infra/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the public API under /api/v1 plus /metrics.
func NewRouter(cfg *config.Config, svc service.Service, limiter *ratelimit.PerIP, log *zap.Logger) *gin.Engine {
	h := NewHandler(svc, cfg.UploadDir, cfg.CookieDomain, cfg.IsProduction(), log)

	router := gin.New()
	// ClientIP feeds the limiter, so forwarded headers count only from known proxies.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid trusted proxies, forwarded headers ignored", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimitPerIP(limiter))
	router.Use(cors.New(corsConfig(cfg)))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewAPIResponse(http.StatusNotFound, nil, "Route not found"))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jsonLimit := middleware.BodyLimit(middleware.JSONBodyLimit)
	uploadLimit := middleware.BodyLimit(cfg.MaxUploadSizeMB << 20)
	auth := middleware.RequireAuth(svc)

	v1 := router.Group("/api/v1")
	v1.GET("/healthcheck", h.Healthcheck)

	users := v1.Group("/user")
	users.POST("/register", uploadLimit, h.Register)
	users.POST("/login", jsonLimit, h.Login)
	users.POST("/refresh-token", jsonLimit, h.RefreshToken)
	users.POST("/logout", jsonLimit, auth, h.Logout)
	users.GET("/current-user", auth, h.CurrentUser)

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	// a wildcard cannot be combined with credentials, so echo the origin back
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}
