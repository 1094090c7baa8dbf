package main

import (
	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/middleware"
)

type routerOptions struct {
	logger  *logging.Logger
	limiter *middleware.RateLimiter
	auth    bool
}

func setupRouter(api *API, opts routerOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(opts.logger))

	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", api.healthCheck)
		v1.GET("/health/db", api.databaseHealth)

		clips := v1.Group("/clip")
		if opts.auth {
			clips.Use(middleware.JWTAuth())
		}
		if opts.limiter != nil {
			clips.Use(middleware.RateLimit(opts.limiter))
		}
		clips.POST("", api.createClip)
		clips.GET("/download/:clip_id", api.downloadClip)
	}

	return router
}
