package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event-board.backend/internal/config"
	"event-board.backend/internal/interfaces/http/handlers"
	"event-board.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler   *handlers.AuthHandler
	healthHandler *handlers.HealthHandler
	authenticate  gin.HandlerFunc
	rateLimit     gin.HandlerFunc
	metrics       http.Handler
}

func newRouter(cfg *config.Config, d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORS))

	registerHealthRoute(r, d)
	registerAPIV1Routes(r, d)
	return r
}

func registerHealthRoute(r *gin.Engine, d routeDeps) {
	r.GET("/health", d.healthHandler.Health)
	if d.metrics != nil {
		r.GET("/metrics", gin.WrapH(d.metrics))
	}
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/email", d.rateLimit, d.authHandler.RequestSignInLink)
			auth.POST("/token", d.authHandler.ConsumeToken)

			// identity is optional for logout and required for the rest
			session := auth.Group("", d.authenticate)
			session.POST("/logout", d.authHandler.Logout)
			session.POST("/logout-all", middleware.RequireAuth(), d.authHandler.LogoutAll)
			session.GET("/me", middleware.RequireAuth(), d.authHandler.GetMe)
		}
	}
}
