package handler

import (
	"time"

	"go-gin-event-booking/internal/middleware"
	"go-gin-event-booking/internal/model"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	JWTSecret string
	// 空值表示允許所有來源
	AllowedOrigins []string
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// NewRouter 組合所有路由：/api/v1 之下查詢活動公開，其餘需要 token
func NewRouter(cfg RouterConfig, events *EventHandler, bookings *BookingHandler, health *HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors.New(corsConfig(cfg.AllowedOrigins)), middleware.RequestID(), middleware.AccessLog())

	r.GET("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api/v1")
	authed := public.Group("", middleware.JWTAuth(cfg.JWTSecret))
	admin := authed.Group("", middleware.RequireRole(model.RoleAdmin))

	events.RegisterRoutes(public, admin)
	bookings.RegisterRoutes(authed)

	return r
}
